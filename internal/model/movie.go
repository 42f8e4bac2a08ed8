package model

import "time"

// Movie describes a film in the catalog.  Movies belong to zero or
// more categories via the movie_categories join table.
//
// Fields:
//  ID         – primary key identifier.
//  Title      – movie title.
//  DurationMin – running time in minutes.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Movie struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	DurationMin uint32    `json:"duration_min"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category is a movie genre label.
type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
