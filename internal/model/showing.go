package model

import "time"

// Showing represents a scheduled screening of a movie in a particular
// hall.  Once scheduled a showing is immutable as far as the booking
// engine is concerned; seat records and orders reference it by ID.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – movie being screened.
//  HallID    – hall where the screening takes place.
//  StartsAt  – when the screening begins.
//  EndsAt    – when the screening ends (after StartsAt).
//  PriceCents – ticket price in cents for this showing.
//  CreatedAt – creation timestamp.
type Showing struct {
	ID         uint64    `json:"id"`
	MovieID    uint64    `json:"movie_id"`
	HallID     uint64    `json:"hall_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents uint32    `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}
