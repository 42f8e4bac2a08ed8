package model

import "time"

// Cinema represents a movie theatre venue.  A cinema contains multiple
// halls.  This struct corresponds to a row in the `cinemas` table.
type Cinema struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
