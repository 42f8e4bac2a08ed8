package model

import (
	"fmt"
	"time"
)

// Hall represents an individual screening hall within a cinema.  The
// seating layout is a simple grid of SeatRows rows by SeatCols columns;
// the catalog derives the valid seat-label universe for a showing from
// this grid.
//
// Fields:
//  ID        – primary key identifier.
//  CinemaID  – cinema the hall belongs to.
//  Name      – unique hall name per cinema.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  IsActive  – whether the hall is active.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Hall struct {
	ID        uint64    `json:"id"`
	CinemaID  uint64    `json:"cinema_id"`
	Name      string    `json:"name"`
	SeatRows  uint32    `json:"seat_rows"`
	SeatCols  uint32    `json:"seat_cols"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SeatLabels expands the hall's grid into the full list of seat labels,
// row-major: "1A", "1B", ..., "2A".  Columns beyond 26 wrap into
// double letters ("AA", "AB", ...), which no real hall reaches.
func (h *Hall) SeatLabels() []string {
	labels := make([]string, 0, h.SeatRows*h.SeatCols)
	for row := uint32(1); row <= h.SeatRows; row++ {
		for col := uint32(0); col < h.SeatCols; col++ {
			labels = append(labels, fmt.Sprintf("%d%s", row, columnLetters(col)))
		}
	}
	return labels
}

// columnLetters converts a zero-based column index into spreadsheet
// style letters: 0 -> "A", 25 -> "Z", 26 -> "AA".
func columnLetters(col uint32) string {
	s := ""
	n := col
	for {
		s = string(rune('A'+n%26)) + s
		if n < 26 {
			break
		}
		n = n/26 - 1
	}
	return s
}
