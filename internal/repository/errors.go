// Package repository implements the persistence layer on MySQL: the
// catalog and user tables, the durable seat inventory store and the
// order ledger.  Sentinel errors defined here let higher layers
// distinguish failure scenarios without string matching.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update cannot proceed
// because of conflicting state, such as a duplicate unique key.
var ErrConflict = errors.New("conflict")
