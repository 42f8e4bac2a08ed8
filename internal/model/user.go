package model

import "time"

// User is an account that can authenticate and place orders.  Only
// the bcrypt password hash is stored; bcrypt embeds a per-hash salt,
// so rehashing a changed password automatically rotates the salt.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique login name, stored lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  Role         – role name granting the user's permissions.
//  IsActive     – whether the account may log in.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role groups a named set of permissions.
type Role struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
