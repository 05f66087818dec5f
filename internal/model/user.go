// Package model defines domain entities for the application.
package model

import "time"

// User represents an account that owns credits and generated icons.
// Credits are only ever mutated through the repository's conditional
// decrement (generation) and increment (checkout top-up).
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}
