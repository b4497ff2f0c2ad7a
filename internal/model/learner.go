package model

import "time"

// Learner is a registered exam-prep user. Account lifecycle and token
// issuance live in the external auth collaborator; this model exists for
// foreign keys, admin reporting, and the seed CLI.
type Learner struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
