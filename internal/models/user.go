package models

import "github.com/google/uuid"

// User is the public profile returned from register/login.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
}

// Credential pairs a user id with its encoded password hash.
// The hash string is self-describing (algorithm, cost parameters, salt,
// digest) and is only ever interpreted by the password hasher.
type Credential struct {
	UserID       uuid.UUID
	PasswordHash string
}
