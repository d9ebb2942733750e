package models

import "github.com/google/uuid"

type User struct {
	ID       uuid.UUID
	UserName string
	Email    string
	PassHash string
}

// UserClaim is a raw claim tuple as stored; the check-stamp is computed
// when the sign-in snapshot is taken.
type UserClaim struct {
	ClaimType  string
	ClaimValue string
}
