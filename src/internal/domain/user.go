package domain

import "time"

type User struct {
	ID       string
	Username string
	// PasswordHash is the lowercase hex MD5 of the password, the form
	// KOReader sends in its x-auth-key header.
	PasswordHash string
	CreatedAt    time.Time
	LastSeen     time.Time
}
