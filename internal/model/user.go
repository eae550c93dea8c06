package model

import "time"

// User is the acting voter. Email is the identity votes are keyed on.
type User struct {
	Email    string `json:"email"      cbor:"email"`
	LoggedIn bool   `json:"isLoggedIn" cbor:"logged_in"`
}

// Login providers recorded on Voter.
const (
	ProviderEmail  = "email"
	ProviderGitHub = "github"
)

// Voter is the server's record of everyone who has logged in.
type Voter struct {
	Email     string    `json:"email"     db:"email"`
	Provider  string    `json:"provider"  db:"provider"`
	Login     string    `json:"login"     db:"login"` // GitHub username, empty for email logins
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	LastSeen  time.Time `json:"lastSeen"  db:"last_seen"`
}
