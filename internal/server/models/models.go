// Package models defines the server-side persistence records that have no
// client-facing counterpart: stored sessions and user profiles.
package models

import "time"

// Session is a server-stored session row. Only the SHA-256 hash of the
// bearer token is persisted; the token itself never touches the database.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Profile is the extended user profile, associated one-to-one with an
// identity and consumed as plain CRUD.
type Profile struct {
	UserID           string            `json:"userId"`
	Bio              string            `json:"bio,omitempty"`
	Location         string            `json:"location,omitempty"`
	WebsiteURL       string            `json:"website,omitempty"`
	GithubUsername   string            `json:"github,omitempty"`
	TwitterUsername  string            `json:"twitter,omitempty"`
	LinkedinUsername string            `json:"linkedin,omitempty"`
	Preferences      map[string]string `json:"preferences,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
