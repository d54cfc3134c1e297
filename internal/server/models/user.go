// Package models defines server-side data models persisted in the database.
package models

// User is a read-only view of a host identity record. LoginLink never
// creates or deletes users; it only annotates them with one-time login
// token state.
type User struct {
	ID    string
	Login string
	Email string
	// ManageUsers marks accounts with the account-management capability,
	// which allows issuing tokens for any target user.
	ManageUsers bool
}

// Actor is the principal behind a request. A nil *Actor means no identity
// was established at all (unauthenticated).
type Actor struct {
	UserID      string
	ManageUsers bool
}

// Session is the authentication artifact produced by a successful
// redemption: a signed session token plus the landing location the caller
// should be redirected to.
type Session struct {
	UserID       string
	Token        string
	RedirectPath string
}
