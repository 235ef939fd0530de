// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the long-lived identity record. UserName starts out empty and is
// assigned on the first session issuance; once set it is unique and never
// cleared.
type User struct {
	ID             string
	UserName       string
	Email          string
	EmailConfirmed bool
	Name           string
	PasswordHash   string

	// Recovery and confirmation tokens; empty when no flow is pending.
	RecoveryToken     string
	RecoveryExpiresAt time.Time
	ConfirmToken      string

	CreatedAt time.Time
}

// UserLogin links a user to an external identity-provider account.
type UserLogin struct {
	Issuer string
	UID    string
	UserID string
}
