package models

import "time"

// User is a blog user keyed by the identity-provider id. Email changes are
// staged in PendingEmail until the verification token is redeemed.
type User struct {
	ID                         string     `bson:"_id" json:"id"`
	DisplayName                string     `bson:"displayName,omitempty" json:"displayName"`
	Email                      string     `bson:"email,omitempty" json:"email"`
	PendingEmail               string     `bson:"pendingEmail,omitempty" json:"pendingEmail,omitempty"`
	EmailVerificationToken     string     `bson:"emailVerificationToken,omitempty" json:"-"`
	EmailVerificationExpiresAt *time.Time `bson:"emailVerificationExpiresAt,omitempty" json:"-"`
	CreatedAt                  time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt                  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// PendingVerification is the staged state written by a profile update.
type PendingVerification struct {
	DisplayName string
	Email       string
	Token       string
	ExpiresAt   time.Time
}
