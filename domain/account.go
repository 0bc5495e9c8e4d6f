package domain

import "time"

// Account represents a safenode account as seen by the identity core.
// The full account document carries vault and billing fields owned by other
// services; only the fields the SSO and session paths read or write are
// modeled here.
type Account struct {
	ID            string     `bson:"_id,omitempty"`
	Email         string     `bson:"email"`
	DisplayName   string     `bson:"display_name,omitempty"`
	PasswordHash  string     `bson:"password_hash"`
	EmailVerified bool       `bson:"email_verified"`
	TokenVersion  int64      `bson:"token_version"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
	LastLoginAt   *time.Time `bson:"last_login_at,omitempty"`
}
