package domain

import "strings"

// User owns every tag and transaction. The core treats it as an opaque ID.
type User struct {
	Record
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// NormalizeEmail lower-cases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
