// Package id generates prefixed identifiers for Yaba entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. An ID reads as "<prefix>-<nanoid>", e.g. "txn-V1StGXR8_Z5jdHi6B-myT".
const (
	PrefixUser        = "user"
	PrefixTransaction = "txn"
	PrefixTag         = "tag"
	PrefixToken       = "token"
)

// Generate creates a prefixed NanoID (21 URL-safe characters after the hyphen).
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// Transaction returns a new transaction ID.
func Transaction() (string, error) { return Generate(PrefixTransaction) }

// Tag returns a new tag ID.
func Tag() (string, error) { return Generate(PrefixTag) }

// User returns a new user ID.
func User() (string, error) { return Generate(PrefixUser) }
