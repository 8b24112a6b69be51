package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tag is a per-owner label. Name keeps the casing it was created with;
// lookups compare TagKey values so "Groceries" and "groceries" are one tag.
type Tag struct {
	Record
	UserID string `json:"-"`
	Name   string `json:"name"`
}

// Key returns the case-insensitive identity of the tag name.
func (t *Tag) Key() string {
	return TagKey(t.Name)
}

// TagKey folds a tag name for case-insensitive comparison.
// "Café" and "CAFÉ" fold to the same key whether composed or decomposed.
func TagKey(name string) string {
	return Fold(strings.TrimSpace(name))
}

// Fold returns the Unicode case folding of the NFC form of s.
func Fold(s string) string {
	// A Caser carries state and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(s))
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// TagIdentity selects a tag by ID or by name. ID wins when both are set.
type TagIdentity struct {
	ID   string
	Name string
}

// IsZero reports whether neither selector is set.
func (ti TagIdentity) IsZero() bool {
	return ti.ID == "" && strings.TrimSpace(ti.Name) == ""
}

// Link attaches one tag to one transaction. The pair is unique.
type Link struct {
	TagID         string    `json:"tag_id"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}
