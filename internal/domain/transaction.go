package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a dated, signed monetary entry. Negative values are expenses.
type Transaction struct {
	Record
	UserID      string          `json:"-"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Date        time.Time       `json:"date"`
	Tags        []*Tag          `json:"tags"`

	// Seq orders rows created within the same clock tick.
	Seq int64 `json:"-"`
}

// SortTags orders the attached tags by name, case-insensitively.
func (t *Transaction) SortTags() {
	slices.SortFunc(t.Tags, func(a, b *Tag) int {
		if c := strings.Compare(a.Key(), b.Key()); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// HasTag reports whether a tag with the given name (any casing) is attached.
func (t *Transaction) HasTag(name string) bool {
	key := TagKey(name)
	for _, tag := range t.Tags {
		if tag.Key() == key {
			return true
		}
	}
	return false
}

// TagNames returns the attached tag names in their current order.
func (t *Transaction) TagNames() []string {
	names := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		names[i] = tag.Name
	}
	return names
}
