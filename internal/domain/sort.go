package domain

import "fmt"

// SortAttribute names the column a transaction listing is ordered by.
type SortAttribute string

// Sortable attributes.
const (
	SortByDescription SortAttribute = "description"
	SortByValue       SortAttribute = "value"
	SortByDate        SortAttribute = "date"
)

// SortOrder is the direction of a listing.
type SortOrder string

// Sort directions.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortAttribute validates a sort attribute. Empty means date.
func ParseSortAttribute(s string) (SortAttribute, error) {
	switch SortAttribute(s) {
	case "":
		return SortByDate, nil
	case SortByDescription, SortByValue, SortByDate:
		return SortAttribute(s), nil
	default:
		return "", fmt.Errorf("invalid sort attribute %q (must be description, value, or date)", s)
	}
}

// ParseSortOrder validates a sort order. Empty falls back to the attribute's default.
func ParseSortOrder(s string, attr SortAttribute) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return attr.DefaultOrder(), nil
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("invalid sort order %q (must be asc or desc)", s)
	}
}

// DefaultOrder is ascending for descriptions and descending for values and dates.
func (a SortAttribute) DefaultOrder() SortOrder {
	if a == SortByDescription {
		return SortAsc
	}
	return SortDesc
}
