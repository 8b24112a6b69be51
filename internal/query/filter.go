// Package query implements transaction fetching: filter normalisation, tag
// set algebra, date defaults, and the aggregate-before-slice fetch pipeline.
package query

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/yabaapp/yaba-server/internal/domain"
	"github.com/yabaapp/yaba-server/internal/errors"
)

// Default paging.
const (
	DefaultLimit = 20
	FirstPage    = 0
)

// Epoch is the lower bound used when no from date is given.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Filter is a fetch request as received from a caller. Zero values mean
// "use the default": match-all, date sort with its natural order, first page.
type Filter struct {
	TagNames      []string
	MatchAllTags  *bool
	FromDate      *time.Time
	ToDate        *time.Time
	Description   string
	SortAttribute string
	SortOrder     string
	Limit         int
	Page          int
}

// Limits bounds page sizes.
type Limits struct {
	Default int
	Max     int
}

// Plan is a validated Filter with every default applied except the date
// range, which depends on the owner's data.
type Plan struct {
	TagNames    []string
	MatchAll    bool
	From        *time.Time
	To          *time.Time
	Description string
	Sort        domain.SortAttribute
	Order       domain.SortOrder
	Limit       int
	Page        int
}

// Offset returns the number of rows skipped before the current page.
func (p Plan) Offset() int {
	return p.Limit * p.Page
}

// Normalize validates f and fills in defaults. Bad sort values fail with an
// invalid-filter error; bad paging fails with a validation error.
func Normalize(f Filter, limits Limits) (Plan, error) {
	if limits.Default <= 0 {
		limits.Default = DefaultLimit
	}

	attr, err := domain.ParseSortAttribute(strings.TrimSpace(f.SortAttribute))
	if err != nil {
		return Plan{}, errors.InvalidFilter(err.Error())
	}
	order, err := domain.ParseSortOrder(strings.TrimSpace(f.SortOrder), attr)
	if err != nil {
		return Plan{}, errors.InvalidFilter(err.Error())
	}

	plan := Plan{
		TagNames:    dedupeNames(f.TagNames),
		MatchAll:    true,
		From:        f.FromDate,
		To:          f.ToDate,
		Description: strings.TrimSpace(f.Description),
		Sort:        attr,
		Order:       order,
		Limit:       f.Limit,
		Page:        f.Page,
	}
	if f.MatchAllTags != nil {
		plan.MatchAll = *f.MatchAllTags
	}

	fieldErrs := map[string]string{}
	switch {
	case plan.Limit == 0:
		plan.Limit = limits.Default
	case plan.Limit < 0:
		fieldErrs["limit"] = "must be greater than 0"
	case limits.Max > 0 && plan.Limit > limits.Max:
		fieldErrs["limit"] = "must be less than or equal to " + strconv.Itoa(limits.Max)
	}
	if plan.Page < 0 {
		fieldErrs["page"] = "must be greater than or equal to 0"
	}
	if slices.ContainsFunc(f.TagNames, blank) {
		fieldErrs["tag_names"] = "must not contain blank names"
	}
	if len(fieldErrs) > 0 {
		return Plan{}, errors.ValidationWithDetails("validation failed", fieldErrs)
	}

	if plan.From != nil && plan.To != nil && plan.From.After(*plan.To) {
		return Plan{}, errors.InvalidFilter("from_date must not be after to_date")
	}

	return plan, nil
}

// DateRange resolves the inclusive date bounds. Without an explicit upper
// bound it is the owner's latest transaction date plus one year, so
// future-dated entries are included, or now when the owner has none.
func (p Plan) DateRange(latest time.Time, hasAny bool, now time.Time) (from, to time.Time) {
	from = Epoch
	if p.From != nil {
		from = p.From.UTC()
	}
	switch {
	case p.To != nil:
		to = p.To.UTC()
	case hasAny:
		to = latest.UTC().AddDate(1, 0, 0)
	default:
		to = now.UTC()
	}
	return from, to
}

// dedupeNames trims names and keeps the first spelling of each
// case-insensitive name. Blank names are rejected by Normalize first.
func dedupeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := domain.TagKey(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func blank(name string) bool {
	return strings.TrimSpace(name) == ""
}
