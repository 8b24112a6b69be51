package query

import (
	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
)

// Result is one page of a fetch plus aggregates over the whole filtered set.
type Result struct {
	// Count and TotalAmount ignore paging.
	Count        int
	TotalAmount  decimal.Decimal
	Transactions []*domain.Transaction
	Page         int
	Limit        int
}

// Empty reports whether nothing matched the filter at all.
func (r *Result) Empty() bool {
	return r.Count == 0
}

// PastEnd reports whether matches exist but the requested page holds none of them.
func (r *Result) PastEnd() bool {
	return r.Count > 0 && len(r.Transactions) == 0
}

// Found reports whether the caller should treat the fetch as successful:
// anything on the page, or an empty page after the first.
func (r *Result) Found() bool {
	return len(r.Transactions) > 0 || r.Page > FirstPage
}

// RoundedTotal is TotalAmount rounded half away from zero to cents.
func (r *Result) RoundedTotal() decimal.Decimal {
	return r.TotalAmount.Round(2)
}
