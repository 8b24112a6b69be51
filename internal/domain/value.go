package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseValue parses a monetary amount. It accepts an optional sign, an
// optional leading "$" on either side of the sign, and thousands separators:
// "-12.3", "+500", "1,234.56", "$-20.30", "-$20.30".
func ParseValue(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("value is empty")
	}

	sign := ""
	s = strings.TrimPrefix(s, "$")
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, fmt.Errorf("value %q is not a number", raw)
	}

	d, err := decimal.NewFromString(sign + s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("value %q is not a number", raw)
	}
	return d, nil
}

// dateLayouts lists the accepted date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// ParseDate parses a transaction date. Forms without a zone are read as UTC
// and date-only forms land on midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not in a recognised format", raw)
}

// FormatLedgerDate renders a date the way ledger CSV files carry it.
func FormatLedgerDate(t time.Time) string {
	return t.UTC().Format("January 02 2006")
}
