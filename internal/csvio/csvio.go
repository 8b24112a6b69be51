// Package csvio reads and writes ledger CSV files:
//
//	date,description,value,tags
//	January 01 2018,'groceries',-20.3,groceries supplies
//
// Descriptions are written wrapped in single quotes and either quote style
// is stripped on read. Tags are whitespace separated.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yabaapp/yaba-server/internal/domain"
)

// Header is the first row of every ledger file.
var Header = []string{"date", "description", "value", "tags"}

// Row is one ledger line.
type Row struct {
	Date        time.Time
	Description string
	Value       decimal.Decimal
	Tags        []string
}

// RowError reports a malformed line. Line is 1-based and counts the header.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrBadHeader is returned when the first row is not Header.
var ErrBadHeader = errors.New("expected header date,description,value,tags")

// Writer writes ledger rows.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer on w. The header is written before the first row.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// Write appends one row.
func (w *Writer) Write(r Row) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.w.Write([]string{
		domain.FormatLedgerDate(r.Date),
		"'" + r.Description + "'",
		r.Value.String(),
		strings.Join(r.Tags, " "),
	})
}

// Flush writes the header if no row was written, then flushes.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

func (w *Writer) writeHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.w.Write(Header)
}

// Reader reads ledger rows.
type Reader struct {
	r          *csv.Reader
	line       int
	readHeader bool
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{r: cr}
}

// Read returns the next row, or io.EOF after the last one. An empty input
// has no rows.
func (r *Reader) Read() (Row, error) {
	if !r.readHeader {
		r.readHeader = true
		rec, err := r.next()
		if err != nil {
			return Row{}, err
		}
		if !isHeader(rec) {
			return Row{}, &RowError{Line: r.line, Err: ErrBadHeader}
		}
	}

	rec, err := r.next()
	for err == nil && blank(rec) {
		rec, err = r.next()
	}
	if err != nil {
		return Row{}, err
	}
	return r.parse(rec)
}

// ReadAll reads every remaining row.
func (r *Reader) ReadAll() ([]Row, error) {
	var rows []Row
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func (r *Reader) next() ([]string, error) {
	rec, err := r.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &RowError{Line: pe.Line, Err: pe.Err}
		}
		return nil, err
	}
	r.line, _ = r.r.FieldPos(0)
	return rec, nil
}

func (r *Reader) parse(rec []string) (Row, error) {
	if len(rec) < 3 || len(rec) > 4 {
		return Row{}, &RowError{Line: r.line, Err: fmt.Errorf("expected 3 or 4 fields, got %d", len(rec))}
	}

	date, err := domain.ParseDate(rec[0])
	if err != nil {
		return Row{}, &RowError{Line: r.line, Field: "date", Err: err}
	}
	value, err := domain.ParseValue(rec[2])
	if err != nil {
		return Row{}, &RowError{Line: r.line, Field: "value", Err: err}
	}

	row := Row{
		Date:        date,
		Description: StripQuotes(strings.TrimSpace(rec[1])),
		Value:       value,
	}
	if len(rec) == 4 {
		row.Tags = strings.Fields(rec[3])
	}
	return row, nil
}

// StripQuotes removes one pair of matching single or double quotes around s.
func StripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// WithHashtags appends " #tag" for each tag unless desc already contains a '#'.
func WithHashtags(desc string, tags []string) string {
	if len(tags) == 0 || strings.Contains(desc, "#") {
		return desc
	}
	var b strings.Builder
	b.WriteString(desc)
	for _, t := range tags {
		b.WriteString(" #")
		b.WriteString(t)
	}
	return b.String()
}

func isHeader(rec []string) bool {
	if len(rec) < 3 || len(rec) > len(Header) {
		return false
	}
	for i, want := range Header[:len(rec)] {
		if !strings.EqualFold(strings.TrimSpace(rec[i]), want) {
			return false
		}
	}
	return true
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
