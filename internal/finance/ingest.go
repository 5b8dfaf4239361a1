package finance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rahul/finmate/internal/ledger"
	"github.com/rahul/finmate/internal/observability"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// RowError reports a malformed CSV line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ParseCSV reads transactions from a CSV with a header row naming at least
// date, description and amount columns, in any order and case. An optional
// category column is kept as is.
func ParseCSV(r io.Reader) ([]ledger.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"date", "description", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	catCol, hasCategory := cols["category"]

	var out []ledger.Transaction
	line := 1
	for {
		rec, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		if isBlank(rec) {
			continue
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		date, err := ParseDate(field("date"))
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		amount, err := ParseAmount(field("amount"))
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		t := ledger.Transaction{
			Date:        date,
			Amount:      amount,
			Description: field("description"),
		}
		if hasCategory && catCol < len(rec) {
			t.Category = strings.TrimSpace(rec[catCol])
		}
		out = append(out, t)
	}
	return out, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseDate accepts ISO dates and US month/day/year dates.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount accepts values like "-12.50", "$1,200.00" and "(45.10)"; the
// parenthesized form is negative.
func ParseAmount(s string) (float64, error) {
	v := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		negative = true
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	v = strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	if v == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if negative {
		f = -f
	}
	return f, nil
}

// TransactionWriter stores parsed transactions.
type TransactionWriter interface {
	InsertTransactions(ctx context.Context, txs []ledger.Transaction, batchSize int) (int, error)
}

// Ingester loads CSV exports into the ledger. Rows without a category get
// one from the keyword rules when a rule matches.
type Ingester struct {
	Ledger    TransactionWriter
	Rules     []Rule
	BatchSize int
	Events    *observability.Logger
}

func NewIngester(w TransactionWriter, rules []Rule, batchSize int) *Ingester {
	if batchSize <= 0 {
		batchSize = ledger.DefaultBatchSize
	}
	return &Ingester{Ledger: w, Rules: rules, BatchSize: batchSize}
}

// Ingest parses r and inserts the rows; name is used for logging only.
func (i *Ingester) Ingest(ctx context.Context, name string, r io.Reader) (int, error) {
	txs, err := ParseCSV(r)
	if err != nil {
		i.Events.LogIngest(name, 0, err)
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	for k := range txs {
		if txs[k].Category != "" {
			continue
		}
		if cat, ok := MatchRule(i.Rules, txs[k].Description); ok {
			txs[k].Category = cat
		}
	}

	n, err := i.Ledger.InsertTransactions(ctx, txs, i.BatchSize)
	i.Events.LogIngest(name, n, err)
	if err != nil {
		return 0, err
	}
	observability.IngestedRows.Add(float64(n))
	log.Printf("[INGEST] %s: inserted %d transactions", name, n)
	return n, nil
}

func (i *Ingester) IngestFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("CSV not found: %w", err)
	}
	defer f.Close()
	return i.Ingest(ctx, path, f)
}
