package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
)

// LabelLayout is the month label format used by the dashboard.
const LabelLayout = "Jan 2006"

// ErrBadLabel is returned when a month label does not parse.
var ErrBadLabel = errors.New("invalid month label")

// Transaction is one row of the transactions table. Negative amounts are expenses.
type Transaction struct {
	ID          int64
	Amount      float64
	Category    string
	Date        time.Time
	Description string
}

// Ledger wraps the Postgres transactions database. The connection is opened
// lazily and reopened if a ping fails.
type Ledger struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

func Open(dsn string) (*Ledger, error) {
	if dsn == "" {
		return nil, fmt.Errorf("ledger: empty dsn")
	}
	return &Ledger{dsn: dsn}, nil
}

// New wraps an existing handle; it is never reopened.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) ensure(ctx context.Context) (*sql.DB, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		err := l.db.PingContext(ctx)
		if err == nil {
			return l.db, nil
		}
		if l.dsn == "" {
			return nil, fmt.Errorf("ledger: ping: %w", err)
		}
		l.db.Close()
		l.db = nil
	}

	db, err := sql.Open("postgres", l.dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}
	l.db = db
	return db, nil
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// monthStart truncates t to the first day of its month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// categoryList encodes names as a text[] argument. A nil slice would be sent
// as NULL, and category = ANY(NULL) filters out every categorized row.
func categoryList(names []string) pq.StringArray {
	if names == nil {
		names = []string{}
	}
	return pq.StringArray(names)
}

// MonthlyExpenses returns total spending per month for the last n months
// ending with the month of now. Months without spending are reported as 0.
func (l *Ledger) MonthlyExpenses(ctx context.Context, now time.Time, months int, excluded []string) ([]string, []float64, error) {
	if months <= 0 {
		months = 12
	}
	db, err := l.ensure(ctx)
	if err != nil {
		return nil, nil, err
	}

	start := monthStart(now).AddDate(0, -(months - 1), 0)
	rows, err := db.QueryContext(ctx, `
		SELECT to_char(date_trunc('month', date), 'YYYY-MM') AS month, SUM(ABS(amount))
		FROM transactions
		WHERE amount < 0 AND date >= $1
		  AND (category IS NULL OR NOT (category = ANY($2)))
		GROUP BY 1
		ORDER BY 1`, start, categoryList(excluded))
	if err != nil {
		return nil, nil, fmt.Errorf("monthly expenses: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var month string
		var total float64
		if err := rows.Scan(&month, &total); err != nil {
			return nil, nil, err
		}
		totals[month] = total
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	labels := make([]string, 0, months)
	values := make([]float64, 0, months)
	for i := 0; i < months; i++ {
		m := start.AddDate(0, i, 0)
		labels = append(labels, m.Format(LabelLayout))
		values = append(values, totals[m.Format("2006-01")])
	}
	return labels, values, nil
}

// CategoryExpenses returns the top spending categories for the month named
// by label (e.g. "Mar 2024"), largest first.
func (l *Ledger) CategoryExpenses(ctx context.Context, label string, excluded []string, limit int) ([]string, []float64, error) {
	month, err := time.Parse(LabelLayout, strings.TrimSpace(label))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	if limit <= 0 {
		limit = 8
	}
	db, err := l.ensure(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'Uncategorized') AS category, SUM(ABS(amount)) AS total
		FROM transactions
		WHERE amount < 0 AND date >= $1 AND date < $2
		  AND (category IS NULL OR NOT (category = ANY($3)))
		GROUP BY 1
		ORDER BY total DESC
		LIMIT $4`, month, month.AddDate(0, 1, 0), categoryList(excluded), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("category expenses: %w", err)
	}
	defer rows.Close()

	labels := []string{}
	values := []float64{}
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, nil, err
		}
		labels = append(labels, category)
		values = append(values, total)
	}
	return labels, values, rows.Err()
}

// DailyTotal is the spending of one calendar day.
type DailyTotal struct {
	Day   time.Time
	Total float64
}

// DailyExpenses returns per-day spending since the given date, oldest first.
func (l *Ledger) DailyExpenses(ctx context.Context, since time.Time) ([]DailyTotal, error) {
	db, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT date, SUM(ABS(amount))
		FROM transactions
		WHERE amount < 0 AND date >= $1
		GROUP BY date
		ORDER BY date`, since)
	if err != nil {
		return nil, fmt.Errorf("daily expenses: %w", err)
	}
	defer rows.Close()

	var out []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Day, &d.Total); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Balance is the sum of all transaction amounts.
func (l *Ledger) Balance(ctx context.Context) (float64, error) {
	db, err := l.ensure(ctx)
	if err != nil {
		return 0, err
	}
	var balance float64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return balance, nil
}
