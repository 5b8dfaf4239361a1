package ledger

import (
	"context"
	"fmt"
	"strings"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 100

// InsertTransactions writes txs in multi-row batches inside one transaction
// and returns the number of rows inserted.
func (l *Ledger) InsertTransactions(ctx context.Context, txs []Transaction, batchSize int) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	db, err := l.ensure(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i := 0; i < len(txs); i += batchSize {
		end := i + batchSize
		if end > len(txs) {
			end = len(txs)
		}
		batch := txs[i:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*4)
		for j, t := range batch {
			n := j * 4
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
			args = append(args, t.Amount, nullIfEmpty(t.Category), t.Date, t.Description)
		}
		query := "INSERT INTO transactions (amount, category, date, description) VALUES " + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert batch at row %d: %w", i, err)
		}
		inserted += len(batch)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Uncategorized returns up to limit rows that have no category yet.
func (l *Ledger) Uncategorized(ctx context.Context, limit int) ([]Transaction, error) {
	db, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, amount, date, description
		FROM transactions
		WHERE category IS NULL OR category = ''
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("uncategorized: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Date, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (l *Ledger) UpdateCategory(ctx context.Context, id int64, category string) error {
	db, err := l.ensure(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `UPDATE transactions SET category = $1 WHERE id = $2`, category, id); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// IsIngested reports whether a file with this name and checksum was loaded before.
func (l *Ledger) IsIngested(ctx context.Context, name, checksum string) (bool, error) {
	db, err := l.ensure(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ingested_files WHERE name = $1 AND checksum = $2)`,
		name, checksum).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check ingested: %w", err)
	}
	return exists, nil
}

func (l *Ledger) MarkIngested(ctx context.Context, name, checksum string, rows int) error {
	db, err := l.ensure(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO ingested_files (name, checksum, rows) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		name, checksum, rows)
	if err != nil {
		return fmt.Errorf("mark ingested: %w", err)
	}
	return nil
}
