package execution

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteJournal records fills durably in SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database with WAL
// mode enabled and bootstraps the schema.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			fill_id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			price_ticks INTEGER NOT NULL,
			quantity REAL NOT NULL,
			fee REAL NOT NULL,
			ts INTEGER NOT NULL,
			venue TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create fills table: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record inserts one fill.
func (j *SQLiteJournal) Record(ctx context.Context, fill *Fill) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO fills (fill_id, order_id, price_ticks, quantity, fee, ts, venue) VALUES (?, ?, ?, ?, ?, ?, ?)",
		fill.FillID, fill.OrderID, fill.Price.Ticks(), fill.Quantity, fill.Fee, fill.TimestampNS, fill.Venue,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fill: %w", err)
	}
	return nil
}

// FillsForOrder loads the recorded fills of one order, oldest first.
func (j *SQLiteJournal) FillsForOrder(ctx context.Context, orderID string) ([]Fill, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT fill_id, order_id, price_ticks, quantity, fee, ts, venue FROM fills WHERE order_id = ? ORDER BY ts ASC",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fills: %w", err)
	}
	defer rows.Close()

	var fills []Fill
	for rows.Next() {
		var f Fill
		var ticks int64
		if err := rows.Scan(&f.FillID, &f.OrderID, &ticks, &f.Quantity, &f.Fee, &f.TimestampNS, &f.Venue); err != nil {
			return nil, fmt.Errorf("failed to scan fill: %w", err)
		}
		f.Price = PriceFromTicks(ticks)
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return fills, nil
}

// Close closes the database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
