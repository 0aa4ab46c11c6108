package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/guttosm/econpulse/internal/loader"
)

// PostgresSessions opens loader sessions as PostgreSQL transactions.
type PostgresSessions struct {
	db *sql.DB
}

// NewPostgresSessions returns a loader.SessionFactory backed by db.
func NewPostgresSessions(db *sql.DB) *PostgresSessions {
	return &PostgresSessions{db: db}
}

// Begin starts a transaction. The returned Session must be closed.
func (p *PostgresSessions) Begin(ctx context.Context) (loader.Session, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgSession{tx: tx}, nil
}

// pgSession wraps a single *sql.Tx. Per-record isolation uses one reusable
// savepoint name since records are applied strictly one after another.
type pgSession struct {
	tx *sql.Tx
}

func (s *pgSession) IndicatorIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.tx.QueryContext(ctx, `SELECT id, code FROM indicators`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			code string
		)
		if err := rows.Scan(&id, &code); err != nil {
			return nil, err
		}
		ids[code] = id
	}
	return ids, rows.Err()
}

func (s *pgSession) FindValue(ctx context.Context, indicatorID int64, date civil.Date) (loader.StoredValue, error) {
	var v loader.StoredValue
	err := s.tx.QueryRowContext(ctx,
		`SELECT id, value FROM indicator_values WHERE indicator_id = $1 AND date = $2`,
		indicatorID, dateArg(date),
	).Scan(&v.ID, &v.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return loader.StoredValue{}, loader.ErrNotFound
	}
	if err != nil {
		return loader.StoredValue{}, err
	}
	return v, nil
}

func (s *pgSession) InsertValue(ctx context.Context, indicatorID int64, date civil.Date, value decimal.Decimal) error {
	_, err := s.tx.ExecContext(ctx,
		`INSERT INTO indicator_values (indicator_id, date, value) VALUES ($1, $2, $3)`,
		indicatorID, dateArg(date), value,
	)
	return err
}

func (s *pgSession) UpdateValue(ctx context.Context, valueID int64, value decimal.Decimal) error {
	res, err := s.tx.ExecContext(ctx, `UPDATE indicator_values SET value = $1 WHERE id = $2`, value, valueID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("update indicator_values id=%d: %d rows affected", valueID, n)
	}
	return nil
}

func (s *pgSession) Savepoint(ctx context.Context) error {
	_, err := s.tx.ExecContext(ctx, `SAVEPOINT load_record`)
	return err
}

func (s *pgSession) RollbackToSavepoint(ctx context.Context) error {
	_, err := s.tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT load_record`)
	return err
}

func (s *pgSession) ReleaseSavepoint(ctx context.Context) error {
	_, err := s.tx.ExecContext(ctx, `RELEASE SAVEPOINT load_record`)
	return err
}

func (s *pgSession) Commit() error {
	return s.tx.Commit()
}

// Close rolls back anything not committed. It is a no-op after Commit.
func (s *pgSession) Close() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// dateArg maps a calendar date to midnight UTC for the DATE column.
func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}
