package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/guttosm/econpulse/internal/domain/models"
)

// IndicatorsRepository defines the read-side queries over stored indicators.
type IndicatorsRepository interface {
	ListWithLatest(ctx context.Context) ([]models.LatestValue, error)
	GetByCode(ctx context.Context, code string) (*models.Indicator, error)
	LatestValue(ctx context.Context, code string) (*models.LatestValue, error)
	History(ctx context.Context, code string, from civil.Date, limit int) ([]models.IndicatorValue, error)
	LatestStats(ctx context.Context) ([]models.LatestValue, error)
}

type indicatorsRepository struct {
	db *sql.DB
}

func NewIndicatorsRepository(db *sql.DB) IndicatorsRepository {
	return &indicatorsRepository{db: db}
}

const latestValueQuery = `
	SELECT i.id, i.code, i.name, i.unit, v.value, v.date
	FROM indicators i
	%s JOIN LATERAL (
		SELECT value, date FROM indicator_values
		WHERE indicator_id = i.id
		ORDER BY date DESC
		LIMIT 1
	) v ON true`

// ListWithLatest returns every indicator with its most recent value.
// Indicators without values are included with nil Value/Date.
func (r *indicatorsRepository) ListWithLatest(ctx context.Context) ([]models.LatestValue, error) {
	rows, err := r.db.QueryContext(ctx, latestQuery("LEFT")+` ORDER BY i.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLatest(rows)
}

// LatestStats returns the latest value of every indicator that has at least one value.
func (r *indicatorsRepository) LatestStats(ctx context.Context) ([]models.LatestValue, error) {
	rows, err := r.db.QueryContext(ctx, latestQuery("INNER")+` ORDER BY i.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLatest(rows)
}

// LatestValue returns one indicator with its most recent value, or nil when
// the code is unknown.
func (r *indicatorsRepository) LatestValue(ctx context.Context, code string) (*models.LatestValue, error) {
	rows, err := r.db.QueryContext(ctx, latestQuery("LEFT")+` WHERE i.code = $1`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanLatest(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// GetByCode returns the indicator with the given code, or nil when unknown.
func (r *indicatorsRepository) GetByCode(ctx context.Context, code string) (*models.Indicator, error) {
	var ind models.Indicator
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, unit, created_at FROM indicators WHERE code = $1`, code,
	).Scan(&ind.ID, &ind.Code, &ind.Name, &ind.Unit, &ind.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// History returns values of code dated on or after from, newest first.
func (r *indicatorsRepository) History(ctx context.Context, code string, from civil.Date, limit int) ([]models.IndicatorValue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.indicator_id, v.value, v.date, v.created_at
		FROM indicator_values v
		JOIN indicators i ON i.id = v.indicator_id
		WHERE i.code = $1 AND v.date >= $2
		ORDER BY v.date DESC
		LIMIT $3`,
		code, dateArg(from), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IndicatorValue
	for rows.Next() {
		var (
			v    models.IndicatorValue
			date time.Time
		)
		if err := rows.Scan(&v.ID, &v.IndicatorID, &v.Value, &date, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Date = civil.DateOf(date)
		out = append(out, v)
	}
	return out, rows.Err()
}

// latestQuery joins each indicator with its newest value. join is "LEFT" to
// keep indicators without values, "INNER" to drop them.
func latestQuery(join string) string {
	return fmt.Sprintf(latestValueQuery, join)
}

func scanLatest(rows *sql.Rows) ([]models.LatestValue, error) {
	var out []models.LatestValue
	for rows.Next() {
		var (
			lv    models.LatestValue
			value decimal.NullDecimal
			date  sql.NullTime
		)
		if err := rows.Scan(&lv.ID, &lv.Code, &lv.Name, &lv.Unit, &value, &date); err != nil {
			return nil, err
		}
		if value.Valid {
			v := value.Decimal
			lv.Value = &v
		}
		if date.Valid {
			d := civil.DateOf(date.Time)
			lv.Date = &d
		}
		out = append(out, lv)
	}
	return out, rows.Err()
}
