package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/logger"
)

// ValueScale is the number of fractional digits the value column keeps
// (NUMERIC(15,4)). Values are rounded to it before they are compared or
// written, so a reload of the same upstream value is Unchanged.
const ValueScale int32 = 4

var (
	ErrBeginSession = errors.New("loader: begin session")
	ErrIndicatorMap = errors.New("loader: load indicator map")
	ErrCommit       = errors.New("loader: commit")
)

// Loader upserts canonical records keyed by (code, date).
//
// Each Load opens its own Session from the factory and releases it before
// returning. There is no shared engine or session between calls.
type Loader struct {
	sessions SessionFactory
}

// New creates a Loader over the given SessionFactory.
func New(sessions SessionFactory) *Loader {
	return &Loader{sessions: sessions}
}

// Load persists records in a single transaction.
//
// Behavior:
//   - The code -> indicator id map is read once per call.
//   - Records with an unknown code are counted as SkippedUnknownCode.
//   - Values are rounded half away from zero to ValueScale digits, as the
//     database column would store them.
//   - A missing (indicator, date) row is inserted; an existing row with an
//     equal value is Unchanged; a different value is updated in place.
//   - A persistence error on one record rolls back only that record (via a
//     savepoint) and counts it as Failed; the batch continues.
//   - Commit happens once at the end. If it fails, nothing is kept: every
//     processed record is reported Failed and the error wraps ErrCommit.
//   - If the session cannot be opened or the indicator map cannot be read,
//     every record is reported Failed and an error is returned.
//
// The Session is closed on every return path.
func (l *Loader) Load(ctx context.Context, records []models.CanonicalRecord) (summary models.LoadSummary, err error) {
	log := logger.Stage("load").Int("records", len(records)).Logger()
	start := time.Now()

	session, err := l.sessions.Begin(ctx)
	if err != nil {
		summary.Failed = len(records)
		log.Error().Err(err).Msg("could not open persistence session")
		return summary, fmt.Errorf("%w: %v", ErrBeginSession, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("session close failed")
		}
	}()

	ids, err := session.IndicatorIDs(ctx)
	if err != nil {
		summary.Failed = len(records)
		log.Error().Err(err).Msg("could not read indicator map")
		return summary, fmt.Errorf("%w: %v", ErrIndicatorMap, err)
	}

	for _, rec := range records {
		id, ok := ids[rec.Code]
		if !ok {
			summary.SkippedUnknownCode++
			log.Warn().Str("code", rec.Code).Msg("record skipped: unknown indicator code")
			continue
		}

		outcome, rerr := l.apply(ctx, session, id, rec)
		if rerr != nil {
			summary.Failed++
			log.Error().Err(rerr).
				Str("code", rec.Code).
				Str("date", rec.Date.String()).
				Str("value", rec.Value.String()).
				Msg("record failed")
			continue
		}
		switch outcome {
		case outcomeInserted:
			summary.Inserted++
			summary.Applied++
		case outcomeUpdated:
			summary.Updated++
			summary.Applied++
		case outcomeUnchanged:
			summary.Unchanged++
		}
	}

	if err := session.Commit(); err != nil {
		processed := summary.Applied + summary.Unchanged + summary.Failed
		summary = models.LoadSummary{
			SkippedUnknownCode: summary.SkippedUnknownCode,
			Failed:             processed,
		}
		log.Error().Err(err).Int("failed", processed).Msg("commit failed, batch rolled back")
		return summary, fmt.Errorf("%w: %v", ErrCommit, err)
	}
	summary.Committed = true

	logSummary(&log, summary, time.Since(start))
	return summary, nil
}

type outcome int

const (
	outcomeInserted outcome = iota + 1
	outcomeUpdated
	outcomeUnchanged
)

// apply upserts one record inside its own savepoint so a failure leaves the
// surrounding transaction usable.
func (l *Loader) apply(ctx context.Context, s Session, indicatorID int64, rec models.CanonicalRecord) (outcome, error) {
	if err := s.Savepoint(ctx); err != nil {
		return 0, fmt.Errorf("savepoint: %w", err)
	}

	out, err := upsert(ctx, s, indicatorID, rec)
	if err != nil {
		if rerr := s.RollbackToSavepoint(ctx); rerr != nil {
			return 0, errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rerr))
		}
		return 0, err
	}

	if err := s.ReleaseSavepoint(ctx); err != nil {
		err = fmt.Errorf("release savepoint: %w", err)
		if rerr := s.RollbackToSavepoint(ctx); rerr != nil {
			return 0, errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rerr))
		}
		return 0, err
	}
	return out, nil
}

func upsert(ctx context.Context, s Session, indicatorID int64, rec models.CanonicalRecord) (outcome, error) {
	rec.Value = rec.Value.Round(ValueScale)

	existing, err := s.FindValue(ctx, indicatorID, rec.Date)
	switch {
	case errors.Is(err, ErrNotFound):
		if err := s.InsertValue(ctx, indicatorID, rec.Date, rec.Value); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		return outcomeInserted, nil
	case err != nil:
		return 0, fmt.Errorf("find: %w", err)
	}

	if existing.Value.Equal(rec.Value) {
		return outcomeUnchanged, nil
	}
	if err := s.UpdateValue(ctx, existing.ID, rec.Value); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return outcomeUpdated, nil
}

func logSummary(log *zerolog.Logger, s models.LoadSummary, elapsed time.Duration) {
	log.Info().
		Int("applied", s.Applied).
		Int("inserted", s.Inserted).
		Int("updated", s.Updated).
		Int("unchanged", s.Unchanged).
		Int("skipped_unknown_code", s.SkippedUnknownCode).
		Int("failed", s.Failed).
		Bool("committed", s.Committed).
		Dur("elapsed", elapsed).
		Msg("load complete")
}
