package transform

import (
	"bytes"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/extractor"
	"github.com/guttosm/econpulse/internal/logger"
)

// Result is the transformer output: the canonical records plus the number of
// raw entries that were dropped (missing fields or unparseable values).
type Result struct {
	Records []models.CanonicalRecord
	Dropped int
}

// Transform normalizes a current snapshot keyed by indicator code.
//
// Codes are processed in sorted order so the output is deterministic. An
// entry that cannot be normalized is logged and dropped; it never aborts the
// batch.
func Transform(entries map[string]extractor.RawEntry) Result {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	log := logger.Stage("transform").Logger()
	res := Result{Records: make([]models.CanonicalRecord, 0, len(codes))}
	for _, code := range codes {
		rec, err := normalize(code, entries[code])
		if err != nil {
			logDrop(&log, code, entries[code], err)
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// TransformSeries normalizes the historical series of a single indicator.
// Series order is preserved.
func TransformSeries(code string, series []extractor.RawEntry) Result {
	log := logger.Stage("transform").Str("code", code).Logger()
	res := Result{Records: make([]models.CanonicalRecord, 0, len(series))}
	for _, entry := range series {
		rec, err := normalize(code, entry)
		if err != nil {
			logDrop(&log, code, entry, err)
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func normalize(code string, entry extractor.RawEntry) (models.CanonicalRecord, error) {
	if isAbsent(entry.Value) {
		return models.CanonicalRecord{}, ErrMissingValue
	}
	if entry.Date == "" {
		return models.CanonicalRecord{}, ErrMissingDate
	}
	value, err := ParseValue(entry.Value)
	if err != nil {
		return models.CanonicalRecord{}, err
	}
	date, err := ParseDate(entry.Date)
	if err != nil {
		return models.CanonicalRecord{}, err
	}
	return models.CanonicalRecord{Code: code, Value: value, Date: date}, nil
}

func isAbsent(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func logDrop(log *zerolog.Logger, code string, entry extractor.RawEntry, err error) {
	ev := log.Warn().Str("code", code).Err(err)
	switch {
	case errors.Is(err, ErrMissingValue), errors.Is(err, ErrMissingDate):
		ev.Msg("entry skipped: required field missing")
	case errors.Is(err, ErrInvalidDate):
		ev.Str("raw_date", entry.Date).Msg("entry dropped: unparseable date")
	default:
		ev.Str("raw_value", string(entry.Value)).Msg("entry dropped: unparseable value")
	}
}
