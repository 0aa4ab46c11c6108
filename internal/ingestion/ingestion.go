package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/extractor"
	"github.com/guttosm/econpulse/internal/logger"
	"github.com/guttosm/econpulse/internal/transform"
)

// Extractor is the upstream data source of a pipeline run.
type Extractor interface {
	FetchCurrent(ctx context.Context) extractor.Snapshot
	FetchHistory(ctx context.Context, code string, sinceDays int) extractor.History
}

// Loader persists canonical records.
type Loader interface {
	Load(ctx context.Context, records []models.CanonicalRecord) (models.LoadSummary, error)
}

// Mode selects what a run extracts.
type Mode string

const (
	ModeCurrent Mode = "current"
	ModeHistory Mode = "history"
)

// State is the lifecycle position of a run.
type State string

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateTransforming State = "transforming"
	StateLoading      State = "loading"
	StateDone         State = "done"
	StateAborted      State = "aborted"
	StateFailed       State = "failed"
)

// Report describes the outcome of one pipeline run.
//
// Fields:
//   - Extracted: raw entries handed to the transformer.
//   - Transformed / Dropped: entries normalized / discarded by the transformer.
//   - Summary: loader counts; zero value when the run never reached Loading.
//   - SkippedCodes: history codes with no data upstream (404 or empty series).
//   - FailedCodes: history codes whose fetch failed for any other reason.
//   - Reason: why the run ended Aborted or Failed.
type Report struct {
	RunID        string             `json:"run_id"`
	Mode         Mode               `json:"mode"`
	State        State              `json:"state"`
	Extracted    int                `json:"extracted"`
	Transformed  int                `json:"transformed"`
	Dropped      int                `json:"dropped"`
	Summary      models.LoadSummary `json:"summary"`
	SkippedCodes []string           `json:"skipped_codes,omitempty"`
	FailedCodes  []string           `json:"failed_codes,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	Elapsed      time.Duration      `json:"elapsed"`
}

// Succeeded reports whether the run reached Done.
func (r Report) Succeeded() bool { return r.State == StateDone }

// Options configures a Pipeline.
//   - Codes: explicit allow-list of indicator codes. Required for history
//     runs; when empty, current runs keep every code in the snapshot.
//   - HistoryDays: look-back window for history runs (0 means the whole series).
type Options struct {
	Codes       []string
	HistoryDays int
}

// Pipeline wires extraction, transformation and loading into one
// synchronous run. It holds no state between runs.
type Pipeline struct {
	extractor   Extractor
	loader      Loader
	codes       []string
	historyDays int

	now   func() time.Time
	newID func() string
}

// NewPipeline builds a Pipeline.
func NewPipeline(ex Extractor, ld Loader, opts Options) *Pipeline {
	return &Pipeline{
		extractor:   ex,
		loader:      ld,
		codes:       opts.Codes,
		historyDays: opts.HistoryDays,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// run tracks state transitions of a single invocation.
type run struct {
	report Report
	log    zerolog.Logger
}

func (p *Pipeline) start(mode Mode) *run {
	id := p.newID()
	r := &run{
		report: Report{RunID: id, Mode: mode, State: StateIdle, StartedAt: p.now()},
		log:    logger.Stage("pipeline").Str("run_id", id).Str("mode", string(mode)).Logger(),
	}
	r.log.Info().Strs("codes", p.codes).Msg("pipeline run start")
	return r
}

func (r *run) to(s State) {
	r.log.Debug().Str("from", string(r.report.State)).Str("to", string(s)).Msg("state transition")
	r.report.State = s
}

func (r *run) abort(reason string) {
	r.report.Reason = reason
	r.to(StateAborted)
}

// RunCurrent fetches the latest snapshot, keeps the allow-listed codes,
// normalizes and loads them.
func (p *Pipeline) RunCurrent(ctx context.Context) Report {
	r := p.start(ModeCurrent)
	p.current(ctx, r)
	p.finish(r)
	return r.report
}

// RunHistory fetches the series of every allow-listed code and loads them
// in one batch. A code that is missing upstream is skipped; a code whose
// fetch fails is reported; neither stops the other codes.
func (p *Pipeline) RunHistory(ctx context.Context) Report {
	r := p.start(ModeHistory)
	p.history(ctx, r)
	p.finish(r)
	return r.report
}

func (p *Pipeline) current(ctx context.Context, r *run) {
	r.to(StateExtracting)
	snap := p.extractor.FetchCurrent(ctx)
	if snap.Empty() {
		r.abort(fmt.Sprintf("extract: %s", snap.Kind))
		return
	}
	entries := p.filter(r, snap.Entries)
	r.report.Extracted = len(entries)
	if len(entries) == 0 {
		r.abort("extract: no allow-listed indicators in snapshot")
		return
	}

	r.to(StateTransforming)
	res := transform.Transform(entries)
	r.report.Transformed = len(res.Records)
	r.report.Dropped = res.Dropped
	if len(res.Records) == 0 {
		r.abort("transform: no usable records")
		return
	}

	p.load(ctx, r, res.Records)
}

func (p *Pipeline) history(ctx context.Context, r *run) {
	if len(p.codes) == 0 {
		r.abort("no indicator codes configured")
		return
	}

	r.to(StateExtracting)
	type series struct {
		code    string
		entries []extractor.RawEntry
	}
	var fetched []series
	for _, code := range p.codes {
		if err := ctx.Err(); err != nil {
			r.report.FailedCodes = append(r.report.FailedCodes, code)
			continue
		}
		h := p.extractor.FetchHistory(ctx, code, p.historyDays)
		switch {
		case h.Kind == extractor.KindNotFound || h.Kind == extractor.KindNoData:
			r.report.SkippedCodes = append(r.report.SkippedCodes, code)
			r.log.Info().Str("code", code).Str("kind", string(h.Kind)).Msg("history skipped: no data upstream")
		case h.Empty():
			r.report.FailedCodes = append(r.report.FailedCodes, code)
			r.log.Warn().Str("code", code).Str("kind", string(h.Kind)).Bool("transient", h.Kind.Transient()).Msg("history fetch failed")
		default:
			fetched = append(fetched, series{code: code, entries: h.Series})
			r.report.Extracted += len(h.Series)
		}
	}
	if len(fetched) == 0 {
		r.abort("extract: no history retrieved for any code")
		return
	}

	r.to(StateTransforming)
	var records []models.CanonicalRecord
	for _, s := range fetched {
		res := transform.TransformSeries(s.code, s.entries)
		records = append(records, res.Records...)
		r.report.Dropped += res.Dropped
	}
	r.report.Transformed = len(records)
	if len(records) == 0 {
		r.abort("transform: no usable records")
		return
	}

	p.load(ctx, r, records)
}

func (p *Pipeline) load(ctx context.Context, r *run, records []models.CanonicalRecord) {
	r.to(StateLoading)
	summary, err := p.loader.Load(ctx, records)
	r.report.Summary = summary
	if err != nil {
		r.report.Reason = err.Error()
		r.to(StateFailed)
		return
	}
	r.to(StateDone)
}

// filter keeps allow-listed codes. An empty allow-list keeps everything.
func (p *Pipeline) filter(r *run, entries map[string]extractor.RawEntry) map[string]extractor.RawEntry {
	if len(p.codes) == 0 {
		return entries
	}
	out := make(map[string]extractor.RawEntry, len(p.codes))
	for _, code := range p.codes {
		e, ok := entries[code]
		if !ok {
			r.log.Warn().Str("code", code).Msg("allow-listed code absent from snapshot")
			continue
		}
		out[code] = e
	}
	return out
}

func (p *Pipeline) finish(r *run) {
	r.report.Elapsed = p.now().Sub(r.report.StartedAt)

	var ev *zerolog.Event
	switch r.report.State {
	case StateDone:
		ev = r.log.Info()
	case StateAborted:
		ev = r.log.Warn()
	default:
		ev = r.log.Error()
	}
	ev.Str("state", string(r.report.State)).
		Int("extracted", r.report.Extracted).
		Int("transformed", r.report.Transformed).
		Int("dropped", r.report.Dropped).
		Int("applied", r.report.Summary.Applied).
		Int("unchanged", r.report.Summary.Unchanged).
		Int("skipped_unknown_code", r.report.Summary.SkippedUnknownCode).
		Int("failed", r.report.Summary.Failed).
		Bool("committed", r.report.Summary.Committed).
		Strs("skipped_codes", r.report.SkippedCodes).
		Strs("failed_codes", r.report.FailedCodes).
		Str("reason", r.report.Reason).
		Dur("elapsed", r.report.Elapsed).
		Msg("pipeline run finished")
}
