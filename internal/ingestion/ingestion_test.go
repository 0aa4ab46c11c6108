package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/extractor"
	"github.com/guttosm/econpulse/internal/loader"
)

// fakeExtractor returns canned results and records which codes were fetched.
type fakeExtractor struct {
	snapshot  extractor.Snapshot
	histories map[string]extractor.History
	fetched   []string
}

func (f *fakeExtractor) FetchCurrent(context.Context) extractor.Snapshot { return f.snapshot }

func (f *fakeExtractor) FetchHistory(_ context.Context, code string, _ int) extractor.History {
	f.fetched = append(f.fetched, code)
	if h, ok := f.histories[code]; ok {
		return h
	}
	return extractor.History{Code: code, Kind: extractor.KindNotFound}
}

// fakeLoader captures the records it receives.
type fakeLoader struct {
	calls   int
	records []models.CanonicalRecord
	summary models.LoadSummary
	err     error
}

func (f *fakeLoader) Load(_ context.Context, records []models.CanonicalRecord) (models.LoadSummary, error) {
	f.calls++
	f.records = records
	if f.err != nil {
		return f.summary, f.err
	}
	s := f.summary
	if s == (models.LoadSummary{}) {
		s = models.LoadSummary{Applied: len(records), Inserted: len(records), Committed: true}
	}
	return s, nil
}

func raw(value, date string) extractor.RawEntry {
	return extractor.RawEntry{Value: json.RawMessage(value), Date: date}
}

func newTestPipeline(ex Extractor, ld Loader, opts Options) *Pipeline {
	p := NewPipeline(ex, ld, opts)
	p.newID = func() string { return "run-1" }
	return p
}

func TestRunCurrent_Done(t *testing.T) {
	ex := &fakeExtractor{snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
		"dolar":   raw(`950.32`, "2024-05-01T00:00:00.000Z"),
		"uf":      raw(`"39.623,18"`, "2024-05-01T00:00:00.000Z"),
		"bitcoin": raw(`60000`, "2024-05-01T00:00:00.000Z"),
	}}}
	ld := &fakeLoader{}
	p := newTestPipeline(ex, ld, Options{Codes: []string{"dolar", "uf", "euro"}})

	rep := p.RunCurrent(context.Background())

	if rep.State != StateDone || !rep.Succeeded() {
		t.Fatalf("state = %s (%s), want done", rep.State, rep.Reason)
	}
	if rep.RunID != "run-1" || rep.Mode != ModeCurrent {
		t.Fatalf("unexpected run identity %+v", rep)
	}
	if rep.Extracted != 2 || rep.Transformed != 2 || rep.Dropped != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2/2/0", rep.Extracted, rep.Transformed, rep.Dropped)
	}
	if len(ld.records) != 2 || ld.records[0].Code != "dolar" || ld.records[1].Code != "uf" {
		t.Fatalf("loader got %+v", ld.records)
	}
	if rep.Summary.Applied != 2 || !rep.Summary.Committed {
		t.Fatalf("summary = %+v", rep.Summary)
	}
}

func TestRunCurrent_EmptyAllowListKeepsSnapshot(t *testing.T) {
	ex := &fakeExtractor{snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
		"dolar": raw(`950.32`, "2024-05-01"),
		"euro":  raw(`1020.1`, "2024-05-01"),
	}}}
	ld := &fakeLoader{}

	rep := newTestPipeline(ex, ld, Options{}).RunCurrent(context.Background())

	if rep.State != StateDone || len(ld.records) != 2 {
		t.Fatalf("state=%s records=%d", rep.State, len(ld.records))
	}
}

func TestRunCurrent_Aborts(t *testing.T) {
	cases := []struct {
		name       string
		snapshot   extractor.Snapshot
		codes      []string
		wantReason string
	}{
		{
			name:       "transient upstream failure",
			snapshot:   extractor.Snapshot{Kind: extractor.KindTimeout, Err: context.DeadlineExceeded},
			wantReason: "extract: timeout",
		},
		{
			name:       "malformed payload",
			snapshot:   extractor.Snapshot{Kind: extractor.KindMalformed},
			wantReason: "extract: malformed",
		},
		{
			name: "allow-list matches nothing",
			snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
				"dolar": raw(`1`, "2024-05-01"),
			}},
			codes:      []string{"uf"},
			wantReason: "no allow-listed indicators",
		},
		{
			name: "nothing survives transform",
			snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
				"dolar": raw(`"n/a"`, "2024-05-01"),
				"uf":    {Value: json.RawMessage(`1`)},
			}},
			wantReason: "transform: no usable records",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ld := &fakeLoader{}
			rep := newTestPipeline(&fakeExtractor{snapshot: tc.snapshot}, ld, Options{Codes: tc.codes}).RunCurrent(context.Background())

			if rep.State != StateAborted {
				t.Fatalf("state = %s, want aborted", rep.State)
			}
			if !strings.Contains(rep.Reason, tc.wantReason) {
				t.Fatalf("reason = %q, want it to contain %q", rep.Reason, tc.wantReason)
			}
			if ld.calls != 0 {
				t.Fatalf("loader must not run on abort")
			}
		})
	}
}

func TestRunCurrent_LoaderFailure(t *testing.T) {
	ex := &fakeExtractor{snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
		"dolar": raw(`950.32`, "2024-05-01"),
	}}}
	ld := &fakeLoader{
		err:     loader.ErrCommit,
		summary: models.LoadSummary{Failed: 1},
	}

	rep := newTestPipeline(ex, ld, Options{}).RunCurrent(context.Background())

	if rep.State != StateFailed || rep.Succeeded() {
		t.Fatalf("state = %s, want failed", rep.State)
	}
	if rep.Summary.Failed != 1 || rep.Reason == "" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestRunHistory_NotFoundIsSkipped(t *testing.T) {
	ex := &fakeExtractor{histories: map[string]extractor.History{
		"dolar": {Code: "dolar", Kind: extractor.KindOK, Series: []extractor.RawEntry{
			raw(`950.32`, "2024-05-02T04:00:00.000Z"),
			raw(`948.10`, "2024-05-01T04:00:00.000Z"),
		}},
		"ipc": {Code: "ipc", Kind: extractor.KindNoData},
	}}
	ld := &fakeLoader{}
	p := newTestPipeline(ex, ld, Options{Codes: []string{"missing", "dolar", "ipc"}, HistoryDays: 30})

	rep := p.RunHistory(context.Background())

	if rep.State != StateDone {
		t.Fatalf("state = %s (%s), want done", rep.State, rep.Reason)
	}
	if got := strings.Join(rep.SkippedCodes, ","); got != "missing,ipc" {
		t.Fatalf("skipped = %q", got)
	}
	if len(rep.FailedCodes) != 0 {
		t.Fatalf("failed = %v", rep.FailedCodes)
	}
	if rep.Extracted != 2 || rep.Transformed != 2 || len(ld.records) != 2 {
		t.Fatalf("counts extracted=%d transformed=%d loaded=%d", rep.Extracted, rep.Transformed, len(ld.records))
	}
	if strings.Join(ex.fetched, ",") != "missing,dolar,ipc" {
		t.Fatalf("fetch order = %v", ex.fetched)
	}
}

func TestRunHistory_FailedCodesReported(t *testing.T) {
	ex := &fakeExtractor{histories: map[string]extractor.History{
		"dolar": {Code: "dolar", Kind: extractor.KindOK, Series: []extractor.RawEntry{raw(`1`, "2024-05-01"), raw(`2`, "")}},
		"uf":    {Code: "uf", Kind: extractor.KindConnection},
	}}
	ld := &fakeLoader{}

	rep := newTestPipeline(ex, ld, Options{Codes: []string{"dolar", "uf"}}).RunHistory(context.Background())

	if rep.State != StateDone {
		t.Fatalf("state = %s", rep.State)
	}
	if len(rep.FailedCodes) != 1 || rep.FailedCodes[0] != "uf" {
		t.Fatalf("failed = %v", rep.FailedCodes)
	}
	if rep.Dropped != 1 || rep.Transformed != 1 {
		t.Fatalf("dropped=%d transformed=%d", rep.Dropped, rep.Transformed)
	}
}

func TestRunHistory_Aborts(t *testing.T) {
	cases := []struct {
		name  string
		codes []string
	}{
		{name: "no codes configured"},
		{name: "every code missing", codes: []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ld := &fakeLoader{}
			rep := newTestPipeline(&fakeExtractor{}, ld, Options{Codes: tc.codes}).RunHistory(context.Background())
			if rep.State != StateAborted || ld.calls != 0 {
				t.Fatalf("state=%s loader calls=%d", rep.State, ld.calls)
			}
		})
	}
}

func TestRunHistory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := &fakeExtractor{}

	rep := newTestPipeline(ex, &fakeLoader{}, Options{Codes: []string{"dolar", "uf"}}).RunHistory(ctx)

	if rep.State != StateAborted || len(rep.FailedCodes) != 2 || len(ex.fetched) != 0 {
		t.Fatalf("unexpected report %+v fetched=%v", rep, ex.fetched)
	}
}

func TestReport_Elapsed(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	p := newTestPipeline(&fakeExtractor{snapshot: extractor.Snapshot{Kind: extractor.KindNoData}}, &fakeLoader{}, Options{})
	p.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Second)
	}

	rep := p.RunCurrent(context.Background())

	if !rep.StartedAt.Equal(start) || rep.Elapsed != time.Second {
		t.Fatalf("started=%v elapsed=%v", rep.StartedAt, rep.Elapsed)
	}
}

// memSessions is a minimal transactional store for driving the real loader.
type memSessions struct {
	mu     sync.Mutex
	ids    map[string]int64
	values map[int64]map[civil.Date]decimal.Decimal
}

func (m *memSessions) Begin(context.Context) (loader.Session, error) {
	return &memSession{m: m, pending: map[int64]map[civil.Date]decimal.Decimal{}}, nil
}

type memSession struct {
	m       *memSessions
	pending map[int64]map[civil.Date]decimal.Decimal
}

func (s *memSession) IndicatorIDs(context.Context) (map[string]int64, error) { return s.m.ids, nil }

func (s *memSession) FindValue(_ context.Context, id int64, d civil.Date) (loader.StoredValue, error) {
	if v, ok := s.pending[id][d]; ok {
		return loader.StoredValue{ID: id, Value: v}, nil
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if v, ok := s.m.values[id][d]; ok {
		return loader.StoredValue{ID: id, Value: v}, nil
	}
	return loader.StoredValue{}, loader.ErrNotFound
}

func (s *memSession) InsertValue(_ context.Context, id int64, d civil.Date, v decimal.Decimal) error {
	if s.pending[id] == nil {
		s.pending[id] = map[civil.Date]decimal.Decimal{}
	}
	s.pending[id][d] = v
	return nil
}

func (s *memSession) UpdateValue(context.Context, int64, decimal.Decimal) error {
	return errors.New("not used")
}

func (s *memSession) Savepoint(context.Context) error           { return nil }
func (s *memSession) RollbackToSavepoint(context.Context) error { return nil }
func (s *memSession) ReleaseSavepoint(context.Context) error    { return nil }
func (s *memSession) Close() error                              { return nil }

func (s *memSession) Commit() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, byDate := range s.pending {
		if s.m.values[id] == nil {
			s.m.values[id] = map[civil.Date]decimal.Decimal{}
		}
		for d, v := range byDate {
			s.m.values[id][d] = v
		}
	}
	return nil
}

func TestPipeline_EndToEnd_IdempotentRerun(t *testing.T) {
	store := &memSessions{ids: map[string]int64{"dolar": 3}, values: map[int64]map[civil.Date]decimal.Decimal{}}
	ex := &fakeExtractor{snapshot: extractor.Snapshot{Kind: extractor.KindOK, Entries: map[string]extractor.RawEntry{
		"dolar": raw(`950.32`, "2024-05-01T00:00:00.000Z"),
	}}}
	p := newTestPipeline(ex, loader.New(store), Options{Codes: []string{"dolar"}})

	first := p.RunCurrent(context.Background())
	if first.State != StateDone || first.Summary.Applied != 1 || first.Summary.Inserted != 1 {
		t.Fatalf("first run %+v", first)
	}
	stored := store.values[3][civil.Date{Year: 2024, Month: time.May, Day: 1}]
	if stored.String() != "950.32" {
		t.Fatalf("stored value = %s", stored)
	}

	second := p.RunCurrent(context.Background())
	if second.State != StateDone || second.Summary.Applied != 0 || second.Summary.Unchanged != 1 {
		t.Fatalf("second run %+v", second.Summary)
	}
}

func TestSchedule_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu   sync.Mutex
		runs []time.Time
	)
	done := make(chan error, 1)
	go func() {
		done <- Schedule(ctx, 20*time.Millisecond, func(context.Context) {
			mu.Lock()
			runs = append(runs, time.Now())
			mu.Unlock()
		})
	}()

	time.Sleep(70 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Schedule returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Schedule did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(runs) < 2 {
		t.Fatalf("expected immediate run plus ticks, got %d runs", len(runs))
	}
	if !sort.SliceIsSorted(runs, func(i, j int) bool { return runs[i].Before(runs[j]) }) {
		t.Fatalf("runs out of order")
	}
}
