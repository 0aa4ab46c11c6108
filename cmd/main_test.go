package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/guttosm/econpulse/config"
	"github.com/guttosm/econpulse/internal/ingestion"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	// Give server a moment to start
	time.Sleep(50 * time.Millisecond)

	// Shutdown quickly with short timeout and no-op cleanup
	_, cancel := context.WithCancel(context.Background())
	go func() {
		// trigger gracefulShutdown select by simulating signal via closing after a brief delay
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// We cannot send OS signals easily here; instead, directly call Shutdown to simulate graceful flow.
	// Verify it doesn't panic and completes.
	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_SignalPath(t *testing.T) {
	// Use a server that responds immediately
	srv := startServer(dummyHandler{}, "0")

	cleaned := make(chan struct{}, 1)
	go func() {
		ctx := context.Background()
		gracefulShutdown(ctx, srv, func() { close(cleaned) })
	}()

	// Give the goroutine time to set up signal notifications
	time.Sleep(50 * time.Millisecond)

	// Send SIGTERM to current process
	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-cleaned:
		// success
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after SIGTERM")
	}
}

type fakeRunner struct {
	current, history ingestion.Report
	calls            []string
}

func (f *fakeRunner) RunCurrent(context.Context) ingestion.Report {
	f.calls = append(f.calls, "current")
	return f.current
}

func (f *fakeRunner) RunHistory(context.Context) ingestion.Report {
	f.calls = append(f.calls, "history")
	return f.history
}

func TestRunPipeline_ExitCodes(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		runner   *fakeRunner
		wantCode int
		wantCall string
	}{
		{"etl done", "etl", &fakeRunner{current: ingestion.Report{State: ingestion.StateDone}}, 0, "current"},
		{"etl aborted", "etl", &fakeRunner{current: ingestion.Report{State: ingestion.StateAborted, Reason: "extract: timeout"}}, 1, "current"},
		{"history done", "history", &fakeRunner{history: ingestion.Report{State: ingestion.StateDone}}, 0, "history"},
		{"history failed", "history", &fakeRunner{history: ingestion.Report{State: ingestion.StateFailed}}, 1, "history"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			code := runPipeline(context.Background(), tc.runner, tc.mode, &out)
			if code != tc.wantCode {
				t.Fatalf("exit code = %d, want %d", code, tc.wantCode)
			}
			if len(tc.runner.calls) != 1 || tc.runner.calls[0] != tc.wantCall {
				t.Fatalf("calls = %v", tc.runner.calls)
			}
			if !strings.Contains(out.String(), `"state"`) {
				t.Fatalf("report not written: %s", out.String())
			}
		})
	}
}

func TestServe_RunsScheduleAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, dummyHandler{}, "0", time.Hour, func(context.Context) {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
	}()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduled run not triggered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}

func TestApplyFlags(t *testing.T) {
	base := config.Config{ETL: config.ETLConfig{Codes: []string{"uf"}, HistoryDays: 90}}

	cases := []struct {
		name      string
		days      int
		codes     string
		wantDays  int
		wantCodes []string
	}{
		{"defaults kept", 90, "", 90, []string{"uf"}},
		{"whole series", 0, "", 0, []string{"uf"}},
		{"negative keeps config", -1, "", 90, []string{"uf"}},
		{"codes override", 7, "Dolar, euro", 7, []string{"dolar", "euro"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyFlags(base, tc.days, tc.codes)
			if got.ETL.HistoryDays != tc.wantDays {
				t.Fatalf("HistoryDays = %d, want %d", got.ETL.HistoryDays, tc.wantDays)
			}
			if strings.Join(got.ETL.Codes, ",") != strings.Join(tc.wantCodes, ",") {
				t.Fatalf("Codes = %v, want %v", got.ETL.Codes, tc.wantCodes)
			}
		})
	}
}
