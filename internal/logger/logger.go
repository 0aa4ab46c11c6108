// Package logger owns the process-wide zerolog logger of econpulse.
//
// Every line is JSON on stdout and carries "service":"econpulse". Pipeline
// code derives per-stage loggers through Stage so a run can be followed
// with a single filter on "stage" (extract, transform, load, pipeline).
// HTTP access lines are written by middleware.RequestLogger through L.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "econpulse"

var base zerolog.Logger

// Init builds the global logger from the environment:
//
//	LOG_LEVEL   debug|info|warn|error, unknown values fall back to info
//	LOG_PRETTY  true switches to zerolog's console writer for local runs
//
// The ETL CLI calls it once before the first run; tests may call it again.
func Init() {
	var out io.Writer = os.Stdout
	if strings.EqualFold(getenv("LOG_PRETTY", "false"), "true") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	base = New(out, parseLevel(getenv("LOG_LEVEL", "info")))
}

// New returns a logger writing to out with the service field and a
// timestamp attached. Timestamps use RFC 3339 with nanoseconds so lines of
// one pipeline run sort correctly.
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(out).With().Timestamp().Str("service", serviceName).Logger().Level(level)
}

// Replace swaps the global logger and returns a func restoring the
// previous one.
func Replace(l zerolog.Logger) (restore func()) {
	prev := base
	base = l
	return func() { base = prev }
}

// L returns the global logger, initializing it from the environment on
// first use.
func L() *zerolog.Logger {
	if base.GetLevel() == zerolog.NoLevel {
		Init()
	}
	return &base
}

// Stage returns a logger context tagged with a pipeline stage.
func Stage(name string) zerolog.Context {
	return L().With().Str("stage", name)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
