package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/guttosm/econpulse/internal/logger"
)

const (
	defaultBaseURL         = "https://mindicador.cl/api"
	defaultTimeout         = 10 * time.Second
	minTimeout             = 10 * time.Second
	maxTimeout             = 20 * time.Second
	defaultUserAgent       = "econpulse/1.0"
	defaultRateLimitPerSec = 5
	defaultRateLimitBurst  = 5
)

// maxBodyBytes caps a response body; a larger body is KindTooLarge.
var maxBodyBytes int64 = 8 << 20

// metadataKeys are top-level keys of GET {base}/ that are not indicators.
var metadataKeys = map[string]struct{}{
	"version": {},
	"autor":   {},
	"fecha":   {},
}

// Config holds the upstream API settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	RateLimitPerSec int
	RateLimitBurst  int
}

// Client fetches indicator data from the upstream API.
//
// Every call issues exactly one GET bounded by Config.Timeout and never
// retries. Failures are reported through Snapshot.Kind / History.Kind.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// New builds a Client, filling unset Config fields with defaults.
// Timeout is clamped to the 10s..20s range.
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Timeout < minTimeout {
		cfg.Timeout = minTimeout
	}
	if cfg.Timeout > maxTimeout {
		cfg.Timeout = maxTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = defaultRateLimitPerSec
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst),
		now:     time.Now,
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// FetchCurrent retrieves the latest value of every indicator from GET {base}/.
func (c *Client) FetchCurrent(ctx context.Context) Snapshot {
	endpoint := c.config.BaseURL + "/"
	log := logger.Stage("extract").Str("url", endpoint).Logger()
	log.Info().Msg("fetching current indicators")

	body, kind, err := c.get(ctx, endpoint)
	if kind != KindOK {
		logFailure(&log, kind, err, "current indicators fetch failed")
		return Snapshot{Kind: kind, Err: err}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		err = fmt.Errorf("decode current payload: %w", err)
		logFailure(&log, KindMalformed, err, "current indicators payload is not valid JSON")
		return Snapshot{Kind: KindMalformed, Err: err}
	}

	entries := make(map[string]RawEntry, len(payload))
	for key, raw := range payload {
		if _, meta := metadataKeys[key]; meta {
			continue
		}
		if !isObject(raw) {
			log.Debug().Str("key", key).Msg("ignoring non-object entry")
			continue
		}
		var entry RawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Warn().Str("code", key).Err(err).Msg("ignoring undecodable indicator entry")
			continue
		}
		if entry.Code == "" {
			entry.Code = key
		}
		entries[key] = entry
	}

	if len(entries) == 0 {
		err := errors.New("response contained no indicators")
		logFailure(&log, KindNoData, err, "current indicators payload had only metadata")
		return Snapshot{Kind: KindNoData, Err: err}
	}

	log.Info().Int("indicators", len(entries)).Msg("current indicators fetched")
	return Snapshot{Entries: entries, Kind: KindOK}
}

// FetchHistory retrieves the series of one indicator from GET {base}/{code}.
//
// When sinceDays > 0 only entries dated on or after now-sinceDays are kept.
// Entries whose date cannot be read are passed through untouched so the
// transformer can report them.
func (c *Client) FetchHistory(ctx context.Context, code string, sinceDays int) History {
	endpoint := c.config.BaseURL + "/" + url.PathEscape(code)
	log := logger.Stage("extract").Str("code", code).Str("url", endpoint).Logger()
	log.Info().Int("since_days", sinceDays).Msg("fetching indicator history")

	body, kind, err := c.get(ctx, endpoint)
	if kind != KindOK {
		logFailure(&log, kind, err, "indicator history fetch failed")
		return History{Code: code, Kind: kind, Err: err}
	}

	var payload historyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		err = fmt.Errorf("decode history payload: %w", err)
		logFailure(&log, KindMalformed, err, "indicator history payload is not valid JSON")
		return History{Code: code, Kind: KindMalformed, Err: err}
	}

	if len(payload.Series) == 0 {
		err := errors.New("series is absent or empty")
		logFailure(&log, KindNoData, err, "indicator has no history")
		return History{Code: code, Kind: KindNoData, Err: err}
	}

	series := payload.Series
	if sinceDays > 0 {
		series = filterSince(series, c.now().AddDate(0, 0, -sinceDays))
		if len(series) == 0 {
			err := fmt.Errorf("no entries in the last %d days", sinceDays)
			logFailure(&log, KindNoData, err, "indicator history outside window")
			return History{Code: code, Kind: KindNoData, Err: err}
		}
	}

	log.Info().Int("entries", len(series)).Msg("indicator history fetched")
	return History{Code: code, Name: payload.Name, Unit: payload.Unit, Series: series, Kind: KindOK}
}

// get performs a single GET and classifies the outcome.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, Kind, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline cannot fit the next token.
		if ctx.Err() == nil {
			return nil, KindTimeout, err
		}
		return nil, classifyTransportError(ctx.Err()), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, KindConnection, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err), err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, classifyTransportError(err), fmt.Errorf("read body: %w", err)
	}
	oversized := int64(len(body)) > maxBodyBytes
	if oversized {
		body = body[:maxBodyBytes]
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, KindNotFound, fmt.Errorf("upstream returned %s", resp.Status)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, KindHTTPStatus, fmt.Errorf("upstream returned %s: %s", resp.Status, truncate(strings.TrimSpace(string(body)), 200))
	}
	if oversized {
		return nil, KindTooLarge, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodyBytes)
	}

	return body, KindOK, nil
}

func classifyTransportError(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}

func filterSince(series []RawEntry, cutoff time.Time) []RawEntry {
	out := make([]RawEntry, 0, len(series))
	for _, entry := range series {
		ts, err := time.Parse(time.RFC3339Nano, entry.Date)
		if err != nil || !ts.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// logFailure logs an Empty outcome with its class. 404 is expected for
// indicators without history and is logged at info level.
func logFailure(log *zerolog.Logger, kind Kind, err error, msg string) {
	var ev *zerolog.Event
	switch kind {
	case KindNotFound:
		ev = log.Info()
	case KindNoData:
		ev = log.Warn()
	default:
		ev = log.Error()
	}
	ev.Str("kind", string(kind)).Bool("transient", kind.Transient()).Err(err).Msg(msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
