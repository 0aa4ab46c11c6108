package extractor

import (
	"encoding/json"
	"errors"
)

// ErrBodyTooLarge is the cause recorded with KindTooLarge.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Kind classifies the outcome of a fetch. Anything other than KindOK means
// the result is Empty.
type Kind string

const (
	KindOK         Kind = "ok"
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindNotFound   Kind = "not_found"
	KindHTTPStatus Kind = "http_status"
	KindMalformed  Kind = "malformed"
	KindNoData     Kind = "no_data"
	KindTooLarge   Kind = "too_large"
)

// Transient reports whether a later run may succeed where this one failed.
func (k Kind) Transient() bool {
	return k == KindConnection || k == KindTimeout || k == KindHTTPStatus
}

// RawEntry is one loosely-typed observation as published upstream.
//
// Value keeps the raw JSON literal of "valor" so numbers never pass through
// float64. A missing field leaves Value nil / Date empty.
type RawEntry struct {
	Code  string          `json:"codigo,omitempty"`
	Name  string          `json:"nombre,omitempty"`
	Unit  string          `json:"unidad_medida,omitempty"`
	Date  string          `json:"fecha"`
	Value json.RawMessage `json:"valor"`
}

// Snapshot is the result of FetchCurrent.
type Snapshot struct {
	Entries map[string]RawEntry
	Kind    Kind
	Err     error
}

// Empty reports whether the snapshot carries no usable data.
func (s Snapshot) Empty() bool { return s.Kind != KindOK }

// History is the result of FetchHistory.
type History struct {
	Code   string
	Name   string
	Unit   string
	Series []RawEntry
	Kind   Kind
	Err    error
}

// Empty reports whether the history carries no usable data.
func (h History) Empty() bool { return h.Kind != KindOK }

// historyPayload mirrors GET {base}/{code}.
type historyPayload struct {
	Code   string     `json:"codigo"`
	Name   string     `json:"nombre"`
	Unit   string     `json:"unidad_medida"`
	Series []RawEntry `json:"serie"`
}
