package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CanonicalRecord is the normalized unit handed from the transformer to the loader.
type CanonicalRecord struct {
	Code  string
	Value decimal.Decimal
	Date  civil.Date
}

// RecordKey identifies a record for idempotent loading.
type RecordKey struct {
	Code string
	Date civil.Date
}

// Key returns the (code, date) pair that the loader upserts on.
func (r CanonicalRecord) Key() RecordKey {
	return RecordKey{Code: r.Code, Date: r.Date}
}

// LoadSummary aggregates the outcome of one Loader invocation.
//
// Applied counts rows written (Inserted + Updated). SkippedUnknownCode counts
// records whose code has no Indicator row; those are not failures. Committed
// reports whether the final commit succeeded.
type LoadSummary struct {
	Applied            int  `json:"applied"`
	Inserted           int  `json:"inserted"`
	Updated            int  `json:"updated"`
	Unchanged          int  `json:"unchanged"`
	SkippedUnknownCode int  `json:"skipped_unknown_code"`
	Failed             int  `json:"failed"`
	Committed          bool `json:"committed"`
}

// Total returns the number of records the summary accounts for.
func (s LoadSummary) Total() int {
	return s.Applied + s.Unchanged + s.SkippedUnknownCode + s.Failed
}
