package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Indicator is a tracked economic metric (e.g. "dolar", "uf", "ipc").
//
// Rows are seeded out-of-band; the ETL only reads the code -> id mapping.
//
// Fields:
//   - ID: surrogate key referenced by indicator_values.indicator_id.
//   - Code: unique, immutable business key used by the upstream API.
//   - Name: human readable name (e.g. "Dólar observado").
//   - Unit: measurement unit as published upstream (e.g. "Pesos", "Porcentaje").
type Indicator struct {
	ID        int64     `json:"id" example:"1"`
	Code      string    `json:"code" example:"dolar"`
	Name      string    `json:"name" example:"Dólar observado"`
	Unit      string    `json:"unit" example:"Pesos"`
	CreatedAt time.Time `json:"created_at"`
}

// IndicatorValue is one observed value of an indicator for a calendar day.
// There is at most one row per (IndicatorID, Date).
type IndicatorValue struct {
	ID          int64
	IndicatorID int64
	Value       decimal.Decimal
	Date        civil.Date
	CreatedAt   time.Time
}
