package dto

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Decimal values are serialized as JSON strings so clients never lose
// precision; dates are serialized as YYYY-MM-DD.

// IndicatorResponse is one indicator with its most recent stored value.
// LatestValue and LatestDate are null when nothing was loaded yet.
type IndicatorResponse struct {
	ID          int64            `json:"id" example:"3"`
	Code        string           `json:"code" example:"dolar"`
	Name        string           `json:"name" example:"Dólar observado"`
	Unit        string           `json:"unit" example:"Pesos"`
	LatestValue *decimal.Decimal `json:"latest_value" swaggertype:"string" example:"950.32"`
	LatestDate  *civil.Date      `json:"latest_date" swaggertype:"string" example:"2024-05-01"`
}

// IndicatorRef identifies the indicator a history belongs to.
type IndicatorRef struct {
	Code string `json:"code" example:"dolar"`
	Name string `json:"name" example:"Dólar observado"`
	Unit string `json:"unit" example:"Pesos"`
}

// HistoryPoint is one stored value.
type HistoryPoint struct {
	Value decimal.Decimal `json:"value" swaggertype:"string" example:"950.32"`
	Date  civil.Date      `json:"date" swaggertype:"string" example:"2024-05-01"`
}

// HistoryResponse is returned by GET /api/v1/indicators/{code}/history.
type HistoryResponse struct {
	Indicator IndicatorRef   `json:"indicator"`
	Values    []HistoryPoint `json:"values"`
	Count     int            `json:"count" example:"30"`
}

// LatestStat is the newest value of one indicator.
type LatestStat struct {
	Code  string          `json:"code" example:"uf"`
	Name  string          `json:"name" example:"Unidad de fomento (UF)"`
	Unit  string          `json:"unit" example:"Pesos"`
	Value decimal.Decimal `json:"value" swaggertype:"string" example:"39623.18"`
	Date  civil.Date      `json:"date" swaggertype:"string" example:"2024-05-01"`
}

// LatestStatsResponse is returned by GET /api/v1/stats/latest.
// Timestamp is when the snapshot was computed, which may predate the
// request by up to the cache TTL.
type LatestStatsResponse struct {
	Timestamp  time.Time    `json:"timestamp" example:"2024-05-01T12:00:00Z"`
	Indicators []LatestStat `json:"indicators"`
	Count      int          `json:"count" example:"12"`
}
