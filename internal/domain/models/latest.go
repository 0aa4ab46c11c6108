package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// LatestValue is an indicator joined with its most recent stored value.
//
// Value and Date are nil when the indicator has no stored values yet.
//
// swagger:model LatestValue
type LatestValue struct {
	ID    int64
	Code  string
	Name  string
	Unit  string
	Value *decimal.Decimal
	Date  *civil.Date
}
