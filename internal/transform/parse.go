package transform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingValue = errors.New("transform: missing valor")
	ErrMissingDate  = errors.New("transform: missing fecha")
	ErrInvalidValue = errors.New("transform: invalid valor")
	ErrInvalidDate  = errors.New("transform: invalid fecha")
)

// zonedLayouts carry an explicit offset or "Z"; localLayouts are read as UTC.
var (
	zonedLayouts = []string{time.RFC3339Nano}
	localLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02"}
)

// ParseDecimal converts a string-encoded value into an exact decimal.
//
// Rules, in order:
//   - a "," selects the locale form: "," is the decimal separator and "."
//     separates thousands ("39.623,18" -> 39623.18, "0,5" -> 0.5);
//   - without "," and with two or more ".", the dots are thousands
//     separators ("1.234.567" -> 1234567);
//   - otherwise the string is a plain literal and a single "." is the
//     decimal point ("37.500" -> 37.5, "37500" -> 37500).
//
// Thousands groups must be well formed (1-3 leading digits, then groups of
// exactly three). A leading sign and surrounding spaces are accepted.
func ParseDecimal(s string) (decimal.Decimal, error) {
	in := s
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrInvalidValue)
	}

	sign := ""
	switch s[0] {
	case '-':
		sign = "-"
		s = s[1:]
	case '+':
		s = s[1:]
	}

	var digits, frac string
	switch {
	case strings.Contains(s, ","):
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("%w: %q has more than one decimal comma", ErrInvalidValue, in)
		}
		intPart, fracPart, _ := strings.Cut(s, ",")
		ungrouped, ok := ungroup(intPart)
		if !ok || !isDigits(fracPart) {
			return decimal.Zero, fmt.Errorf("%w: %q is not a locale-formatted number", ErrInvalidValue, in)
		}
		digits, frac = ungrouped, fracPart

	case strings.Count(s, ".") > 1:
		ungrouped, ok := ungroup(s)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %q has malformed thousands groups", ErrInvalidValue, in)
		}
		digits = ungrouped

	default:
		intPart, fracPart, hasDot := strings.Cut(s, ".")
		if !isDigits(intPart) || (hasDot && !isDigits(fracPart)) {
			return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, in)
		}
		digits, frac = intPart, fracPart
	}

	literal := sign + digits
	if frac != "" {
		literal += "." + frac
	}
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidValue, in, err)
	}
	return d, nil
}

// ParseValue converts the raw JSON literal of "valor" into an exact decimal.
// JSON numbers are read from their literal text; JSON strings go through
// ParseDecimal.
func ParseValue(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, ErrMissingValue
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidValue, trimmed, err)
		}
		return ParseDecimal(s)
	}

	if !json.Valid(trimmed) {
		return decimal.Zero, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidValue, trimmed)
	}
	d, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrInvalidValue, trimmed, err)
	}
	return d, nil
}

// ParseDate reads an ISO-8601 timestamp (optional fractional seconds,
// optional "Z" or offset) and truncates it to the calendar date of the
// instant in its own zone. Timestamps without a zone are taken as UTC.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, ErrMissingDate
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ungroup strips "." thousands separators, validating the grouping.
// A plain digit run is returned as is.
func ungroup(s string) (string, bool) {
	if isDigits(s) {
		return s, true
	}
	groups := strings.Split(s, ".")
	if len(groups[0]) == 0 || len(groups[0]) > 3 || !isDigits(groups[0]) {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !isDigits(g) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
