package transform

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain integer", "37500", "37500"},
		{"plain float", "950.32", "950.32"},
		{"single dot is decimal point", "37.500", "37.5"},
		{"decimal comma", "0,5", "0.5"},
		{"decimal comma no grouping", "39623,18", "39623.18"},
		{"grouped with decimal comma", "39.623,18", "39623.18"},
		{"grouped integer with decimal comma", "37.500,50", "37500.5"},
		{"multi-group with decimal comma", "1.234.567,89", "1234567.89"},
		{"multi-group integer", "1.234.567", "1234567"},
		{"negative comma", "-1,5", "-1.5"},
		{"explicit plus", "+12", "12"},
		{"surrounding spaces", "  950.5 ", "950.5"},
		{"zero", "0", "0"},
		{"trailing zeros kept exact", "950.5000", "950.5"},
		{"many fraction digits", "0,000001", "0.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		})
	}
}

func TestParseDecimal_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"-",
		"abc",
		"12a",
		"1,2,3",
		"1,",
		",5",
		"1.",
		".5",
		"12.34.5",
		"1.23,4",
		"1234.567,8",
		"1..234",
		"1e5",
		"--1",
		"1 234",
		"NaN",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDecimal(in)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidValue), "expected ErrInvalidValue, got %v", err)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{"json number", `950.32`, "950.32", nil},
		{"json integer", `37500`, "37500", nil},
		{"json number with exponent", `9.5032e2`, "950.32", nil},
		{"json negative", `-0.3`, "-0.3", nil},
		{"json string plain", `"950.5"`, "950.5", nil},
		{"json string locale", `"39.623,18"`, "39623.18", nil},
		{"null", `null`, "", ErrMissingValue},
		{"empty", ``, "", ErrMissingValue},
		{"bool", `true`, "", ErrInvalidValue},
		{"object", `{"v":1}`, "", ErrInvalidValue},
		{"bad string", `"n/a"`, "", ErrInvalidValue},
		{"broken json", `12,`, "", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(json.RawMessage(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

// Values must never pick up binary floating point noise.
func TestParseValue_ExactDecimal(t *testing.T) {
	got, err := ParseValue(json.RawMessage(`950.5`))
	require.NoError(t, err)
	require.Equal(t, "950.5", got.String())

	got, err = ParseValue(json.RawMessage(`"39.623,18"`))
	require.NoError(t, err)
	require.Equal(t, "39623.18", got.String())

	// 0.1 + 0.2 is the classic float64 trap.
	a, _ := ParseValue(json.RawMessage(`0.1`))
	b, _ := ParseValue(json.RawMessage(`0.2`))
	require.Equal(t, "0.3", a.Add(b).String())
}

func TestParseDate(t *testing.T) {
	may1 := civil.Date{Year: 2024, Month: time.May, Day: 1}

	tests := []struct {
		name string
		in   string
		want civil.Date
	}{
		{"utc with millis", "2024-05-01T00:00:00.000Z", may1},
		{"utc without fraction", "2024-05-01T04:00:00Z", may1},
		{"offset keeps local day", "2024-05-01T23:30:00-04:00", may1},
		{"positive offset", "2024-05-01T01:00:00+03:00", may1},
		{"zone-less timestamp", "2024-05-01T12:00:00", may1},
		{"zone-less with fraction", "2024-05-01T12:00:00.123", may1},
		{"bare date", "2024-05-01", may1},
		{"padded", " 2024-05-01 ", may1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate_Errors(t *testing.T) {
	_, err := ParseDate("")
	require.ErrorIs(t, err, ErrMissingDate)

	for _, in := range []string{"yesterday", "01-05-2024", "2024-13-01", "2024-05-01T25:00:00Z"} {
		_, err := ParseDate(in)
		require.ErrorIs(t, err, ErrInvalidDate, in)
	}
}
