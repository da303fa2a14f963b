package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/araddon/dateparse"
)

// MonthLayouts are the month grammars tried in order before falling back to
// permissive date parsing
var MonthLayouts = []string{
	"Jan-06",
	"Jan-2006",
	"January-06",
	"January-2006",
	"Jan 2006",
	"January 2006",
	"Jan 06",
	"2006-01",
	"2006/01",
	"01/2006",
	"01-2006",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseMonth parses a label into the first instant of its month in UTC
func ParseMonth(label string, layouts ...string) (time.Time, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty label, %w", ErrInvalidDate)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return timedataset.MonthStart(t), nil
		}
	}
	for _, layout := range MonthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return timedataset.MonthStart(t), nil
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q, %w", label, ErrInvalidDate)
	}
	return timedataset.MonthStart(t), nil
}

// ParseValue converts a numeric or numeric-as-text value into a finite float. Thousands
// separators are stripped and a period is the decimal separator.
func ParseValue(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, ErrMissingValue
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, ErrMissingValue
		}
		s = strings.ReplaceAll(s, ",", "")
		var err error
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q, %w", val, ErrInvalidValue)
		}
	default:
		return 0, fmt.Errorf("unsupported type %T, %w", v, ErrInvalidValue)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v, %w", f, ErrInvalidValue)
	}
	return f, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isBlankValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return isBlank(val)
	}
	return false
}
