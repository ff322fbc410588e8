package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingField     = errors.New("field is missing or empty")
	ErrUnparseableTime  = errors.New("unparseable timestamp")
	ErrUncoercibleValue = errors.New("value is not a finite number")
)

// ParseTimestamp converts a raw field into a point in time trying each layout in order.
// Timestamps without a zone are placed in loc.
func ParseTimestamp(raw any, layouts []string, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, ErrMissingField
	case time.Time:
		if v.IsZero() {
			return time.Time{}, ErrMissingField
		}
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, ErrMissingField
		}
		for _, layout := range layouts {
			if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("%q, %w", s, ErrUnparseableTime)
	default:
		return time.Time{}, fmt.Errorf("type %T, %w", raw, ErrUnparseableTime)
	}
}

// CoerceValue converts a raw field into a finite float64
func CoerceValue(raw any) (float64, error) {
	var val float64
	switch v := raw.(type) {
	case nil:
		return 0, ErrMissingField
	case float64:
		val = v
	case float32:
		val = float64(v)
	case int:
		val = float64(v)
	case int32:
		val = float64(v)
	case int64:
		val = float64(v)
	case uint:
		val = float64(v)
	case uint32:
		val = float64(v)
	case uint64:
		val = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q, %w", v, ErrUncoercibleValue)
		}
		val = f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, ErrMissingField
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q, %w", s, ErrUncoercibleValue)
		}
		val = f
	default:
		return 0, fmt.Errorf("type %T, %w", raw, ErrUncoercibleValue)
	}

	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%v, %w", val, ErrUncoercibleValue)
	}
	return val, nil
}
