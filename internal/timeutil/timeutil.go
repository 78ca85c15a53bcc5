// Package timeutil normalizes timestamp-like column values to second
// precision UTC timestamps.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/jakubpeleska/relbench/pkg/core"
)

// ToUnixTime normalizes a column of timestamp-like values to time.Time values
// truncated to the second, in UTC. Supported inputs are strings, time.Time,
// *time.Time, integers (unix seconds) and floats (unix seconds, fraction
// dropped). Nil entries stay nil. The input is not modified.
func ToUnixTime(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		ts, ok, err := Normalize(v)
		if err != nil {
			return nil, &core.ParseError{Value: v, Row: i, Err: err}
		}
		if ok {
			out[i] = ts
		}
	}
	return out, nil
}

// UnixSeconds converts a column of timestamp-like values to unix seconds.
// Nulls have no unix representation and are rejected.
func UnixSeconds(values []any) ([]int64, error) {
	out := make([]int64, len(values))
	for i, v := range values {
		ts, ok, err := Normalize(v)
		if err != nil {
			return nil, &core.ParseError{Value: v, Row: i, Err: err}
		}
		if !ok {
			return nil, &core.ParseError{Value: v, Row: i, Err: fmt.Errorf("null timestamp")}
		}
		out[i] = ts.Unix()
	}
	return out, nil
}

// Normalize converts a single value. ok is false for nulls.
func Normalize(v any) (ts time.Time, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return Truncate(x), true, nil
	case *time.Time:
		if x == nil {
			return time.Time{}, false, nil
		}
		return Truncate(*x), true, nil
	case string:
		return parseString(x)
	case []byte:
		return parseString(string(x))
	case int:
		return fromUnix(int64(x))
	case int8:
		return fromUnix(int64(x))
	case int16:
		return fromUnix(int64(x))
	case int32:
		return fromUnix(int64(x))
	case int64:
		return fromUnix(x)
	case uint:
		return fromUnsigned(uint64(x))
	case uint8:
		return fromUnix(int64(x))
	case uint16:
		return fromUnix(int64(x))
	case uint32:
		return fromUnix(int64(x))
	case uint64:
		return fromUnsigned(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func fromUnix(sec int64) (time.Time, bool, error) {
	return time.Unix(sec, 0).UTC(), true, nil
}

func fromUnsigned(sec uint64) (time.Time, bool, error) {
	if sec > math.MaxInt64 {
		return time.Time{}, false, fmt.Errorf("unix seconds %d out of range", sec)
	}
	return fromUnix(int64(sec))
}

// fromFloat treats NaN as null.
func fromFloat(sec float64) (time.Time, bool, error) {
	if math.IsNaN(sec) {
		return time.Time{}, false, nil
	}
	return fromUnix(int64(sec))
}

// Truncate drops sub-second precision and converts to UTC.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second).UTC()
}

func parseString(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false, err
	}
	return Truncate(t), true, nil
}
