package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakubpeleska/relbench/internal/timeutil"
	"github.com/jakubpeleska/relbench/pkg/core"
)

// DTypeForSQLType maps a SQL column type to a logical dtype.
// Unrecognized types map to core.DTypeUnknown.
func DTypeForSQLType(sqlType string) core.DType {
	base := strings.ToLower(strings.TrimSpace(sqlType))
	if strings.HasSuffix(base, "[]") {
		return core.DTypeUnknown
	}
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	base = strings.TrimSuffix(base, " with time zone")
	base = strings.TrimSuffix(base, " without time zone")

	switch base {
	case "tinyint", "smallint", "int", "integer", "bigint", "hugeint",
		"utinyint", "usmallint", "uinteger", "ubigint",
		"int1", "int2", "int4", "int8", "serial", "bigserial", "smallserial":
		return core.DTypeInt
	case "real", "float", "float4", "float8", "double", "double precision",
		"decimal", "numeric":
		return core.DTypeFloat
	case "boolean", "bool":
		return core.DTypeBool
	case "varchar", "character varying", "char", "character", "text",
		"string", "uuid", "enum", "bpchar", "nvarchar", "clob":
		return core.DTypeString
	case "timestamp", "timestamptz", "datetime", "date", "timestamp_s",
		"timestamp_ms", "timestamp_ns":
		return core.DTypeTimestamp
	case "blob", "bytea", "binary", "varbinary":
		return core.DTypeBytes
	default:
		return core.DTypeUnknown
	}
}

// NormalizeValue converts a scanned driver value to the representation the
// rest of the system expects for dtype.
func NormalizeValue(v any, dtype core.DType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch dtype {
	case core.DTypeString:
		if b, ok := v.([]byte); ok {
			return string(b), nil
		}
	case core.DTypeFloat:
		switch x := v.(type) {
		case interface{ Float64() float64 }:
			return x.Float64(), nil
		case string:
			return parseDecimal(x)
		case []byte:
			return parseDecimal(string(x))
		}
	case core.DTypeTimestamp:
		ts, ok, err := timeutil.Normalize(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return ts, nil
	}
	return v, nil
}

// parseDecimal parses the text form drivers use for NUMERIC and DECIMAL.
func parseDecimal(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return f, nil
}
