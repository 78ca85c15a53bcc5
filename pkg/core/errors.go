package core

import "fmt"

// FeatureConversionError is returned when a column can not be turned into
// a feature payload.
type FeatureConversionError struct {
	Table  string
	Column string
	DType  DType
	Err    error
}

func (e *FeatureConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert column %s.%s (%s) to features", e.Table, e.Column, e.DType)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FeatureConversionError) Unwrap() error { return e.Err }

// ReferentialIntegrityError is returned when a foreign key points at a table
// or key that does not exist.
type ReferentialIntegrityError struct {
	Table       string
	Column      string
	TargetTable string
	Value       any
	Row         int
	Reason      string
}

func (e *ReferentialIntegrityError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("foreign key %s.%s -> %s: row %d value %v: %s",
			e.Table, e.Column, e.TargetTable, e.Row, e.Value, e.Reason)
	}
	return fmt.Sprintf("foreign key %s.%s -> %s: %s", e.Table, e.Column, e.TargetTable, e.Reason)
}

// IndexError is returned for out-of-range or non-integral index lookups.
type IndexError struct {
	What  string
	Index any
	Len   int
}

func (e *IndexError) Error() string {
	if e.Len >= 0 {
		return fmt.Sprintf("%s: index %v out of range [0, %d)", e.What, e.Index, e.Len)
	}
	return fmt.Sprintf("%s: invalid index %v", e.What, e.Index)
}

// ParseError is returned for malformed timestamp values.
type ParseError struct {
	Value any
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse timestamp %v at row %d: %v", e.Value, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValueError is returned for invalid arguments.
type ValueError struct {
	Param  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}
