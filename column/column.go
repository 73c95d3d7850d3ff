// Package column implements append-only typed columns with null tracking.
//
// A Builder accumulates the values of one column in memory and produces an
// immutable Column with Build. Two degenerate cases are stored compactly: a
// column without any non-null value becomes a RunLengthColumn over a single
// shared null, and a column without any null carries no null flags at all.
//
// Builders are single-writer. Built columns are immutable and may be read
// concurrently.
package column

import (
	"unsafe"

	"github.com/arloliu/tsfkit/format"
)

// Value is the set of element types a column can hold.
type Value interface {
	bool | int32 | int64 | float32 | float64 | []byte
}

// Column is an immutable sequence of nullable values.
type Column[T Value] interface {
	// DataType returns the logical type of the column.
	DataType() format.DataType
	// Len returns the number of positions, nulls included.
	Len() int
	// IsNull reports whether position i is null.
	IsNull(i int) bool
	// MayHaveNull reports whether any position may be null.
	MayHaveNull() bool
	// NullCount returns the number of null positions.
	NullCount() int
	// Value returns the value at position i, or the zero value for a null position.
	Value(i int) T
	// RetainedSize estimates the memory held by the column in bytes.
	RetainedSize() int64
}

// defaultDataType maps an element type to its natural data type. []byte maps
// to BLOB; builders for TEXT and STRING pick their type with WithDataType.
func defaultDataType[T Value]() format.DataType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return format.Boolean
	case int32:
		return format.Int32
	case int64:
		return format.Int64
	case float32:
		return format.Float
	case float64:
		return format.Double
	default:
		return format.Blob
	}
}

// sizePerPosition is the number of bytes one position adds: the value slot and its null flag.
func sizePerPosition[T Value]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero)) + 1
}

func valueBytes[T Value](v T) int64 {
	if b, ok := any(v).([]byte); ok {
		return int64(len(b))
	}

	return 0
}
