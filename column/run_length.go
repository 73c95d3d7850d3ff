package column

import (
	"unsafe"

	"github.com/arloliu/tsfkit/format"
)

// RunLengthColumn repeats the single position of another column.
//
// Builders return it for columns holding only nulls, so memory stays constant
// regardless of the number of positions.
type RunLengthColumn[T Value] struct {
	dataType format.DataType
	value    Column[T]
	count    int
}

var _ Column[float64] = (*RunLengthColumn[float64])(nil)

// NewRunLengthColumn repeats position 0 of value count times.
func NewRunLengthColumn[T Value](dataType format.DataType, value Column[T], count int) *RunLengthColumn[T] {
	return &RunLengthColumn[T]{dataType: dataType, value: value, count: count}
}

func (c *RunLengthColumn[T]) DataType() format.DataType { return c.dataType }
func (c *RunLengthColumn[T]) Len() int                  { return c.count }
func (c *RunLengthColumn[T]) IsNull(int) bool           { return c.value.IsNull(0) }
func (c *RunLengthColumn[T]) MayHaveNull() bool         { return c.value.MayHaveNull() }
func (c *RunLengthColumn[T]) Value(int) T               { return c.value.Value(0) }

func (c *RunLengthColumn[T]) NullCount() int {
	if c.value.IsNull(0) {
		return c.count
	}

	return 0
}

// RetainedSize counts the repeated column once.
func (c *RunLengthColumn[T]) RetainedSize() int64 {
	return int64(unsafe.Sizeof(*c)) + c.value.RetainedSize()
}

// Single-position null columns shared by every all-null RunLengthColumn.
var (
	nullBool    = NewDenseColumn(format.Boolean, make([]bool, 1), []bool{true})
	nullInt32   = NewDenseColumn(format.Int32, make([]int32, 1), []bool{true})
	nullInt64   = NewDenseColumn(format.Int64, make([]int64, 1), []bool{true})
	nullFloat32 = NewDenseColumn(format.Float, make([]float32, 1), []bool{true})
	nullFloat64 = NewDenseColumn(format.Double, make([]float64, 1), []bool{true})
	nullBinary  = NewDenseColumn(format.Blob, make([][]byte, 1), []bool{true})
)

func sharedNull[T Value]() Column[T] {
	var zero T
	var c any
	switch any(zero).(type) {
	case bool:
		c = nullBool
	case int32:
		c = nullInt32
	case int64:
		c = nullInt64
	case float32:
		c = nullFloat32
	case float64:
		c = nullFloat64
	default:
		c = nullBinary
	}

	return c.(Column[T]) //nolint:forcetypeassert
}
