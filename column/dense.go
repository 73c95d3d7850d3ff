package column

import (
	"unsafe"

	"github.com/arloliu/tsfkit/format"
)

// DenseColumn stores one slot per position.
//
// The null flags are nil when the column has no null.
type DenseColumn[T Value] struct {
	dataType  format.DataType
	values    []T
	nulls     []bool
	nullCount int
	dataBytes int64
	slots     int // length of the backing arrays
}

var _ Column[int64] = (*DenseColumn[int64])(nil)

// NewDenseColumn creates a column over values. nulls must be nil or have the
// same length as values.
func NewDenseColumn[T Value](dataType format.DataType, values []T, nulls []bool) *DenseColumn[T] {
	c := &DenseColumn[T]{dataType: dataType, values: values}
	for _, n := range nulls {
		if n {
			c.nullCount++
		}
	}
	if c.nullCount > 0 {
		c.nulls = nulls
	}
	for _, v := range values {
		c.dataBytes += valueBytes(v)
	}

	return c
}

func (c *DenseColumn[T]) DataType() format.DataType { return c.dataType }
func (c *DenseColumn[T]) Len() int                  { return len(c.values) }
func (c *DenseColumn[T]) MayHaveNull() bool         { return c.nulls != nil }
func (c *DenseColumn[T]) NullCount() int            { return c.nullCount }

func (c *DenseColumn[T]) IsNull(i int) bool {
	return c.nulls != nil && c.nulls[i]
}

func (c *DenseColumn[T]) Value(i int) T {
	return c.values[i]
}

// RetainedSize counts the whole backing arrays. A built column shares them
// with its builder, so they can be longer than Len.
func (c *DenseColumn[T]) RetainedSize() int64 {
	var zero T

	slots := int64(max(c.slots, cap(c.values)))
	size := int64(unsafe.Sizeof(*c)) + slots*int64(unsafe.Sizeof(zero)) + c.dataBytes
	if c.nulls != nil {
		size += max(slots, int64(cap(c.nulls)))
	}

	return size
}
