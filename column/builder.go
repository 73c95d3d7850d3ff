package column

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/arloliu/tsfkit/internal/options"
)

const (
	// DefaultCapacity is the minimum capacity after the first growth.
	DefaultCapacity = 64
	// MaxCapacity bounds the capacity of a builder.
	MaxCapacity = math.MaxInt32 - 8

	resetSkew = 1.25
)

type builderConfig struct {
	dataType format.DataType
	tracker  MemoryTracker
}

// BuilderOption configures a Builder.
type BuilderOption = options.Option[*builderConfig]

// WithDataType sets the logical type of a []byte builder: TEXT, STRING or BLOB.
//
// Other element types only accept their own data type.
func WithDataType(dataType format.DataType) BuilderOption {
	return options.New(func(c *builderConfig) error {
		c.dataType = dataType
		return nil
	})
}

// WithMemoryTracker reports the bytes of every appended position to tracker.
func WithMemoryTracker(tracker MemoryTracker) BuilderOption {
	return options.NoError(func(c *builderConfig) {
		c.tracker = tracker
	})
}

// Builder accumulates the values of one column.
//
// Values and null flags live in two slices of equal length, the capacity.
// The first growth allocates the expected entry count; later growths add half
// the current capacity, at least up to DefaultCapacity.
type Builder[T Value] struct {
	dataType  format.DataType
	tracker   MemoryTracker
	initial   int
	grown     bool
	values    []T
	nulls     []bool
	positions int
	hasNull   bool
	hasValue  bool
	dataBytes int64
	retained  int64
}

// NewBuilder creates a builder expecting about expectedEntries positions.
//
// It returns errs.ErrUnsupportedType when WithDataType names a type T cannot hold.
func NewBuilder[T Value](expectedEntries int, opts ...BuilderOption) (*Builder[T], error) {
	cfg := &builderConfig{dataType: defaultDataType[T]()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	want := defaultDataType[T]()
	if cfg.dataType != want && (want != format.Blob || !cfg.dataType.IsBinary()) {
		var zero T
		return nil, fmt.Errorf("%w: %s column cannot hold %T values", errs.ErrUnsupportedType, cfg.dataType, zero)
	}

	b := &Builder[T]{
		dataType: cfg.dataType,
		tracker:  cfg.tracker,
		initial:  max(expectedEntries, 1),
	}
	b.updateRetainedSize()

	return b, nil
}

// NewBuilderLike creates an empty builder of the same type, sized for the
// number of positions written to b so far.
func (b *Builder[T]) NewBuilderLike(tracker MemoryTracker) *Builder[T] {
	nb := &Builder[T]{
		dataType: b.dataType,
		tracker:  tracker,
		initial:  resetSize(b.positions),
	}
	nb.updateRetainedSize()

	return nb
}

// DataType returns the logical type of the column.
func (b *Builder[T]) DataType() format.DataType {
	return b.dataType
}

// PositionCount returns the number of positions written, nulls included.
func (b *Builder[T]) PositionCount() int {
	return b.positions
}

// RetainedSize returns the bytes held by the builder: the fixed overhead, both
// slices at full capacity and the tracker when present.
func (b *Builder[T]) RetainedSize() int64 {
	return b.retained
}

// WriteValue appends a non-null value. A []byte value is retained, not copied.
func (b *Builder[T]) WriteValue(v T) {
	if b.positions == len(b.values) {
		b.grow()
	}

	b.values[b.positions] = v
	b.hasValue = true
	b.positions++

	extra := valueBytes(v)
	b.dataBytes += extra
	b.retained += extra
	b.track(extra)
}

// AppendNull appends a null position.
func (b *Builder[T]) AppendNull() {
	if b.positions == len(b.values) {
		b.grow()
	}

	b.nulls[b.positions] = true
	b.hasNull = true
	b.positions++
	b.track(0)
}

// WriteFrom appends position i of src, null state included.
func (b *Builder[T]) WriteFrom(src Column[T], i int) {
	if src.IsNull(i) {
		b.AppendNull()
		return
	}

	b.WriteValue(src.Value(i))
}

// WriteGeneric appends a dynamically typed value.
//
// It returns errs.ErrUnsupportedType, appending nothing, when v is not a T.
// A []byte builder also accepts strings.
func (b *Builder[T]) WriteGeneric(v any) error {
	if x, ok := v.(T); ok {
		b.WriteValue(x)
		return nil
	}

	if s, ok := v.(string); ok {
		if x, ok := any([]byte(s)).(T); ok {
			b.WriteValue(x)
			return nil
		}
	}

	return fmt.Errorf("%w: %T value for %s column", errs.ErrUnsupportedType, v, b.dataType)
}

// Build returns an immutable column of PositionCount positions.
//
// The builder may keep appending afterwards; earlier built columns never
// observe later writes.
func (b *Builder[T]) Build() Column[T] {
	if !b.hasValue {
		return NewRunLengthColumn(b.dataType, sharedNull[T](), b.positions)
	}

	n := b.positions
	c := &DenseColumn[T]{
		dataType:  b.dataType,
		values:    b.values[:n:n],
		dataBytes: b.dataBytes,
		slots:     len(b.values),
	}
	if b.hasNull {
		c.nulls = b.nulls[:n:n]
		for _, isNull := range c.nulls {
			if isNull {
				c.nullCount++
			}
		}
	}

	return c
}

func (b *Builder[T]) grow() {
	newSize := b.initial
	if b.grown {
		newSize = newCapacity(len(b.values))
	}
	b.grown = true

	if newSize <= len(b.values) {
		panic(fmt.Sprintf("column: builder capacity %d exhausted", len(b.values)))
	}

	values := make([]T, newSize)
	copy(values, b.values)
	nulls := make([]bool, newSize)
	copy(nulls, b.nulls)

	b.values, b.nulls = values, nulls
	b.updateRetainedSize()
}

func (b *Builder[T]) track(extra int64) {
	if b.tracker != nil {
		b.tracker.AddBytes(sizePerPosition[T]() + extra)
	}
}

func (b *Builder[T]) updateRetainedSize() {
	var zero T
	b.retained = int64(unsafe.Sizeof(*b)) +
		int64(len(b.values))*int64(unsafe.Sizeof(zero)) +
		int64(len(b.nulls)) +
		b.dataBytes
	if b.tracker != nil {
		b.retained += statusSize
	}
}

// newCapacity grows by half the current capacity, at least to DefaultCapacity.
func newCapacity(current int) int {
	size := int64(current) + int64(current>>1)
	if size < DefaultCapacity {
		size = DefaultCapacity
	}
	if size > MaxCapacity {
		size = MaxCapacity
	}

	return int(size)
}

// resetSize returns the initial capacity for a builder replacing one that held n positions.
func resetSize(n int) int {
	size := int64(math.Ceil(float64(n) * resetSkew))
	if size > MaxCapacity {
		size = MaxCapacity
	}

	return max(int(size), 1)
}
