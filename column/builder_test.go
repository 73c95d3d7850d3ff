package column

import (
	"testing"
	"unsafe"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DenseWithoutNulls(t *testing.T) {
	b, err := NewBuilder[int64](4)
	require.NoError(t, err)

	for i := range int64(100) {
		b.WriteValue(i * 3)
	}
	require.Equal(t, 100, b.PositionCount())

	col := b.Build()
	require.IsType(t, &DenseColumn[int64]{}, col)
	require.Equal(t, format.Int64, col.DataType())
	require.Equal(t, 100, col.Len())
	require.False(t, col.MayHaveNull())
	require.Zero(t, col.NullCount())
	require.Nil(t, col.(*DenseColumn[int64]).nulls)

	for i := range 100 {
		require.False(t, col.IsNull(i))
		require.Equal(t, int64(i*3), col.Value(i))
	}
}

func TestBuilder_DenseWithNulls(t *testing.T) {
	b, err := NewBuilder[float64](2)
	require.NoError(t, err)

	b.WriteValue(1.5)
	b.AppendNull()
	b.WriteValue(-2)
	b.AppendNull()

	col := b.Build()
	require.Equal(t, 4, col.Len())
	require.True(t, col.MayHaveNull())
	require.Equal(t, 2, col.NullCount())
	require.Equal(t, []bool{false, true, false, true},
		[]bool{col.IsNull(0), col.IsNull(1), col.IsNull(2), col.IsNull(3)})
	require.Equal(t, 1.5, col.Value(0))
	require.Equal(t, -2.0, col.Value(2))
}

func TestBuilder_AllNullsBuildConstantColumn(t *testing.T) {
	build := func(n int) Column[int32] {
		b, err := NewBuilder[int32](1)
		require.NoError(t, err)
		for range n {
			b.AppendNull()
		}

		return b.Build()
	}

	small := build(10)
	large := build(100_000)

	require.IsType(t, &RunLengthColumn[int32]{}, large)
	require.Equal(t, 100_000, large.Len())
	require.Equal(t, 100_000, large.NullCount())
	require.True(t, large.IsNull(99_999))
	require.True(t, large.MayHaveNull())
	require.Zero(t, large.Value(5))
	require.Equal(t, small.RetainedSize(), large.RetainedSize())

	empty := build(0)
	require.Zero(t, empty.Len())
	require.Zero(t, empty.NullCount())
}

func TestBuilder_BuiltColumnIsImmutable(t *testing.T) {
	b, err := NewBuilder[int64](2)
	require.NoError(t, err)

	b.WriteValue(1)
	b.WriteValue(2)
	first := b.Build()

	b.AppendNull()
	b.WriteValue(4)
	second := b.Build()

	require.Equal(t, 2, first.Len())
	require.False(t, first.MayHaveNull())
	require.Equal(t, int64(2), first.Value(1))

	require.Equal(t, 4, second.Len())
	require.True(t, second.IsNull(2))
	require.Equal(t, int64(4), second.Value(3))
}

func TestBuilder_BuiltColumnCountsBackingArrays(t *testing.T) {
	b, err := NewBuilder[int64](10)
	require.NoError(t, err)

	for i := range int64(3) {
		b.WriteValue(i)
	}
	require.Len(t, b.values, 10)

	header := int64(unsafe.Sizeof(DenseColumn[int64]{}))
	noNulls := b.Build()
	require.Equal(t, header+10*8, noNulls.RetainedSize())

	b.AppendNull()
	withNulls := b.Build()
	require.Equal(t, 4, withNulls.Len())
	require.Equal(t, header+10*8+10, withNulls.RetainedSize())

	exact := NewDenseColumn(format.Int64, []int64{1, 2}, []bool{false, true})
	require.Equal(t, header+2*8+2, exact.RetainedSize())
}

func TestBuilder_GrowthAndRetainedSize(t *testing.T) {
	b, err := NewBuilder[int64](10)
	require.NoError(t, err)

	empty := b.RetainedSize()
	require.Positive(t, empty)

	b.WriteValue(1)
	require.Len(t, b.values, 10)
	require.Len(t, b.nulls, 10)
	require.Equal(t, empty+10*8+10, b.RetainedSize())

	for range 10 {
		b.WriteValue(2)
	}
	require.Len(t, b.values, DefaultCapacity)
	require.Len(t, b.nulls, DefaultCapacity)

	for range DefaultCapacity {
		b.AppendNull()
	}
	require.Len(t, b.values, DefaultCapacity+DefaultCapacity/2)
	require.Equal(t, len(b.values), len(b.nulls))
	require.Equal(t, empty+int64(len(b.values))*9, b.RetainedSize())

	prev := 0
	for _, size := range []int{0, 10, 64, 96, 1000} {
		next := newCapacity(size)
		require.Greater(t, next, size)
		require.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestBuilder_MemoryTracker(t *testing.T) {
	status := NewStatus(10 * 9)

	b, err := NewBuilder[int64](4, WithMemoryTracker(status))
	require.NoError(t, err)

	plain, err := NewBuilder[int64](4)
	require.NoError(t, err)
	require.Equal(t, plain.RetainedSize()+statusSize, b.RetainedSize())

	for i := range 9 {
		b.WriteValue(int64(i))
	}
	require.False(t, status.IsFull())
	b.AppendNull()
	require.True(t, status.IsFull())
	require.Equal(t, int64(90), status.Bytes())
}

func TestBuilder_WriteFrom(t *testing.T) {
	src, err := NewBuilder[bool](4)
	require.NoError(t, err)
	src.WriteValue(true)
	src.AppendNull()
	src.WriteValue(false)
	srcCol := src.Build()

	dst, err := NewBuilder[bool](4)
	require.NoError(t, err)
	for i := srcCol.Len() - 1; i >= 0; i-- {
		dst.WriteFrom(srcCol, i)
	}

	col := dst.Build()
	require.Equal(t, 3, col.Len())
	require.False(t, col.Value(0))
	require.True(t, col.IsNull(1))
	require.True(t, col.Value(2))
}

func TestBuilder_WriteGeneric(t *testing.T) {
	b, err := NewBuilder[int32](4)
	require.NoError(t, err)

	require.NoError(t, b.WriteGeneric(int32(7)))

	err = b.WriteGeneric(int64(7))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
	require.ErrorContains(t, err, "int64 value for INT32 column")

	err = b.WriteGeneric("7")
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
	require.Equal(t, 1, b.PositionCount())

	text, err := NewBuilder[[]byte](4, WithDataType(format.Text))
	require.NoError(t, err)
	require.NoError(t, text.WriteGeneric("hello"))
	require.NoError(t, text.WriteGeneric([]byte("world")))
	require.ErrorIs(t, text.WriteGeneric(3.5), errs.ErrUnsupportedType)

	col := text.Build()
	require.Equal(t, format.Text, col.DataType())
	require.Equal(t, []byte("hello"), col.Value(0))
	require.Equal(t, []byte("world"), col.Value(1))
}

func TestBuilder_DataTypeValidation(t *testing.T) {
	_, err := NewBuilder[int32](1, WithDataType(format.Double))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = NewBuilder[[]byte](1, WithDataType(format.Int64))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	for _, kind := range []format.DataType{format.Text, format.String, format.Blob} {
		b, err := NewBuilder[[]byte](1, WithDataType(kind))
		require.NoError(t, err)
		require.Equal(t, kind, b.DataType())
	}
}

func TestBuilder_NewBuilderLike(t *testing.T) {
	b, err := NewBuilder[float32](1)
	require.NoError(t, err)
	for range 100 {
		b.WriteValue(1)
	}

	status := NewStatus(0)
	nb := b.NewBuilderLike(status)
	require.Equal(t, 125, nb.initial)
	require.Zero(t, nb.PositionCount())
	require.Equal(t, format.Float, nb.DataType())

	nb.AppendNull()
	require.Len(t, nb.values, 125)
	require.Equal(t, int64(5), status.Bytes())

	require.Equal(t, 1, resetSize(0))
	require.Equal(t, 2, resetSize(1))
	require.Equal(t, 13, resetSize(10))
}

func TestBuilder_BinaryRetainedSizeCountsData(t *testing.T) {
	b, err := NewBuilder[[]byte](2)
	require.NoError(t, err)

	before := b.RetainedSize()
	b.WriteValue(make([]byte, 1000))
	require.GreaterOrEqual(t, b.RetainedSize()-before, int64(1000))

	col := b.Build()
	require.GreaterOrEqual(t, col.RetainedSize(), int64(1000))
}
