package stats

import (
	"fmt"
	"io"
	"math"
	"unsafe"

	"github.com/arloliu/tsfkit/format"
)

// Numeric is the set of value types with orderable statistics.
type Numeric interface {
	int32 | int64 | float32 | float64
}

// NumericStatistics tracks min, max, first, last and sum of a numeric column.
//
// The sum of integer kinds is an int64 that wraps around on overflow. The sum
// of floating-point kinds is a float64.
type NumericStatistics[T Numeric] struct {
	header
	min, max    T
	first, last T
	intSum      int64
	floatSum    float64
}

var _ Statistics = (*NumericStatistics[int64])(nil)

// NewNumeric creates empty numeric statistics.
func NewNumeric[T Numeric]() *NumericStatistics[T] {
	return &NumericStatistics[T]{}
}

func (s *NumericStatistics[T]) Kind() format.DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return format.Int32
	case int64:
		return format.Int64
	case float32:
		return format.Float
	default:
		return format.Double
	}
}

// Update adds v observed at ts.
func (s *NumericStatistics[T]) Update(v T, ts int64) {
	if s.count == 0 {
		s.first, s.min, s.max = v, v, v
	} else {
		s.min = min(s.min, v)
		s.max = max(s.max, v)
	}
	s.last = v
	s.addSum(v)
	s.update(ts)
}

// UpdateSlice adds values observed at the matching timestamps.
//
// It panics when the slices differ in length.
func (s *NumericStatistics[T]) UpdateSlice(values []T, timestamps []int64) {
	if len(values) != len(timestamps) {
		panic(fmt.Sprintf("stats: %d values with %d timestamps", len(values), len(timestamps)))
	}
	for i, v := range values {
		s.Update(v, timestamps[i])
	}
}

func (s *NumericStatistics[T]) UpdateValue(v any, ts int64) error {
	x, ok := v.(T)
	if !ok {
		return wrongValue(s.Kind(), v)
	}
	s.Update(x, ts)

	return nil
}

func (s *NumericStatistics[T]) Min() T   { return s.min }
func (s *NumericStatistics[T]) Max() T   { return s.max }
func (s *NumericStatistics[T]) First() T { return s.first }
func (s *NumericStatistics[T]) Last() T  { return s.last }

// IntSum returns the wrapped int64 sum of an integer kind.
func (s *NumericStatistics[T]) IntSum() int64 { return s.intSum }

// FloatSum returns the sum of a floating-point kind.
func (s *NumericStatistics[T]) FloatSum() float64 { return s.floatSum }

func (s *NumericStatistics[T]) FirstValue() any        { return s.first }
func (s *NumericStatistics[T]) LastValue() any         { return s.last }
func (s *NumericStatistics[T]) MinValue() (any, error) { return s.min, nil }
func (s *NumericStatistics[T]) MaxValue() (any, error) { return s.max, nil }

// Sum returns an int64 for integer kinds and a float64 for floating-point kinds.
func (s *NumericStatistics[T]) Sum() (any, error) {
	if s.isFloat() {
		return s.floatSum, nil
	}

	return s.intSum, nil
}

func (s *NumericStatistics[T]) Merge(other Statistics) error {
	o, ok := other.(*NumericStatistics[T])
	if !ok {
		return mismatch(s.Kind(), other)
	}
	if o.count == 0 {
		return nil
	}

	if s.count == 0 {
		s.min, s.max = o.min, o.max
		s.first, s.last = o.first, o.last
		s.intSum, s.floatSum = o.intSum, o.floatSum
		s.header.merge(&o.header)

		return nil
	}

	if o.startTime <= s.startTime {
		s.first = o.first
	}
	if o.endTime >= s.endTime {
		s.last = o.last
	}
	s.min = min(s.min, o.min)
	s.max = max(s.max, o.max)
	s.intSum += o.intSum
	s.floatSum += o.floatSum
	s.header.merge(&o.header)

	return nil
}

// StatsSize returns 4 values of sizeof(T) bytes plus an 8 byte sum.
func (s *NumericStatistics[T]) StatsSize() int {
	return 4*s.valueSize() + 8
}

func (s *NumericStatistics[T]) SerializedSize() int {
	return s.header.size() + s.StatsSize()
}

func (s *NumericStatistics[T]) Serialize(w io.Writer) (int, error) {
	return serialize(s, w)
}

// AppendTo appends the header, then min, max, first, last and sum.
func (s *NumericStatistics[T]) AppendTo(dst []byte) []byte {
	dst = s.header.appendTo(dst)
	for _, v := range [4]T{s.min, s.max, s.first, s.last} {
		dst = s.appendValue(dst, v)
	}
	if s.isFloat() {
		return engine.AppendUint64(dst, math.Float64bits(s.floatSum))
	}

	return engine.AppendUint64(dst, uint64(s.intSum)) //nolint:gosec
}

func (s *NumericStatistics[T]) Deserialize(r io.Reader) error {
	var h header
	if err := h.read(r); err != nil {
		return err
	}

	buf := make([]byte, s.StatsSize())
	if err := readFull(r, buf, s.Kind().String()+" statistics"); err != nil {
		return err
	}

	size := s.valueSize()
	values := [4]T{}
	for i := range values {
		values[i] = s.value(buf[i*size:])
	}
	sum := engine.Uint64(buf[4*size:])

	s.header = h
	s.min, s.max, s.first, s.last = values[0], values[1], values[2], values[3]
	s.intSum, s.floatSum = 0, 0
	if s.isFloat() {
		s.floatSum = math.Float64frombits(sum)
	} else {
		s.intSum = int64(sum) //nolint:gosec
	}

	return nil
}

func (s *NumericStatistics[T]) DeserializeBytes(b []byte) (int, error) {
	return deserializeBytes(s, b)
}

func (s *NumericStatistics[T]) RetainedSize() int64 {
	return int64(unsafe.Sizeof(*s))
}

func (s *NumericStatistics[T]) String() string {
	return fmt.Sprintf("%s{count:%d time:[%d,%d] min:%v max:%v first:%v last:%v}",
		s.Kind(), s.count, s.startTime, s.endTime, s.min, s.max, s.first, s.last)
}

func (s *NumericStatistics[T]) addSum(v T) {
	switch x := any(v).(type) {
	case int32:
		s.intSum += int64(x)
	case int64:
		s.intSum += x
	case float32:
		s.floatSum += float64(x)
	case float64:
		s.floatSum += x
	}
}

func (s *NumericStatistics[T]) isFloat() bool {
	k := s.Kind()
	return k == format.Float || k == format.Double
}

func (s *NumericStatistics[T]) valueSize() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func (s *NumericStatistics[T]) appendValue(dst []byte, v T) []byte {
	switch x := any(v).(type) {
	case int32:
		return engine.AppendUint32(dst, uint32(x)) //nolint:gosec
	case int64:
		return engine.AppendUint64(dst, uint64(x)) //nolint:gosec
	case float32:
		return engine.AppendUint32(dst, math.Float32bits(x))
	case float64:
		return engine.AppendUint64(dst, math.Float64bits(x))
	}

	return dst
}

func (s *NumericStatistics[T]) value(b []byte) T {
	var out any
	switch any(s.min).(type) {
	case int32:
		out = int32(engine.Uint32(b)) //nolint:gosec
	case int64:
		out = int64(engine.Uint64(b)) //nolint:gosec
	case float32:
		out = math.Float32frombits(engine.Uint32(b))
	case float64:
		out = math.Float64frombits(engine.Uint64(b))
	}

	return out.(T) //nolint:forcetypeassert
}
