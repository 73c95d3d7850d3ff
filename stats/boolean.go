package stats

import (
	"io"
	"unsafe"

	"github.com/arloliu/tsfkit/format"
)

// BooleanStatistics tracks first, last and the number of true values.
type BooleanStatistics struct {
	header
	first, last bool
	trueCount   int64
}

var _ Statistics = (*BooleanStatistics)(nil)

// NewBoolean creates empty statistics for a BOOLEAN column.
func NewBoolean() *BooleanStatistics {
	return &BooleanStatistics{}
}

func (s *BooleanStatistics) Kind() format.DataType { return format.Boolean }

func (s *BooleanStatistics) Update(v bool, ts int64) {
	if s.count == 0 {
		s.first = v
	}
	s.last = v
	if v {
		s.trueCount++
	}
	s.update(ts)
}

func (s *BooleanStatistics) UpdateValue(v any, ts int64) error {
	b, ok := v.(bool)
	if !ok {
		return wrongValue(format.Boolean, v)
	}
	s.Update(b, ts)

	return nil
}

func (s *BooleanStatistics) First() bool      { return s.first }
func (s *BooleanStatistics) Last() bool       { return s.last }
func (s *BooleanStatistics) TrueCount() int64 { return s.trueCount }

func (s *BooleanStatistics) FirstValue() any        { return s.first }
func (s *BooleanStatistics) LastValue() any         { return s.last }
func (s *BooleanStatistics) MinValue() (any, error) { return nil, unsupported(format.Boolean, "min") }
func (s *BooleanStatistics) MaxValue() (any, error) { return nil, unsupported(format.Boolean, "max") }

// Sum returns the number of true values as an int64.
func (s *BooleanStatistics) Sum() (any, error) { return s.trueCount, nil }

func (s *BooleanStatistics) Merge(other Statistics) error {
	o, ok := other.(*BooleanStatistics)
	if !ok {
		return mismatch(format.Boolean, other)
	}
	if o.count == 0 {
		return nil
	}

	if s.count == 0 || o.startTime <= s.startTime {
		s.first = o.first
	}
	if s.count == 0 || o.endTime >= s.endTime {
		s.last = o.last
	}
	s.trueCount += o.trueCount
	s.header.merge(&o.header)

	return nil
}

// StatsSize returns 1 byte each for first and last plus an 8 byte sum.
func (s *BooleanStatistics) StatsSize() int { return 10 }

func (s *BooleanStatistics) SerializedSize() int {
	return s.header.size() + s.StatsSize()
}

func (s *BooleanStatistics) Serialize(w io.Writer) (int, error) {
	return serialize(s, w)
}

func (s *BooleanStatistics) AppendTo(dst []byte) []byte {
	dst = s.header.appendTo(dst)
	dst = append(dst, boolByte(s.first), boolByte(s.last))

	return engine.AppendUint64(dst, uint64(s.trueCount)) //nolint:gosec
}

func (s *BooleanStatistics) Deserialize(r io.Reader) error {
	var h header
	if err := h.read(r); err != nil {
		return err
	}

	var buf [10]byte
	if err := readFull(r, buf[:], "BOOLEAN statistics"); err != nil {
		return err
	}

	s.header = h
	s.first = buf[0] != 0
	s.last = buf[1] != 0
	s.trueCount = int64(engine.Uint64(buf[2:])) //nolint:gosec

	return nil
}

func (s *BooleanStatistics) DeserializeBytes(b []byte) (int, error) {
	return deserializeBytes(s, b)
}

func (s *BooleanStatistics) RetainedSize() int64 {
	return int64(unsafe.Sizeof(*s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
