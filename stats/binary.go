package stats

import (
	"bytes"
	"fmt"
	"io"
	"unsafe"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

// BinaryStatistics tracks first and last of TEXT, STRING and BLOB columns.
//
// Binary values have no order, so MinValue, MaxValue and Sum always fail. The
// three binary kinds may be merged with each other.
type BinaryStatistics struct {
	header
	kind        format.DataType
	first, last []byte
}

var _ Statistics = (*BinaryStatistics)(nil)

// NewBinary creates empty statistics for a TEXT, STRING or BLOB column.
func NewBinary(kind format.DataType) *BinaryStatistics {
	return &BinaryStatistics{kind: kind}
}

func (s *BinaryStatistics) Kind() format.DataType { return s.kind }

// Update adds v observed at ts. The statistics keep copies of the values they retain.
func (s *BinaryStatistics) Update(v []byte, ts int64) {
	if s.count == 0 {
		s.first = bytes.Clone(v)
	}
	s.last = append(s.last[:0:0], v...)
	s.update(ts)
}

// UpdateValue accepts []byte or string values.
func (s *BinaryStatistics) UpdateValue(v any, ts int64) error {
	switch x := v.(type) {
	case []byte:
		s.Update(x, ts)
	case string:
		s.Update([]byte(x), ts)
	default:
		return wrongValue(s.kind, v)
	}

	return nil
}

func (s *BinaryStatistics) First() []byte { return s.first }
func (s *BinaryStatistics) Last() []byte  { return s.last }

func (s *BinaryStatistics) FirstValue() any        { return s.first }
func (s *BinaryStatistics) LastValue() any         { return s.last }
func (s *BinaryStatistics) MinValue() (any, error) { return nil, unsupported(s.kind, "min") }
func (s *BinaryStatistics) MaxValue() (any, error) { return nil, unsupported(s.kind, "max") }
func (s *BinaryStatistics) Sum() (any, error)      { return nil, unsupported(s.kind, "sum") }

func (s *BinaryStatistics) Merge(other Statistics) error {
	o, ok := other.(*BinaryStatistics)
	if !ok {
		return mismatch(s.kind, other)
	}
	if o.count == 0 {
		return nil
	}

	if s.count == 0 || o.startTime <= s.startTime {
		s.first = bytes.Clone(o.first)
	}
	if s.count == 0 || o.endTime >= s.endTime {
		s.last = bytes.Clone(o.last)
	}
	s.header.merge(&o.header)

	return nil
}

// StatsSize returns the two length-prefixed values.
func (s *BinaryStatistics) StatsSize() int {
	return 4 + len(s.first) + 4 + len(s.last)
}

func (s *BinaryStatistics) SerializedSize() int {
	return s.header.size() + s.StatsSize()
}

func (s *BinaryStatistics) Serialize(w io.Writer) (int, error) {
	return serialize(s, w)
}

func (s *BinaryStatistics) AppendTo(dst []byte) []byte {
	dst = s.header.appendTo(dst)
	dst = engine.AppendUint32(dst, uint32(len(s.first))) //nolint:gosec
	dst = append(dst, s.first...)
	dst = engine.AppendUint32(dst, uint32(len(s.last))) //nolint:gosec

	return append(dst, s.last...)
}

func (s *BinaryStatistics) Deserialize(r io.Reader) error {
	var h header
	if err := h.read(r); err != nil {
		return err
	}

	first, err := readBinary(r, "first value")
	if err != nil {
		return err
	}
	last, err := readBinary(r, "last value")
	if err != nil {
		return err
	}

	s.header = h
	s.first, s.last = first, last

	return nil
}

func (s *BinaryStatistics) DeserializeBytes(b []byte) (int, error) {
	return deserializeBytes(s, b)
}

func (s *BinaryStatistics) RetainedSize() int64 {
	return int64(unsafe.Sizeof(*s)) + int64(cap(s.first)) + int64(cap(s.last))
}

func (s *BinaryStatistics) String() string {
	return fmt.Sprintf("%s{count:%d time:[%d,%d] first:%q last:%q}",
		s.kind, s.count, s.startTime, s.endTime, s.first, s.last)
}

// readBinary reads a 4 byte length and the value it announces.
//
// The value is read through a limited reader so a corrupt length cannot force
// a large allocation up front.
func readBinary(r io.Reader, what string) ([]byte, error) {
	var lenBuf [4]byte
	if err := readFull(r, lenBuf[:], what+" length"); err != nil {
		return nil, err
	}
	n := int64(engine.Uint32(lenBuf[:]))

	v, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", errs.ErrMalformedInput, what, err)
	}
	if int64(len(v)) != n {
		return nil, fmt.Errorf("%w: %s holds %d of %d bytes", errs.ErrMalformedInput, what, len(v), n)
	}

	return v, nil
}
