// Package stats implements per-chunk statistics.
//
// Statistics come in two families. Orderable statistics (INT32, INT64, FLOAT
// and DOUBLE) track min, max, first, last, sum, count and the time range.
// Unordered statistics (TEXT, STRING and BLOB) track only first, last, count and
// the time range; BOOLEAN statistics additionally count true values as their sum.
//
// Values must be delivered in ascending timestamp order within one
// accumulation pass. Statistics of the same family can be merged in any order.
//
// Serialized layout, big-endian:
//
//	uvarint(count) | startTime (8) | endTime (8) | value statistics (StatsSize bytes)
package stats

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/tsfkit/endian"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/arloliu/tsfkit/internal/varint"
)

// Statistics is the capability set shared by all statistics kinds.
type Statistics interface {
	// Kind returns the data type the statistics were created for.
	Kind() format.DataType
	Count() int64
	StartTime() int64
	EndTime() int64
	IsEmpty() bool

	FirstValue() any
	LastValue() any
	// MinValue returns errs.ErrUnsupportedOperation for unordered kinds.
	MinValue() (any, error)
	// MaxValue returns errs.ErrUnsupportedOperation for unordered kinds.
	MaxValue() (any, error)
	// Sum returns errs.ErrUnsupportedOperation for unordered kinds.
	Sum() (any, error)

	// UpdateValue adds a dynamically typed value observed at ts.
	//
	// It returns errs.ErrUnsupportedType when v does not match Kind.
	UpdateValue(v any, ts int64) error

	// Merge folds other into the receiver.
	//
	// It returns errs.ErrTypeMismatch, leaving the receiver untouched, when
	// other belongs to another family.
	Merge(other Statistics) error

	// StatsSize returns the exact length of the value statistics written by Serialize.
	StatsSize() int
	// SerializedSize returns the exact length written by Serialize.
	SerializedSize() int
	Serialize(w io.Writer) (int, error)
	AppendTo(dst []byte) []byte

	// Deserialize replaces the receiver with statistics read from r.
	Deserialize(r io.Reader) error
	// DeserializeBytes replaces the receiver with statistics decoded from the
	// start of b and returns the number of bytes consumed.
	DeserializeBytes(b []byte) (int, error)

	// RetainedSize estimates the memory held by the statistics in bytes.
	RetainedSize() int64
}

// New creates empty statistics for kind.
func New(kind format.DataType) (Statistics, error) {
	switch kind {
	case format.Boolean:
		return NewBoolean(), nil
	case format.Int32:
		return NewNumeric[int32](), nil
	case format.Int64:
		return NewNumeric[int64](), nil
	case format.Float:
		return NewNumeric[float32](), nil
	case format.Double:
		return NewNumeric[float64](), nil
	case format.Text, format.String, format.Blob:
		return NewBinary(kind), nil
	default:
		return nil, fmt.Errorf("%w: no statistics for %s", errs.ErrUnsupportedType, kind)
	}
}

// Read deserializes statistics of the given kind from r.
func Read(kind format.DataType, r io.Reader) (Statistics, error) {
	s, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := s.Deserialize(r); err != nil {
		return nil, err
	}

	return s, nil
}

var engine = endian.GetBigEndianEngine()

// header holds the fields common to every kind.
type header struct {
	count     int64
	startTime int64
	endTime   int64
}

func (h *header) Count() int64     { return h.count }
func (h *header) StartTime() int64 { return h.startTime }
func (h *header) EndTime() int64   { return h.endTime }
func (h *header) IsEmpty() bool    { return h.count == 0 }

func (h *header) update(ts int64) {
	if h.count == 0 {
		h.startTime = ts
		h.endTime = ts
	} else {
		h.startTime = min(h.startTime, ts)
		h.endTime = max(h.endTime, ts)
	}
	h.count++
}

func (h *header) merge(o *header) {
	if h.count == 0 {
		*h = *o
		return
	}

	h.count += o.count
	h.startTime = min(h.startTime, o.startTime)
	h.endTime = max(h.endTime, o.endTime)
}

func (h *header) size() int {
	return varint.UvarintSize(uint64(h.count)) + 16 //nolint:gosec
}

func (h *header) appendTo(dst []byte) []byte {
	dst = varint.AppendUvarint(dst, uint64(h.count))    //nolint:gosec
	dst = engine.AppendUint64(dst, uint64(h.startTime)) //nolint:gosec
	dst = engine.AppendUint64(dst, uint64(h.endTime))   //nolint:gosec

	return dst
}

func (h *header) read(r io.Reader) error {
	count, err := varint.ReadUvarint(varint.ByteReader(r), "statistics count")
	if err != nil {
		return err
	}
	if count > 1<<62 {
		return fmt.Errorf("%w: statistics count %d", errs.ErrMalformedInput, count)
	}

	var buf [16]byte
	if err := readFull(r, buf[:], "statistics time range"); err != nil {
		return err
	}

	h.count = int64(count)
	h.startTime = int64(engine.Uint64(buf[0:8])) //nolint:gosec
	h.endTime = int64(engine.Uint64(buf[8:16]))  //nolint:gosec

	return nil
}

func readFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: reading %s: %w", errs.ErrMalformedInput, what, err)
	}

	return nil
}

// serialize writes the bytes of s.AppendTo to w.
func serialize(s Statistics, w io.Writer) (int, error) {
	buf := s.AppendTo(make([]byte, 0, s.SerializedSize()))
	return w.Write(buf)
}

// deserializeBytes runs s.Deserialize over b and reports the bytes consumed.
func deserializeBytes(s Statistics, b []byte) (int, error) {
	r := bytes.NewReader(b)
	if err := s.Deserialize(r); err != nil {
		return 0, err
	}

	return len(b) - r.Len(), nil
}

func unsupported(kind format.DataType, aggregate string) error {
	return fmt.Errorf("%w: %s statistics have no %s", errs.ErrUnsupportedOperation, kind, aggregate)
}

func mismatch(kind format.DataType, other Statistics) error {
	return fmt.Errorf("%w: cannot merge %s statistics into %s statistics",
		errs.ErrTypeMismatch, other.Kind(), kind)
}

func wrongValue(kind format.DataType, v any) error {
	return fmt.Errorf("%w: %T value for %s statistics", errs.ErrUnsupportedType, v, kind)
}
