package chunk

import (
	"fmt"

	"github.com/arloliu/tsfkit/encoding"
	"github.com/arloliu/tsfkit/endian"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

const (
	// HeaderSize is the fixed size of a serialized chunk header in bytes.
	HeaderSize = 48
	// MagicV1 identifies version 1 of the chunk layout.
	MagicV1 uint16 = 0xEC10
)

// engine is the byte order of every fixed-width chunk field.
var engine = endian.GetBigEndianEngine()

// Header is the fixed-size section at the start of a serialized chunk.
//
// The payload it describes is the encoded timestamps followed by the encoded
// values, compressed as a whole.
type Header struct {
	Magic         uint16                 // byte offset 0-1
	DataType      format.DataType        // byte offset 2
	TimeEncoding  format.EncodingType    // byte offset 3
	ValueEncoding format.EncodingType    // byte offset 4
	Compression   format.CompressionType // byte offset 5
	// byte offset 6-7 reserved, must be zero

	// SeriesID is the xxHash64 of the series name.
	SeriesID uint64 // byte offset 8-15
	// Count is the number of (timestamp, value) pairs.
	Count uint32 // byte offset 16-19
	// Precision is the decimal precision of floating-point values, 0 otherwise.
	Precision uint32 // byte offset 20-23
	// TimeSize is the uncompressed size of the timestamp payload.
	TimeSize uint32 // byte offset 24-27
	// UncompressedSize is the size of both payloads before compression.
	UncompressedSize uint32 // byte offset 28-31
	// CompressedSize is the size of the stored payload.
	CompressedSize uint32 // byte offset 32-35
	// StatsSize is the size of the serialized statistics following the header.
	StatsSize uint32 // byte offset 36-39
	// Checksum is the xxHash64 of the stored payload.
	Checksum uint64 // byte offset 40-47
}

// AppendTo appends the serialized header to dst.
func (h *Header) AppendTo(dst []byte) []byte {
	dst = engine.AppendUint16(dst, h.Magic)
	dst = append(dst,
		byte(h.DataType),
		byte(h.TimeEncoding),
		byte(h.ValueEncoding),
		byte(h.Compression),
		0, 0,
	)
	dst = engine.AppendUint64(dst, h.SeriesID)
	dst = engine.AppendUint32(dst, h.Count)
	dst = engine.AppendUint32(dst, h.Precision)
	dst = engine.AppendUint32(dst, h.TimeSize)
	dst = engine.AppendUint32(dst, h.UncompressedSize)
	dst = engine.AppendUint32(dst, h.CompressedSize)
	dst = engine.AppendUint32(dst, h.StatsSize)
	dst = engine.AppendUint64(dst, h.Checksum)

	return dst
}

// Bytes serializes the header into a new slice of HeaderSize bytes.
func (h *Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// Parse parses the header from the first HeaderSize bytes of data.
//
// It returns errs.ErrInvalidHeader for short input, an unknown magic number,
// non-zero reserved bytes, unknown enum values or inconsistent sizes.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: %d bytes, need %d", errs.ErrInvalidHeader, len(data), HeaderSize)
	}

	parsed := Header{
		Magic:            engine.Uint16(data[0:2]),
		DataType:         format.DataType(data[2]),
		TimeEncoding:     format.EncodingType(data[3]),
		ValueEncoding:    format.EncodingType(data[4]),
		Compression:      format.CompressionType(data[5]),
		SeriesID:         engine.Uint64(data[8:16]),
		Count:            engine.Uint32(data[16:20]),
		Precision:        engine.Uint32(data[20:24]),
		TimeSize:         engine.Uint32(data[24:28]),
		UncompressedSize: engine.Uint32(data[28:32]),
		CompressedSize:   engine.Uint32(data[32:36]),
		StatsSize:        engine.Uint32(data[36:40]),
		Checksum:         engine.Uint64(data[40:48]),
	}
	if data[6] != 0 || data[7] != 0 {
		return fmt.Errorf("%w: reserved bytes %#x %#x", errs.ErrInvalidHeader, data[6], data[7])
	}
	if err := parsed.Validate(); err != nil {
		return err
	}

	*h = parsed

	return nil
}

// Validate checks the magic number, the enum fields and the size relations.
func (h *Header) Validate() error {
	if h.Magic != MagicV1 {
		return fmt.Errorf("%w: magic number %#04x", errs.ErrInvalidHeader, h.Magic)
	}
	if !h.DataType.IsValid() {
		return fmt.Errorf("%w: data type %#x", errs.ErrInvalidHeader, uint8(h.DataType))
	}
	if !h.TimeEncoding.IsValid() {
		return fmt.Errorf("%w: time encoding %#x", errs.ErrInvalidHeader, uint8(h.TimeEncoding))
	}
	if !h.ValueEncoding.IsValid() {
		return fmt.Errorf("%w: value encoding %#x", errs.ErrInvalidHeader, uint8(h.ValueEncoding))
	}
	if !h.Compression.IsValid() {
		return fmt.Errorf("%w: compression %#x", errs.ErrInvalidHeader, uint8(h.Compression))
	}
	if h.Count == 0 || h.Count > encoding.MaxChunkValues {
		return fmt.Errorf("%w: count %d", errs.ErrInvalidHeader, h.Count)
	}
	if h.TimeSize > h.UncompressedSize {
		return fmt.Errorf("%w: timestamp payload of %d bytes exceeds payload of %d bytes",
			errs.ErrInvalidHeader, h.TimeSize, h.UncompressedSize)
	}

	return nil
}

// Size returns the total serialized size of the chunk described by h.
func (h *Header) Size() int {
	return HeaderSize + int(h.StatsSize) + int(h.CompressedSize)
}
