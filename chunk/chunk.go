package chunk

import (
	"fmt"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/hash"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/stats"
)

// Chunk is one flushed unit of a series: a header, the statistics of its
// values and the stored payload.
//
// Serialized layout:
//
//	header (HeaderSize bytes) | statistics (Header.StatsSize bytes) | payload (Header.CompressedSize bytes)
//
// A Chunk is immutable once produced and safe to read concurrently.
type Chunk struct {
	Header  Header
	Stats   stats.Statistics
	Payload []byte
}

// Size returns the serialized size of the chunk.
func (c *Chunk) Size() int {
	return c.Header.Size()
}

// AppendTo appends the serialized chunk to dst.
func (c *Chunk) AppendTo(dst []byte) []byte {
	dst = c.Header.AppendTo(dst)
	dst = c.Stats.AppendTo(dst)

	return append(dst, c.Payload...)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Chunk) MarshalBinary() ([]byte, error) {
	if c.Stats == nil {
		return nil, fmt.Errorf("%w: chunk without statistics", errs.ErrInvalidHeader)
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	buf.Grow(c.Size())
	buf.B = c.AppendTo(buf.B)

	out := make([]byte, buf.Len())
	copy(out, buf.B)

	return out, nil
}

// VerifyChecksum reports errs.ErrChecksumMismatch when the payload does not
// hash to the checksum of the header.
func (c *Chunk) VerifyChecksum() error {
	if sum := hash.Checksum(c.Payload); sum != c.Header.Checksum {
		return fmt.Errorf("%w: header %#016x, payload %#016x", errs.ErrChecksumMismatch, c.Header.Checksum, sum)
	}

	return nil
}

// Unmarshal parses one chunk from the start of data and returns it with the
// number of bytes consumed.
//
// The payload of the returned chunk aliases data. The checksum is verified by
// the reader, not here.
func Unmarshal(data []byte) (*Chunk, int, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return nil, 0, err
	}
	if h.Size() > len(data) {
		return nil, 0, fmt.Errorf("%w: chunk of %d bytes truncated to %d",
			errs.ErrMalformedInput, h.Size(), len(data))
	}

	st, err := stats.New(h.DataType)
	if err != nil {
		return nil, 0, err
	}
	statsEnd := HeaderSize + int(h.StatsSize)
	n, err := st.DeserializeBytes(data[HeaderSize:statsEnd])
	if err != nil {
		return nil, 0, err
	}
	if n != int(h.StatsSize) {
		return nil, 0, fmt.Errorf("%w: statistics use %d of %d bytes", errs.ErrMalformedInput, n, h.StatsSize)
	}
	if st.Count() != int64(h.Count) {
		return nil, 0, fmt.Errorf("%w: statistics count %d, header count %d",
			errs.ErrMalformedInput, st.Count(), h.Count)
	}

	end := h.Size()

	return &Chunk{Header: h, Stats: st, Payload: data[statsEnd:end:end]}, end, nil
}

// UnmarshalAll parses consecutive chunks until data is exhausted.
func UnmarshalAll(data []byte) ([]*Chunk, error) {
	var chunks []*Chunk
	for off := 0; off < len(data); {
		c, n, err := Unmarshal(data[off:])
		if err != nil {
			return nil, fmt.Errorf("chunk %d at offset %d: %w", len(chunks), off, err)
		}
		chunks = append(chunks, c)
		off += n
	}

	return chunks, nil
}
