package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// gorillaMaxLeading is the largest leading-zero count the 5-bit field can hold.
const gorillaMaxLeading = 31

// GorillaEncoder compresses floating-point values with Gorilla XOR encoding.
//
// Each value is XORed with its predecessor:
//   - the first value is stored verbatim (32 or 64 bits)
//   - an unchanged value costs a single 0 bit
//   - a changed value writes 1, then either 0 and the meaningful bits inside the
//     previous window, or 1, a 5-bit leading-zero count, a 6-bit length minus one
//     and the meaningful bits
//
// Chunk payload layout:
//
//	uvarint(count) | bit stream, MSB first, zero padded to a whole byte
//
// Values round-trip bit for bit, NaN payloads and negative zero included.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for the algorithm.
type GorillaEncoder[F Float] struct {
	bitBuf    uint64
	bitCount  int
	prev      uint64
	leading   int
	trailing  int
	blockSize int
	count     int

	buf *pool.ByteBuffer
}

var (
	_ ChunkEncoder[float64] = (*GorillaEncoder[float64])(nil)
	_ ChunkEncoder[float32] = (*GorillaEncoder[float32])(nil)
)

// NewGorillaEncoder creates a Gorilla encoder for float32 or float64 values.
func NewGorillaEncoder[F Float]() *GorillaEncoder[F] {
	return &GorillaEncoder[F]{buf: pool.GetEncoderBuffer()}
}

// Write buffers a single value.
func (e *GorillaEncoder[F]) Write(v F) {
	width := bitsOf[F]()
	valBits := floatBits(v)

	e.count++
	if e.count == 1 {
		e.prev = valBits
		e.writeBits(valBits, width)

		return
	}

	xor := valBits ^ e.prev
	e.prev = valBits

	if xor == 0 {
		e.writeBits(0, 1)
		return
	}
	e.writeBits(1, 1)

	leading := min(bits.LeadingZeros64(xor)-(64-width), gorillaMaxLeading)
	trailing := bits.TrailingZeros64(xor)

	if e.blockSize > 0 && leading >= e.leading && trailing >= e.trailing {
		e.writeBits(0, 1)
		e.writeBits(xor>>e.trailing, e.blockSize)

		return
	}

	blockSize := width - leading - trailing
	e.writeBits(1, 1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec
	e.writeBits(xor>>trailing, blockSize)

	e.leading = leading
	e.trailing = trailing
	e.blockSize = blockSize
}

// WriteSlice buffers all values in order.
func (e *GorillaEncoder[F]) WriteSlice(values []F) {
	for _, v := range values {
		e.Write(v)
	}
}

// Len returns the number of values written since the last Flush.
func (e *GorillaEncoder[F]) Len() int {
	return e.count
}

// Size returns the number of whole bytes buffered so far. Up to 63 pending
// bits are not included.
func (e *GorillaEncoder[F]) Size() int {
	return e.buf.Len()
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *GorillaEncoder[F]) Flush(w io.Writer) error {
	if e.count == 0 {
		return nil
	}
	e.flushBits()

	out := make([]byte, 0, varint.MaxLen+e.buf.Len())
	out = varint.AppendUvarint(out, uint64(e.count)) //nolint:gosec
	out = append(out, e.buf.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

// Reset discards all buffered values.
func (e *GorillaEncoder[F]) Reset() {
	e.buf.Reset()
	e.bitBuf, e.bitCount = 0, 0
	e.prev = 0
	e.leading, e.trailing, e.blockSize = 0, 0, 0
	e.count = 0
}

// Finish returns the buffer to the pool. Any subsequent Write panics.
func (e *GorillaEncoder[F]) Finish() {
	if e.buf == nil {
		return
	}
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
}

// writeBits appends the low numBits bits of value, numBits in [1, 64].
func (e *GorillaEncoder[F]) writeBits(value uint64, numBits int) {
	if numBits < 64 {
		value &= 1<<numBits - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		e.bitBuf = e.bitBuf<<numBits | value
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	rest := numBits - available
	e.bitBuf = e.bitBuf<<available | value>>rest
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & (1<<rest - 1)
	e.bitCount = rest
}

// flushBits moves the pending bits to the byte buffer, zero padding the last byte.
func (e *GorillaEncoder[F]) flushBits() {
	if e.bitCount == 0 {
		return
	}

	aligned := e.bitBuf << (64 - e.bitCount)
	if e.bitCount == 64 {
		e.buf.B = binary.BigEndian.AppendUint64(e.buf.B, aligned)
	} else {
		for i := range (e.bitCount + 7) / 8 {
			e.buf.B = append(e.buf.B, byte(aligned>>(56-8*i)))
		}
	}

	e.bitBuf, e.bitCount = 0, 0
}

// GorillaDecoder decodes payloads written by GorillaEncoder.
//
// The decoder is stateless and can be shared.
type GorillaDecoder[F Float] struct{}

var (
	_ ChunkDecoder[float64] = GorillaDecoder[float64]{}
	_ ChunkDecoder[float32] = GorillaDecoder[float32]{}
)

// NewGorillaDecoder creates a Gorilla decoder.
func NewGorillaDecoder[F Float]() GorillaDecoder[F] {
	return GorillaDecoder[F]{}
}

// Decode decodes one chunk payload and appends the values to dst.
func (GorillaDecoder[F]) Decode(data []byte, dst []F) ([]F, int, error) {
	count, off, err := varint.Uvarint(data, "gorilla value count")
	if err != nil {
		return dst, 0, err
	}
	if count > MaxChunkValues {
		return dst, 0, fmt.Errorf("%w: gorilla count %d exceeds %d", errs.ErrMalformedInput, count, MaxChunkValues)
	}
	if count == 0 {
		return dst, off, nil
	}

	width := bitsOf[F]()
	br := bitReader{data: data[off:]}
	out := dst

	prev, ok := br.readBits(width)
	if !ok {
		return dst, 0, truncatedGorilla(0)
	}
	out = append(out, floatFromBits[F](prev))

	var trailing, blockSize int
	for i := 1; i < int(count); i++ {
		changed, ok := br.readBits(1)
		if !ok {
			return dst, 0, truncatedGorilla(i)
		}
		if changed == 0 {
			out = append(out, floatFromBits[F](prev))
			continue
		}

		newBlock, ok := br.readBits(1)
		if !ok {
			return dst, 0, truncatedGorilla(i)
		}
		if newBlock == 1 {
			leading, ok1 := br.readBits(5)
			size, ok2 := br.readBits(6)
			if !ok1 || !ok2 {
				return dst, 0, truncatedGorilla(i)
			}
			blockSize = int(size) + 1
			trailing = width - int(leading) - blockSize
			if trailing < 0 {
				return dst, 0, fmt.Errorf("%w: gorilla block of %d bits after %d leading zeros at value %d",
					errs.ErrMalformedInput, blockSize, leading, i)
			}
		} else if blockSize == 0 {
			return dst, 0, fmt.Errorf("%w: gorilla value %d reuses an undefined block", errs.ErrMalformedInput, i)
		}

		meaningful, ok := br.readBits(blockSize)
		if !ok {
			return dst, 0, truncatedGorilla(i)
		}
		prev ^= meaningful << trailing
		out = append(out, floatFromBits[F](prev))
	}

	return out, off + (br.pos+7)/8, nil
}

func truncatedGorilla(i int) error {
	return fmt.Errorf("%w: gorilla stream truncated at value %d", errs.ErrMalformedInput, i)
}

// bitReader reads an MSB-first bit stream.
type bitReader struct {
	data []byte
	pos  int // in bits
}

// readBits reads n bits, n in [1, 64]. It reports false when fewer remain.
func (r *bitReader) readBits(n int) (uint64, bool) {
	if r.pos+n > len(r.data)*8 {
		return 0, false
	}

	var v uint64
	for n > 0 {
		avail := 8 - r.pos&7
		take := min(avail, n)
		b := uint64(r.data[r.pos>>3]) >> (avail - take) & (1<<take - 1)
		v = v<<take | b
		r.pos += take
		n -= take
	}

	return v, true
}

// floatBits returns the IEEE 754 bits of v in the low bits of a uint64.
func floatBits[F Float](v F) uint64 {
	if bitsOf[F]() == 32 {
		return uint64(math.Float32bits(float32(v)))
	}

	return math.Float64bits(float64(v))
}

func floatFromBits[F Float](b uint64) F {
	if bitsOf[F]() == 32 {
		return F(math.Float32frombits(uint32(b))) //nolint:gosec
	}

	return F(math.Float64frombits(b))
}
