package bitpack

import (
	"fmt"

	"github.com/arloliu/tsfkit/errs"
)

// Pack appends values packed at the given width to dst and returns the extended slice.
//
// Exactly PackedSize(width, len(values)) bytes are appended. Bits of a value
// above width are ignored. Width 0 appends nothing.
func Pack(dst []byte, values []uint64, width int) ([]byte, error) {
	if width < 0 || width > MaxWidth {
		return dst, fmt.Errorf("%w: bit width %d out of range", errs.ErrMalformedInput, width)
	}
	if width == 0 || len(values) == 0 {
		return dst, nil
	}

	start := len(dst)
	size := PackedSize(width, len(values))
	dst = append(dst, make([]byte, size)...)
	out := dst[start:]

	var mask uint64 = ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}

	pos := 0
	for j, v := range values {
		i := j % GroupSize
		packOne(out[pos:], v&mask, width, PosBias(width, i), ReadBytes(width, i), EndBit(width, i))
		pos += ByteAdvance(width, i)
	}

	return dst, nil
}

// Unpack fills dst with len(dst) values of the given width read from src.
//
// It returns the number of bytes consumed, PackedSize(width, len(dst)).
func Unpack(src []byte, dst []uint64, width int) (int, error) {
	if width < 0 || width > MaxWidth {
		return 0, fmt.Errorf("%w: bit width %d out of range", errs.ErrMalformedInput, width)
	}
	if width == 0 {
		clear(dst)
		return 0, nil
	}

	size := PackedSize(width, len(dst))
	if len(src) < size {
		return 0, fmt.Errorf("%w: need %d packed bytes for %d values of width %d, have %d",
			errs.ErrMalformedInput, size, len(dst), width, len(src))
	}

	pos := 0
	for j := range dst {
		i := j % GroupSize
		dst[j] = unpackOne(src[pos:], PosBias(width, i), ReadBytes(width, i), EndBit(width, i))
		pos += ByteAdvance(width, i)
	}

	return size, nil
}

func packOne(out []byte, v uint64, width, bias, nBytes, end int) {
	taken := 0
	for k := 0; k < nBytes; k++ {
		lo, hi := 0, 8
		if k == 0 {
			lo = bias
		}
		if k == nBytes-1 {
			hi = end - 8*k
		}

		n := hi - lo
		taken += n
		chunk := (v >> (width - taken)) & ((1 << n) - 1)
		out[k] |= byte(chunk << (8 - hi))
	}
}

func unpackOne(in []byte, bias, nBytes, end int) uint64 {
	var v uint64
	for k := 0; k < nBytes; k++ {
		lo, hi := 0, 8
		if k == 0 {
			lo = bias
		}
		if k == nBytes-1 {
			hi = end - 8*k
		}

		n := hi - lo
		b := (uint64(in[k]) >> (8 - hi)) & ((1 << n) - 1)
		v = v<<n | b
	}

	return v
}
