// Package varint wraps encoding/binary varints with the malformed-input errors
// used across tsfkit.
//
// Unsigned values use LEB128 (binary.AppendUvarint). Signed values use zigzag
// followed by LEB128 (binary.AppendVarint), so small negative numbers stay short.
package varint

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/tsfkit/errs"
)

// MaxLen is the maximum encoded length of a 64-bit varint.
const MaxLen = binary.MaxVarintLen64

// AppendUvarint appends v as an unsigned varint.
func AppendUvarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// AppendVarint appends v as a zigzag varint.
func AppendVarint(dst []byte, v int64) []byte {
	return binary.AppendVarint(dst, v)
}

// UvarintSize returns the encoded length of v.
func UvarintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// Uvarint decodes an unsigned varint from the start of data.
func Uvarint(data []byte, what string) (uint64, int, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid or truncated %s", errs.ErrMalformedInput, what)
	}

	return v, n, nil
}

// Varint decodes a zigzag varint from the start of data.
func Varint(data []byte, what string) (int64, int, error) {
	v, n := binary.Varint(data)
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid or truncated %s", errs.ErrMalformedInput, what)
	}

	return v, n, nil
}

// ByteReader returns r as an io.ByteReader, buffering it when needed.
func ByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}

	return &singleByteReader{r: r}
}

// ReadUvarint reads an unsigned varint from r.
func ReadUvarint(r io.ByteReader, what string) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %w", errs.ErrMalformedInput, what, err)
	}

	return v, nil
}

// singleByteReader never reads past the byte it returns.
type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}

	return s.buf[0], nil
}
