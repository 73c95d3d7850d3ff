// Package endian provides the byte order engine used for fixed-width fields.
//
// EndianEngine joins binary.ByteOrder and binary.AppendByteOrder so a single value
// can both put into pre-sized slices (statistics records, chunk headers) and append
// to growing buffers (plain encoded columns).
//
// tsfkit writes statistics and chunk headers in big-endian order; plain value
// columns default to big-endian as well but can be switched per encoder.
//
// All engines are immutable and safe for concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness reports the host byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Default returns the engine used for on-disk fixed-width fields.
func Default() EndianEngine {
	return binary.BigEndian
}
