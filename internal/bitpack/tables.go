// Package bitpack packs fixed-width unsigned integers contiguously, MSB first,
// across byte boundaries.
//
// Packing works in groups of 8 values. For every width 1..64 and every
// sub-position 0..7 inside a group, precomputed tables record where a value
// starts inside its first byte, how many bytes it touches and where it ends.
// After 8 values of width w exactly w bytes have been consumed and the bit
// offset is back to zero, so groups are byte aligned.
package bitpack

// MaxWidth is the largest supported bit width.
const MaxWidth = 64

// GroupSize is the number of values covered by one row of the tables.
const GroupSize = 8

var (
	posBias      [MaxWidth + 1][GroupSize]uint8
	readBytes    [MaxWidth + 1][GroupSize]uint8
	endBit       [MaxWidth + 1][GroupSize]uint8
	maxReadBytes [GroupSize]uint8
)

func init() {
	for width := 1; width <= MaxWidth; width++ {
		bias := 0
		for i := 0; i < GroupSize; i++ {
			e := bias + width
			count := e / 8
			if e%8 == 0 {
				count--
			}

			posBias[width][i] = uint8(bias)        //nolint:gosec
			readBytes[width][i] = uint8(count + 1) //nolint:gosec
			endBit[width][i] = uint8(e)            //nolint:gosec
			if uint8(count+1) > maxReadBytes[i] {  //nolint:gosec
				maxReadBytes[i] = uint8(count + 1) //nolint:gosec
			}

			bias = e % 8
		}
	}
}

// PosBias returns the bit offset, inside its first byte, at which the value at
// sub-position i starts for the given width.
func PosBias(width, i int) int {
	return int(posBias[width][i])
}

// ReadBytes returns how many bytes the value at sub-position i overlaps.
func ReadBytes(width, i int) int {
	return int(readBytes[width][i])
}

// EndBit returns the bit offset, counted from the start of the value's first
// byte, just past the value at sub-position i.
func EndBit(width, i int) int {
	return int(endBit[width][i])
}

// ByteAdvance returns how many bytes to move forward after the value at
// sub-position i to reach the first byte of the next value.
func ByteAdvance(width, i int) int {
	return int(endBit[width][i]) / 8
}

// MaxReadBytes returns the largest ReadBytes over all widths for sub-position i.
func MaxReadBytes(i int) int {
	return int(maxReadBytes[i])
}

// PackedSize returns the number of bytes needed to pack n values of the given width.
func PackedSize(width, n int) int {
	return (width*n + 7) / 8
}
