package encoding

// fallbackBitmap records one flag per value of a flush cycle.
//
// Bit i lives in byte i/8 at bit position i%8 (LSB first). The backing slice is
// kept across cycles and only truncated on reset.
type fallbackBitmap struct {
	bits []byte
	n    int
	set  int
}

func (b *fallbackBitmap) append(flag bool) {
	if b.n%8 == 0 {
		b.bits = append(b.bits, 0)
	}
	if flag {
		b.bits[b.n/8] |= 1 << (b.n % 8)
		b.set++
	}
	b.n++
}

// any reports whether at least one flag is set.
func (b *fallbackBitmap) any() bool {
	return b.set > 0
}

func (b *fallbackBitmap) len() int {
	return b.n
}

func (b *fallbackBitmap) bytes() []byte {
	return b.bits
}

func (b *fallbackBitmap) reset() {
	b.bits = b.bits[:0]
	b.n = 0
	b.set = 0
}

// bitmapSize returns the number of bytes holding n flags.
func bitmapSize(n int) int {
	return (n + 7) / 8
}

// bitmapGet returns flag i of a packed bitmap.
func bitmapGet(bits []byte, i int) bool {
	return bits[i/8]&(1<<(i%8)) != 0
}
