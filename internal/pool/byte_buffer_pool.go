package pool

import (
	"io"
	"sync"
)

// Buffer sizes for the default pools.
//
// Encoder buffers hold one flush cycle of a single codec. Chunk buffers hold a
// whole serialized chunk (header, statistics and possibly compressed payload).
const (
	EncoderBufferDefaultSize  = 1024 * 4        // 4KiB
	EncoderBufferMaxThreshold = 1024 * 256      // 256KiB
	ChunkBufferDefaultSize    = 1024 * 64       // 64KiB
	ChunkBufferMaxThreshold   = 1024 * 1024 * 4 // 4MiB
)

// ByteBuffer is a growable byte slice used as the byte sink of encoders.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer and keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// WriteByte appends a single byte. It never fails.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// Grow ensures room for requiredBytes more bytes without reallocating.
//
// Small buffers grow by EncoderBufferDefaultSize; buffers above four times that
// grow by 25% of their capacity, and always by at least requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := EncoderBufferDefaultSize
	if cap(bb.B) > 4*EncoderBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer. It never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the buffered bytes to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers.
//
// Buffers whose capacity grew beyond maxThreshold are dropped on Put instead of
// being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool handing out buffers of defaultSize capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	encoderDefaultPool = NewByteBufferPool(EncoderBufferDefaultSize, EncoderBufferMaxThreshold)
	chunkDefaultPool   = NewByteBufferPool(ChunkBufferDefaultSize, ChunkBufferMaxThreshold)
)

// GetEncoderBuffer retrieves a buffer from the default encoder pool.
func GetEncoderBuffer() *ByteBuffer {
	return encoderDefaultPool.Get()
}

// PutEncoderBuffer returns a buffer to the default encoder pool.
func PutEncoderBuffer(bb *ByteBuffer) {
	encoderDefaultPool.Put(bb)
}

// GetChunkBuffer retrieves a buffer from the default chunk pool.
func GetChunkBuffer() *ByteBuffer {
	return chunkDefaultPool.Get()
}

// PutChunkBuffer returns a buffer to the default chunk pool.
func PutChunkBuffer(bb *ByteBuffer) {
	chunkDefaultPool.Put(bb)
}
