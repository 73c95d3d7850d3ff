package pool

import "sync"

// uint64SlicePool holds scratch slices for bit-packing a batch of deltas.
var uint64SlicePool = sync.Pool{
	New: func() any { return &[]uint64{} },
}

// GetUint64Slice retrieves a uint64 slice of exactly size elements from the pool.
//
// The contents are unspecified. The caller must call the returned cleanup
// function, typically with defer, once the slice is no longer used.
//
// Example:
//
//	deltas, cleanup := pool.GetUint64Slice(128)
//	defer cleanup()
func GetUint64Slice(size int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { uint64SlicePool.Put(ptr) }
}
