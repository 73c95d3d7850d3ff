package column

import "unsafe"

// MemoryTracker receives the bytes added by builders, one call per appended position.
type MemoryTracker interface {
	AddBytes(n int64)
}

// Status is a MemoryTracker that accumulates bytes against an optional limit.
//
// A reader fills builders until IsFull and then emits the built columns.
type Status struct {
	bytes    int64
	maxBytes int64
}

var _ MemoryTracker = (*Status)(nil)

// statusSize is the overhead a tracker adds to a builder's retained size.
var statusSize = int64(unsafe.Sizeof(Status{}))

// NewStatus creates a tracker. A maxBytes of 0 means no limit.
func NewStatus(maxBytes int64) *Status {
	return &Status{maxBytes: maxBytes}
}

func (s *Status) AddBytes(n int64) {
	s.bytes += n
}

// Bytes returns the bytes added so far.
func (s *Status) Bytes() int64 {
	return s.bytes
}

// IsFull reports whether the limit has been reached.
func (s *Status) IsFull() bool {
	return s.maxBytes > 0 && s.bytes >= s.maxBytes
}
