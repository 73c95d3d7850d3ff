// Package hash provides the xxHash64 helpers used to identify series and to
// checksum chunk payloads.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of a series name.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Checksum computes the xxHash64 of a payload.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest accumulates a checksum over several byte slices.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns an empty digest.
func NewDigest() Digest {
	return Digest{d: xxhash.New()}
}

// Write adds data to the digest.
func (d Digest) Write(data []byte) {
	_, _ = d.d.Write(data)
}

// Sum64 returns the checksum of everything written so far.
func (d Digest) Sum64() uint64 {
	return d.d.Sum64()
}
