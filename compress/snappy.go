package compress

import "github.com/golang/snappy"

// SnappyCompressor provides Snappy block compression.
//
// Its blocks are readable by any Snappy implementation, unlike S2 output.
type SnappyCompressor struct{}

var _ Codec = (*SnappyCompressor)(nil)

// NewSnappyCompressor creates a new Snappy compressor.
func NewSnappyCompressor() SnappyCompressor {
	return SnappyCompressor{}
}

func (c SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return snappy.Encode(nil, data), nil
}

func (c SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, malformed("snappy", err)
	}

	return out, nil
}
