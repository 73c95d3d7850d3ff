// Package compress provides the optional page compression of chunk payloads.
//
// Compression runs after encoding: the chunk writer hands the complete encoded
// payload (timestamps followed by values) to the Codec selected by the chunk's
// format.CompressionType, and the reader reverses it before decoding.
//
// # Algorithms
//
//	None    payload stored as is
//	Zstd    best ratio; klauspost/compress, or libzstd with the cgo_zstd tag
//	S2      fast, klauspost's Snappy extension
//	LZ4     fast decompression
//	Snappy  plain Snappy blocks
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(payload)
//
// All built-in codecs are stateless values and safe for concurrent use. Their
// pooled internals are shared process-wide.
package compress
