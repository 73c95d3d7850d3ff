package compress

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp":   NewNoOpCompressor(),
		"LZ4":    NewLZ4Compressor(),
		"S2":     NewS2Compressor(),
		"Zstd":   NewZstdCompressor(),
		"Snappy": NewSnappyCompressor(),
	}
}

func TestGetCodec(t *testing.T) {
	types := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
		format.CompressionSnappy,
	}
	for _, ct := range types {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}

	_, err := GetCodec(format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestCompressionStats(t *testing.T) {
	stats := CompressionStats{OriginalSize: 1000, CompressedSize: 250}
	require.InDelta(t, 0.25, stats.CompressionRatio(), 1e-9)
	require.InDelta(t, 75.0, stats.SpaceSavings(), 1e-9)

	require.Zero(t, CompressionStats{}.CompressionRatio())
}

func TestCompressDecompress(t *testing.T) {
	data := bytes.Repeat([]byte{0x08, 0x08, 0x0a, 0x03, 0x00, 0x28, 0x00}, 512)

	packed, stats, err := Compress(format.CompressionZstd, data)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, stats.Algorithm)
	require.Equal(t, int64(len(data)), stats.OriginalSize)
	require.Equal(t, int64(len(packed)), stats.CompressedSize)
	require.Less(t, stats.CompressionRatio(), 0.5)

	out, err := Decompress(format.CompressionZstd, packed)
	require.NoError(t, err)
	require.Equal(t, data, out)

	_, _, err = Compress(format.CompressionType(0), data)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
	_, err = Decompress(format.CompressionType(0), data)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, decompressed)

			compressed, err := codec.Compress([]byte{})
			require.NoError(t, err)

			decompressed, err = codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "single_byte", data: []byte{0x42}},
		{name: "binary_data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{name: "repeated_batch_headers", data: bytes.Repeat([]byte{0x80, 0x01, 0x03}, 1000)},
		{
			name: "pseudo_random",
			data: func() []byte {
				data := make([]byte, 4096)
				for i := range data {
					if i%100 < 50 {
						data[i] = byte(i % 256)
					} else {
						data[i] = byte((i*7 + i*i) % 256)
					}
				}

				return data
			}(),
		},
		{name: "zeros", data: make([]byte, 1024*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotEmpty(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestAllCodecs_CompressZeros(t *testing.T) {
	original := make([]byte, 1024*1024)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(original)
			require.NoError(t, err)

			if codecName == "NoOp" {
				require.Len(t, compressed, len(original))
			} else {
				require.Less(t, len(compressed), len(original)/10)
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{name: "random_bytes", data: []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{name: "text_as_compressed", data: []byte("this is not compressed data")},
		{name: "corrupted_header", data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}

		t.Run(codecName, func(t *testing.T) {
			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.ErrorIs(t, err, errs.ErrMalformedInput)
				})
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 20
	testData := []byte("Concurrent compression test data with some content to compress")

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(testData)
			require.NoError(t, err)

			done := make(chan error, numGoroutines*2)
			for range numGoroutines {
				go func() {
					_, err := codec.Compress(testData)
					done <- err
				}()

				go func() {
					decompressed, err := codec.Decompress(compressed)
					if err != nil {
						done <- err
						return
					}
					if !bytes.Equal(testData, decompressed) {
						done <- fmt.Errorf("data mismatch")
						return
					}
					done <- nil
				}()
			}

			for range numGoroutines * 2 {
				require.NoError(t, <-done)
			}
		})
	}
}

func BenchmarkAllCodecs_RoundTrip(b *testing.B) {
	data := bytes.Repeat([]byte("1700000000,21.5\n"), 4096)

	for codecName, codec := range getAllCodecs() {
		b.Run(codecName, func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for b.Loop() {
				compressed, _ := codec.Compress(data)
				_, _ = codec.Decompress(compressed)
			}
		})
	}
}
