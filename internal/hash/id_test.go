package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func TestChecksum_MatchesDigest(t *testing.T) {
	payload := []byte("root.sg1.d1.s1 chunk payload")

	d := NewDigest()
	d.Write(payload[:7])
	d.Write(payload[7:])

	require.Equal(t, Checksum(payload), d.Sum64())
	require.Equal(t, ID(string(payload)), Checksum(payload))
	require.NotEqual(t, Checksum(payload), Checksum(payload[1:]))
}
