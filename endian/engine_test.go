package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	var marker uint16 = 0x0102
	first := (*[2]byte)(unsafe.Pointer(&marker))[0]

	if first == 0x01 {
		require.Equal(t, binary.BigEndian, CheckEndianness())
		require.False(t, IsNativeLittleEndian())
	} else {
		require.Equal(t, binary.LittleEndian, CheckEndianness())
		require.True(t, IsNativeLittleEndian())
	}
}

func TestEngines(t *testing.T) {
	tests := []struct {
		name   string
		engine EndianEngine
		want   []byte
	}{
		{"little", GetLittleEndianEngine(), []byte{0x04, 0x03, 0x02, 0x01}},
		{"big", GetBigEndianEngine(), []byte{0x01, 0x02, 0x03, 0x04}},
		{"default is big", Default(), []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.engine.AppendUint32(nil, 0x01020304)
			require.Equal(t, tt.want, buf)
			require.Equal(t, uint32(0x01020304), tt.engine.Uint32(buf))
		})
	}
}
