package bitpack

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/arloliu/tsfkit/errs"
	"github.com/stretchr/testify/require"
)

func TestTables_BitAccountingClosure(t *testing.T) {
	for width := 1; width <= MaxWidth; width++ {
		consumed := 0
		advanced := 0
		bias := 0
		for i := 0; i < GroupSize; i++ {
			require.Equal(t, bias, PosBias(width, i), "width %d pos %d", width, i)
			consumed += EndBit(width, i) - PosBias(width, i)
			advanced += ByteAdvance(width, i)
			bias = EndBit(width, i) % 8
		}

		require.Equal(t, GroupSize*width, consumed, "width %d", width)
		require.Equal(t, width, advanced, "width %d", width)
		require.Zero(t, bias, "width %d must end byte aligned", width)
	}
}

func TestTables_ReadBytes(t *testing.T) {
	// width 3: values start at bit 0,3,6(crosses),1,4,7(crosses),2,5
	expected := []int{1, 1, 2, 1, 1, 2, 1, 1}
	for i, want := range expected {
		require.Equal(t, want, ReadBytes(3, i), "pos %d", i)
	}

	// byte aligned widths never straddle an extra byte
	for i := 0; i < GroupSize; i++ {
		require.Equal(t, 1, ReadBytes(8, i))
		require.Equal(t, 8, ReadBytes(64, i))
		require.Equal(t, 0, PosBias(64, i))
	}

	// width 63 leaves 7 bits in the last byte, the next value touches 9 bytes
	require.Equal(t, 9, ReadBytes(63, 1))
	require.Equal(t, 9, MaxReadBytes(1))
	require.Equal(t, 8, MaxReadBytes(0))
	require.Equal(t, 8, MaxReadBytes(7))
}

func TestPackedSize(t *testing.T) {
	require.Equal(t, 0, PackedSize(0, 100))
	require.Equal(t, 3, PackedSize(3, 8))
	require.Equal(t, 2, PackedSize(3, 5))
	require.Equal(t, 64, PackedSize(64, 8))
}

func TestPackUnpack_AllWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for width := 0; width <= MaxWidth; width++ {
		for _, n := range []int{1, 7, 8, 9, 16, 29} {
			values := make([]uint64, n)
			for i := range values {
				v := rng.Uint64()
				if width < 64 {
					v &= (uint64(1) << width) - 1
				}
				values[i] = v
			}

			packed, err := Pack(nil, values, width)
			require.NoError(t, err)
			require.Len(t, packed, PackedSize(width, n))

			decoded := make([]uint64, n)
			consumed, err := Unpack(packed, decoded, width)
			require.NoError(t, err)
			require.Equal(t, len(packed), consumed)
			require.Equal(t, values, decoded, "width %d n %d", width, n)
		}
	}
}

func TestPack_AppendsAfterPrefix(t *testing.T) {
	prefix := []byte{0xAA, 0xBB}
	out, err := Pack(prefix, []uint64{0, 0, 0, 2, 4, 0, 0, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, out[:2])
	// 000 000 000 010 100 000 000 000 -> 00000000 00101000 00000000
	require.Equal(t, []byte{0x00, 0x28, 0x00}, out[2:])
}

func TestPack_MasksHighBits(t *testing.T) {
	out, err := Pack(nil, []uint64{0xFF}, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xF0}, out)
}

func TestUnpack_Errors(t *testing.T) {
	t.Run("width out of range", func(t *testing.T) {
		_, err := Unpack([]byte{0}, make([]uint64, 1), 65)
		require.True(t, errors.Is(err, errs.ErrMalformedInput))

		_, err = Pack(nil, []uint64{1}, 65)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})

	t.Run("short source", func(t *testing.T) {
		_, err := Unpack([]byte{0x01, 0x02}, make([]uint64, 8), 3)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})

	t.Run("width zero yields zeros", func(t *testing.T) {
		dst := []uint64{7, 7, 7}
		n, err := Unpack(nil, dst, 0)
		require.NoError(t, err)
		require.Zero(t, n)
		require.Equal(t, []uint64{0, 0, 0}, dst)
	})
}
