package hal

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	opened := 0
	Register("test-backend", func() (Device, error) {
		opened++
		return nil, nil
	})

	t.Run("available lists registered names", func(t *testing.T) {
		assert.Contains(t, Available(), "test-backend")
	})

	t.Run("open calls the factory", func(t *testing.T) {
		_, err := Open("test-backend")
		require.NoError(t, err)
		assert.Equal(t, 1, opened)
	})

	t.Run("unknown backend names the available ones", func(t *testing.T) {
		_, err := Open("missing")
		require.Error(t, err)
		assert.ErrorContains(t, err, "not registered")
		assert.ErrorContains(t, err, "test-backend")
	})
}

func TestEncodeTexel(t *testing.T) {
	gray := gputypes.Color{R: 0.8, G: 0.8, B: 0.8, A: 1.0}

	t.Run("rgba8 unorm rounds to nearest", func(t *testing.T) {
		assert.Equal(t, []byte{204, 204, 204, 255}, EncodeTexel(gputypes.TextureFormatRGBA8Unorm, gray))
	})

	t.Run("bgra8 swaps red and blue", func(t *testing.T) {
		c := gputypes.Color{R: 1, G: 0.5, B: 0, A: 1}
		assert.Equal(t, []byte{0, 128, 255, 255}, EncodeTexel(gputypes.TextureFormatBGRA8Unorm, c))
	})

	t.Run("unorm channels clamp to [0, 1]", func(t *testing.T) {
		c := gputypes.Color{R: -0.5, G: 1.5, B: 0, A: 1}
		assert.Equal(t, []byte{0, 255, 0, 255}, EncodeTexel(gputypes.TextureFormatRGBA8Unorm, c))
	})

	t.Run("r32 float is little-endian", func(t *testing.T) {
		texel := EncodeTexel(gputypes.TextureFormatR32Float, gputypes.Color{R: 0.25})
		require.Len(t, texel, 4)
		assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(texel)))
	})

	t.Run("depth24 stencil8 packs depth high", func(t *testing.T) {
		texel := EncodeTexel(gputypes.TextureFormatDepth24PlusStencil8, gputypes.Color{R: 1, G: 7})
		require.Len(t, texel, 4)
		packed := binary.LittleEndian.Uint32(texel)
		assert.Equal(t, uint32(1<<24-1), packed>>8)
		assert.Equal(t, uint32(7), packed&0xFF)
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, 1, FormatSize(gputypes.TextureFormatR8Unorm))
	assert.Equal(t, 4, FormatSize(gputypes.TextureFormatRGBA8Unorm))
	assert.Equal(t, 4, FormatSize(gputypes.TextureFormatDepth24PlusStencil8))
	assert.Equal(t, 8, FormatSize(gputypes.TextureFormatRG32Float))
	assert.Equal(t, 16, FormatSize(gputypes.TextureFormatRGBA32Float))
}

func TestReadBackRows(t *testing.T) {
	// Two 2-pixel rows padded to a 16-byte pitch.
	rb := &ReadBack{
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Size:        gputypes.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 1},
		BytesPerRow: 16,
		Data: []byte{
			1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0, 0, 0, 0, 0,
			9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0, 0, 0, 0, 0,
		},
	}

	assert.Equal(t, 2, rb.Rows())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rb.Row(0))
	assert.Equal(t, []byte{9, 10, 11, 12, 13, 14, 15, 16}, rb.Row(1))
}
