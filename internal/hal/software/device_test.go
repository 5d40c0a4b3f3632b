package software

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gfxprobe/internal/hal"
)

func newColorTarget(t *testing.T, d *Device, width, height uint32) (hal.Image, hal.ImageView) {
	t.Helper()
	img, err := d.CreateImage(hal.ImageDesc{
		Label:     "target",
		Dimension: gputypes.TextureDimension2D,
		Size:      gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		Levels:    1,
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Usage:     gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst,
	})
	require.NoError(t, err)

	view, err := d.CreateImageView(hal.ImageViewDesc{
		Label:         "target_view",
		Image:         img,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Aspects:       hal.AspectColor,
		MipLevelCount: 1,
		LayerCount:    1,
	})
	require.NoError(t, err)
	return img, view
}

func newClearPass(t *testing.T, d *Device, view hal.ImageView, width, height uint32) (hal.RenderPass, hal.Framebuffer) {
	t.Helper()
	pass, err := d.CreateRenderPass(hal.RenderPassDesc{
		Label: "clear_pass",
		Attachments: []hal.AttachmentDesc{{
			Format:      gputypes.TextureFormatRGBA8Unorm,
			LoadOp:      gputypes.LoadOpClear,
			StoreOp:     gputypes.StoreOpStore,
			FinalLayout: hal.LayoutColorAttachment,
		}},
		Subpasses: []hal.SubpassDesc{{
			Colors: []hal.AttachmentRef{{Index: 0, Layout: hal.LayoutColorAttachment}},
		}},
	})
	require.NoError(t, err)

	fb, err := d.CreateFramebuffer(hal.FramebufferDesc{
		Label:  "target_fb",
		Pass:   pass,
		Views:  []hal.ImageView{view},
		Extent: gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	})
	require.NoError(t, err)
	return pass, fb
}

func TestClearAndReadBack(t *testing.T) {
	d := New()
	img, view := newColorTarget(t, d, 1, 1)
	pass, fb := newClearPass(t, d, view, 1, 1)

	enc, err := d.BeginRenderPass(pass, fb, []gputypes.Color{{R: 0.8, G: 0.8, B: 0.8, A: 1.0}})
	require.NoError(t, err)
	require.NoError(t, enc.End())

	rb, err := d.ReadBackImage(t.Context(), img)
	require.NoError(t, err)
	assert.Equal(t, []byte{204, 204, 204, 255}, rb.Row(0))

	fb.Destroy()
	pass.Destroy()
	view.Destroy()
	img.Destroy()
	assert.NoError(t, d.Close())
}

func TestReadBackRowAlignment(t *testing.T) {
	d := New()
	// 3 pixels * 4 bytes = 12 bytes per packed row; the pitch rounds to 256.
	img, view := newColorTarget(t, d, 3, 2)
	pass, fb := newClearPass(t, d, view, 3, 2)

	enc, err := d.BeginRenderPass(pass, fb, []gputypes.Color{{R: 1, A: 1}})
	require.NoError(t, err)
	require.NoError(t, enc.End())

	rb, err := d.ReadBackImage(t.Context(), img)
	require.NoError(t, err)
	assert.Equal(t, uint32(256), rb.BytesPerRow)
	assert.Equal(t, 2, rb.Rows())
	assert.Len(t, rb.Data, 512)
	for row := 0; row < rb.Rows(); row++ {
		assert.Equal(t, []byte{255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255}, rb.Row(row))
	}
}

func TestLoadStoreOps(t *testing.T) {
	t.Run("load preserves uploaded contents", func(t *testing.T) {
		d := New()
		img, view := newColorTarget(t, d, 1, 1)
		require.NoError(t, d.UploadImage(img, []byte{1, 2, 3, 4}))

		pass, err := d.CreateRenderPass(hal.RenderPassDesc{
			Label: "load_pass",
			Attachments: []hal.AttachmentDesc{{
				Format:  gputypes.TextureFormatRGBA8Unorm,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
			Subpasses: []hal.SubpassDesc{{}},
		})
		require.NoError(t, err)
		fb, err := d.CreateFramebuffer(hal.FramebufferDesc{
			Pass:   pass,
			Views:  []hal.ImageView{view},
			Extent: gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		})
		require.NoError(t, err)

		enc, err := d.BeginRenderPass(pass, fb, []gputypes.Color{{}})
		require.NoError(t, err)
		require.NoError(t, enc.End())

		rb, err := d.ReadBackImage(t.Context(), img)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4}, rb.Row(0))
	})

	t.Run("discard zeroes the attachment", func(t *testing.T) {
		d := New()
		img, view := newColorTarget(t, d, 1, 1)

		pass, err := d.CreateRenderPass(hal.RenderPassDesc{
			Label: "discard_pass",
			Attachments: []hal.AttachmentDesc{{
				Format:  gputypes.TextureFormatRGBA8Unorm,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpDiscard,
			}},
			Subpasses: []hal.SubpassDesc{{}},
		})
		require.NoError(t, err)
		fb, err := d.CreateFramebuffer(hal.FramebufferDesc{
			Pass:   pass,
			Views:  []hal.ImageView{view},
			Extent: gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		})
		require.NoError(t, err)

		enc, err := d.BeginRenderPass(pass, fb, []gputypes.Color{{R: 1, G: 1, B: 1, A: 1}})
		require.NoError(t, err)
		require.NoError(t, enc.End())

		rb, err := d.ReadBackImage(t.Context(), img)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 0}, rb.Row(0))
	})
}

func TestCreateValidation(t *testing.T) {
	d := New()

	t.Run("zero extent image", func(t *testing.T) {
		_, err := d.CreateImage(hal.ImageDesc{
			Format: gputypes.TextureFormatRGBA8Unorm,
			Levels: 1,
		})
		assert.ErrorContains(t, err, "zero extent")
	})

	t.Run("view level range", func(t *testing.T) {
		img, _ := newColorTarget(t, d, 1, 1)
		_, err := d.CreateImageView(hal.ImageViewDesc{
			Image:         img,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			BaseMipLevel:  1,
			MipLevelCount: 1,
		})
		assert.ErrorContains(t, err, "level range")
	})

	t.Run("framebuffer larger than image", func(t *testing.T) {
		_, view := newColorTarget(t, d, 1, 1)
		pass, err := d.CreateRenderPass(hal.RenderPassDesc{
			Attachments: []hal.AttachmentDesc{{Format: gputypes.TextureFormatRGBA8Unorm}},
			Subpasses:   []hal.SubpassDesc{{}},
		})
		require.NoError(t, err)
		_, err = d.CreateFramebuffer(hal.FramebufferDesc{
			Pass:   pass,
			Views:  []hal.ImageView{view},
			Extent: gputypes.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 1},
		})
		assert.ErrorContains(t, err, "extent exceeds")
	})

	t.Run("framebuffer for a different pass", func(t *testing.T) {
		img, view := newColorTarget(t, d, 1, 1)
		passA, fb := newClearPass(t, d, view, 1, 1)
		passB, err := d.CreateRenderPass(hal.RenderPassDesc{
			Attachments: []hal.AttachmentDesc{{Format: gputypes.TextureFormatRGBA8Unorm}},
			Subpasses:   []hal.SubpassDesc{{}},
		})
		require.NoError(t, err)

		_, err = d.BeginRenderPass(passB, fb, []gputypes.Color{{}})
		assert.ErrorContains(t, err, "different pass")
		_ = passA
		_ = img
	})
}

func TestUsageEnforcement(t *testing.T) {
	d := New()

	img, err := d.CreateImage(hal.ImageDesc{
		Label:  "sealed",
		Size:   gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		Levels: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)

	t.Run("upload without copy-dst", func(t *testing.T) {
		err := d.UploadImage(img, []byte{0, 0, 0, 0})
		assert.ErrorContains(t, err, "lacks copy-dst")
	})

	t.Run("readback without copy-src", func(t *testing.T) {
		_, err := d.ReadBackImage(t.Context(), img)
		assert.ErrorContains(t, err, "lacks copy-src")
	})
}

func TestTransferCommands(t *testing.T) {
	d := New()
	img, _ := newColorTarget(t, d, 2, 1)

	buf, err := d.CreateBuffer(hal.BufferDesc{
		Label: "staging",
		Size:  8,
		Usage: gputypes.BufferUsageCopySrc,
	})
	require.NoError(t, err)
	require.NoError(t, d.UploadBuffer(buf, []byte{1, 2, 3, 4, 5, 6, 7, 8}))

	require.NoError(t, d.CopyBufferToImage(t.Context(), buf, img))

	rb, err := d.ReadBackImage(t.Context(), img)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rb.Row(0))
}

func TestEncoderStateMachine(t *testing.T) {
	d := New()
	_, view := newColorTarget(t, d, 1, 1)
	pass, fb := newClearPass(t, d, view, 1, 1)

	enc, err := d.BeginRenderPass(pass, fb, []gputypes.Color{{}})
	require.NoError(t, err)

	t.Run("indexed draw needs a bound index buffer", func(t *testing.T) {
		err := enc.RecordCommand(hal.DrawIndexed{IndexCount: 3, InstanceCount: 1})
		assert.ErrorIs(t, err, ErrNoIndexBuffer)
	})

	t.Run("single subpass cannot advance", func(t *testing.T) {
		assert.Error(t, enc.NextSubpass())
	})

	t.Run("recording after end fails", func(t *testing.T) {
		require.NoError(t, enc.End())
		assert.ErrorIs(t, enc.RecordCommand(hal.Draw{VertexCount: 3, InstanceCount: 1}), ErrPassEnded)
		assert.ErrorIs(t, enc.End(), ErrPassEnded)
	})
}

func TestCloseReportsLiveHandles(t *testing.T) {
	d := New()
	img, err := d.CreateImage(hal.ImageDesc{
		Size:   gputypes.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		Levels: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, d.Close(), ErrLiveHandles)

	img.Destroy()
	assert.NoError(t, d.Close())

	// Destroy is idempotent and must not drive the live count negative.
	img.Destroy()
	assert.NoError(t, d.Close())
}
