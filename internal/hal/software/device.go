// Package software provides the always-available CPU reference backend. It
// keeps every image's pixels in host memory, applies load/store operations
// exactly, and is synchronous, so a readback observes all previously
// submitted work without real fences.
package software

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/vk/gfxprobe/internal/hal"
)

// Name is the registry name of this backend.
const Name = "software"

func init() {
	hal.Register(Name, func() (hal.Device, error) {
		return New(), nil
	})
}

// Backend errors.
var (
	// ErrDestroyed is returned when operating on a destroyed handle.
	ErrDestroyed = errors.New("software: handle has been destroyed")

	// ErrUnsupportedFormat is returned for formats the backend cannot store.
	ErrUnsupportedFormat = errors.New("software: unsupported pixel format")

	// ErrLiveHandles is returned by Close when handles were not destroyed.
	ErrLiveHandles = errors.New("software: device closed with live handles")
)

// rowAlignment is the byte alignment of readback rows, matching the
// copy-bytes-per-row requirement of wgpu-family backends.
const rowAlignment = 256

// Device is the software implementation of hal.Device.
type Device struct {
	mu   sync.Mutex
	live int
}

// New creates a software device.
func New() *Device {
	return &Device{}
}

func (d *Device) track() {
	d.mu.Lock()
	d.live++
	d.mu.Unlock()
}

func (d *Device) untrack() {
	d.mu.Lock()
	d.live--
	d.mu.Unlock()
}

// Close verifies that every handle created from the device was destroyed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.live != 0 {
		return fmt.Errorf("%w: %d remaining", ErrLiveHandles, d.live)
	}
	return nil
}

// CreateImage allocates host pixel storage for the described image.
func (d *Device) CreateImage(desc hal.ImageDesc) (hal.Image, error) {
	bpp := hal.FormatSize(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Size.Width == 0 || desc.Size.Height == 0 || desc.Size.DepthOrArrayLayers == 0 {
		return nil, fmt.Errorf("software: image %q has a zero extent", desc.Label)
	}
	if desc.Levels == 0 {
		return nil, fmt.Errorf("software: image %q needs at least one mip level", desc.Label)
	}

	size := int(desc.Size.Width) * int(desc.Size.Height) * int(desc.Size.DepthOrArrayLayers) * bpp
	img := &image{
		device: d,
		desc:   desc,
		pixels: make([]byte, size),
	}
	d.track()
	return img, nil
}

// CreateImageView validates the subresource range against the owning image.
func (d *Device) CreateImageView(desc hal.ImageViewDesc) (hal.ImageView, error) {
	img, err := d.ownImage(desc.Image)
	if err != nil {
		return nil, err
	}
	if desc.BaseMipLevel+desc.MipLevelCount > img.desc.Levels {
		return nil, fmt.Errorf("software: view %q level range exceeds image levels (%d)", desc.Label, img.desc.Levels)
	}
	if hal.FormatSize(desc.Format) != hal.FormatSize(img.desc.Format) {
		return nil, fmt.Errorf("software: view %q format width differs from image format", desc.Label)
	}
	d.track()
	return &imageView{device: d, desc: desc, image: img}, nil
}

// CreateRenderPass validates attachment references and stores the pass shape.
func (d *Device) CreateRenderPass(desc hal.RenderPassDesc) (hal.RenderPass, error) {
	for _, sp := range desc.Subpasses {
		for _, ref := range sp.Colors {
			if ref.Index < 0 || ref.Index >= len(desc.Attachments) {
				return nil, fmt.Errorf("software: pass %q references attachment %d of %d", desc.Label, ref.Index, len(desc.Attachments))
			}
		}
		if ds := sp.DepthStencil; ds != nil && (ds.Index < 0 || ds.Index >= len(desc.Attachments)) {
			return nil, fmt.Errorf("software: pass %q references attachment %d of %d", desc.Label, ds.Index, len(desc.Attachments))
		}
	}
	if len(desc.Subpasses) == 0 {
		return nil, fmt.Errorf("software: pass %q declares no subpasses", desc.Label)
	}
	d.track()
	return &renderPass{device: d, desc: desc}, nil
}

// CreateFramebuffer checks slot count and view extents against the pass.
func (d *Device) CreateFramebuffer(desc hal.FramebufferDesc) (hal.Framebuffer, error) {
	pass, ok := desc.Pass.(*renderPass)
	if !ok || pass.destroyed {
		return nil, fmt.Errorf("software: framebuffer %q: %w", desc.Label, ErrDestroyed)
	}
	if len(desc.Views) != len(pass.desc.Attachments) {
		return nil, fmt.Errorf("software: framebuffer %q binds %d views to a pass with %d attachments",
			desc.Label, len(desc.Views), len(pass.desc.Attachments))
	}
	views := make([]*imageView, len(desc.Views))
	for i, v := range desc.Views {
		view, ok := v.(*imageView)
		if !ok || view.destroyed {
			return nil, fmt.Errorf("software: framebuffer %q view %d: %w", desc.Label, i, ErrDestroyed)
		}
		ext := view.image.desc.Size
		if desc.Extent.Width > ext.Width || desc.Extent.Height > ext.Height ||
			desc.Extent.DepthOrArrayLayers > ext.DepthOrArrayLayers {
			return nil, fmt.Errorf("software: framebuffer %q extent exceeds image extent of view %d", desc.Label, i)
		}
		views[i] = view
	}
	d.track()
	return &framebuffer{device: d, desc: desc, pass: pass, views: views}, nil
}

// CreateBuffer allocates host storage for the described buffer.
func (d *Device) CreateBuffer(desc hal.BufferDesc) (hal.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("software: buffer %q has zero size", desc.Label)
	}
	d.track()
	return &buffer{device: d, desc: desc, data: make([]byte, desc.Size)}, nil
}

// UploadImage replaces the image's contents with tightly packed bytes.
func (d *Device) UploadImage(img hal.Image, data []byte) error {
	im, err := d.ownImage(img)
	if err != nil {
		return err
	}
	if im.desc.Usage&gputypes.TextureUsageCopyDst == 0 {
		return fmt.Errorf("software: image %q usage lacks copy-dst", im.desc.Label)
	}
	if len(data) != len(im.pixels) {
		return fmt.Errorf("software: image %q upload of %d bytes, want %d", im.desc.Label, len(data), len(im.pixels))
	}
	copy(im.pixels, data)
	return nil
}

// UploadBuffer replaces the buffer's contents with host bytes.
func (d *Device) UploadBuffer(buf hal.Buffer, data []byte) error {
	b, ok := buf.(*buffer)
	if !ok || b.destroyed {
		return ErrDestroyed
	}
	if uint64(len(data)) != b.desc.Size {
		return fmt.Errorf("software: buffer %q upload of %d bytes, want %d", b.desc.Label, len(data), b.desc.Size)
	}
	copy(b.data, data)
	return nil
}

// CopyBufferToImage copies the buffer contents into the image.
func (d *Device) CopyBufferToImage(ctx context.Context, src hal.Buffer, dst hal.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, ok := src.(*buffer)
	if !ok || b.destroyed {
		return ErrDestroyed
	}
	im, err := d.ownImage(dst)
	if err != nil {
		return err
	}
	if im.desc.Usage&gputypes.TextureUsageCopyDst == 0 {
		return fmt.Errorf("software: image %q usage lacks copy-dst", im.desc.Label)
	}
	if len(b.data) < len(im.pixels) {
		return fmt.Errorf("software: buffer %q holds %d bytes, image %q needs %d",
			b.desc.Label, len(b.data), im.desc.Label, len(im.pixels))
	}
	copy(im.pixels, b.data[:len(im.pixels)])
	return nil
}

// ReadBackImage copies the image's pixels into a row-aligned host buffer.
func (d *Device) ReadBackImage(ctx context.Context, img hal.Image) (*hal.ReadBack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	im, err := d.ownImage(img)
	if err != nil {
		return nil, err
	}
	if im.desc.Usage&gputypes.TextureUsageCopySrc == 0 {
		return nil, fmt.Errorf("software: image %q usage lacks copy-src", im.desc.Label)
	}

	bpp := hal.FormatSize(im.desc.Format)
	rowBytes := int(im.desc.Size.Width) * bpp
	pitch := alignTo(rowBytes, rowAlignment)
	rows := int(im.desc.Size.Height) * int(im.desc.Size.DepthOrArrayLayers)

	data := make([]byte, pitch*rows)
	for y := 0; y < rows; y++ {
		copy(data[y*pitch:y*pitch+rowBytes], im.pixels[y*rowBytes:(y+1)*rowBytes])
	}
	return &hal.ReadBack{
		Format:      im.desc.Format,
		Size:        im.desc.Size,
		BytesPerRow: uint32(pitch),
		Data:        data,
	}, nil
}

func (d *Device) ownImage(img hal.Image) (*image, error) {
	im, ok := img.(*image)
	if !ok || im.destroyed {
		return nil, ErrDestroyed
	}
	if im.device != d {
		return nil, errors.New("software: image belongs to another device")
	}
	return im, nil
}

func alignTo(x, y int) int {
	if x > 0 && y > 0 {
		return ((x - 1) | (y - 1)) + 1
	}
	return x
}
