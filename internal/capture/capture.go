// Package capture reads job outputs back from the device and compares them
// against declared references. Comparison is exact: every byte of every
// packed row must match, and row padding introduced by the backend is
// ignored.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/gfxprobe/internal/builder"
	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/scene"

	"github.com/gogpu/gputypes"
)

// ReadbackUnsupportedError reports an expectation against an image whose
// usage does not permit reading it back.
type ReadbackUnsupportedError struct {
	Image string
}

func (e *ReadbackUnsupportedError) Error() string {
	return fmt.Sprintf("image %q cannot be read back: usage lacks copy-src", e.Image)
}

// MismatchError reports the first byte-level divergence between a readback
// and its reference.
type MismatchError struct {
	Image string

	// Row and Offset locate the first mismatching byte within the packed
	// pixel data.
	Row    int
	Offset int

	Got  byte
	Want byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("image %q differs from reference at row %d byte %d: got 0x%02x, want 0x%02x",
		e.Image, e.Row, e.Offset, e.Got, e.Want)
}

// Capture verifies job expectations against a device.
type Capture struct {
	device  hal.Device
	handles *builder.Handles

	// dataDir is the directory reference byte files resolve against.
	dataDir string
}

// New creates a Capture over the given device and handle table.
func New(device hal.Device, handles *builder.Handles, dataDir string) *Capture {
	return &Capture{device: device, handles: handles, dataDir: dataDir}
}

// Verify reads back the expectation's image and compares it against the
// reference. A nil return means the contents match exactly.
func (c *Capture) Verify(ctx context.Context, expect *scene.Expect) error {
	logger := ctxlog.FromContext(ctx)
	imgRes := c.handles.Document().ResourceIndex[expect.Image]

	if imgRes.Image.Usage&gputypes.TextureUsageCopySrc == 0 {
		return &ReadbackUnsupportedError{Image: expect.Image}
	}

	rb, err := c.device.ReadBackImage(ctx, c.handles.Image(expect.Image))
	if err != nil {
		return fmt.Errorf("reading back image %q: %w", expect.Image, err)
	}
	logger.Debug("Image read back.", "image", expect.Image,
		"rows", rb.Rows(), "bytes_per_row", rb.BytesPerRow)

	if expect.HasColor {
		return c.compareColor(expect.Image, rb, expect.Color)
	}
	return c.compareData(expect.Image, rb, expect.Data)
}

// compareColor checks that every pixel of the readback equals color encoded
// in the image's own format.
func (c *Capture) compareColor(name string, rb *hal.ReadBack, color gputypes.Color) error {
	texel := hal.EncodeTexel(rb.Format, color)
	if texel == nil {
		return fmt.Errorf("image %q: format %v has no comparable encoding", name, rb.Format)
	}

	want := bytes.Repeat(texel, int(rb.Size.Width))
	for row := 0; row < rb.Rows(); row++ {
		if err := compareRow(name, row, rb.Row(row), want); err != nil {
			return err
		}
	}
	return nil
}

// compareData checks the readback against a raw reference file holding
// tightly packed rows, front to back.
func (c *Capture) compareData(name string, rb *hal.ReadBack, refFile string) error {
	ref, err := os.ReadFile(filepath.Join(c.dataDir, refFile))
	if err != nil {
		return fmt.Errorf("reading reference for image %q: %w", name, err)
	}

	rowBytes := int(rb.Size.Width) * hal.FormatSize(rb.Format)
	if len(ref) != rowBytes*rb.Rows() {
		return fmt.Errorf("image %q: reference %q holds %d bytes, image holds %d",
			name, refFile, len(ref), rowBytes*rb.Rows())
	}

	for row := 0; row < rb.Rows(); row++ {
		want := ref[row*rowBytes : (row+1)*rowBytes]
		if err := compareRow(name, row, rb.Row(row), want); err != nil {
			return err
		}
	}
	return nil
}

func compareRow(name string, row int, got, want []byte) error {
	for i := range got {
		if got[i] != want[i] {
			return &MismatchError{Image: name, Row: row, Offset: i, Got: got[i], Want: want[i]}
		}
	}
	return nil
}
