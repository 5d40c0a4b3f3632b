package hal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
)

// ImageLayout identifies the device-side arrangement of an image's memory at
// a point in a render pass. The wgpu-family type set tracks layouts
// implicitly, so the harness carries its own vocabulary for backends that
// need explicit transitions.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
)

var layoutNames = map[ImageLayout]string{
	LayoutUndefined:              "undefined",
	LayoutGeneral:                "general",
	LayoutColorAttachment:        "color-attachment-optimal",
	LayoutDepthStencilAttachment: "depth-stencil-attachment-optimal",
	LayoutShaderReadOnly:         "shader-read-only-optimal",
	LayoutTransferSrc:            "transfer-src-optimal",
	LayoutTransferDst:            "transfer-dst-optimal",
}

func (l ImageLayout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return fmt.Sprintf("ImageLayout(%d)", int(l))
}

// Aspect is a bitset over the separable planes of an image.
type Aspect uint32

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

// ImageDesc describes an image to create.
type ImageDesc struct {
	// Label is the document name of the resource, for backend debug output.
	Label string

	Dimension gputypes.TextureDimension
	Size      gputypes.Extent3D
	Levels    uint32
	Format    gputypes.TextureFormat
	Usage     gputypes.TextureUsage
}

// ImageViewDesc describes a view over a subresource range of an image.
type ImageViewDesc struct {
	Label string

	Image  Image
	Format gputypes.TextureFormat

	Aspects        Aspect
	BaseMipLevel   uint32
	MipLevelCount  uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// AttachmentDesc describes one render-pass attachment slot.
type AttachmentDesc struct {
	Format        gputypes.TextureFormat
	LoadOp        gputypes.LoadOp
	StoreOp       gputypes.StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

// AttachmentRef points at an attachment slot by index together with the
// layout the attachment is in during the referencing subpass.
type AttachmentRef struct {
	Index  int
	Layout ImageLayout
}

// SubpassDesc describes one subpass: its ordered color references and an
// optional depth/stencil reference.
type SubpassDesc struct {
	Colors       []AttachmentRef
	DepthStencil *AttachmentRef
}

// SubpassExternal marks the implicit subpass outside the pass in a
// dependency edge.
const SubpassExternal = -1

// SubpassDependency orders two subpasses (or a subpass against
// SubpassExternal) within a render pass.
type SubpassDependency struct {
	From int
	To   int
}

// RenderPassDesc describes a render pass: attachment slots, subpasses in
// execution order, and inter-subpass dependencies.
type RenderPassDesc struct {
	Label string

	Attachments  []AttachmentDesc
	Subpasses    []SubpassDesc
	Dependencies []SubpassDependency
}

// FramebufferDesc binds concrete image views to a render pass's attachment
// slots, in slot order.
type FramebufferDesc struct {
	Label string

	Pass   RenderPass
	Views  []ImageView
	Extent gputypes.Extent3D
}

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label string

	Size  uint64
	Usage gputypes.BufferUsage
}

// ReadBack is the host copy of an image produced by Device.ReadBackImage.
// Rows are padded to BytesPerRow; Row gives access to the packed pixels.
type ReadBack struct {
	Format      gputypes.TextureFormat
	Size        gputypes.Extent3D
	BytesPerRow uint32
	Data        []byte
}

// Row returns the packed pixel bytes of row i (counting across depth slices).
func (r *ReadBack) Row(i int) []byte {
	width := int(r.Size.Width) * FormatSize(r.Format)
	offset := i * int(r.BytesPerRow)
	return r.Data[offset : offset+width]
}

// Rows returns the total number of rows in the readback.
func (r *ReadBack) Rows() int {
	return int(r.Size.Height) * int(r.Size.DepthOrArrayLayers)
}

// EncodeTexel converts a color to one packed pixel of format, or nil for a
// format with no single-texel encoding. Srgb variants store the value as
// written: colors are authored in the attachment's own colorspace. For
// depth/stencil formats the color's R carries depth and G the stencil index.
func EncodeTexel(format gputypes.TextureFormat, c gputypes.Color) []byte {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return []byte{unorm8(c.R)}
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return []byte{unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)}
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return []byte{unorm8(c.B), unorm8(c.G), unorm8(c.R), unorm8(c.A)}
	case gputypes.TextureFormatR32Float:
		return f32le(c.R)
	case gputypes.TextureFormatRG32Float:
		return append(f32le(c.R), f32le(c.G)...)
	case gputypes.TextureFormatRGBA32Float:
		out := append(f32le(c.R), f32le(c.G)...)
		out = append(out, f32le(c.B)...)
		return append(out, f32le(c.A)...)
	case gputypes.TextureFormatDepth24PlusStencil8:
		depth := uint32(math.Round(clamp01(c.R) * float64(1<<24-1)))
		stencil := uint32(math.Round(math.Max(0, math.Min(255, c.G))))
		var out [4]byte
		binary.LittleEndian.PutUint32(out[:], depth<<8|stencil)
		return out[:]
	default:
		return nil
	}
}

func unorm8(v float64) byte {
	return byte(math.Round(clamp01(v) * 255))
}

func f32le(v float64) []byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], math.Float32bits(float32(v)))
	return out[:]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FormatSize returns the number of bytes one pixel of format occupies.
func FormatSize(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	case gputypes.TextureFormatRG32Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}
