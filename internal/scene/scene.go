// Package scene holds the format-agnostic model of a parsed scene document:
// the declaration-ordered resources and jobs that the resolver, builder and
// executor consume. Descriptors are immutable after parsing.
package scene

import (
	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/gfxprobe/internal/hal"
)

// Kind tags a resource descriptor variant.
type Kind string

const (
	KindImage       Kind = "image"
	KindImageView   Kind = "image_view"
	KindRenderPass  Kind = "render_pass"
	KindFramebuffer Kind = "framebuffer"
	KindBuffer      Kind = "buffer"
)

// Document is a fully parsed scene: resources and jobs in declaration order
// with name indexes for O(1) lookup. Names are unique per mapping.
type Document struct {
	Resources     []*Resource
	ResourceIndex map[string]*Resource

	Jobs     []*Job
	JobIndex map[string]*Job
}

// Resource is a named, kind-tagged descriptor. Exactly one of the variant
// pointers matching Kind is non-nil.
type Resource struct {
	Name      string
	Kind      Kind
	DeclRange hcl.Range

	Image       *Image
	ImageView   *ImageView
	RenderPass  *RenderPass
	Framebuffer *Framebuffer
	Buffer      *Buffer
}

// Image describes a GPU image resource.
type Image struct {
	Dimension gputypes.TextureDimension
	Size      gputypes.Extent3D
	Levels    uint32
	Format    gputypes.TextureFormat
	Usage     gputypes.TextureUsage

	// Data optionally names a raw byte file with the image's initial
	// contents, resolved relative to the harness data directory.
	Data string
}

// ImageView describes a view over a named image.
type ImageView struct {
	Image  string
	Format gputypes.TextureFormat

	Aspects        hal.Aspect
	BaseMipLevel   uint32
	MipLevelCount  uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Attachment is one render-pass attachment slot, keyed by name within the
// pass.
type Attachment struct {
	Name          string
	Format        gputypes.TextureFormat
	LoadOp        gputypes.LoadOp
	StoreOp       gputypes.StoreOp
	InitialLayout hal.ImageLayout
	FinalLayout   hal.ImageLayout
}

// AttachmentRef references an attachment of the enclosing pass by name,
// with the layout the attachment holds during the referencing subpass.
type AttachmentRef struct {
	Attachment string
	Layout     hal.ImageLayout
}

// Subpass is a named phase of a render pass.
type Subpass struct {
	Name         string
	Colors       []AttachmentRef
	DepthStencil *AttachmentRef
}

// Dependency orders two subpasses of the enclosing pass by name. An empty
// name denotes the implicit external subpass.
type Dependency struct {
	From string
	To   string
}

// RenderPass describes a render pass: attachments, subpasses in execution
// order, and dependencies, all name-keyed within the pass.
type RenderPass struct {
	Attachments  []Attachment
	Subpasses    []Subpass
	Dependencies []Dependency
}

// AttachmentNames returns the pass's attachment names in declaration order.
func (p *RenderPass) AttachmentNames() []string {
	names := make([]string, len(p.Attachments))
	for i, att := range p.Attachments {
		names[i] = att.Name
	}
	return names
}

// AttachmentIndex returns the named attachment's slot, or -1 if absent.
func (p *RenderPass) AttachmentIndex(name string) int {
	for i, att := range p.Attachments {
		if att.Name == name {
			return i
		}
	}
	return -1
}

// SubpassIndex returns the named subpass's position, or -1 if absent.
func (p *RenderPass) SubpassIndex(name string) int {
	for i, sp := range p.Subpasses {
		if sp.Name == name {
			return i
		}
	}
	return -1
}

// Framebuffer binds image views to a named render pass's attachments.
type Framebuffer struct {
	Pass string

	// Attachments maps the pass's attachment names to image view names. The
	// key set must equal the pass's attachment name set exactly.
	Attachments map[string]string

	Extent gputypes.Extent3D
}

// Buffer describes a GPU buffer resource.
type Buffer struct {
	Size  uint64
	Usage gputypes.BufferUsage

	// Data optionally names a raw byte file with initial contents.
	Data string
}
