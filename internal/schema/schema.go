// Package schema parses HCL scene documents into the scene model. Parsing is
// a pure function of the input text: no defaults beyond the ones declared
// here, no side effects, and every defect is reported as a MalformedDocument
// error carrying the source location.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// documentFile is the top-level structure of one scene file.
type documentFile struct {
	Resources []*resourceBlock `hcl:"resource,block"`
	Jobs      []*jobBlock      `hcl:"job,block"`
}

// resourceBlock is a `resource "<kind>" "<name>"` block. The body is decoded
// per kind.
type resourceBlock struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// jobBlock is a `job "<kind>" "<name>"` block.
type jobBlock struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// --- Resource bodies ---

type imageArgs struct {
	Dimension string   `hcl:"dimension,optional"`
	Width     uint32   `hcl:"width"`
	Height    uint32   `hcl:"height,optional"`
	Depth     uint32   `hcl:"depth,optional"`
	Levels    uint32   `hcl:"levels,optional"`
	Format    string   `hcl:"format"`
	Usage     []string `hcl:"usage"`
	Data      string   `hcl:"data,optional"`
}

type imageViewArgs struct {
	Image          string   `hcl:"image"`
	Format         string   `hcl:"format"`
	Aspects        []string `hcl:"aspects,optional"`
	BaseMipLevel   uint32   `hcl:"base_level,optional"`
	MipLevelCount  uint32   `hcl:"level_count,optional"`
	BaseArrayLayer uint32   `hcl:"base_layer,optional"`
	LayerCount     uint32   `hcl:"layer_count,optional"`
}

type renderPassArgs struct {
	Attachments  []*attachmentBlock `hcl:"attachment,block"`
	Subpasses    []*subpassBlock    `hcl:"subpass,block"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
}

type attachmentBlock struct {
	Name          string `hcl:"name,label"`
	Format        string `hcl:"format"`
	LoadOp        string `hcl:"load_op"`
	StoreOp       string `hcl:"store_op"`
	InitialLayout string `hcl:"initial_layout"`
	FinalLayout   string `hcl:"final_layout"`
}

type subpassBlock struct {
	Name         string           `hcl:"name,label"`
	Colors       []*colorRefBlock `hcl:"color,block"`
	DepthStencil *depthRefBlock   `hcl:"depth_stencil,block"`
}

type colorRefBlock struct {
	Attachment string `hcl:"attachment,label"`
	Layout     string `hcl:"layout"`
}

type depthRefBlock struct {
	Attachment string `hcl:"attachment,label"`
	Layout     string `hcl:"layout"`
}

// dependencyBlock orders two subpasses. An empty name is the external
// subpass.
type dependencyBlock struct {
	From string `hcl:"from,optional"`
	To   string `hcl:"to,optional"`
}

type framebufferArgs struct {
	Pass        string            `hcl:"pass"`
	Attachments map[string]string `hcl:"attachments"`
	Width       uint32            `hcl:"width"`
	Height      uint32            `hcl:"height,optional"`
	Depth       uint32            `hcl:"depth,optional"`
}

type bufferArgs struct {
	Size  uint64   `hcl:"size"`
	Usage []string `hcl:"usage"`
	Data  string   `hcl:"data,optional"`
}

// --- Job bodies ---

type graphicsJobArgs struct {
	Framebuffer string             `hcl:"framebuffer"`
	Pass        string             `hcl:"pass"`
	ClearValues hcl.Expression     `hcl:"clear_values"`
	Descriptors map[string]string  `hcl:"descriptors,optional"`
	Subpasses   []*jobSubpassBlock `hcl:"subpass,block"`
	Expect      *expectBlock       `hcl:"expect,block"`
}

// jobSubpassBlock carries a command list; commands are decoded from the
// remaining body so source order across command types is preserved.
type jobSubpassBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type transferJobArgs struct {
	Body   hcl.Body     `hcl:",remain"`
	Expect *expectBlock `hcl:"expect,block"`
}

type expectBlock struct {
	Image string         `hcl:"image"`
	Color hcl.Expression `hcl:"color,optional"`
	Data  string         `hcl:"data,optional"`
}

// --- Command bodies ---

type bindPipelineArgs struct {
	Name string `hcl:"name"`
}

type bindDescriptorSetsArgs struct {
	First int      `hcl:"first,optional"`
	Sets  []string `hcl:"sets"`
}

type bindVertexBuffersArgs struct {
	Buffers []string `hcl:"buffers"`
	Offsets []uint64 `hcl:"offsets,optional"`
}

type bindIndexBufferArgs struct {
	Buffer string `hcl:"buffer"`
	Offset uint64 `hcl:"offset,optional"`
	Format string `hcl:"format,optional"`
}

type drawArgs struct {
	Vertices  []uint32 `hcl:"vertices"`
	Instances []uint32 `hcl:"instances,optional"`
}

type drawIndexedArgs struct {
	Indices    []uint32 `hcl:"indices"`
	BaseVertex int32    `hcl:"base_vertex,optional"`
	Instances  []uint32 `hcl:"instances,optional"`
}

type copyBufferToImageArgs struct {
	Buffer string `hcl:"buffer"`
	Image  string `hcl:"image"`
}
