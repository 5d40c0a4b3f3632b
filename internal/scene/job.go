package scene

import (
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
)

// JobKind tags a job descriptor variant.
type JobKind string

const (
	JobGraphics JobKind = "graphics"
	JobTransfer JobKind = "transfer"
)

// Job is a named, kind-tagged unit of GPU work. Exactly one of the variant
// pointers matching Kind is non-nil.
type Job struct {
	Name      string
	Kind      JobKind
	DeclRange hcl.Range

	Graphics *GraphicsJob
	Transfer *TransferJob
}

// GraphicsJob replays one render-pass execution.
type GraphicsJob struct {
	Framebuffer string
	Pass        string

	// ClearValues holds one clear per pass attachment, in the pass's
	// attachment declaration order.
	ClearValues []gputypes.Color

	// Descriptors maps binding names to descriptor set names. Empty is
	// valid; a non-empty mapping is bound once at pass begin, before any
	// subpass commands replay.
	Descriptors map[string]string

	// Subpasses holds the per-subpass command lists, keyed by subpass name.
	// A subpass of the pass with no entry replays an empty list.
	Subpasses map[string]*SubpassCommands

	Expect *Expect
}

// DescriptorSets returns the job's descriptor set names ordered by binding
// name, so the bind recorded at pass begin is deterministic.
func (g *GraphicsJob) DescriptorSets() []string {
	if len(g.Descriptors) == 0 {
		return nil
	}
	bindings := make([]string, 0, len(g.Descriptors))
	for b := range g.Descriptors {
		bindings = append(bindings, b)
	}
	sort.Strings(bindings)
	sets := make([]string, len(bindings))
	for i, b := range bindings {
		sets[i] = g.Descriptors[b]
	}
	return sets
}

// SubpassCommands is the ordered command list of one job subpass.
type SubpassCommands struct {
	Name     string
	Commands []Command
}

// TransferJob replays an ordered list of transfer commands.
type TransferJob struct {
	Commands []Command
	Expect   *Expect
}

// Expect flags a job for verification: after the job completes, the named
// image is read back and compared against the reference.
type Expect struct {
	Image string

	// Color is a solid-fill expectation. Set if HasColor.
	Color    gputypes.Color
	HasColor bool

	// Data names a raw reference byte file (tightly packed rows), resolved
	// relative to the harness data directory.
	Data string
}

// Command is one declarative GPU operation. Exactly one field is non-nil.
type Command struct {
	BindPipeline       *BindPipelineCmd
	BindDescriptorSets *BindDescriptorSetsCmd
	BindVertexBuffers  *BindVertexBuffersCmd
	BindIndexBuffer    *BindIndexBufferCmd
	Draw               *DrawCmd
	DrawIndexed        *DrawIndexedCmd
	CopyBufferToImage  *CopyBufferToImageCmd
}

// BindPipelineCmd selects a pipeline by name.
type BindPipelineCmd struct {
	Name string
}

// BindDescriptorSetsCmd binds descriptor sets starting at First.
type BindDescriptorSetsCmd struct {
	First int
	Sets  []string
}

// BindVertexBuffersCmd binds named buffers to consecutive vertex slots.
type BindVertexBuffersCmd struct {
	Buffers []string
	Offsets []uint64
}

// BindIndexBufferCmd binds a named index buffer.
type BindIndexBufferCmd struct {
	Buffer string
	Offset uint64
	Format string
}

// DrawCmd issues a non-indexed draw. Vertices and Instances are
// [first, first+count) ranges.
type DrawCmd struct {
	Vertices  [2]uint32
	Instances [2]uint32
}

// DrawIndexedCmd issues an indexed draw.
type DrawIndexedCmd struct {
	Indices    [2]uint32
	BaseVertex int32
	Instances  [2]uint32
}

// CopyBufferToImageCmd copies a named buffer into a named image.
type CopyBufferToImageCmd struct {
	Buffer string
	Image  string
}
