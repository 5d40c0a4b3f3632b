package hal

// Command is one GPU operation recorded inside a subpass. Each variant maps
// 1:1 to a single backend call during replay.
type Command interface {
	isCommand()
}

// BindPipeline selects the named pipeline for subsequent draws.
type BindPipeline struct {
	Pipeline string
}

// BindDescriptorSets binds descriptor sets starting at First.
type BindDescriptorSets struct {
	First int
	Sets  []string
}

// VertexBufferBinding pairs a buffer handle with a byte offset into it.
type VertexBufferBinding struct {
	Buffer Buffer
	Offset uint64
}

// BindVertexBuffers binds the given buffers to consecutive vertex input
// slots starting at slot zero.
type BindVertexBuffers struct {
	Bindings []VertexBufferBinding
}

// IndexFormat is the element width of an index buffer.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// BindIndexBuffer binds the index buffer used by DrawIndexed.
type BindIndexBuffer struct {
	Buffer Buffer
	Offset uint64
	Format IndexFormat
}

// Draw issues a non-indexed draw over [FirstVertex, FirstVertex+VertexCount).
type Draw struct {
	FirstVertex   uint32
	VertexCount   uint32
	FirstInstance uint32
	InstanceCount uint32
}

// DrawIndexed issues an indexed draw.
type DrawIndexed struct {
	FirstIndex    uint32
	IndexCount    uint32
	BaseVertex    int32
	FirstInstance uint32
	InstanceCount uint32
}

func (BindPipeline) isCommand()       {}
func (BindDescriptorSets) isCommand() {}
func (BindVertexBuffers) isCommand()  {}
func (BindIndexBuffer) isCommand()    {}
func (Draw) isCommand()               {}
func (DrawIndexed) isCommand()        {}
