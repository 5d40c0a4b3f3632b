package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/gfxprobe/internal/scene"
)

// drawCommandSchema lists the command block types legal inside a graphics
// job subpass. PartialContent returns the blocks in source order across
// types, which is the replay order.
var drawCommandSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "bind_pipeline"},
		{Type: "bind_descriptor_sets"},
		{Type: "bind_vertex_buffers"},
		{Type: "bind_index_buffer"},
		{Type: "draw"},
		{Type: "draw_indexed"},
	},
}

// transferCommandSchema lists the command block types legal inside a
// transfer job.
var transferCommandSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "copy_buffer_to_image"},
	},
}

func decodeJob(block *jobBlock) (*scene.Job, error) {
	declRange := block.Body.MissingItemRange()
	job := &scene.Job{
		Name:      block.Name,
		Kind:      scene.JobKind(block.Kind),
		DeclRange: declRange,
	}

	var err error
	switch job.Kind {
	case scene.JobGraphics:
		job.Graphics, err = decodeGraphicsJob(block)
	case scene.JobTransfer:
		job.Transfer, err = decodeTransferJob(block)
	default:
		return nil, malformedf(declRange, "unknown job kind %q for %q", block.Kind, block.Name)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func decodeGraphicsJob(block *jobBlock) (*scene.GraphicsJob, error) {
	var args graphicsJobArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	declRange := block.Body.MissingItemRange()

	clears, err := evalClearValues(args.ClearValues)
	if err != nil {
		return nil, err
	}

	job := &scene.GraphicsJob{
		Framebuffer: args.Framebuffer,
		Pass:        args.Pass,
		ClearValues: clears,
		Descriptors: args.Descriptors,
		Subpasses:   make(map[string]*scene.SubpassCommands),
	}

	for _, sp := range args.Subpasses {
		if _, ok := job.Subpasses[sp.Name]; ok {
			return nil, malformedf(declRange, "job %q: duplicate subpass %q", block.Name, sp.Name)
		}
		commands, err := decodeCommands(sp.Body, drawCommandSchema, block.Name)
		if err != nil {
			return nil, err
		}
		job.Subpasses[sp.Name] = &scene.SubpassCommands{Name: sp.Name, Commands: commands}
	}

	job.Expect, err = decodeExpect(args.Expect, block.Name)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func decodeTransferJob(block *jobBlock) (*scene.TransferJob, error) {
	var args transferJobArgs
	if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
		return nil, diagErr(diags)
	}

	commands, err := decodeCommands(args.Body, transferCommandSchema, block.Name)
	if err != nil {
		return nil, err
	}

	expect, err := decodeExpect(args.Expect, block.Name)
	if err != nil {
		return nil, err
	}
	return &scene.TransferJob{Commands: commands, Expect: expect}, nil
}

func decodeExpect(block *expectBlock, jobName string) (*scene.Expect, error) {
	if block == nil {
		return nil, nil
	}
	expect := &scene.Expect{Image: block.Image, Data: block.Data}
	if block.Color != nil {
		val, diags := block.Color.Value(nil)
		if diags.HasErrors() {
			return nil, diagErr(diags)
		}
		if !val.IsNull() {
			color, err := ctyColor(val, block.Color.Range(), "expect color")
			if err != nil {
				return nil, err
			}
			expect.Color = color
			expect.HasColor = true
		}
	}
	if expect.HasColor == (expect.Data != "") {
		rng := hcl.Range{}
		if block.Color != nil {
			rng = block.Color.Range()
		}
		return nil, malformedf(rng, "job %q: expect needs exactly one of color or data", jobName)
	}
	return expect, nil
}

// decodeCommands decodes the command blocks of body in source order.
func decodeCommands(body hcl.Body, schema *hcl.BodySchema, jobName string) ([]scene.Command, error) {
	content, _, diags := body.PartialContent(schema)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}

	var out []scene.Command
	for _, block := range content.Blocks {
		cmd, err := decodeCommand(block, jobName)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func decodeCommand(block *hcl.Block, jobName string) (scene.Command, error) {
	switch block.Type {
	case "bind_pipeline":
		var args bindPipelineArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		return scene.Command{BindPipeline: &scene.BindPipelineCmd{Name: args.Name}}, nil

	case "bind_descriptor_sets":
		var args bindDescriptorSetsArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		return scene.Command{BindDescriptorSets: &scene.BindDescriptorSetsCmd{First: args.First, Sets: args.Sets}}, nil

	case "bind_vertex_buffers":
		var args bindVertexBuffersArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		offsets := args.Offsets
		if len(offsets) == 0 {
			offsets = make([]uint64, len(args.Buffers))
		} else if len(offsets) != len(args.Buffers) {
			return scene.Command{}, malformedf(block.DefRange, "job %q: offsets count must match buffers count", jobName)
		}
		return scene.Command{BindVertexBuffers: &scene.BindVertexBuffersCmd{Buffers: args.Buffers, Offsets: offsets}}, nil

	case "bind_index_buffer":
		var args bindIndexBufferArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		format := args.Format
		if format == "" {
			format = "uint16"
		}
		if _, err := parseIndexFormat(format); err != nil {
			return scene.Command{}, malformedf(block.DefRange, "job %q: %v", jobName, err)
		}
		return scene.Command{BindIndexBuffer: &scene.BindIndexBufferCmd{Buffer: args.Buffer, Offset: args.Offset, Format: format}}, nil

	case "draw":
		var args drawArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		vertices, err := rangePair(args.Vertices, block.DefRange, jobName, "vertices")
		if err != nil {
			return scene.Command{}, err
		}
		instances, err := instanceRange(args.Instances, block.DefRange, jobName)
		if err != nil {
			return scene.Command{}, err
		}
		return scene.Command{Draw: &scene.DrawCmd{Vertices: vertices, Instances: instances}}, nil

	case "draw_indexed":
		var args drawIndexedArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		indices, err := rangePair(args.Indices, block.DefRange, jobName, "indices")
		if err != nil {
			return scene.Command{}, err
		}
		instances, err := instanceRange(args.Instances, block.DefRange, jobName)
		if err != nil {
			return scene.Command{}, err
		}
		return scene.Command{DrawIndexed: &scene.DrawIndexedCmd{
			Indices:    indices,
			BaseVertex: args.BaseVertex,
			Instances:  instances,
		}}, nil

	case "copy_buffer_to_image":
		var args copyBufferToImageArgs
		if diags := gohcl.DecodeBody(block.Body, nil, &args); diags.HasErrors() {
			return scene.Command{}, diagErr(diags)
		}
		return scene.Command{CopyBufferToImage: &scene.CopyBufferToImageCmd{Buffer: args.Buffer, Image: args.Image}}, nil

	default:
		return scene.Command{}, malformedf(block.DefRange, "job %q: unknown command %q", jobName, block.Type)
	}
}

// rangePair validates a [start, end) pair written as a 2-element list.
func rangePair(v []uint32, rng hcl.Range, jobName, field string) ([2]uint32, error) {
	if len(v) != 2 {
		return [2]uint32{}, malformedf(rng, "job %q: %s must be a [start, end] pair", jobName, field)
	}
	if v[1] < v[0] {
		return [2]uint32{}, malformedf(rng, "job %q: %s end precedes start", jobName, field)
	}
	return [2]uint32{v[0], v[1]}, nil
}

// instanceRange defaults an absent instances attribute to one instance.
func instanceRange(v []uint32, rng hcl.Range, jobName string) ([2]uint32, error) {
	if len(v) == 0 {
		return [2]uint32{0, 1}, nil
	}
	return rangePair(v, rng, jobName, "instances")
}
