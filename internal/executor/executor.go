// Package executor replays job command sequences against live backend
// handles. Jobs run one at a time in document order; a failing job is
// contained and recorded, and execution continues with the next job.
package executor

import (
	"context"
	"fmt"

	"github.com/vk/gfxprobe/internal/builder"
	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/scene"
)

// State is the terminal state of one job replay.
type State string

const (
	// StateComplete means every command of the job was replayed and the
	// backend signaled completion of the submission.
	StateComplete State = "complete"

	// StateFailed means the replay was aborted by a backend or mapping
	// error. The failure is contained to the job.
	StateFailed State = "failed"

	// StateSkipped means the job never started because the run context was
	// canceled first.
	StateSkipped State = "skipped"
)

// Outcome is the result of replaying one job.
type Outcome struct {
	Job   *scene.Job
	State State
	Err   error
}

// Executor replays the jobs of a built scene.
type Executor struct {
	device  hal.Device
	handles *builder.Handles
}

// New creates an Executor over the given device and handle table.
func New(device hal.Device, handles *builder.Handles) *Executor {
	return &Executor{device: device, handles: handles}
}

// Run replays every job of the document in declaration order and returns one
// outcome per job, in the same order. Run itself only fails on programmer
// error; job failures are reported through outcomes.
func (e *Executor) Run(ctx context.Context) []Outcome {
	logger := ctxlog.FromContext(ctx)
	doc := e.handles.Document()

	outcomes := make([]Outcome, 0, len(doc.Jobs))
	for _, job := range doc.Jobs {
		if ctx.Err() != nil {
			logger.Warn("Skipping job, run canceled.", "job", job.Name)
			outcomes = append(outcomes, Outcome{Job: job, State: StateSkipped, Err: ctx.Err()})
			continue
		}

		logger.Info("▶️ Running job.", "job", job.Name, "kind", job.Kind)
		var err error
		switch job.Kind {
		case scene.JobGraphics:
			err = e.runGraphics(ctx, job)
		case scene.JobTransfer:
			err = e.runTransfer(ctx, job)
		default:
			err = fmt.Errorf("unknown job kind %q", job.Kind)
		}

		if err != nil {
			logger.Error("🔥 Job failed.", "job", job.Name, "error", err)
			outcomes = append(outcomes, Outcome{Job: job, State: StateFailed, Err: err})
			continue
		}
		logger.Info("✅ Job complete.", "job", job.Name)
		outcomes = append(outcomes, Outcome{Job: job, State: StateComplete})
	}
	return outcomes
}

// runGraphics replays one render-pass execution: begin the pass, replay the
// command list of each declared subpass in pass order, then end the pass and
// wait for submission.
func (e *Executor) runGraphics(ctx context.Context, job *scene.Job) error {
	g := job.Graphics
	doc := e.handles.Document()
	pass := doc.ResourceIndex[g.Pass].RenderPass

	encoder, err := e.device.BeginRenderPass(
		e.handles.RenderPass(g.Pass),
		e.handles.Framebuffer(g.Framebuffer),
		g.ClearValues,
	)
	if err != nil {
		return fmt.Errorf("beginning pass %q: %w", g.Pass, err)
	}

	if sets := g.DescriptorSets(); len(sets) > 0 {
		if err := encoder.RecordCommand(hal.BindDescriptorSets{Sets: sets}); err != nil {
			return fmt.Errorf("binding descriptors for pass %q: %w", g.Pass, err)
		}
	}

	for i, sp := range pass.Subpasses {
		if i > 0 {
			if err := encoder.NextSubpass(); err != nil {
				return fmt.Errorf("advancing to subpass %q: %w", sp.Name, err)
			}
		}
		cmds := g.Subpasses[sp.Name]
		if cmds == nil {
			continue
		}
		for _, cmd := range cmds.Commands {
			halCmd, err := e.mapCommand(cmd)
			if err != nil {
				return fmt.Errorf("subpass %q: %w", sp.Name, err)
			}
			if err := encoder.RecordCommand(halCmd); err != nil {
				return fmt.Errorf("subpass %q: %w", sp.Name, err)
			}
		}
	}

	if err := encoder.End(); err != nil {
		return fmt.Errorf("ending pass %q: %w", g.Pass, err)
	}
	return nil
}

// runTransfer replays the job's copy commands in order.
func (e *Executor) runTransfer(ctx context.Context, job *scene.Job) error {
	for _, cmd := range job.Transfer.Commands {
		copyCmd := cmd.CopyBufferToImage
		if copyCmd == nil {
			return fmt.Errorf("transfer job %q holds a non-transfer command", job.Name)
		}
		src := e.handles.Buffer(copyCmd.Buffer)
		dst := e.handles.Image(copyCmd.Image)
		if err := e.device.CopyBufferToImage(ctx, src, dst); err != nil {
			return fmt.Errorf("copying %q to %q: %w", copyCmd.Buffer, copyCmd.Image, err)
		}
	}
	return nil
}

// mapCommand translates one declarative command into its backend form,
// resolving buffer names to live handles.
func (e *Executor) mapCommand(cmd scene.Command) (hal.Command, error) {
	switch {
	case cmd.BindPipeline != nil:
		return hal.BindPipeline{Pipeline: cmd.BindPipeline.Name}, nil

	case cmd.BindDescriptorSets != nil:
		return hal.BindDescriptorSets{
			First: cmd.BindDescriptorSets.First,
			Sets:  cmd.BindDescriptorSets.Sets,
		}, nil

	case cmd.BindVertexBuffers != nil:
		c := cmd.BindVertexBuffers
		bindings := make([]hal.VertexBufferBinding, len(c.Buffers))
		for i, name := range c.Buffers {
			bindings[i] = hal.VertexBufferBinding{Buffer: e.handles.Buffer(name)}
			if i < len(c.Offsets) {
				bindings[i].Offset = c.Offsets[i]
			}
		}
		return hal.BindVertexBuffers{Bindings: bindings}, nil

	case cmd.BindIndexBuffer != nil:
		c := cmd.BindIndexBuffer
		format, err := indexFormat(c.Format)
		if err != nil {
			return nil, err
		}
		return hal.BindIndexBuffer{
			Buffer: e.handles.Buffer(c.Buffer),
			Offset: c.Offset,
			Format: format,
		}, nil

	// Vertex, index, and instance pairs are [start, end) ranges; the backend
	// wants first+count.
	case cmd.Draw != nil:
		c := cmd.Draw
		return hal.Draw{
			FirstVertex:   c.Vertices[0],
			VertexCount:   c.Vertices[1] - c.Vertices[0],
			FirstInstance: c.Instances[0],
			InstanceCount: c.Instances[1] - c.Instances[0],
		}, nil

	case cmd.DrawIndexed != nil:
		c := cmd.DrawIndexed
		return hal.DrawIndexed{
			FirstIndex:    c.Indices[0],
			IndexCount:    c.Indices[1] - c.Indices[0],
			BaseVertex:    c.BaseVertex,
			FirstInstance: c.Instances[0],
			InstanceCount: c.Instances[1] - c.Instances[0],
		}, nil

	case cmd.CopyBufferToImage != nil:
		return nil, fmt.Errorf("copy command is not valid inside a render pass")

	default:
		return nil, fmt.Errorf("empty command")
	}
}

func indexFormat(token string) (hal.IndexFormat, error) {
	switch token {
	case "uint16":
		return hal.IndexUint16, nil
	case "uint32":
		return hal.IndexUint32, nil
	}
	return 0, fmt.Errorf("unknown index format %q", token)
}
