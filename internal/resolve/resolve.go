// Package resolve validates every cross-reference in a parsed scene and
// turns the flat document into a dependency-ordered creation plan. It runs
// before any backend call, so a failure here leaves nothing to tear down.
package resolve

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/dag"
	"github.com/vk/gfxprobe/internal/scene"
)

// Plan is the resolver's output: the validated document and the order in
// which the builder must create its resources. Jobs always run after the
// whole plan is built, in document order.
type Plan struct {
	Doc *scene.Document

	// CreationOrder is a topological order of the resource reference graph,
	// with document declaration order breaking ties.
	CreationOrder []string
}

// Resolve validates doc and computes its creation plan.
func Resolve(ctx context.Context, doc *scene.Document) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolve: starting reference validation.", "resources", len(doc.Resources), "jobs", len(doc.Jobs))

	graph := dag.New()
	for _, res := range doc.Resources {
		graph.AddNode(res.Name)
	}

	for _, res := range doc.Resources {
		var err error
		switch res.Kind {
		case scene.KindImageView:
			err = resolveImageView(doc, graph, res)
		case scene.KindRenderPass:
			err = resolveRenderPass(res)
		case scene.KindFramebuffer:
			err = resolveFramebuffer(doc, graph, res)
		case scene.KindImage, scene.KindBuffer:
			// Leaves of the reference graph.
		}
		if err != nil {
			return nil, err
		}
	}

	for _, job := range doc.Jobs {
		if err := resolveJob(doc, job); err != nil {
			return nil, err
		}
	}

	if err := graph.DetectCycles(); err != nil {
		return nil, &CyclicDependencyError{Cause: err}
	}
	order, err := graph.TopoSort()
	if err != nil {
		return nil, &CyclicDependencyError{Cause: err}
	}

	logger.Debug("Resolve: plan computed.", "creation_order", order)
	return &Plan{Doc: doc, CreationOrder: order}, nil
}

// lookup resolves name to a resource of the expected kind.
func lookup(doc *scene.Document, name string, expected scene.Kind, referencedBy string) (*scene.Resource, error) {
	res, ok := doc.ResourceIndex[name]
	if !ok {
		return nil, &UnresolvedReferenceError{Name: name, Expected: string(expected), ReferencedBy: referencedBy}
	}
	if res.Kind != expected {
		return nil, &KindMismatchError{Name: name, Expected: expected, Found: res.Kind, ReferencedBy: referencedBy}
	}
	return res, nil
}

func resolveImageView(doc *scene.Document, graph *dag.Graph, res *scene.Resource) error {
	view := res.ImageView
	img, err := lookup(doc, view.Image, scene.KindImage, res.Name)
	if err != nil {
		return err
	}
	if !formatsCompatible(view.Format, img.Image.Format) {
		return fmt.Errorf("image_view %q: format is not compatible with image %q", res.Name, view.Image)
	}
	if view.BaseMipLevel >= img.Image.Levels {
		return fmt.Errorf("image_view %q: base level %d exceeds image levels %d", res.Name, view.BaseMipLevel, img.Image.Levels)
	}
	layers := img.Image.Size.DepthOrArrayLayers
	if view.BaseArrayLayer >= layers {
		return fmt.Errorf("image_view %q: base layer %d exceeds image layers %d", res.Name, view.BaseArrayLayer, layers)
	}
	if view.LayerCount > 0 && view.BaseArrayLayer+view.LayerCount > layers {
		return fmt.Errorf("image_view %q: layer range exceeds image layers %d", res.Name, layers)
	}
	return graph.AddEdge(view.Image, res.Name)
}

// resolveRenderPass checks that subpasses and dependencies only reference
// names declared inside the same pass.
func resolveRenderPass(res *scene.Resource) error {
	pass := res.RenderPass
	for _, sp := range pass.Subpasses {
		for _, ref := range sp.Colors {
			if pass.AttachmentIndex(ref.Attachment) < 0 {
				return &UnresolvedReferenceError{Name: ref.Attachment, Expected: "attachment of " + res.Name, ReferencedBy: res.Name}
			}
		}
		if ds := sp.DepthStencil; ds != nil && pass.AttachmentIndex(ds.Attachment) < 0 {
			return &UnresolvedReferenceError{Name: ds.Attachment, Expected: "attachment of " + res.Name, ReferencedBy: res.Name}
		}
	}
	for _, dep := range pass.Dependencies {
		// An empty name is the implicit external subpass.
		if dep.From != "" && pass.SubpassIndex(dep.From) < 0 {
			return &UnresolvedReferenceError{Name: dep.From, Expected: "subpass of " + res.Name, ReferencedBy: res.Name}
		}
		if dep.To != "" && pass.SubpassIndex(dep.To) < 0 {
			return &UnresolvedReferenceError{Name: dep.To, Expected: "subpass of " + res.Name, ReferencedBy: res.Name}
		}
	}
	return nil
}

// resolveFramebuffer checks the pass reference, the attachment-name set
// equality, and every bound view.
func resolveFramebuffer(doc *scene.Document, graph *dag.Graph, res *scene.Resource) error {
	fb := res.Framebuffer
	passRes, err := lookup(doc, fb.Pass, scene.KindRenderPass, res.Name)
	if err != nil {
		return err
	}
	if err := graph.AddEdge(fb.Pass, res.Name); err != nil {
		return err
	}

	pass := passRes.RenderPass
	for _, att := range pass.Attachments {
		if _, ok := fb.Attachments[att.Name]; !ok {
			return fmt.Errorf("framebuffer %q: missing attachment %q declared by pass %q", res.Name, att.Name, fb.Pass)
		}
	}
	for attName, viewName := range fb.Attachments {
		if pass.AttachmentIndex(attName) < 0 {
			return fmt.Errorf("framebuffer %q: attachment %q is not declared by pass %q", res.Name, attName, fb.Pass)
		}
		viewRes, err := lookup(doc, viewName, scene.KindImageView, res.Name)
		if err != nil {
			return err
		}
		att := pass.Attachments[pass.AttachmentIndex(attName)]
		if viewRes.ImageView.Format != att.Format {
			return fmt.Errorf("framebuffer %q: view %q format differs from attachment %q format", res.Name, viewName, attName)
		}
		if err := graph.AddEdge(viewName, res.Name); err != nil {
			return err
		}
	}
	return nil
}

func resolveJob(doc *scene.Document, job *scene.Job) error {
	switch job.Kind {
	case scene.JobGraphics:
		return resolveGraphicsJob(doc, job)
	case scene.JobTransfer:
		return resolveTransferJob(doc, job)
	default:
		return fmt.Errorf("job %q has unknown kind %q", job.Name, job.Kind)
	}
}

func resolveGraphicsJob(doc *scene.Document, job *scene.Job) error {
	g := job.Graphics
	passRes, err := lookup(doc, g.Pass, scene.KindRenderPass, job.Name)
	if err != nil {
		return err
	}
	fbRes, err := lookup(doc, g.Framebuffer, scene.KindFramebuffer, job.Name)
	if err != nil {
		return err
	}
	// The framebuffer must have been created from the very pass the job
	// begins; pass-compatibility across distinct passes is not modeled.
	if fbRes.Framebuffer.Pass != g.Pass {
		return fmt.Errorf("job %q: framebuffer %q was created for pass %q, not %q",
			job.Name, g.Framebuffer, fbRes.Framebuffer.Pass, g.Pass)
	}

	pass := passRes.RenderPass
	if len(g.ClearValues) != len(pass.Attachments) {
		return fmt.Errorf("job %q: %d clear values for %d attachments of pass %q",
			job.Name, len(g.ClearValues), len(pass.Attachments), g.Pass)
	}

	for name, sp := range g.Subpasses {
		if pass.SubpassIndex(name) < 0 {
			return &UnresolvedReferenceError{Name: name, Expected: "subpass of " + g.Pass, ReferencedBy: job.Name}
		}
		for _, cmd := range sp.Commands {
			if err := resolveDrawCommand(doc, job.Name, cmd); err != nil {
				return err
			}
		}
	}

	return resolveExpect(doc, job.Name, g.Expect)
}

func resolveTransferJob(doc *scene.Document, job *scene.Job) error {
	for _, cmd := range job.Transfer.Commands {
		copyCmd := cmd.CopyBufferToImage
		if copyCmd == nil {
			return fmt.Errorf("job %q: non-transfer command in transfer job", job.Name)
		}
		if _, err := lookup(doc, copyCmd.Buffer, scene.KindBuffer, job.Name); err != nil {
			return err
		}
		if _, err := lookup(doc, copyCmd.Image, scene.KindImage, job.Name); err != nil {
			return err
		}
	}
	return resolveExpect(doc, job.Name, job.Transfer.Expect)
}

func resolveDrawCommand(doc *scene.Document, jobName string, cmd scene.Command) error {
	switch {
	case cmd.BindVertexBuffers != nil:
		for _, name := range cmd.BindVertexBuffers.Buffers {
			if _, err := lookup(doc, name, scene.KindBuffer, jobName); err != nil {
				return err
			}
		}
	case cmd.BindIndexBuffer != nil:
		if _, err := lookup(doc, cmd.BindIndexBuffer.Buffer, scene.KindBuffer, jobName); err != nil {
			return err
		}
	}
	return nil
}

func resolveExpect(doc *scene.Document, jobName string, expect *scene.Expect) error {
	if expect == nil {
		return nil
	}
	_, err := lookup(doc, expect.Image, scene.KindImage, jobName)
	return err
}

// formatsCompatible allows a view to reinterpret its image's format only
// within the same family: identical formats or unorm/srgb siblings.
func formatsCompatible(a, b gputypes.TextureFormat) bool {
	return stripSrgb(a) == stripSrgb(b)
}

func stripSrgb(f gputypes.TextureFormat) gputypes.TextureFormat {
	switch f {
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return gputypes.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return f
	}
}
