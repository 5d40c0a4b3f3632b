// Package builder walks the resolver's creation plan and allocates one
// backend object per entry, tracking ownership so the whole set can be torn
// down deterministically. Creation never deviates from the plan's order, and
// any failure tears down everything already created, in reverse, before the
// error propagates.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/resolve"
	"github.com/vk/gfxprobe/internal/scene"
)

// ResourceCreationFailedError reports a backend creation failure for one
// named resource. By the time it propagates, every previously created handle
// has been destroyed.
type ResourceCreationFailedError struct {
	Name  string
	Cause error
}

func (e *ResourceCreationFailedError) Error() string {
	return fmt.Sprintf("failed to create resource %q: %v", e.Name, e.Cause)
}

func (e *ResourceCreationFailedError) Unwrap() error {
	return e.Cause
}

// Builder drives a device through a creation plan.
type Builder struct {
	device hal.Device

	// dataDir is the directory initial-contents files resolve against.
	dataDir string
}

// New creates a Builder for the given device. dataDir may be empty when no
// resource names a data file.
func New(device hal.Device, dataDir string) *Builder {
	return &Builder{device: device, dataDir: dataDir}
}

// Build creates every resource in the plan's creation order. On any failure
// it destroys all previously created handles in reverse creation order and
// returns a ResourceCreationFailedError; no partial resource set survives.
func (b *Builder) Build(ctx context.Context, plan *resolve.Plan) (*Handles, error) {
	logger := ctxlog.FromContext(ctx)
	handles := newHandles(plan.Doc)

	for _, name := range plan.CreationOrder {
		res := plan.Doc.ResourceIndex[name]
		logger.Debug("Creating resource.", "resource", name, "kind", res.Kind)

		var err error
		switch res.Kind {
		case scene.KindImage:
			err = b.createImage(handles, res)
		case scene.KindImageView:
			err = b.createImageView(handles, res)
		case scene.KindRenderPass:
			err = b.createRenderPass(handles, res)
		case scene.KindFramebuffer:
			err = b.createFramebuffer(handles, res)
		case scene.KindBuffer:
			err = b.createBuffer(handles, res)
		default:
			err = fmt.Errorf("unknown resource kind %q", res.Kind)
		}

		if err != nil {
			logger.Error("Resource creation failed, tearing down partial set.", "resource", name, "error", err)
			handles.Teardown(ctx)
			return nil, &ResourceCreationFailedError{Name: name, Cause: err}
		}
	}

	logger.Debug("All resources created.", "count", len(plan.CreationOrder))
	return handles, nil
}

func (b *Builder) createImage(handles *Handles, res *scene.Resource) error {
	img := res.Image
	handle, err := b.device.CreateImage(hal.ImageDesc{
		Label:     res.Name,
		Dimension: img.Dimension,
		Size:      img.Size,
		Levels:    img.Levels,
		Format:    img.Format,
		Usage:     img.Usage,
	})
	if err != nil {
		return err
	}
	handles.addImage(res.Name, handle)

	if img.Data != "" {
		data, err := os.ReadFile(filepath.Join(b.dataDir, img.Data))
		if err != nil {
			return fmt.Errorf("reading initial data for image %q: %w", res.Name, err)
		}
		if err := b.device.UploadImage(handle, data); err != nil {
			return fmt.Errorf("uploading initial data for image %q: %w", res.Name, err)
		}
	}
	return nil
}

func (b *Builder) createImageView(handles *Handles, res *scene.Resource) error {
	view := res.ImageView
	imgRes := handles.doc.ResourceIndex[view.Image]

	// A zero count selects all remaining levels or layers.
	levelCount := view.MipLevelCount
	if levelCount == 0 {
		levelCount = imgRes.Image.Levels - view.BaseMipLevel
	}
	layerCount := view.LayerCount
	if layerCount == 0 {
		layerCount = imgRes.Image.Size.DepthOrArrayLayers - view.BaseArrayLayer
	}

	handle, err := b.device.CreateImageView(hal.ImageViewDesc{
		Label:          res.Name,
		Image:          handles.Image(view.Image),
		Format:         view.Format,
		Aspects:        view.Aspects,
		BaseMipLevel:   view.BaseMipLevel,
		MipLevelCount:  levelCount,
		BaseArrayLayer: view.BaseArrayLayer,
		LayerCount:     layerCount,
	})
	if err != nil {
		return err
	}
	handles.addImageView(res.Name, handle)
	return nil
}

func (b *Builder) createRenderPass(handles *Handles, res *scene.Resource) error {
	pass := res.RenderPass

	desc := hal.RenderPassDesc{Label: res.Name}
	for _, att := range pass.Attachments {
		desc.Attachments = append(desc.Attachments, hal.AttachmentDesc{
			Format:        att.Format,
			LoadOp:        att.LoadOp,
			StoreOp:       att.StoreOp,
			InitialLayout: att.InitialLayout,
			FinalLayout:   att.FinalLayout,
		})
	}
	for _, sp := range pass.Subpasses {
		sub := hal.SubpassDesc{}
		for _, ref := range sp.Colors {
			sub.Colors = append(sub.Colors, hal.AttachmentRef{
				Index:  pass.AttachmentIndex(ref.Attachment),
				Layout: ref.Layout,
			})
		}
		if ds := sp.DepthStencil; ds != nil {
			sub.DepthStencil = &hal.AttachmentRef{
				Index:  pass.AttachmentIndex(ds.Attachment),
				Layout: ds.Layout,
			}
		}
		desc.Subpasses = append(desc.Subpasses, sub)
	}
	for _, dep := range pass.Dependencies {
		desc.Dependencies = append(desc.Dependencies, hal.SubpassDependency{
			From: subpassRef(pass, dep.From),
			To:   subpassRef(pass, dep.To),
		})
	}

	handle, err := b.device.CreateRenderPass(desc)
	if err != nil {
		return err
	}
	handles.addRenderPass(res.Name, handle)
	return nil
}

func subpassRef(pass *scene.RenderPass, name string) int {
	if name == "" {
		return hal.SubpassExternal
	}
	return pass.SubpassIndex(name)
}

func (b *Builder) createFramebuffer(handles *Handles, res *scene.Resource) error {
	fb := res.Framebuffer
	pass := handles.doc.ResourceIndex[fb.Pass].RenderPass

	// The extent must fit inside every attached view's underlying image;
	// catching it here keeps the error attributable to the document rather
	// than to backend behavior.
	views := make([]hal.ImageView, 0, len(pass.Attachments))
	for _, att := range pass.Attachments {
		viewName := fb.Attachments[att.Name]
		viewRes := handles.doc.ResourceIndex[viewName]
		imgExt := handles.doc.ResourceIndex[viewRes.ImageView.Image].Image.Size
		if fb.Extent.Width > imgExt.Width || fb.Extent.Height > imgExt.Height ||
			fb.Extent.DepthOrArrayLayers > imgExt.DepthOrArrayLayers {
			return fmt.Errorf("extent %dx%dx%d exceeds image extent of view %q",
				fb.Extent.Width, fb.Extent.Height, fb.Extent.DepthOrArrayLayers, viewName)
		}
		views = append(views, handles.ImageView(viewName))
	}

	handle, err := b.device.CreateFramebuffer(hal.FramebufferDesc{
		Label:  res.Name,
		Pass:   handles.RenderPass(fb.Pass),
		Views:  views,
		Extent: fb.Extent,
	})
	if err != nil {
		return err
	}
	handles.addFramebuffer(res.Name, handle)
	return nil
}

func (b *Builder) createBuffer(handles *Handles, res *scene.Resource) error {
	buf := res.Buffer
	handle, err := b.device.CreateBuffer(hal.BufferDesc{
		Label: res.Name,
		Size:  buf.Size,
		Usage: buf.Usage,
	})
	if err != nil {
		return err
	}
	handles.addBuffer(res.Name, handle)

	if buf.Data != "" {
		data, err := os.ReadFile(filepath.Join(b.dataDir, buf.Data))
		if err != nil {
			return fmt.Errorf("reading initial data for buffer %q: %w", res.Name, err)
		}
		if err := b.device.UploadBuffer(handle, data); err != nil {
			return fmt.Errorf("uploading initial data for buffer %q: %w", res.Name, err)
		}
	}
	return nil
}
