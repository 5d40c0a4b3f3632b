package builder

import (
	"context"

	"github.com/vk/gfxprobe/internal/ctxlog"
	"github.com/vk/gfxprobe/internal/hal"
	"github.com/vk/gfxprobe/internal/scene"
)

// Handles is the name-keyed table of live backend objects produced by a
// build. It remembers creation order so teardown can run strictly in
// reverse, dependents before dependencies.
type Handles struct {
	doc *scene.Document

	images       map[string]hal.Image
	views        map[string]hal.ImageView
	passes       map[string]hal.RenderPass
	framebuffers map[string]hal.Framebuffer
	buffers      map[string]hal.Buffer

	created []createdHandle
}

type createdHandle struct {
	name   string
	handle hal.Destroyer
}

func newHandles(doc *scene.Document) *Handles {
	return &Handles{
		doc:          doc,
		images:       make(map[string]hal.Image),
		views:        make(map[string]hal.ImageView),
		passes:       make(map[string]hal.RenderPass),
		framebuffers: make(map[string]hal.Framebuffer),
		buffers:      make(map[string]hal.Buffer),
	}
}

// Document returns the scene document the handles were built from.
func (h *Handles) Document() *scene.Document { return h.doc }

// Image returns the backend image for name, or nil if no such image exists.
func (h *Handles) Image(name string) hal.Image { return h.images[name] }

// ImageView returns the backend view for name, or nil if no such view exists.
func (h *Handles) ImageView(name string) hal.ImageView { return h.views[name] }

// RenderPass returns the backend pass for name, or nil if no such pass exists.
func (h *Handles) RenderPass(name string) hal.RenderPass { return h.passes[name] }

// Framebuffer returns the backend framebuffer for name, or nil if none exists.
func (h *Handles) Framebuffer(name string) hal.Framebuffer { return h.framebuffers[name] }

// Buffer returns the backend buffer for name, or nil if no such buffer exists.
func (h *Handles) Buffer(name string) hal.Buffer { return h.buffers[name] }

func (h *Handles) addImage(name string, img hal.Image) {
	h.images[name] = img
	h.created = append(h.created, createdHandle{name, img})
}

func (h *Handles) addImageView(name string, view hal.ImageView) {
	h.views[name] = view
	h.created = append(h.created, createdHandle{name, view})
}

func (h *Handles) addRenderPass(name string, pass hal.RenderPass) {
	h.passes[name] = pass
	h.created = append(h.created, createdHandle{name, pass})
}

func (h *Handles) addFramebuffer(name string, fb hal.Framebuffer) {
	h.framebuffers[name] = fb
	h.created = append(h.created, createdHandle{name, fb})
}

func (h *Handles) addBuffer(name string, buf hal.Buffer) {
	h.buffers[name] = buf
	h.created = append(h.created, createdHandle{name, buf})
}

// Teardown destroys every tracked handle in reverse creation order. It is
// idempotent: a second call is a no-op.
func (h *Handles) Teardown(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for i := len(h.created) - 1; i >= 0; i-- {
		entry := h.created[i]
		logger.Debug("Destroying resource.", "resource", entry.name)
		entry.handle.Destroy()
	}
	h.created = nil
}
