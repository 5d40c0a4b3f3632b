package software

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/vk/gfxprobe/internal/hal"
)

// Encoder errors.
var (
	// ErrPassEnded is returned when recording into an ended pass.
	ErrPassEnded = errors.New("software: render pass already ended")

	// ErrNoIndexBuffer is returned by an indexed draw without a bound index buffer.
	ErrNoIndexBuffer = errors.New("software: indexed draw without a bound index buffer")
)

// passEncoder replays commands against a framebuffer. The backend has no
// rasterizer; draws are validated and sequenced but do not touch pixels,
// while load/store operations are applied exactly.
type passEncoder struct {
	pass *renderPass
	fb   *framebuffer

	subpass    int
	ended      bool
	indexBound bool
}

// BeginRenderPass applies every attachment's load operation and returns an
// encoder positioned at the first subpass.
func (d *Device) BeginRenderPass(pass hal.RenderPass, fb hal.Framebuffer, clears []gputypes.Color) (hal.PassEncoder, error) {
	p, ok := pass.(*renderPass)
	if !ok || p.destroyed {
		return nil, ErrDestroyed
	}
	f, ok := fb.(*framebuffer)
	if !ok || f.destroyed {
		return nil, ErrDestroyed
	}
	if f.pass != p {
		return nil, fmt.Errorf("software: framebuffer %q was created for a different pass", f.desc.Label)
	}
	if len(clears) != len(p.desc.Attachments) {
		return nil, fmt.Errorf("software: %d clear values for %d attachments", len(clears), len(p.desc.Attachments))
	}

	for i, att := range p.desc.Attachments {
		if att.LoadOp != gputypes.LoadOpClear {
			continue
		}
		view := f.views[i]
		fillImage(view.image, view.desc.Format, clears[i])
	}

	return &passEncoder{pass: p, fb: f}, nil
}

func (e *passEncoder) RecordCommand(cmd hal.Command) error {
	if e.ended {
		return ErrPassEnded
	}
	switch c := cmd.(type) {
	case hal.BindPipeline, hal.BindDescriptorSets, hal.Draw:
		return nil
	case hal.BindVertexBuffers:
		for _, binding := range c.Bindings {
			b, ok := binding.Buffer.(*buffer)
			if !ok || b.destroyed {
				return ErrDestroyed
			}
		}
		return nil
	case hal.BindIndexBuffer:
		b, ok := c.Buffer.(*buffer)
		if !ok || b.destroyed {
			return ErrDestroyed
		}
		e.indexBound = true
		return nil
	case hal.DrawIndexed:
		if !e.indexBound {
			return ErrNoIndexBuffer
		}
		return nil
	default:
		return fmt.Errorf("software: unknown command %T", cmd)
	}
}

func (e *passEncoder) NextSubpass() error {
	if e.ended {
		return ErrPassEnded
	}
	if e.subpass+1 >= len(e.pass.desc.Subpasses) {
		return fmt.Errorf("software: pass %q has no subpass after %d", e.pass.desc.Label, e.subpass)
	}
	e.subpass++
	return nil
}

// End applies store operations and completes the submission. The backend is
// synchronous, so completion is immediate.
func (e *passEncoder) End() error {
	if e.ended {
		return ErrPassEnded
	}
	e.ended = true
	for i, att := range e.pass.desc.Attachments {
		if att.StoreOp == gputypes.StoreOpDiscard {
			view := e.fb.views[i]
			clear(view.image.pixels)
		}
	}
	return nil
}

// fillImage writes color into every pixel of the image, encoded in format.
// For depth/stencil formats the color's R carries depth and G the stencil
// index.
func fillImage(img *image, format gputypes.TextureFormat, color gputypes.Color) {
	texel := hal.EncodeTexel(format, color)
	if texel == nil {
		return
	}
	for i := 0; i+len(texel) <= len(img.pixels); i += len(texel) {
		copy(img.pixels[i:], texel)
	}
}
