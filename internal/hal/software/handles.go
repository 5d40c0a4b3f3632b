package software

import (
	"github.com/vk/gfxprobe/internal/hal"
)

// image holds host-resident pixel storage for one hal.Image.
type image struct {
	device    *Device
	desc      hal.ImageDesc
	pixels    []byte
	destroyed bool
}

func (i *image) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.pixels = nil
	i.device.untrack()
}

type imageView struct {
	device    *Device
	desc      hal.ImageViewDesc
	image     *image
	destroyed bool
}

func (v *imageView) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	v.device.untrack()
}

type renderPass struct {
	device    *Device
	desc      hal.RenderPassDesc
	destroyed bool
}

func (p *renderPass) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.device.untrack()
}

type framebuffer struct {
	device    *Device
	desc      hal.FramebufferDesc
	pass      *renderPass
	views     []*imageView
	destroyed bool
}

func (f *framebuffer) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	f.device.untrack()
}

type buffer struct {
	device    *Device
	desc      hal.BufferDesc
	data      []byte
	destroyed bool
}

func (b *buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.data = nil
	b.device.untrack()
}
