package testutil

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/vk/gfxprobe/internal/hal"
)

// FakeDevice is a recording hal.Device. Every creation and destruction is
// appended to Events as "create:<label>" / "destroy:<label>", and calls can
// be made to fail per label through FailOn.
type FakeDevice struct {
	// Events holds the call log in order.
	Events []string

	// FailOn makes the creation call for the given label return an error.
	FailOn map[string]error

	// Readbacks maps image labels to canned readback results.
	Readbacks map[string]*hal.ReadBack

	closed bool
}

// NewFakeDevice creates an empty recording device.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		FailOn:    make(map[string]error),
		Readbacks: make(map[string]*hal.ReadBack),
	}
}

type fakeHandle struct {
	device *FakeDevice
	label  string
}

func (h *fakeHandle) Destroy() {
	h.device.Events = append(h.device.Events, "destroy:"+h.label)
}

func (d *FakeDevice) create(label string) (*fakeHandle, error) {
	if err := d.FailOn[label]; err != nil {
		return nil, err
	}
	d.Events = append(d.Events, "create:"+label)
	return &fakeHandle{device: d, label: label}, nil
}

func (d *FakeDevice) CreateImage(desc hal.ImageDesc) (hal.Image, error) {
	return d.create(desc.Label)
}

func (d *FakeDevice) CreateImageView(desc hal.ImageViewDesc) (hal.ImageView, error) {
	return d.create(desc.Label)
}

func (d *FakeDevice) CreateRenderPass(desc hal.RenderPassDesc) (hal.RenderPass, error) {
	return d.create(desc.Label)
}

func (d *FakeDevice) CreateFramebuffer(desc hal.FramebufferDesc) (hal.Framebuffer, error) {
	return d.create(desc.Label)
}

func (d *FakeDevice) CreateBuffer(desc hal.BufferDesc) (hal.Buffer, error) {
	return d.create(desc.Label)
}

func (d *FakeDevice) UploadImage(img hal.Image, data []byte) error {
	d.Events = append(d.Events, fmt.Sprintf("upload:%s:%d", img.(*fakeHandle).label, len(data)))
	return nil
}

func (d *FakeDevice) UploadBuffer(buf hal.Buffer, data []byte) error {
	d.Events = append(d.Events, fmt.Sprintf("upload:%s:%d", buf.(*fakeHandle).label, len(data)))
	return nil
}

func (d *FakeDevice) BeginRenderPass(pass hal.RenderPass, fb hal.Framebuffer, clears []gputypes.Color) (hal.PassEncoder, error) {
	label := pass.(*fakeHandle).label
	if err := d.FailOn["begin:"+label]; err != nil {
		return nil, err
	}
	d.Events = append(d.Events, "begin:"+label)
	return &fakeEncoder{device: d, label: label}, nil
}

func (d *FakeDevice) CopyBufferToImage(ctx context.Context, src hal.Buffer, dst hal.Image) error {
	d.Events = append(d.Events, fmt.Sprintf("copy:%s:%s", src.(*fakeHandle).label, dst.(*fakeHandle).label))
	return nil
}

func (d *FakeDevice) ReadBackImage(ctx context.Context, img hal.Image) (*hal.ReadBack, error) {
	label := img.(*fakeHandle).label
	d.Events = append(d.Events, "readback:"+label)
	rb, ok := d.Readbacks[label]
	if !ok {
		return nil, fmt.Errorf("no canned readback for image %q", label)
	}
	return rb, nil
}

func (d *FakeDevice) Close() error {
	d.closed = true
	d.Events = append(d.Events, "close")
	return nil
}

// Closed reports whether Close was called.
func (d *FakeDevice) Closed() bool { return d.closed }

type fakeEncoder struct {
	device *FakeDevice
	label  string
}

func (e *fakeEncoder) RecordCommand(cmd hal.Command) error {
	e.device.Events = append(e.device.Events, fmt.Sprintf("record:%s:%T", e.label, cmd))
	return nil
}

func (e *fakeEncoder) NextSubpass() error {
	e.device.Events = append(e.device.Events, "next-subpass:"+e.label)
	return nil
}

func (e *fakeEncoder) End() error {
	if err := e.device.FailOn["end:"+e.label]; err != nil {
		return err
	}
	e.device.Events = append(e.device.Events, "end:"+e.label)
	return nil
}
