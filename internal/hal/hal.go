// Package hal defines the hardware-abstraction capability that the harness
// drives. A backend implements Device once and registers itself by name; the
// pipeline is written against these interfaces only and never branches on
// backend identity.
package hal

import (
	"context"

	"github.com/gogpu/gputypes"
)

// Destroyer is implemented by every backend object the harness owns. Destroy
// releases the underlying native resource and must be safe to call exactly
// once per handle.
type Destroyer interface {
	Destroy()
}

// Image is an opaque backend image handle.
type Image interface {
	Destroyer
}

// ImageView is an opaque backend image-view handle.
type ImageView interface {
	Destroyer
}

// RenderPass is an opaque backend render-pass handle.
type RenderPass interface {
	Destroyer
}

// Framebuffer is an opaque backend framebuffer handle.
type Framebuffer interface {
	Destroyer
}

// Buffer is an opaque backend buffer handle.
type Buffer interface {
	Destroyer
}

// PassEncoder records one render-pass execution. It is obtained from
// Device.BeginRenderPass positioned at the first subpass, advanced with
// NextSubpass, and finished with End. Recording after End is an error.
type PassEncoder interface {
	// RecordCommand appends one command to the current subpass.
	RecordCommand(cmd Command) error

	// NextSubpass ends the current subpass and begins the next declared one.
	NextSubpass() error

	// End finishes the pass and submits the recorded work. It blocks until
	// the backend signals completion of the submission.
	End() error
}

// Device is the uniform call contract over heterogeneous native graphics
// backends. Creation calls return opaque handles owned by the caller;
// blocking calls take a context and honor its cancellation where the backend
// allows it.
type Device interface {
	CreateImage(desc ImageDesc) (Image, error)
	CreateImageView(desc ImageViewDesc) (ImageView, error)
	CreateRenderPass(desc RenderPassDesc) (RenderPass, error)
	CreateFramebuffer(desc FramebufferDesc) (Framebuffer, error)
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// UploadImage replaces the full contents of an image with tightly packed
	// host bytes. The image usage must include copy-dst.
	UploadImage(img Image, data []byte) error

	// UploadBuffer replaces the full contents of a buffer with host bytes.
	UploadBuffer(buf Buffer, data []byte) error

	// BeginRenderPass starts recording pass against fb with one clear value
	// per attachment, in the pass's attachment declaration order.
	BeginRenderPass(pass RenderPass, fb Framebuffer, clears []gputypes.Color) (PassEncoder, error)

	// CopyBufferToImage copies the buffer's contents into the image, both
	// interpreted with the image's format and extent.
	CopyBufferToImage(ctx context.Context, src Buffer, dst Image) error

	// ReadBackImage copies the image's device-resident contents into
	// host-addressable memory. It blocks behind a backend fence until all
	// previously submitted work touching the image has completed.
	ReadBackImage(ctx context.Context, img Image) (*ReadBack, error)

	// Close releases device-level state. All handles created from the device
	// must be destroyed first.
	Close() error
}
