package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gfxprobe/internal/builder"
	"github.com/vk/gfxprobe/internal/resolve"
	"github.com/vk/gfxprobe/internal/schema"
	"github.com/vk/gfxprobe/internal/testutil"
)

func buildScene(t *testing.T, src string) (*testutil.FakeDevice, *builder.Handles) {
	t.Helper()
	doc, err := schema.ParseSource("scene.hcl", []byte(src))
	require.NoError(t, err)
	plan, err := resolve.Resolve(t.Context(), doc)
	require.NoError(t, err)

	device := testutil.NewFakeDevice()
	handles, err := builder.New(device, "").Build(t.Context(), plan)
	require.NoError(t, err)
	device.Events = nil
	return device, handles
}

func TestRun_GraphicsJobReplaysPass(t *testing.T) {
	device, handles := buildScene(t, testutil.ClearScene)

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 1)
	assert.Equal(t, StateComplete, outcomes[0].State)
	assert.NoError(t, outcomes[0].Err)

	assert.Equal(t, []string{"begin:clear_pass", "end:clear_pass"}, device.Events)
}

func TestRun_ReplaysCommandsInDocumentOrder(t *testing.T) {
	device, handles := buildScene(t, `
resource "image" "im" {
  width  = 1
  format = "rgba8-unorm"
  usage  = ["render-attachment"]
}

resource "image_view" "v" {
  image  = "im"
  format = "rgba8-unorm"
}

resource "render_pass" "p" {
  attachment "color" {
    format         = "rgba8-unorm"
    load_op        = "clear"
    store_op       = "store"
    initial_layout = "undefined"
    final_layout   = "general"
  }
  subpass "main" {
    color "color" { layout = "general" }
  }
}

resource "framebuffer" "fb" {
  pass        = "p"
  attachments = { color = "v" }
  width       = 1
}

resource "buffer" "verts" {
  size  = 48
  usage = ["vertex"]
}

job "graphics" "draw" {
  framebuffer  = "fb"
  pass         = "p"
  clear_values = [[0, 0, 0, 1]]

  subpass "main" {
    bind_pipeline { name = "flat" }
    bind_vertex_buffers {
      buffers = ["verts"]
      offsets = [0]
    }
    draw { vertices = [0, 3] }
  }
}
`)

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 1)
	require.Equal(t, StateComplete, outcomes[0].State)

	assert.Equal(t, []string{
		"begin:p",
		"record:p:hal.BindPipeline",
		"record:p:hal.BindVertexBuffers",
		"record:p:hal.Draw",
		"end:p",
	}, device.Events)
}

func TestRun_VertexBuffersWithoutOffsets(t *testing.T) {
	device, handles := buildScene(t, `
resource "image" "im" {
  width  = 1
  format = "rgba8-unorm"
  usage  = ["render-attachment"]
}

resource "image_view" "v" {
  image  = "im"
  format = "rgba8-unorm"
}

resource "render_pass" "p" {
  attachment "color" {
    format         = "rgba8-unorm"
    load_op        = "clear"
    store_op       = "store"
    initial_layout = "undefined"
    final_layout   = "general"
  }
  subpass "main" {
    color "color" { layout = "general" }
  }
}

resource "framebuffer" "fb" {
  pass        = "p"
  attachments = { color = "v" }
  width       = 1
}

resource "buffer" "verts" {
  size  = 48
  usage = ["vertex"]
}

job "graphics" "draw" {
  framebuffer  = "fb"
  pass         = "p"
  clear_values = [[0, 0, 0, 1]]

  subpass "main" {
    bind_vertex_buffers { buffers = ["verts"] }
    draw { vertices = [0, 3] }
  }
}
`)

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 1)
	assert.Equal(t, StateComplete, outcomes[0].State)
	assert.NoError(t, outcomes[0].Err)

	assert.Equal(t, []string{
		"begin:p",
		"record:p:hal.BindVertexBuffers",
		"record:p:hal.Draw",
		"end:p",
	}, device.Events)
}

func TestRun_DescriptorsBoundAtPassBegin(t *testing.T) {
	device, handles := buildScene(t, `
resource "image" "im" {
  width  = 1
  format = "rgba8-unorm"
  usage  = ["render-attachment"]
}

resource "image_view" "v" {
  image  = "im"
  format = "rgba8-unorm"
}

resource "render_pass" "p" {
  attachment "color" {
    format         = "rgba8-unorm"
    load_op        = "clear"
    store_op       = "store"
    initial_layout = "undefined"
    final_layout   = "general"
  }
  subpass "main" {
    color "color" { layout = "general" }
  }
}

resource "framebuffer" "fb" {
  pass        = "p"
  attachments = { color = "v" }
  width       = 1
}

job "graphics" "draw" {
  framebuffer  = "fb"
  pass         = "p"
  clear_values = [[0, 0, 0, 1]]
  descriptors  = { "0" = "globals" }

  subpass "main" {
    bind_pipeline { name = "flat" }
  }
}
`)

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 1)
	require.Equal(t, StateComplete, outcomes[0].State)

	assert.Equal(t, []string{
		"begin:p",
		"record:p:hal.BindDescriptorSets",
		"record:p:hal.BindPipeline",
		"end:p",
	}, device.Events)
}

func TestRun_TransferJob(t *testing.T) {
	device, handles := buildScene(t, `
resource "image" "im" {
  width  = 1
  format = "rgba8-unorm"
  usage  = ["copy-dst"]
}

resource "buffer" "staging" {
  size  = 4
  usage = ["copy-src"]
}

job "transfer" "upload" {
  copy_buffer_to_image {
    buffer = "staging"
    image  = "im"
  }
}
`)

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 1)
	assert.Equal(t, StateComplete, outcomes[0].State)
	assert.Equal(t, []string{"copy:staging:im"}, device.Events)
}

func TestRun_FailureIsContainedToTheJob(t *testing.T) {
	device, handles := buildScene(t, testutil.ClearScene+`
job "graphics" "second" {
  framebuffer  = "target_fb"
  pass         = "clear_pass"
  clear_values = [[0, 0, 0, 1]]
  subpass "main" {}
}
`)
	cause := errors.New("device lost")
	device.FailOn["end:clear_pass"] = cause

	outcomes := New(device, handles).Run(t.Context())
	require.Len(t, outcomes, 2)

	assert.Equal(t, StateFailed, outcomes[0].State)
	assert.ErrorIs(t, outcomes[0].Err, cause)

	// The second job still runs even though it fails the same way.
	assert.Equal(t, "second", outcomes[1].Job.Name)
	assert.Equal(t, StateFailed, outcomes[1].State)
}

func TestRun_CanceledContextSkipsJobs(t *testing.T) {
	device, handles := buildScene(t, testutil.ClearScene)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	outcomes := New(device, handles).Run(ctx)
	require.Len(t, outcomes, 1)
	assert.Equal(t, StateSkipped, outcomes[0].State)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
	assert.Empty(t, device.Events)
}
