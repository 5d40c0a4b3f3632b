// Package testutil holds shared scene fixtures and a recording fake device
// for tests across the pipeline packages.
package testutil

// ClearScene is the minimal passing scene: a 1x1 color target cleared to a
// light gray and verified against the same color.
const ClearScene = `
resource "image" "target" {
  width  = 1
  height = 1
  levels = 1
  format = "rgba8-unorm"
  usage  = ["render-attachment", "copy-src"]
}

resource "image_view" "target_view" {
  image   = "target"
  format  = "rgba8-unorm"
  aspects = ["color"]
}

resource "render_pass" "clear_pass" {
  attachment "color" {
    format         = "rgba8-unorm"
    load_op        = "clear"
    store_op       = "store"
    initial_layout = "undefined"
    final_layout   = "color-attachment-optimal"
  }

  subpass "main" {
    color "color" { layout = "color-attachment-optimal" }
  }
}

resource "framebuffer" "target_fb" {
  pass        = "clear_pass"
  attachments = { color = "target_view" }
  width       = 1
  height      = 1
}

job "graphics" "clear" {
  framebuffer  = "target_fb"
  pass         = "clear_pass"
  clear_values = [[0.8, 0.8, 0.8, 1.0]]

  subpass "main" {}

  expect {
    image = "target"
    color = [0.8, 0.8, 0.8, 1.0]
  }
}
`
