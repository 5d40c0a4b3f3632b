package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPassLookups(t *testing.T) {
	pass := &RenderPass{
		Attachments: []Attachment{{Name: "color"}, {Name: "depth"}},
		Subpasses:   []Subpass{{Name: "main"}, {Name: "resolve"}},
	}

	assert.Equal(t, 0, pass.AttachmentIndex("color"))
	assert.Equal(t, 1, pass.AttachmentIndex("depth"))
	assert.Equal(t, -1, pass.AttachmentIndex("stencil"))

	assert.Equal(t, 1, pass.SubpassIndex("resolve"))
	assert.Equal(t, -1, pass.SubpassIndex("shadow"))

	assert.Equal(t, []string{"color", "depth"}, pass.AttachmentNames())
}

func TestGraphicsJobDescriptorSets(t *testing.T) {
	g := &GraphicsJob{Descriptors: map[string]string{
		"2": "materials",
		"0": "globals",
		"1": "lights",
	}}

	assert.Equal(t, []string{"globals", "lights", "materials"}, g.DescriptorSets())

	empty := &GraphicsJob{}
	assert.Nil(t, empty.DescriptorSets())
}
