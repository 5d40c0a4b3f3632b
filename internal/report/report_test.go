package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gfxprobe/internal/scene"
)

func TestPassed(t *testing.T) {
	t.Run("empty run passes", func(t *testing.T) {
		assert.True(t, (&Report{}).Passed())
	})

	t.Run("all passed", func(t *testing.T) {
		r := &Report{}
		r.Add(JobResult{Name: "a", Status: StatusPassed})
		r.Add(JobResult{Name: "b", Status: StatusPassed})
		assert.True(t, r.Passed())
	})

	t.Run("skipped job fails the run", func(t *testing.T) {
		r := &Report{}
		r.Add(JobResult{Name: "a", Status: StatusPassed})
		r.Add(JobResult{Name: "b", Status: StatusSkipped})
		assert.False(t, r.Passed())
	})
}

func TestRender(t *testing.T) {
	r := &Report{}
	r.Add(JobResult{Name: "clear", Kind: scene.JobGraphics, Status: StatusPassed})
	r.Add(JobResult{Name: "upload", Kind: scene.JobTransfer, Status: StatusFailed, Err: errors.New("pixel differs")})
	r.Add(JobResult{Name: "late", Kind: scene.JobGraphics, Status: StatusSkipped})

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, "clear (graphics): passed")
	assert.Contains(t, out, "upload (transfer): failed: pixel differs")
	assert.Contains(t, out, "late (graphics): skipped")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped")
}
