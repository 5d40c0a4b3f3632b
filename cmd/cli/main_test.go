package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/gfxprobe/internal/app"
	"github.com/vk/gfxprobe/internal/testutil"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_MalformedScene(t *testing.T) {
	t.Parallel()

	invalidHCL := `
resource "image" "broken" {
  width =
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "scene.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", filePath})

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse scene")
}

func TestRun_FullScenePasses(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "scene.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(testutil.ClearScene), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", "-log-format", "text", "-backend", "software", filePath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "1 passed, 0 failed, 0 skipped")
}

func TestRun_FailingExpectationReturnsRunFailed(t *testing.T) {
	t.Parallel()

	src := testutil.ClearScene + `
job "graphics" "wrong" {
  framebuffer  = "target_fb"
  pass         = "clear_pass"
  clear_values = [[0.8, 0.8, 0.8, 1.0]]
  subpass "main" {}
  expect {
    image = "target"
    color = [0.1, 0.2, 0.3, 1.0]
  }
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "scene.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(src), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", filePath})

	require.ErrorIs(t, err, app.ErrRunFailed)
	require.Contains(t, out.String(), "wrong (graphics): failed")
}
