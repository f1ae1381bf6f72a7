package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 640, c.Render.Width)
	assert.Equal(t, 480, c.Render.Height)
	assert.Equal(t, 1, c.Render.Frames)
	assert.Equal(t, 30.0, c.Render.FPS)
	assert.Equal(t, "frame-%04d.png", c.Render.Output)
	assert.False(t, c.Render.Transparent)
	assert.False(t, c.HasWarnings())
}

func TestLoadFullConfig(t *testing.T) {
	input := `# render job
width 1920
height 1080

[render]
frames 120
fps 29.97
output out/frame-%05d.png
transparent yes
plain on

[parameters]
title Hello World
subtitle line one\nline two

[images]
source /tmp/source.png
`
	c, err := LoadFromReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1920, c.Render.Width)
	assert.Equal(t, 1080, c.Render.Height)
	assert.Equal(t, 120, c.Render.Frames)
	assert.InDelta(t, 29.97, c.Render.FPS, 1e-9)
	assert.Equal(t, "out/frame-%05d.png", c.Render.Output)
	assert.True(t, c.Render.Transparent)
	assert.True(t, c.Render.Plain)
	assert.Equal(t, "Hello World", c.Parameters["title"])
	assert.Equal(t, "line one\nline two", c.Parameters["subtitle"])
	assert.Equal(t, "/tmp/source.png", c.Images["source"])
}

func TestOptionsBeforeSectionAreRenderOptions(t *testing.T) {
	c, err := LoadFromReader(strings.NewReader("width 320\nheight 200\n"))
	require.NoError(t, err)
	assert.Equal(t, 320, c.Render.Width)
	assert.Equal(t, 200, c.Render.Height)
}

func TestInvalidValues(t *testing.T) {
	for _, input := range []string{
		"width nope\n",
		"width 0\n",
		"fps -1\n",
		"fps abc\n",
		"output\n",
		"transparent maybe\n",
		"bogus 1\n",
		"[images]\nsource\n",
	} {
		_, err := LoadFromReader(strings.NewReader(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestUnknownSectionWarns(t *testing.T) {
	c, err := LoadFromReader(strings.NewReader("[mystery]\nfoo bar\n"))
	require.NoError(t, err)
	assert.True(t, c.HasWarnings())
	assert.Len(t, c.Warnings, 2)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	c, err := LoadFromPath(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 640, c.Render.Width)
}

func TestLoadFromPathRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(target, []byte("width 100\n"), 0o644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	_, err := LoadFromPath(link)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symlink")
}

func TestGetConfigPathEnvOverride(t *testing.T) {
	t.Setenv("WEBVFX_CONFIG", "/tmp/custom-config")
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-config", path)
}
