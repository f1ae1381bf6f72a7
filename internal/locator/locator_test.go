package locator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wverr "github.com/mcanthony/webvfx/errors"
)

func TestResolveRelativePath(t *testing.T) {
	loc, err := Resolve("effects/video.qml")
	require.NoError(t, err)
	assert.Equal(t, "file", loc.Scheme)
	assert.True(t, loc.IsLocalFile)
	assert.False(t, loc.IsPlainMode)
	assert.True(t, filepath.IsAbs(loc.Path))
	assert.Equal(t, "video.qml", filepath.Base(loc.Path))
}

func TestResolveAbsolutePath(t *testing.T) {
	loc, err := Resolve("/opt/effects/title.html")
	require.NoError(t, err)
	assert.Equal(t, "/opt/effects/title.html", loc.Path)
	assert.True(t, loc.IsLocalFile)
}

func TestResolvePlainWrapped(t *testing.T) {
	loc, err := Resolve("plain:overlay.html")
	require.NoError(t, err)
	assert.True(t, loc.IsPlainMode)
	assert.True(t, loc.IsLocalFile)
	assert.Equal(t, "overlay.html", filepath.Base(loc.Path))
}

func TestResolvePlainWrappedURL(t *testing.T) {
	loc, err := Resolve("plain:http://example.com/fx.html")
	require.NoError(t, err)
	assert.True(t, loc.IsPlainMode)
	assert.False(t, loc.IsLocalFile)
	assert.Equal(t, "http", loc.Scheme)
}

func TestResolveFileURL(t *testing.T) {
	loc, err := Resolve("file:///opt/effects/title.html")
	require.NoError(t, err)
	assert.True(t, loc.IsLocalFile)
	assert.Equal(t, "/opt/effects/title.html", loc.Path)
}

func TestResolveRemoteURL(t *testing.T) {
	loc, err := Resolve("https://example.com/effects/fx.html")
	require.NoError(t, err)
	assert.Equal(t, "https", loc.Scheme)
	assert.False(t, loc.IsLocalFile)
	assert.Equal(t, "/effects/fx.html", loc.Path)
	assert.Equal(t, "https://example.com/effects/fx.html", loc.URL)
}

func TestResolveDriveLetterIsAPath(t *testing.T) {
	// A single-character scheme is a Windows drive letter, not a URL.
	loc, err := Resolve("c:effects.html")
	require.NoError(t, err)
	assert.True(t, loc.IsLocalFile)
	assert.Equal(t, "file", loc.Scheme)
}

func TestResolveEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "plain:"} {
		_, err := Resolve(raw)
		require.Error(t, err, "raw=%q", raw)
		assert.True(t, wverr.IsKind(err, wverr.KindInvalidLocator), "raw=%q", raw)
	}
}

func TestResolveFileURLWithoutPath(t *testing.T) {
	_, err := Resolve("file://")
	require.Error(t, err)
	assert.True(t, wverr.IsKind(err, wverr.KindInvalidLocator))
}
