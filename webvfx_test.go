package webvfx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcanthony/webvfx"
	wverr "github.com/mcanthony/webvfx/errors"
)

func TestEffectsLifecycle(t *testing.T) {
	loop := eventloop.NewEventLoop()
	loop.Start()
	t.Cleanup(func() { loop.Stop() })

	effect := `<html><script>
function render(time) {
	var r = Math.round(255 * webvfx.getNumberParameter("level"));
	webvfx.fill(r, 0, 0, 255);
	return true;
}
</script></html>`
	path := filepath.Join(t.TempDir(), "fade.html")
	require.NoError(t, os.WriteFile(path, []byte(effect), 0o644))

	e, err := webvfx.New(loop)
	require.NoError(t, err)

	params := webvfx.MapParameters{"level": 1.0}
	require.NoError(t, e.Initialize(path, 16, 16, params, false))

	out := webvfx.NewImage(16, 16)
	require.NoError(t, e.Render(0.5, out))
	assert.Equal(t, byte(0xff), out.Data[0])
	assert.Equal(t, byte(0xff), out.Data[3])

	require.NoError(t, e.Reload())
	require.NoError(t, e.Render(1.0, out))

	e.Destroy()
	err = e.Render(1.5, out)
	require.Error(t, err)
	assert.True(t, wverr.IsKind(err, wverr.KindDisposed))
}
