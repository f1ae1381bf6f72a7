package document

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/locator"
	"github.com/mcanthony/webvfx/internal/render"
)

// recordingListener captures load events. Document tests run entirely
// on the test goroutine, which stands in for the owner thread.
type recordingListener struct {
	preLoad []bool
	load    []bool
}

func (l *recordingListener) ContentPreLoadFinished(ok bool) { l.preLoad = append(l.preLoad, ok) }
func (l *recordingListener) ContentLoadFinished(ok bool)    { l.load = append(l.load, ok) }

func writeEffect(t *testing.T, name, data string) locator.Locator {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	loc, err := locator.Resolve(path)
	require.NoError(t, err)
	return loc
}

const basicEffect = `<html><body>
<script>
webvfx.declareImage("source", "source");
function render(time) {
	webvfx.fill(255, 0, 0, 255);
	return true;
}
</script>
</body></html>`

func TestLoadAndRender(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "basic.html", basicEffect))

	require.Equal(t, []bool{true}, listener.preLoad)
	require.Equal(t, []bool{true}, listener.load)
	assert.Equal(t, map[string]content.ImageType{"source": content.SourceImageType}, c.ImageTypeMap())

	out := render.NewImage(8, 8)
	require.True(t, c.RenderContent(0.5, out))
	assert.Equal(t, byte(0xff), out.Data[0]) // red
	assert.Equal(t, byte(0), out.Data[1])
	assert.Equal(t, byte(0xff), out.Data[3])
}

func TestDeferLoadCompletesOnReadyRender(t *testing.T) {
	effect := `<html><script>
webvfx.deferLoad();
function render(time) { return true; }
</script></html>`
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "deferred.html", effect))

	require.Equal(t, []bool{true}, listener.preLoad)
	require.Empty(t, listener.load, "full load must wait for readyRender")

	// The script would normally do this from a timer on the owner loop.
	_, err := c.vm.RunString(`webvfx.readyRender(true)`)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, listener.load)

	// readyRender fires the load event exactly once.
	_, err = c.vm.RunString(`webvfx.readyRender(true)`)
	require.NoError(t, err)
	require.Equal(t, []bool{true}, listener.load)
}

func TestReadyRenderFailureDuringEvaluation(t *testing.T) {
	effect := `<html><script>
webvfx.readyRender(false);
function render(time) { return true; }
</script></html>`
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "notready.html", effect))
	require.Equal(t, []bool{true}, listener.preLoad)
	require.Equal(t, []bool{false}, listener.load)
}

func TestMissingRenderFunctionFailsLoad(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "norender.html", `<html><script>var x = 1;</script></html>`))
	require.Equal(t, []bool{true}, listener.preLoad)
	require.Equal(t, []bool{false}, listener.load)
}

func TestScriptErrorFailsLoad(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "broken.html", `<html><script>this is not javascript;</script></html>`))
	require.Equal(t, []bool{false}, listener.preLoad)
	require.Equal(t, []bool{false}, listener.load)
}

func TestMissingFileFailsLoad(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	loc, err := locator.Resolve(filepath.Join(t.TempDir(), "absent.html"))
	require.NoError(t, err)
	c.LoadContent(loc)
	require.Equal(t, []bool{false}, listener.preLoad)
	require.Equal(t, []bool{false}, listener.load)
}

func TestRemoteLoadFails(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	loc, err := locator.Resolve("https://example.com/fx.html")
	require.NoError(t, err)
	c.LoadContent(loc)
	require.Equal(t, []bool{false}, listener.preLoad)
	require.Equal(t, []bool{false}, listener.load)
}

func TestParametersReachTheScript(t *testing.T) {
	effect := `<html><script>
var title = webvfx.getStringParameter("title");
var speed = webvfx.getNumberParameter("speed");
function render(time) { return title === "intro" && speed === 2; }
</script></html>`
	listener := &recordingListener{}
	params := content.MapParameters{"title": "intro", "speed": 2.0}
	c := New(64, 48, params, false, listener)
	c.LoadContent(writeEffect(t, "params.html", effect))
	require.Equal(t, []bool{true}, listener.load)
	require.True(t, c.RenderContent(0, render.NewImage(1, 1)))
}

func TestDrawImageFromRegistry(t *testing.T) {
	effect := `<html><script>
webvfx.declareImage("source", "source");
function render(time) {
	var src = webvfx.getImage("source");
	if (!src) { return false; }
	webvfx.drawImage("source", 0, 0, webvfx.getWidth(), webvfx.getHeight());
	return true;
}
</script></html>`
	listener := &recordingListener{}
	c := New(4, 4, nil, true, listener)
	c.LoadContent(writeEffect(t, "draw.html", effect))
	require.Equal(t, []bool{true}, listener.load)

	out := render.NewImage(4, 4)
	c.SetContentSize(out.Width, out.Height)

	// No source image published yet.
	require.False(t, c.RenderContent(0, out))

	src := render.NewImage(2, 2)
	src.Fill(color.RGBA{G: 0xff, A: 0xff})
	c.SetImage("source", src)
	require.True(t, c.RenderContent(0, out))
	assert.Equal(t, byte(0xff), out.Data[1]) // green
}

func TestRenderScriptFailure(t *testing.T) {
	effect := `<html><script>
function render(time) { throw new Error("boom"); }
</script></html>`
	listener := &recordingListener{}
	c := New(4, 4, nil, false, listener)
	c.LoadContent(writeEffect(t, "boom.html", effect))
	require.Equal(t, []bool{true}, listener.load)
	require.False(t, c.RenderContent(0, render.NewImage(1, 1)))
}

func TestReloadFiresEventsAgain(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "basic.html", basicEffect))
	require.Equal(t, []bool{true}, listener.load)

	c.Reload()
	require.Equal(t, []bool{true, true}, listener.preLoad)
	require.Equal(t, []bool{true, true}, listener.load)
}

func TestHandlersDoNotShareScriptState(t *testing.T) {
	first := &recordingListener{}
	a := New(4, 4, nil, false, first)
	a.LoadContent(writeEffect(t, "red.html", basicEffect))
	require.Equal(t, []bool{true}, first.load)

	// A second handler loading afterwards gets its own runtime and
	// host object; the first keeps rendering through its own.
	second := &recordingListener{}
	b := New(4, 4, nil, false, second)
	b.LoadContent(writeEffect(t, "green.html", `<html><script>
function render(time) {
	webvfx.fill(0, 255, 0, 255);
	return true;
}
</script></html>`))
	require.Equal(t, []bool{true}, second.load)

	out := render.NewImage(4, 4)
	require.True(t, a.RenderContent(0, out))
	assert.Equal(t, byte(0xff), out.Data[0]) // still red
	assert.Equal(t, byte(0), out.Data[1])

	require.True(t, b.RenderContent(0, out))
	assert.Equal(t, byte(0xff), out.Data[1])

	// Tearing one down leaves the other's globals intact.
	b.Dispose()
	require.True(t, a.RenderContent(0, out))
	assert.Equal(t, byte(0xff), out.Data[0])
}

func TestDispose(t *testing.T) {
	listener := &recordingListener{}
	c := New(64, 48, nil, false, listener)
	c.LoadContent(writeEffect(t, "basic.html", basicEffect))
	c.Dispose()
	require.False(t, c.RenderContent(0, render.NewImage(1, 1)))
}
