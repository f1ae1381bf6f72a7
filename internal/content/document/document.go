// Package document implements the script-engine-backed content variant.
//
// A document effect is a local .html/.htm file (or a bare script). Its
// <script> blocks are evaluated with goja on the owner loop's runtime,
// with a host "webvfx" object in scope. The script declares the named
// images it consumes, optionally defers load completion until it calls
// webvfx.readyRender, and provides a global render(time) function that
// paints the frame through the host raster API.
//
// Remote (http/https) locators select this variant too, but loading
// them fails: the engine carries no network stack, and the failure is
// reported through the load listener like any other.
package document

import (
	"os"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/locator"
	"github.com/mcanthony/webvfx/internal/logging"
	"github.com/mcanthony/webvfx/internal/render"
)

// Content is the document handler. All methods except SetImage and
// ImageTypeMap are owner-thread only.
//
// Each handler owns a private goja runtime, touched only on the owner
// thread. Handlers sharing a loop therefore share nothing: one
// instance's globals, host object, and script state are invisible to
// every other instance.
type Content struct {
	vm       *goja.Runtime
	params   content.Parameters
	listener content.LoadListener
	registry *content.ImageRegistry
	log      *zap.Logger

	loc         locator.Locator
	width       int
	height      int
	transparent bool

	// Per-load-cycle state, reset by LoadContent.
	deferLoad    bool
	readyCalled  bool
	readyOK      bool
	loadReported bool
	renderFn     goja.Callable

	// target is the frame being painted during a RenderContent call.
	// Host raster functions write into it.
	target   *render.Image
	disposed bool
}

// New constructs a document handler with its own script runtime. The
// listener receives load events for every load cycle, including
// reloads.
func New(width, height int, params content.Parameters, transparent bool, listener content.LoadListener) *Content {
	return &Content{
		vm:          goja.New(),
		params:      params,
		listener:    listener,
		registry:    content.NewImageRegistry(nil),
		log:         logging.L().Named("document"),
		width:       width,
		height:      height,
		transparent: transparent,
	}
}

// LoadContent reads and evaluates the resource. Pre-load finishes once
// the script has been evaluated; full load additionally waits for the
// script's webvfx.readyRender call when it requested webvfx.deferLoad.
func (c *Content) LoadContent(loc locator.Locator) {
	c.loc = loc
	c.deferLoad = false
	c.readyCalled = false
	c.readyOK = false
	c.loadReported = false
	c.renderFn = nil

	if !loc.IsLocalFile {
		c.log.Error("remote content requires a network stack this engine does not carry",
			zap.String("url", loc.URL))
		c.failLoad()
		return
	}

	data, err := os.ReadFile(loc.Path)
	if err != nil {
		c.log.Error("failed to read content", zap.String("path", loc.Path), zap.Error(err))
		c.failLoad()
		return
	}

	if err := c.installHostObject(); err != nil {
		c.log.Error("failed to install host object", zap.Error(err))
		c.failLoad()
		return
	}

	for i, script := range extractScripts(loc.Path, string(data)) {
		if _, err := c.vm.RunScript(loc.Path, script); err != nil {
			c.log.Error("script evaluation failed",
				zap.String("path", loc.Path), zap.Int("script", i), zap.Error(err))
			c.failLoad()
			return
		}
	}

	c.listener.ContentPreLoadFinished(true)

	if fn, ok := goja.AssertFunction(c.vm.Get("render")); ok {
		c.renderFn = fn
	}

	switch {
	case c.readyCalled:
		c.finishLoad(c.readyOK)
	case c.deferLoad:
		// The script owns completion now; webvfx.readyRender fires it.
	default:
		if c.renderFn == nil {
			c.log.Error("script defines no render function", zap.String("path", loc.Path))
		}
		c.finishLoad(c.renderFn != nil)
	}
}

// failLoad reports failure on both events; the bridge listens to
// whichever matches its mode.
func (c *Content) failLoad() {
	c.listener.ContentPreLoadFinished(false)
	c.finishLoad(false)
}

func (c *Content) finishLoad(ok bool) {
	if c.loadReported {
		return
	}
	c.loadReported = true
	c.listener.ContentLoadFinished(ok)
}

// SetContentSize records the size scripts observe via webvfx.getWidth
// and webvfx.getHeight.
func (c *Content) SetContentSize(width, height int) {
	c.width = width
	c.height = height
}

// RenderContent paints the frame at time into out by invoking the
// script's render function. The host raster API targets out for the
// duration of the call.
func (c *Content) RenderContent(time float64, out *render.Image) bool {
	if c.disposed || c.renderFn == nil || out == nil {
		return false
	}
	out.Fill(backgroundColor(c.transparent))
	c.target = out
	defer func() { c.target = nil }()

	res, err := c.renderFn(goja.Undefined(), c.vm.ToValue(time))
	if err != nil {
		c.log.Error("render failed", zap.Float64("time", time), zap.Error(err))
		return false
	}
	return res.ToBoolean()
}

// Reload re-runs the load cycle against the original locator. The load
// listener fires again, exactly as for the first load.
//
// The owner loop's runtime persists across reloads, so global state a
// previous evaluation left behind survives. This mirrors re-evaluating
// a page into a live engine rather than tearing the engine down.
func (c *Content) Reload() {
	c.LoadContent(c.loc)
}

// ImageTypeMap returns the image roles the script declared.
func (c *Content) ImageTypeMap() map[string]content.ImageType {
	return c.registry.Types()
}

// SetImage publishes a named input image. Safe off the owner thread;
// the registry carries its own lock.
func (c *Content) SetImage(name string, image *render.Image) {
	c.registry.Set(name, image)
}

// Dispose drops the handler's runtime references. The runtime is
// private to this instance, so nothing else can observe the teardown.
func (c *Content) Dispose() {
	c.disposed = true
	c.renderFn = nil
	c.vm = nil
}
