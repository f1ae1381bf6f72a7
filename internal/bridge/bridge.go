// Package bridge implements the synchronous cross-thread invocation
// bridge at the core of the module.
//
// A content handle wraps engine state that must only ever be touched
// from one designated owner goroutine: the one running the
// goja_nodejs event loop. Callers on arbitrary goroutines drive the
// handle through Effects, which marshals each operation onto the loop,
// blocks the caller on a per-call record, and resumes it when the
// owner goroutine reports completion. Per instance, calls are strictly
// serialized; instances sharing a loop are otherwise independent.
package bridge

import (
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/google/uuid"
	"go.uber.org/zap"

	wverr "github.com/mcanthony/webvfx/errors"
	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/content/declarative"
	"github.com/mcanthony/webvfx/internal/content/document"
	"github.com/mcanthony/webvfx/internal/goroutineid"
	"github.com/mcanthony/webvfx/internal/locator"
	"github.com/mcanthony/webvfx/internal/logging"
	"github.com/mcanthony/webvfx/internal/render"
)

type state int32

const (
	stateIdle state = iota
	stateInitializing
	stateReady
	stateDisposed
)

// contentFactory constructs the selected variant on the owner thread.
// Replaced by tests to inject mock handlers.
type contentFactory func(v content.Variant, width, height int,
	params content.Parameters, transparent bool, l content.LoadListener) content.Content

// Effects is one bridge instance. Zero or one content handle, zero or
// one in-flight call.
type Effects struct {
	id   string
	loop *eventloop.EventLoop
	log  *zap.Logger

	// ownerID is the goroutine ID of the owner loop, captured once at
	// construction.
	ownerID atomic.Int64

	// callMu serializes call admission. It is held for the entire
	// post-wait-wake window, not just the wait, so concurrent callers
	// queue on the instance instead of racing over call state.
	callMu sync.Mutex

	st        atomic.Int32
	destroyed atomic.Bool

	// Owner-thread-only fields. handle is additionally read off-thread
	// by SetImage and ImageTypeMap, which is safe because it is
	// written exactly once, before the Ready state is published, and
	// the methods behind it are independently locked.
	handle   content.Content
	pending  content.Content
	inflight *callRecord
	plain    bool
	loc      locator.Locator

	newContent contentFactory
}

// New creates an idle bridge bound to a started owner loop. It must
// not be called on the loop's own goroutine: it posts a probe task to
// capture the owner's identity and waits for it.
func New(loop *eventloop.EventLoop) (*Effects, error) {
	e := &Effects{
		id:         uuid.NewString(),
		loop:       loop,
		newContent: defaultNewContent,
	}
	e.log = logging.L().Named("bridge").With(zap.String("instance", e.id))

	idCh := make(chan int64, 1)
	if !loop.RunOnLoop(func(*goja.Runtime) { idCh <- goroutineid.Get() }) {
		return nil, wverr.LoopStopped("new")
	}
	e.ownerID.Store(<-idCh)
	return e, nil
}

func defaultNewContent(v content.Variant, width, height int,
	params content.Parameters, transparent bool, l content.LoadListener) content.Content {
	switch v {
	case content.DeclarativeVariant:
		return declarative.New(width, height, params, transparent, l)
	default:
		return document.New(width, height, params, transparent, l)
	}
}

func (e *Effects) onOwnerThread() bool {
	return goroutineid.Get() == e.ownerID.Load()
}

func (e *Effects) currentState() state {
	return state(e.st.Load())
}

// checkLive rejects calls on a bridge that is destroyed or was never
// successfully initialized. Fail fast, never silently no-op.
func (e *Effects) checkLive(op string) error {
	if e.destroyed.Load() {
		return wverr.Disposed(op)
	}
	if e.currentState() != stateReady {
		return wverr.NotInitialized(op)
	}
	return nil
}

// Initialize resolves and loads the named effect, blocking the caller
// until the owner thread reports load completion. It must be called
// off the owner thread, because it performs the thread hand-off
// itself. In plain mode the call completes on the handler's pre-load
// event; otherwise on the full-load event.
func (e *Effects) Initialize(name string, width, height int, params content.Parameters, transparent bool) error {
	if e.destroyed.Load() {
		return wverr.Disposed("initialize")
	}
	if e.onOwnerThread() {
		e.log.Error("initialize invoked on the owner thread")
		return wverr.WrongThread("initialize")
	}

	loc, err := locator.Resolve(name)
	if err != nil {
		e.log.Error("locator resolution failed", zap.String("name", name), zap.Error(err))
		return err
	}
	variant, err := content.SelectVariant(loc)
	if err != nil {
		e.log.Error("no content variant for locator", zap.String("path", loc.Path))
		return err
	}

	e.callMu.Lock()
	defer e.callMu.Unlock()
	if e.destroyed.Load() {
		return wverr.Disposed("initialize")
	}
	if e.currentState() != stateIdle {
		return wverr.AlreadyInitialized()
	}

	rec := newCallRecord()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !e.loop.RunOnLoop(func(*goja.Runtime) {
		e.initializeOnLoop(rec, variant, loc, width, height, params, transparent)
	}) {
		return wverr.LoopStopped("initialize")
	}
	return rec.wait()
}

// initializeOnLoop runs on the owner thread: construct the variant,
// wire its load events to rec, and start the load. Completion is
// indirect — the handler's load event fires loadFinished, which
// completes rec.
func (e *Effects) initializeOnLoop(rec *callRecord, v content.Variant,
	loc locator.Locator, width, height int, params content.Parameters, transparent bool) {
	if e.destroyed.Load() {
		rec.complete(wverr.Disposed("initialize"))
		return
	}
	e.st.Store(int32(stateInitializing))
	e.plain = loc.IsPlainMode
	e.loc = loc
	e.inflight = rec
	e.pending = e.newContent(v, width, height, params, transparent, &loadEvents{e: e})
	e.log.Debug("loading content",
		zap.String("variant", v.String()),
		zap.String("url", loc.URL),
		zap.Bool("plain", loc.IsPlainMode),
	)
	e.pending.LoadContent(loc)
}

// loadEvents adapts the content's load listener to the bridge actor.
// Events arrive on the owner thread; plain mode decides which of the
// two completes the in-flight call.
type loadEvents struct {
	e *Effects
}

func (l *loadEvents) ContentPreLoadFinished(ok bool) {
	if l.e.plain {
		l.e.loadFinished(ok)
	}
}

func (l *loadEvents) ContentLoadFinished(ok bool) {
	if !l.e.plain {
		l.e.loadFinished(ok)
	}
}

// loadFinished completes the in-flight initialize or reload. Owner
// thread only. Events with no in-flight call (an owner-thread reload
// fast path, or a handler firing spuriously) are dropped.
func (e *Effects) loadFinished(ok bool) {
	rec := e.inflight
	if rec == nil {
		return
	}
	e.inflight = nil

	if e.currentState() == stateInitializing {
		if ok {
			e.handle = e.pending
			e.pending = nil
			e.st.Store(int32(stateReady))
			rec.complete(nil)
			return
		}
		// Failed initialize tears the handle down and returns the
		// bridge to idle; the caller decides whether to retry.
		e.pending.Dispose()
		e.pending = nil
		e.st.Store(int32(stateIdle))
		rec.complete(wverr.LoadFailed(e.loc.URL))
		return
	}

	// Reload cycle: the handle stays either way.
	if ok {
		rec.complete(nil)
	} else {
		rec.complete(wverr.LoadFailed(e.loc.URL))
	}
}

// Render renders the frame at the given time into out, blocking the
// caller until the owner thread finishes. On the owner thread itself
// it executes in place — no marshaling, no blocking — to avoid
// self-deadlock.
func (e *Effects) Render(time float64, out *render.Image) error {
	if err := e.checkLive("render"); err != nil {
		return err
	}
	if e.onOwnerThread() {
		return e.renderResult(e.renderOnLoop(time, out))
	}

	e.callMu.Lock()
	defer e.callMu.Unlock()
	if err := e.checkLive("render"); err != nil {
		return err
	}

	rec := newCallRecord()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !e.loop.RunOnLoop(func(*goja.Runtime) {
		if e.destroyed.Load() {
			// Queued behind destroy: dropped, never run against a
			// disposed handle.
			rec.complete(wverr.Disposed("render"))
			return
		}
		rec.complete(e.renderResult(e.renderOnLoop(time, out)))
	}) {
		return wverr.LoopStopped("render")
	}
	return rec.wait()
}

func (e *Effects) renderResult(ok bool) error {
	if !ok {
		return wverr.RenderFailed("content reported render failure")
	}
	return nil
}

// renderOnLoop runs on the owner thread: size the content to the
// frame, then paint it.
func (e *Effects) renderOnLoop(time float64, out *render.Image) bool {
	e.handle.SetContentSize(out.Width, out.Height)
	return e.handle.RenderContent(time, out)
}

// Reload re-loads the current content, blocking like Render. Like
// initialize, completion arrives through the handler's load event.
func (e *Effects) Reload() error {
	if err := e.checkLive("reload"); err != nil {
		return err
	}
	if e.onOwnerThread() {
		// In-place fast path. Load events that fire synchronously
		// during Reload complete the record before we read it; a
		// deferred completion has nobody left to report to, matching
		// the no-blocking contract. If a marshaled reload is still
		// waiting on a deferred load event, its record stays installed
		// and this cycle's events complete it instead.
		rec := newCallRecord()
		if e.inflight == nil {
			e.inflight = rec
		}
		e.handle.Reload()
		if e.inflight == rec {
			e.inflight = nil
		}
		if completed, err := rec.result(); completed {
			return err
		}
		return nil
	}

	e.callMu.Lock()
	defer e.callMu.Unlock()
	if err := e.checkLive("reload"); err != nil {
		return err
	}

	rec := newCallRecord()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !e.loop.RunOnLoop(func(*goja.Runtime) {
		if e.destroyed.Load() {
			rec.complete(wverr.Disposed("reload"))
			return
		}
		e.inflight = rec
		e.handle.Reload()
	}) {
		return wverr.LoopStopped("reload")
	}
	return rec.wait()
}

// Destroy schedules deferred teardown on the owner loop and returns
// immediately. Disposal never runs on the calling thread: anything
// already queued for this bridge completes first or is dropped with a
// disposed error, never executed against a disposed handle. Destroy
// is idempotent and callable from any thread.
func (e *Effects) Destroy() {
	if e.destroyed.Swap(true) {
		return
	}
	if !e.loop.RunOnLoop(func(*goja.Runtime) { e.disposeOnLoop() }) {
		e.log.Warn("owner loop stopped before disposal could be scheduled")
	}
}

// disposeOnLoop runs on the owner thread. An initialize or reload
// still waiting on a deferred load event is completed with a disposed
// error so its caller cannot starve.
func (e *Effects) disposeOnLoop() {
	if rec := e.inflight; rec != nil {
		e.inflight = nil
		rec.complete(wverr.Disposed("call"))
	}
	if e.pending != nil {
		e.pending.Dispose()
		e.pending = nil
	}
	if e.handle != nil {
		// Dispose but keep the reference: ImageTypeMap and SetImage
		// may race with teardown, and the registry behind them remains
		// valid on a disposed handle.
		e.handle.Dispose()
	}
	e.st.Store(int32(stateDisposed))
	e.log.Debug("disposed")
}

// ImageTypeMap returns the handle's named-image roles, or nil when no
// handle is live. Safe from any thread; the handle's registry is
// independently locked.
func (e *Effects) ImageTypeMap() map[string]content.ImageType {
	if e.currentState() != stateReady {
		return nil
	}
	return e.handle.ImageTypeMap()
}

// SetImage publishes a named input image to the handle. This is the
// one operation permitted off the owner thread on a live handle,
// because the registry behind it is independently reentrant. Ignored
// with a warning when no handle is live.
func (e *Effects) SetImage(name string, image *render.Image) {
	if e.currentState() != stateReady {
		e.log.Warn("setImage before successful initialize", zap.String("name", name))
		return
	}
	e.handle.SetImage(name, image)
}
