// Package webvfx renders scripted visual effects onto video frames.
//
// Effect content runs on a single owner goroutine, the one driving a
// goja_nodejs event loop. The Effects handle returned by New may be
// used from any other goroutine: each call is marshaled onto the
// owner loop and the caller blocks until the owner reports the
// result. See the Effects method docs for the exact threading rules.
package webvfx

import (
	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"

	"github.com/mcanthony/webvfx/internal/bridge"
	"github.com/mcanthony/webvfx/internal/content"
	"github.com/mcanthony/webvfx/internal/logging"
	"github.com/mcanthony/webvfx/internal/render"
)

// Image is a frame buffer of packed RGBA pixels.
type Image = render.Image

// NewImage allocates a zeroed frame buffer.
func NewImage(width, height int) *Image {
	return render.NewImage(width, height)
}

// Parameters supplies named values to effect scripts.
type Parameters = content.Parameters

// MapParameters is a map-backed Parameters implementation.
type MapParameters = content.MapParameters

// ImageType classifies a named image declared by an effect.
type ImageType = content.ImageType

const (
	// SourceImageType is the image to be transformed.
	SourceImageType = content.SourceImageType
	// TargetImageType is the image the source is transformed into.
	TargetImageType = content.TargetImageType
	// ExtraImageType is any additional input image.
	ExtraImageType = content.ExtraImageType
)

// Effects is one loaded effect. Initialize, Render and Reload block
// the calling goroutine until the owner loop completes the work;
// Initialize must not be called from the owner loop itself. Destroy
// may be called from any goroutine and returns immediately.
type Effects interface {
	// Initialize resolves name, loads the matching content variant at
	// the given size, and blocks until loading finishes. A "plain:"
	// prefix on name completes the call on the content's pre-load
	// event instead of the full load. After a load failure the
	// instance returns to its uninitialized state and Initialize may
	// be called again.
	Initialize(name string, width, height int, params Parameters, transparent bool) error

	// Render paints the frame at time into out.
	Render(time float64, out *Image) error

	// Reload re-loads the current content, discarding script state.
	Reload() error

	// ImageTypeMap returns the image names and roles the effect
	// declared during load, or nil before a successful Initialize.
	ImageTypeMap() map[string]ImageType

	// SetImage publishes a named input image to the effect. Safe from
	// any goroutine; the image must not be mutated until the next
	// Render returns.
	SetImage(name string, image *Image)

	// Destroy schedules teardown on the owner loop. Calls made after
	// Destroy fail; calls already in flight complete or fail, but are
	// never run against destroyed content.
	Destroy()
}

// New creates an Effects instance bound to a started event loop. It
// must not be called from the loop's own goroutine. Multiple
// instances may share one loop.
func New(loop *eventloop.EventLoop) (Effects, error) {
	return bridge.New(loop)
}

// SetLogger replaces the package logger. Passing nil silences it.
func SetLogger(l *zap.Logger) {
	logging.Set(l)
}
