// Package content defines the contract between the effects bridge and
// its content handler variants, and selects the variant for a resolved
// locator. Handlers live entirely on the owner thread; the bridge never
// calls their methods from anywhere else, with the single documented
// exception of the named-image registry (see ImageRegistry).
package content

import (
	"path/filepath"
	"strings"

	wverr "github.com/mcanthony/webvfx/errors"
	"github.com/mcanthony/webvfx/internal/locator"
	"github.com/mcanthony/webvfx/internal/render"
)

// ImageType describes the role of a named image the content consumes
// or produces.
type ImageType int

const (
	// SourceImageType names the frame the effect transforms.
	SourceImageType ImageType = 1
	// TargetImageType names the frame a transition renders toward.
	TargetImageType ImageType = 2
	// ExtraImageType names any additional input frame.
	ExtraImageType ImageType = 3
)

// Parameters supplies named effect parameters. Implementations must be
// safe to call from the owner thread for the lifetime of the handle.
type Parameters interface {
	GetNumberParameter(name string) float64
	GetStringParameter(name string) string
}

// MapParameters is a map-backed Parameters. Missing names yield zero
// values.
type MapParameters map[string]any

func (m MapParameters) GetNumberParameter(name string) float64 {
	switch v := m[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (m MapParameters) GetStringParameter(name string) string {
	if s, ok := m[name].(string); ok {
		return s
	}
	return ""
}

// LoadListener receives a handler's load completion events, fired on
// the owner thread. For a given load cycle each event fires at most
// once; which one completes the blocking call is decided by the bridge
// based on plain mode.
type LoadListener interface {
	// ContentPreLoadFinished fires when the resource's pre-load stage
	// completes (the content is parsed/evaluated but possibly not yet
	// ready to render).
	ContentPreLoadFinished(ok bool)
	// ContentLoadFinished fires when the content is fully loaded and
	// ready to render.
	ContentLoadFinished(ok bool)
}

// Content is one handler variant, exclusively owned by the owner
// thread once constructed. Load completion is reported through the
// LoadListener the variant was constructed with.
type Content interface {
	// LoadContent begins loading the resource. Completion arrives via
	// the LoadListener, never as a return value.
	LoadContent(loc locator.Locator)
	// SetContentSize resizes the content to match the render target.
	SetContentSize(width, height int)
	// RenderContent renders the frame at the given time into out.
	RenderContent(time float64, out *render.Image) bool
	// Reload re-loads the current resource; completion arrives via the
	// LoadListener like the original load.
	Reload()
	// ImageTypeMap describes the named images the content consumes.
	ImageTypeMap() map[string]ImageType
	// SetImage publishes a named input image. Unlike every other
	// method this is safe off the owner thread, because the registry
	// behind it carries its own lock.
	SetImage(name string, image *render.Image)
	// Dispose releases engine state. Owner thread only.
	Dispose()
}

// Variant identifies a content handler implementation.
type Variant int

const (
	// DocumentVariant is the script-engine-backed handler for .html
	// and .htm resources and for anything remote.
	DocumentVariant Variant = iota + 1
	// DeclarativeVariant is the declarative-scene handler for .qml
	// resources.
	DeclarativeVariant
)

func (v Variant) String() string {
	switch v {
	case DocumentVariant:
		return "document"
	case DeclarativeVariant:
		return "declarative"
	default:
		return "unknown"
	}
}

// SelectVariant picks the handler variant for a resolved locator.
// Suffix matching is case-insensitive. Anything that is not a local
// file is a URL for the document engine to fetch, regardless of
// suffix. Selection happens exactly once, at initialize time.
func SelectVariant(loc locator.Locator) (Variant, error) {
	switch strings.ToLower(filepath.Ext(loc.Path)) {
	case ".html", ".htm":
		return DocumentVariant, nil
	}
	if !loc.IsLocalFile {
		return DocumentVariant, nil
	}
	if strings.EqualFold(filepath.Ext(loc.Path), ".qml") {
		return DeclarativeVariant, nil
	}
	return 0, wverr.UnsupportedContent(loc.Path)
}
