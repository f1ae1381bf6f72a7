package content

import (
	"sync"

	"github.com/mcanthony/webvfx/internal/render"
)

// ImageRegistry is the named-image store shared by a content handle and
// its callers. It is the one piece of handle-associated state a
// non-owner thread may mutate: SetImage is documented as callable off
// the owner thread, which is sound only because this registry is
// independently guarded. Everything else on a handle stays
// owner-thread only.
type ImageRegistry struct {
	mu     sync.RWMutex
	types  map[string]ImageType
	images map[string]*render.Image
}

// NewImageRegistry creates a registry declaring the given named-image
// roles. types may be nil; variants that learn their image names while
// loading declare them later via Declare.
func NewImageRegistry(types map[string]ImageType) *ImageRegistry {
	t := make(map[string]ImageType, len(types))
	for k, v := range types {
		t[k] = v
	}
	return &ImageRegistry{
		types:  t,
		images: make(map[string]*render.Image),
	}
}

// Declare records the role of a named image.
func (r *ImageRegistry) Declare(name string, typ ImageType) {
	r.mu.Lock()
	r.types[name] = typ
	r.mu.Unlock()
}

// Types returns a copy of the declared name-to-role mapping.
func (r *ImageRegistry) Types() map[string]ImageType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ImageType, len(r.types))
	for k, v := range r.types {
		out[k] = v
	}
	return out
}

// Set stores an image under name. Safe from any goroutine.
func (r *ImageRegistry) Set(name string, image *render.Image) {
	r.mu.Lock()
	r.images[name] = image
	r.mu.Unlock()
}

// Get returns the image stored under name, or nil.
func (r *ImageRegistry) Get(name string) *render.Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.images[name]
}
