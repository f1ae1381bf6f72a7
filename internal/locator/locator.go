// Package locator normalizes raw effect names into absolute,
// scheme-qualified resource locators.
package locator

import (
	"net/url"
	"path/filepath"
	"strings"

	wverr "github.com/mcanthony/webvfx/errors"
)

// PlainScheme is the pseudo-scheme that wraps a locator to request
// plain mode: initialize completes on the handler's pre-load event
// instead of waiting for the full load.
const PlainScheme = "plain"

// Locator is an immutable resolved resource locator. It is constructed
// once per initialize call and never mutated.
type Locator struct {
	// Scheme is "file", "http", "https", or whatever the raw name
	// carried. Local paths resolve to "file".
	Scheme string
	// Path is the absolute filesystem path for local files, or the
	// URL path component otherwise.
	Path string
	// URL is the full locator string, for diagnostics and remote loads.
	URL string
	// IsLocalFile reports whether Path names a local file.
	IsLocalFile bool
	// IsPlainMode reports whether the raw name was plain-wrapped.
	IsPlainMode bool
}

// Resolve normalizes raw into a Locator.
//
// A "plain:" prefix is stripped and recorded. If the remaining scheme
// token is absent or shorter than two characters (a Windows drive
// letter parses as a one-letter scheme), the name is treated as a
// filesystem path and made absolute. An empty or uncanonicalizable
// name fails with KindInvalidLocator.
func Resolve(raw string) (Locator, error) {
	name := strings.TrimSpace(raw)

	var plain bool
	if rest, ok := strings.CutPrefix(name, PlainScheme+":"); ok {
		plain = true
		name = rest
	}
	if name == "" {
		return Locator{}, wverr.InvalidLocator(raw, nil)
	}

	u, err := url.Parse(name)
	if err != nil || len(u.Scheme) < 2 {
		// No usable scheme: a plain filesystem path.
		abs, absErr := filepath.Abs(name)
		if absErr != nil {
			return Locator{}, wverr.InvalidLocator(raw, absErr)
		}
		return Locator{
			Scheme:      "file",
			Path:        abs,
			URL:         "file://" + abs,
			IsLocalFile: true,
			IsPlainMode: plain,
		}, nil
	}

	if u.Scheme == "file" {
		if u.Path == "" {
			return Locator{}, wverr.InvalidLocator(raw, nil)
		}
		abs, absErr := filepath.Abs(u.Path)
		if absErr != nil {
			return Locator{}, wverr.InvalidLocator(raw, absErr)
		}
		return Locator{
			Scheme:      "file",
			Path:        abs,
			URL:         "file://" + abs,
			IsLocalFile: true,
			IsPlainMode: plain,
		}, nil
	}

	return Locator{
		Scheme:      u.Scheme,
		Path:        u.Path,
		URL:         name,
		IsLocalFile: false,
		IsPlainMode: plain,
	}, nil
}
