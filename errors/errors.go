// Package errors defines the structured error values reported by the
// effects bridge. Every failure surfaces synchronously as the result of
// the blocking call that caused it; there is no asynchronous error
// channel. Callers match on Kind via errors.Is.
package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes a bridge failure.
type Kind string

const (
	// KindWrongThread: initialize was invoked on the owner loop's
	// goroutine. Initialize must originate elsewhere because it has to
	// perform a thread hand-off.
	KindWrongThread Kind = "wrong_thread"
	// KindInvalidLocator: the resource name could not be resolved to an
	// absolute, scheme-qualified locator.
	KindInvalidLocator Kind = "invalid_locator"
	// KindUnsupportedContent: the locator's suffix matched no content
	// variant.
	KindUnsupportedContent Kind = "unsupported_content"
	// KindLoadFailed: the content handler reported load failure.
	KindLoadFailed Kind = "load_failed"
	// KindRenderFailed: the content handler reported render failure.
	KindRenderFailed Kind = "render_failed"
	// KindNotInitialized: render or reload on a bridge that never
	// completed initialize.
	KindNotInitialized Kind = "not_initialized"
	// KindAlreadyInitialized: a second initialize on a live bridge.
	KindAlreadyInitialized Kind = "already_initialized"
	// KindDisposed: the call was admitted or queued after destroy and
	// was dropped rather than executed against a disposed handle.
	KindDisposed Kind = "disposed"
	// KindLoopStopped: the owner loop is no longer accepting tasks.
	KindLoopStopped Kind = "loop_stopped"
)

// Error is the concrete error type produced by the bridge.
type Error struct {
	Kind   Kind
	Detail string
	// Path carries the offending locator or file path, when one exists.
	Path  string
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')
	if e.Detail != "" {
		b.WriteByte(' ')
		b.WriteString(e.Detail)
	}
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same Kind, so sentinel-style
// comparisons like errors.Is(err, &Error{Kind: KindWrongThread}) work.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is a bridge error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Convenience constructors for the bridge's error taxonomy.

// WrongThread reports an initialize attempted on the owner goroutine.
func WrongThread(op string) *Error {
	return &Error{Kind: KindWrongThread, Detail: fmt.Sprintf("%s must not be called on the owner thread", op)}
}

// InvalidLocator reports an unresolvable resource name.
func InvalidLocator(raw string, cause error) *Error {
	return &Error{Kind: KindInvalidLocator, Detail: "invalid locator", Path: raw, Cause: cause}
}

// UnsupportedContent reports a suffix no content variant accepts.
func UnsupportedContent(path string) *Error {
	return &Error{
		Kind:   KindUnsupportedContent,
		Detail: "file name must end with '.html', '.htm', or '.qml'",
		Path:   path,
	}
}

// LoadFailed reports a handler load failure.
func LoadFailed(path string) *Error {
	return &Error{Kind: KindLoadFailed, Detail: "content failed to load", Path: path}
}

// RenderFailed reports a handler render failure.
func RenderFailed(detail string) *Error {
	return &Error{Kind: KindRenderFailed, Detail: detail}
}

// NotInitialized reports a call on a bridge with no live content handle.
func NotInitialized(op string) *Error {
	return &Error{Kind: KindNotInitialized, Detail: fmt.Sprintf("%s requires a successfully initialized bridge", op)}
}

// AlreadyInitialized reports a repeated initialize.
func AlreadyInitialized() *Error {
	return &Error{Kind: KindAlreadyInitialized, Detail: "bridge is already initialized"}
}

// Disposed reports a call dropped because the bridge was destroyed.
func Disposed(op string) *Error {
	return &Error{Kind: KindDisposed, Detail: fmt.Sprintf("%s dropped: bridge is destroyed", op)}
}

// LoopStopped reports a call that could not be posted to the owner loop.
func LoopStopped(op string) *Error {
	return &Error{Kind: KindLoopStopped, Detail: fmt.Sprintf("%s not posted: owner loop is not running", op)}
}
