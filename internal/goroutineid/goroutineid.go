// Package goroutineid exposes the identity of the current goroutine.
//
// The bridge uses it to decide whether a call originated on the owner
// loop's goroutine: initialize must be rejected there, while render and
// reload take a synchronous fast path instead of marshaling. There is no
// supported API for this, so the ID is parsed out of runtime.Stack. The
// "goroutine N [state]:" header format has been stable since Go 1.5.
package goroutineid

import (
	"runtime"
	"sync"
)

var stackBufPool = sync.Pool{
	New: func() any {
		return make([]byte, 2048)
	},
}

// Get returns the ID of the calling goroutine, or 0 if the stack header
// could not be parsed.
func Get() int64 {
	buf := stackBufPool.Get().([]byte)
	defer func() {
		//lint:ignore SA6002 []byte is pointer-like (slice header contains pointer)
		stackBufPool.Put(buf)
	}()
	n := runtime.Stack(buf, false)
	return parseHeader(buf[:n])
}

// parseHeader extracts the goroutine ID from the first line of a
// runtime.Stack dump, without allocating. The expected shape is
// "goroutine <digits> ...".
func parseHeader(stack []byte) int64 {
	const prefix = "goroutine "
	if len(stack) <= len(prefix) {
		return 0
	}
	for i := 0; i < len(prefix); i++ {
		if stack[i] != prefix[i] {
			return 0
		}
	}
	var id int64
	for _, b := range stack[len(prefix):] {
		if b < '0' || b > '9' {
			break
		}
		id = id*10 + int64(b-'0')
	}
	return id
}
