// Package logging holds the module-wide zap logger. It defaults to a
// no-op logger; embedding hosts install their own via webvfx.SetLogger.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Set replaces the module logger. A nil logger restores the no-op default.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the current module logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
