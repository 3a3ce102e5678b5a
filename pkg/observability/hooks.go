// Package observability provides hooks for metrics, tracing, and logging.
//
// The engine packages never import a metrics or tracing backend. They emit
// events through the hook interfaces below, and the binary decides at
// startup what receives them.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&logHooks{logger})
//	    observability.SetServerHooks(&logHooks{logger})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Engine().OnCaptureStart(ctx, tree.Name())
//	// ... flatten the tree ...
//	observability.Engine().OnCaptureComplete(ctx, tree.Name(), groups, nodes, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from capture and restore.
type EngineHooks interface {
	// Capture events
	OnCaptureStart(ctx context.Context, tree string)
	OnCaptureComplete(ctx context.Context, tree string, groups, nodes int, duration time.Duration, err error)

	// Restore events
	OnRestoreStart(ctx context.Context, document string, groups int)
	OnRestoreComplete(ctx context.Context, document string, nodes, warnings int, duration time.Duration, err error)

	// OnAssetLoad records one dependency load attempt during restore.
	OnAssetLoad(ctx context.Context, kind, name string, err error)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response to a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnCaptureStart(context.Context, string) {}
func (NoopEngineHooks) OnCaptureComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopEngineHooks) OnRestoreStart(context.Context, string, int) {}
func (NoopEngineHooks) OnRestoreComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopEngineHooks) OnAssetLoad(context.Context, string, string, error) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                         {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	serverHooks ServerHooks = NoopServerHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup before any capture or restore.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetServerHooks registers custom server hooks.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	serverHooks = NoopServerHooks{}
}
