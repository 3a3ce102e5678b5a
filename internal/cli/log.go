package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Converted material.bnodes (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks reports engine and server events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnCaptureStart(_ context.Context, tree string) {
	h.logger.Debug("capture started", "tree", tree)
}

func (h *logHooks) OnCaptureComplete(_ context.Context, tree string, groups, nodes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("capture failed", "tree", tree, "err", err, "duration", d)
		return
	}
	h.logger.Debug("capture finished", "tree", tree, "groups", groups, "nodes", nodes, "duration", d)
}

func (h *logHooks) OnRestoreStart(_ context.Context, doc string, groups int) {
	h.logger.Debug("restore started", "document", doc, "groups", groups)
}

func (h *logHooks) OnRestoreComplete(_ context.Context, doc string, nodes, warnings int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("restore failed", "document", doc, "err", err, "duration", d)
		return
	}
	h.logger.Debug("restore finished", "document", doc, "nodes", nodes, "warnings", warnings, "duration", d)
}

func (h *logHooks) OnAssetLoad(_ context.Context, kind, name string, err error) {
	if err != nil {
		h.logger.Debug("dependency not loaded", "kind", kind, "name", name, "err", err)
		return
	}
	h.logger.Debug("dependency loaded", "kind", kind, "name", name)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("request", "method", method, "path", path, "status", status, "duration", d)
}
