package log

import (
	"context"
	"log/slog"
)

// hostKey is the context key carrying the host a log record belongs to.
type hostKey struct{}

// HostAttrKey is the attribute key the handler stamps records with.
const HostAttrKey = "scan_host"

// WithHost returns a context whose log records will be attributed to host.
// The orchestrator sets it once per task; every component logging under
// that context inherits the attribution.
func WithHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, hostKey{}, host)
}

// HostFromContext returns the host the context's log records are
// attributed to, if any.
func HostFromContext(ctx context.Context) (string, bool) {
	host, ok := ctx.Value(hostKey{}).(string)
	return host, ok
}

// HostHandler wraps an slog.Handler and stamps every record with the host
// carried in the logging context. Worker output from concurrent scans
// interleaves arbitrarily; the stamp keeps each line attributable to the
// host that produced it.
type HostHandler struct {
	// handler is the underlying slog handler that receives stamped records.
	handler slog.Handler
}

// NewHostHandler creates a HostHandler wrapping the given handler.
// If handler is nil, the returned HostHandler uses slog.Default().Handler().
func NewHostHandler(handler slog.Handler) *HostHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &HostHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *HostHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle stamps the record with the context's host and passes it on.
// Records logged outside any host task pass through untouched.
func (h *HostHandler) Handle(ctx context.Context, r slog.Record) error {
	if host, ok := HostFromContext(ctx); ok && !hasAttr(r, HostAttrKey) {
		r = r.Clone()
		r.AddAttrs(slog.String(HostAttrKey, host))
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HostHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &HostHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *HostHandler) WithGroup(name string) slog.Handler {
	return &HostHandler{handler: h.handler.WithGroup(name)}
}

// hasAttr reports whether the record already carries the key, so explicit
// attribution is never duplicated.
func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
