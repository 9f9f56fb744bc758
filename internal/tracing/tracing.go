// Package tracing is a deliberate no-op wiring point: distributed tracing
// is out of scope and no tracing client appears anywhere in the reference
// code to ground a real implementation on. Neither cmd/indexer nor
// cmd/server calls Init.
package tracing

import "namadexer/internal/config"

// Tracer is deliberately empty; Init returns one regardless of cfg.Jaeger so
// callers don't need to branch on whether tracing is enabled.
type Tracer struct {
	enabled bool
}

// Init reads cfg.Jaeger.Enable but does not connect anywhere.
func Init(cfg *config.Config) *Tracer {
	return &Tracer{enabled: cfg.Jaeger.Enable}
}

// Enabled reports the configured intent, for log messages at startup.
func (t *Tracer) Enabled() bool { return t != nil && t.enabled }

// Close is a no-op, present so callers can defer it unconditionally.
func (t *Tracer) Close() {}
