package jpegli

import (
	"context"
	"log/slog"
)

// Reporter is the sink for what a parse observes.
type Reporter interface {
	// Diagnostic is called for each non-fatal finding as it is made.
	Diagnostic(ctx context.Context, d Diagnostic)
	// Frame is called once with the completed frame of a successful parse.
	Frame(ctx context.Context, f *Frame)
}

// SlogReporter logs diagnostics at WARN and frames at INFO.
type SlogReporter struct {
	Logger *slog.Logger // nil means slog.Default()
}

func (s SlogReporter) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s SlogReporter) Diagnostic(ctx context.Context, d Diagnostic) {
	s.logger().WarnContext(ctx, "jpegli: "+d.Kind.String(),
		slog.String("marker", d.Marker.String()),
		slog.Int("offset", d.Offset),
		slog.String("message", d.Message))
}

func (s SlogReporter) Frame(ctx context.Context, f *Frame) {
	s.logger().InfoContext(ctx, "jpegli: frame parsed", slog.Any("frame", f))
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Diagnostic(context.Context, Diagnostic) {}

func (NopReporter) Frame(context.Context, *Frame) {}
