package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID correlates every line emitted by one search or build invocation.
	FieldRunID = "run_id"
	// FieldRoots lists the root work identifiers of a search.
	FieldRoots = "roots"
	// FieldWorkID is the standardized key for a catalog work identifier.
	FieldWorkID = "work_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	runIDKey contextKey = iota
	rootsKey
)

// WithRunID tags ctx with a run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithRoots tags ctx with the root work identifiers of a search.
func WithRoots(ctx context.Context, roots []uint64) context.Context {
	cp := make([]uint64, len(roots))
	copy(cp, roots)
	return context.WithValue(ctx, rootsKey, cp)
}

// RootsFromContext returns the identifiers stored by WithRoots.
func RootsFromContext(ctx context.Context) ([]uint64, bool) {
	if ctx == nil {
		return nil, false
	}
	roots, ok := ctx.Value(rootsKey).([]uint64)
	return roots, ok && len(roots) > 0
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if roots, ok := RootsFromContext(ctx); ok {
		parts := make([]string, len(roots))
		for i, root := range roots {
			parts[i] = strconv.FormatUint(root, 10)
		}
		fields = append(fields, slog.String(FieldRoots, strings.Join(parts, ",")))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return logger.With(args...)
}
