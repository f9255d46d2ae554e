// Package runctx attaches a run identity to the context of one scrape.
package runctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type key int

const runKey key = 0

// RunContext identifies one scrape run.
type RunContext struct {
	RunID     string
	Query     string
	StartTime time.Time
}

// WithRun returns a child context carrying a fresh run ID for query.
func WithRun(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     uuid.NewString(),
		Query:     query,
		StartTime: time.Now(),
	})
}

// Get returns the run attached to ctx, or a placeholder when there is none.
func Get(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// Elapsed is the time since the run started.
func (rc *RunContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

// Logger returns a zerolog sub-logger tagged with the run ID.
func Logger(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	rc := Get(ctx)
	return base.With().Str("run_id", rc.RunID).Logger()
}

// RunError wraps an error with the run it happened in.
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[run %s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError wraps err with the run ID from ctx. A nil err stays nil.
func NewRunError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RunError{
		RunID: Get(ctx).RunID,
		Err:   err,
	}
}
