// Package sandbox runs legacy scripted payloads in an isolated execution context. Old model
// exports were scripts that built the model and posted it back to their host rather than
// plain data; a Runner executes such a script away from the caller and hands back the posted
// value as plain data.
package sandbox

import (
	"context"

	"go.trai.ch/zerr"
)

var (
	// ErrScriptFailure is returned when the payload fails to compile or raises an error.
	ErrScriptFailure = zerr.New("script failure")

	// ErrNoMessage is returned when the payload finishes without posting a value.
	ErrNoMessage = zerr.New("payload posted no message")
)

// Outcome is the single value delivered by an isolated run.
type Outcome struct {
	// Data is the posted value converted to plain Go data (maps, slices, strings, float64, bool).
	Data map[string]any

	// Err is non-nil when the run failed.
	Err error
}

// Runner executes untrusted legacy payloads in isolation.
type Runner interface {
	// RunIsolated starts the payload and returns immediately. The returned channel delivers
	// exactly one Outcome and is then closed.
	//
	// Parameters:
	//   - ctx: the context; a context that is already done fails the run before it starts
	//   - payload: the script text
	//
	// Returns:
	//   - <-chan Outcome: the channel carrying the result
	RunIsolated(ctx context.Context, payload string) <-chan Outcome
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, payload string) <-chan Outcome

// RunIsolated calls f(ctx, payload).
func (f RunnerFunc) RunIsolated(ctx context.Context, payload string) <-chan Outcome {
	return f(ctx, payload)
}

// Resolved returns a closed channel holding a single outcome.
//
// Parameters:
//   - outcome: the outcome to deliver
//
// Returns:
//   - <-chan Outcome: the buffered, closed channel
func Resolved(outcome Outcome) <-chan Outcome {
	ch := make(chan Outcome, 1)
	ch <- outcome
	close(ch)
	return ch
}
