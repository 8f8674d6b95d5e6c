package sandbox

import (
	"context"
	"errors"
	"time"

	"github.com/dop251/goja"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
)

// jsRunner runs payloads as worker scripts in a fresh JavaScript runtime per run. The runtime
// has the language built-ins only: no filesystem, network, timers or module loader.
type jsRunner struct {
	logger *zap.Logger
}

var _ Runner = &jsRunner{}

// errClosed stops the interpreter when the payload calls close().
var errClosed = zerr.New("closed")

// maxCallStackSize bounds recursion so a runaway payload fails instead of exhausting the stack.
const maxCallStackSize = 1 << 12

// NewJSRunner creates a Runner backed by an embedded JavaScript interpreter. The payload runs
// the way a dedicated worker script does and sees these host bindings:
//
//	postMessage(value)   posts the model object back to the host; the first post wins
//	close()              ends the run
//	self                 the global object
//
// When the script finishes without posting and has installed an onmessage handler, the handler
// is called once with an event whose data is the current time in milliseconds, as the host of a
// worker would do. Cancelling ctx interrupts a running payload.
//
// Parameters:
//   - options: JSRunnerBuilderOption functions
//
// Returns:
//   - Runner: the JavaScript-backed runner
func NewJSRunner(options ...JSRunnerBuilderOption) Runner {
	r := &jsRunner{logger: zap.NewNop()}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *jsRunner) RunIsolated(ctx context.Context, payload string) <-chan Outcome {
	if err := ctx.Err(); err != nil {
		return Resolved(Outcome{Err: zerr.Wrap(err, "isolated run not started")})
	}

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		data, err := r.run(ctx, payload)
		if err != nil {
			r.logger.Debug("isolated run failed", zap.Error(err))
		}
		out <- Outcome{Data: data, Err: err}
	}()
	return out
}

// jsRun holds the host-side state of one run.
type jsRun struct {
	vm      *goja.Runtime
	posted  map[string]any
	hasPost bool
	closed  bool
}

func (r *jsRunner) run(ctx context.Context, payload string) (map[string]any, error) {
	run := &jsRun{vm: goja.New()}
	run.vm.SetMaxCallStackSize(maxCallStackSize)
	stop := context.AfterFunc(ctx, func() {
		run.vm.Interrupt(ctx.Err())
	})
	defer stop()

	global := run.vm.GlobalObject()
	for name, value := range map[string]any{
		"postMessage": run.postMessage,
		"close":       run.close,
		"self":        global,
	} {
		if err := run.vm.Set(name, value); err != nil {
			return nil, zerr.Wrap(ErrScriptFailure, err.Error())
		}
	}

	if _, err := run.vm.RunString(payload); err != nil {
		if !errors.Is(err, errClosed) {
			return nil, scriptError(err)
		}
		if !run.hasPost {
			return nil, ErrNoMessage
		}
		return run.posted, nil
	}

	if !run.hasPost && !run.closed {
		if err := run.dispatchMessage(); err != nil && !errors.Is(err, errClosed) {
			return nil, scriptError(err)
		}
	}
	if !run.hasPost {
		return nil, ErrNoMessage
	}
	return run.posted, nil
}

// dispatchMessage delivers the start message to an installed onmessage handler.
func (run *jsRun) dispatchMessage() error {
	handler, ok := goja.AssertFunction(run.vm.Get("onmessage"))
	if !ok {
		return nil
	}
	event := run.vm.NewObject()
	if err := event.Set("data", time.Now().UnixMilli()); err != nil {
		return err
	}
	_, err := handler(goja.Undefined(), event)
	return err
}

func (run *jsRun) postMessage(call goja.FunctionCall) goja.Value {
	if run.hasPost || run.closed {
		return goja.Undefined()
	}
	value, ok := plainData(call.Argument(0).Export()).(map[string]any)
	if !ok {
		panic(run.vm.NewTypeError("postMessage expects an object with named fields"))
	}
	run.posted = value
	run.hasPost = true
	return goja.Undefined()
}

func (run *jsRun) close(goja.FunctionCall) goja.Value {
	run.closed = true
	run.vm.Interrupt(errClosed)
	return goja.Undefined()
}

// scriptError maps an interpreter error to ErrScriptFailure. Interrupts caused by the context
// keep the context error so callers can tell a cancelled run from a broken script.
func scriptError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return zerr.Wrap(err, "isolated run interrupted")
	}
	return zerr.Wrap(ErrScriptFailure, err.Error())
}
