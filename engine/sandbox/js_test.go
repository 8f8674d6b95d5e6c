package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	outcome, ok := <-ch
	require.True(t, ok, "runner delivered no outcome")
	_, more := <-ch
	require.False(t, more, "runner delivered more than one outcome")
	return outcome
}

// legacyExport is shaped like the scripted model exports of format version 2.
const legacyExport = `postMessage( {

	"metadata" :
	{
		"formatVersion" : 2,
		"generatedBy"   : "Blender 2.63 Exporter"
	},

	"scale" : 1.000000,

	"materials": [	{
		"DbgColor" : 15658734,
		"DbgName" : "steel"
	}],

	"vertices": [0,0,0,1,0,0,0,1,0],

	"faces": [0,0,1,2]

} );
close();
`

// TestJSRunner_LegacyExport verifies that a genuine scripted export posts its model as plain data.
func TestJSRunner_LegacyExport(t *testing.T) {
	outcome := receive(t, NewJSRunner().RunIsolated(context.Background(), legacyExport))
	require.NoError(t, outcome.Err)

	want := map[string]any{
		"metadata":  map[string]any{"formatVersion": 2.0, "generatedBy": "Blender 2.63 Exporter"},
		"scale":     1.0,
		"materials": []any{map[string]any{"DbgColor": 15658734.0, "DbgName": "steel"}},
		"vertices":  []any{0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0.0},
		"faces":     []any{0.0, 0.0, 1.0, 2.0},
	}
	if diff := cmp.Diff(want, outcome.Data); diff != "" {
		t.Errorf("posted data mismatch (-want +got):\n%s", diff)
	}
}

// TestJSRunner_ComputedModel verifies that scripts building their model with code are supported.
func TestJSRunner_ComputedModel(t *testing.T) {
	payload := `
var vertices = [];
for (var i = 0; i < 3; i++) { vertices.push(i, i * 0.5, 0); }
self.postMessage({ vertices: vertices, fromJSON: JSON.parse('{"empty": {}}'), skip: function () {} });
`
	outcome := receive(t, NewJSRunner().RunIsolated(context.Background(), payload))
	require.NoError(t, outcome.Err)

	want := map[string]any{
		"vertices": []any{0.0, 0.0, 0.0, 1.0, 0.5, 0.0, 2.0, 1.0, 0.0},
		"fromJSON": map[string]any{"empty": map[string]any{}},
		"skip":     nil,
	}
	if diff := cmp.Diff(want, outcome.Data); diff != "" {
		t.Errorf("posted data mismatch (-want +got):\n%s", diff)
	}
}

// TestJSRunner_OnMessage verifies that a worker-style handler receives the start message.
func TestJSRunner_OnMessage(t *testing.T) {
	payload := `onmessage = function (event) { postMessage({ started: typeof event.data === "number" }); close(); };`
	outcome := receive(t, NewJSRunner().RunIsolated(context.Background(), payload))
	require.NoError(t, outcome.Err)
	assert.Equal(t, true, outcome.Data["started"])
}

// TestJSRunner_FirstPostWins verifies that later posts are ignored.
func TestJSRunner_FirstPostWins(t *testing.T) {
	outcome := receive(t, NewJSRunner().RunIsolated(context.Background(), `postMessage({ n: 1 }); postMessage({ n: 2 });`))
	require.NoError(t, outcome.Err)
	assert.Equal(t, 1.0, outcome.Data["n"])
}

// TestJSRunner_Failures verifies how payloads that do not deliver a model are reported.
func TestJSRunner_Failures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "no post", payload: `var x = 1;`, wantErr: ErrNoMessage},
		{name: "close before post", payload: `close(); postMessage({ n: 1 });`, wantErr: ErrNoMessage},
		{name: "syntax error", payload: `postMessage( {`, wantErr: ErrScriptFailure},
		{name: "thrown error", payload: `throw new Error("boom");`, wantErr: ErrScriptFailure},
		{name: "non-object post", payload: `postMessage(42);`, wantErr: ErrScriptFailure},
		{name: "runaway recursion", payload: `function f() { return f(); } f();`, wantErr: ErrScriptFailure},
		{name: "no module loader", payload: `require("fs");`, wantErr: ErrScriptFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := receive(t, NewJSRunner().RunIsolated(context.Background(), tt.payload))
			assert.ErrorIs(t, outcome.Err, tt.wantErr)
			assert.Nil(t, outcome.Data)
		})
	}
}

// TestJSRunner_DoneContext verifies that a cancelled context fails the run before it starts.
func TestJSRunner_DoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := receive(t, NewJSRunner().RunIsolated(ctx, `postMessage({ n: 1 });`))
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}

// TestJSRunner_CancelInterrupts verifies that cancelling the context stops a payload that never ends.
func TestJSRunner_CancelInterrupts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome := receive(t, NewJSRunner().RunIsolated(ctx, `for (;;) {}`))
	assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	assert.NotErrorIs(t, outcome.Err, ErrScriptFailure)
}

// TestRunnerFunc_Resolved verifies the function adapter and the resolved channel helper.
func TestRunnerFunc_Resolved(t *testing.T) {
	runner := RunnerFunc(func(_ context.Context, payload string) <-chan Outcome {
		return Resolved(Outcome{Data: map[string]any{"payload": payload}})
	})
	outcome := receive(t, runner.RunIsolated(context.Background(), "x"))
	assert.Equal(t, "x", outcome.Data["payload"])
}
