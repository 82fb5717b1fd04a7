package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeassist/assistant-api/internal/testutil"
)

type recorder struct {
	calls      []string
	preloadErr error
	connectErr error
	closeErr   error
	stateSeen  []State
	lc         *Lifecycle
}

func (r *recorder) Preload(ctx context.Context) error {
	r.calls = append(r.calls, "preload")
	if r.lc != nil {
		r.stateSeen = append(r.stateSeen, r.lc.State())
	}
	return r.preloadErr
}

func (r *recorder) Connect(ctx context.Context) error {
	r.calls = append(r.calls, "connect")
	return r.connectErr
}

func (r *recorder) Close(ctx context.Context) error {
	r.calls = append(r.calls, "close")
	if r.lc != nil {
		r.stateSeen = append(r.stateSeen, r.lc.State())
	}
	return r.closeErr
}

func newLifecycle(r *recorder) *Lifecycle {
	lc := New(r, r, testutil.DiscardLogger())
	r.lc = lc
	return lc
}

func TestLifecycle_StartOrder(t *testing.T) {
	r := &recorder{}
	lc := newLifecycle(r)

	require.NoError(t, lc.Start(context.Background()))

	assert.Equal(t, []string{"preload", "connect"}, r.calls)
	assert.Equal(t, StateRunning, lc.State())
	assert.Equal(t, []State{StateStarting}, r.stateSeen)
}

func TestLifecycle_PreloadFailure(t *testing.T) {
	r := &recorder{preloadErr: errors.New("weights missing")}
	lc := newLifecycle(r)

	err := lc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights missing")
	assert.Equal(t, []string{"preload"}, r.calls, "database must not be touched")
	assert.Equal(t, StateStopped, lc.State())
}

func TestLifecycle_ConnectFailure(t *testing.T) {
	r := &recorder{connectErr: errors.New("connection refused")}
	lc := newLifecycle(r)

	err := lc.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, lc.State())

	// A failed start does not close anything on stop.
	require.NoError(t, lc.Stop(context.Background()))
	assert.Equal(t, []string{"preload", "connect"}, r.calls)
}

func TestLifecycle_StartTwice(t *testing.T) {
	r := &recorder{}
	lc := newLifecycle(r)

	require.NoError(t, lc.Start(context.Background()))
	err := lc.Start(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, []string{"preload", "connect"}, r.calls)
}

func TestLifecycle_StopClosesOnce(t *testing.T) {
	r := &recorder{}
	lc := newLifecycle(r)

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))

	assert.Equal(t, []string{"preload", "connect", "close"}, r.calls)
	assert.Equal(t, StateStopped, lc.State())
	assert.Equal(t, []State{StateStarting, StateStopping}, r.stateSeen)
}

func TestLifecycle_StopError(t *testing.T) {
	r := &recorder{closeErr: errors.New("disconnect timeout")}
	lc := newLifecycle(r)

	require.NoError(t, lc.Start(context.Background()))
	err := lc.Stop(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, lc.State())
}

func TestLifecycle_RestartAfterStop(t *testing.T) {
	r := &recorder{}
	lc := newLifecycle(r)

	require.NoError(t, lc.Start(context.Background()))
	require.NoError(t, lc.Stop(context.Background()))
	require.NoError(t, lc.Start(context.Background()))
	assert.Equal(t, StateRunning, lc.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "state(9)", State(9).String())
}
