package gateway

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	loadErr  error
	loads    atomic.Int32
	release  chan struct{}
	output   string
	err      error
	requests []Request
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Load(ctx context.Context) error {
	f.loads.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadErr
}

func (f *fakeBackend) Complete(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.output, f.err
}

func (f *fakeBackend) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestModel_PreloadIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	m := NewModel(backend, 0)

	require.NoError(t, m.Preload(context.Background()))
	require.NoError(t, m.Preload(context.Background()))
	require.NoError(t, m.Preload(context.Background()))

	assert.Equal(t, int32(1), backend.loads.Load())
	assert.True(t, m.Loaded())
}

func TestModel_PreloadSharedByConcurrentCallers(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{})}
	m := NewModel(backend, 0)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Preload(context.Background())
		}()
	}

	for backend.loads.Load() == 0 {
		runtime.Gosched()
	}
	close(backend.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), backend.loads.Load())
	assert.True(t, m.Loaded())
}

func TestModel_PreloadSurvivesCancelledCaller(t *testing.T) {
	backend := &fakeBackend{release: make(chan struct{})}
	m := NewModel(backend, 0)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- m.Preload(ctx) }()

	for backend.loads.Load() == 0 {
		runtime.Gosched()
	}

	second := make(chan error, 1)
	go func() { second <- m.Preload(context.Background()) }()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(backend.release)
	require.NoError(t, <-second)
	assert.True(t, m.Loaded())
	assert.Equal(t, int32(1), backend.loads.Load())
}

func TestModel_PreloadRetriesAfterFailure(t *testing.T) {
	backend := &fakeBackend{loadErr: errors.New("weights not found")}
	m := NewModel(backend, 0)

	err := m.Preload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights not found")
	assert.False(t, m.Loaded())

	backend.mu.Lock()
	backend.loadErr = nil
	backend.mu.Unlock()

	require.NoError(t, m.Preload(context.Background()))
	assert.Equal(t, int32(2), backend.loads.Load())
}

func TestModel_CallsPreloadFirst(t *testing.T) {
	backend := &fakeBackend{loadErr: errors.New("no gpu")}
	m := NewModel(backend, 0)

	_, err := m.Generate(context.Background(), "add two numbers", "python")
	require.Error(t, err)
	assert.Empty(t, backend.requests, "backend must not be called before a successful load")
}

func TestModel_Generate(t *testing.T) {
	backend := &fakeBackend{output: "```python\ndef add(a, b):\n    return a + b\n```"}
	m := NewModel(backend, 256)

	code, err := m.Generate(context.Background(), "add two numbers", "python")
	require.NoError(t, err)
	assert.Equal(t, "def add(a, b):\n    return a + b", code)

	req := backend.lastRequest()
	assert.Equal(t, OpGenerate, req.Operation)
	assert.Equal(t, "python", req.Language)
	assert.Equal(t, 256, req.MaxTokens)
	assert.Contains(t, req.User, "add two numbers")
	assert.Contains(t, req.System, "python")
}

func TestModel_Autocomplete(t *testing.T) {
	backend := &fakeBackend{output: "  return a + b\n"}
	m := NewModel(backend, 0)

	suggestion, err := m.Autocomplete(context.Background(), "def add(a, b):\n", "python")
	require.NoError(t, err)
	assert.Equal(t, "return a + b", suggestion)
	assert.Equal(t, "def add(a, b):\n", backend.lastRequest().User)
}

func TestModel_ReplyKeepsMarkdown(t *testing.T) {
	answer := "Use a loop:\n```go\nfor i := range xs {}\n```"
	backend := &fakeBackend{output: answer}
	m := NewModel(backend, 0)

	reply, err := m.Reply(context.Background(), "how do I iterate?", "go", "xs := []int{1}", "u1", "beginner")
	require.NoError(t, err)
	assert.Equal(t, answer, reply)

	req := backend.lastRequest()
	assert.Equal(t, OpReply, req.Operation)
	assert.Contains(t, req.System, "beginner")
	assert.Contains(t, req.User, "xs := []int{1}")
}

func TestModel_ReplyDefaultsUserLevel(t *testing.T) {
	backend := &fakeBackend{output: "ok"}
	m := NewModel(backend, 0)

	_, err := m.Reply(context.Background(), "why?", "go", "", "u1", "")
	require.NoError(t, err)
	assert.Contains(t, backend.lastRequest().System, "intermediate")
	assert.NotContains(t, backend.lastRequest().User, "Current go code")
}

func TestModel_ReplyCodeOnly(t *testing.T) {
	backend := &fakeBackend{output: "```\nx = 1\n```"}
	m := NewModel(backend, 0)

	code, err := m.ReplyCodeOnly(context.Background(), "set x", "python", "", "u1")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", code)
	assert.Equal(t, OpReplyCodeOnly, backend.lastRequest().Operation)
}

func TestModel_BackendErrorWrapped(t *testing.T) {
	backend := &fakeBackend{err: errors.New("CUDA out of memory")}
	m := NewModel(backend, 0)

	_, err := m.ReplyCodeOnly(context.Background(), "p", "go", "", "u1")
	require.Error(t, err)
	assert.Equal(t, "reply_code_only: CUDA out of memory", err.Error())
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "x = 1", "x = 1"},
		{"fence with language", "```python\nx = 1\n```", "x = 1"},
		{"fence without language", "```\nx = 1\ny = 2\n```", "x = 1\ny = 2"},
		{"unterminated fence", "```go\nfmt.Println()", "fmt.Println()"},
		{"single line fence", "```", "```"},
		{"surrounding whitespace", "\n  ```js\nlet a\n```  \n", "let a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "static"} {
		b, err := NewBackend(Options{Backend: name})
		require.NoError(t, err)
		assert.Equal(t, name, b.Name())
	}

	_, err := NewBackend(Options{Backend: "llama"})
	assert.Error(t, err)
}

func TestGemini_LoadWithoutKey(t *testing.T) {
	err := NewGemini("", "").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestStatic_Complete(t *testing.T) {
	m := NewModel(NewStatic(), 0)

	code, err := m.Generate(context.Background(), "add two numbers", "python")
	require.NoError(t, err)
	assert.Equal(t, "[generate:python] add two numbers", code)
}
