// Package gateway turns assistant operations into language model calls.
//
// A Model wraps a Backend (Gemini, an OpenAI-compatible server or a static
// stub), owns the one-time model preload and builds the prompt for each
// operation. It is safe for concurrent use.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Operation names, also used as metric labels.
const (
	OpGenerate      = "generate"
	OpAutocomplete  = "autocomplete"
	OpReply         = "reply"
	OpReplyCodeOnly = "reply_code_only"
)

// ErrEmptyCompletion is returned by backends that got no candidates back.
var ErrEmptyCompletion = errors.New("model returned no completion")

// Gateway is the model capability used by the assistant endpoints.
type Gateway interface {
	Preload(ctx context.Context) error
	Generate(ctx context.Context, prompt, language string) (string, error)
	Autocomplete(ctx context.Context, code, language string) (string, error)
	Reply(ctx context.Context, prompt, language, code, userID, userLevel string) (string, error)
	ReplyCodeOnly(ctx context.Context, prompt, language, code, userID string) (string, error)
}

// Request is a single completion request sent to a Backend.
type Request struct {
	Operation string
	Language  string
	// Input is the caller's prompt or code before templating.
	Input     string
	System    string
	User      string
	MaxTokens int
}

// Backend is a concrete model provider.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Load prepares the model. Model calls it until it succeeds once.
	Load(ctx context.Context) error
	// Complete returns the model output for req.
	Complete(ctx context.Context, req Request) (string, error)
}

// Model implements Gateway on top of a Backend.
type Model struct {
	backend   Backend
	maxTokens int

	group  singleflight.Group
	loaded atomic.Bool
}

// NewModel creates a Model. maxTokens <= 0 leaves the backend default.
func NewModel(backend Backend, maxTokens int) *Model {
	return &Model{
		backend:   backend,
		maxTokens: maxTokens,
	}
}

// Backend returns the wrapped backend name.
func (m *Model) Backend() string {
	return m.backend.Name()
}

// Preload loads the model once. Concurrent callers share a single load;
// after a failure the next call tries again.
// The shared load outlives any single caller; a cancelled caller only
// stops waiting.
func (m *Model) Preload(ctx context.Context) error {
	if m.loaded.Load() {
		return nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan("preload", func() (any, error) {
		if m.loaded.Load() {
			return nil, nil
		}
		if err := m.backend.Load(loadCtx); err != nil {
			return nil, fmt.Errorf("load %s model: %w", m.backend.Name(), err)
		}
		m.loaded.Store(true)
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether a preload has succeeded.
func (m *Model) Loaded() bool {
	return m.loaded.Load()
}

// Generate writes code for a natural-language prompt.
func (m *Model) Generate(ctx context.Context, prompt, language string) (string, error) {
	text, err := m.complete(ctx, Request{
		Operation: OpGenerate,
		Language:  language,
		Input:     prompt,
		System:    codeOnlySystemPrompt(language),
		User:      generatePrompt(prompt, language),
	})
	if err != nil {
		return "", err
	}
	return StripCodeFence(text), nil
}

// Autocomplete continues a code fragment.
func (m *Model) Autocomplete(ctx context.Context, code, language string) (string, error) {
	text, err := m.complete(ctx, Request{
		Operation: OpAutocomplete,
		Language:  language,
		Input:     code,
		System:    autocompleteSystemPrompt(language),
		User:      code,
	})
	if err != nil {
		return "", err
	}
	return StripCodeFence(text), nil
}

// Reply answers a question about code, tuned to the user's level.
func (m *Model) Reply(ctx context.Context, prompt, language, code, userID, userLevel string) (string, error) {
	return m.complete(ctx, Request{
		Operation: OpReply,
		Language:  language,
		Input:     prompt,
		System:    replySystemPrompt(language, userLevel),
		User:      replyPrompt(prompt, language, code),
	})
}

// ReplyCodeOnly answers a question about code with code only.
func (m *Model) ReplyCodeOnly(ctx context.Context, prompt, language, code, userID string) (string, error) {
	text, err := m.complete(ctx, Request{
		Operation: OpReplyCodeOnly,
		Language:  language,
		Input:     prompt,
		System:    codeOnlySystemPrompt(language),
		User:      replyPrompt(prompt, language, code),
	})
	if err != nil {
		return "", err
	}
	return StripCodeFence(text), nil
}

func (m *Model) complete(ctx context.Context, req Request) (string, error) {
	if err := m.Preload(ctx); err != nil {
		return "", err
	}

	req.MaxTokens = m.maxTokens
	text, err := m.backend.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Operation, err)
	}
	return strings.TrimSpace(text), nil
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line, including any language tag.
	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return trimmed
	}
	body := trimmed[nl+1:]

	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
