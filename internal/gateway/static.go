package gateway

import (
	"context"
	"fmt"
	"strings"
)

// Static returns canned completions without calling a model.
// It backs TEST_MODE and local development.
type Static struct{}

// NewStatic creates a Static backend.
func NewStatic() *Static {
	return &Static{}
}

// Name returns "static".
func (s *Static) Name() string {
	return "static"
}

// Load always succeeds.
func (s *Static) Load(ctx context.Context) error {
	return nil
}

// Complete echoes the first line of the caller's input.
func (s *Static) Complete(ctx context.Context, req Request) (string, error) {
	first := strings.TrimSpace(req.Input)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return fmt.Sprintf("[%s:%s] %s", req.Operation, req.Language, first), nil
}
