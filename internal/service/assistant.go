// Package service provides business logic for the application.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/codeassist/assistant-api/internal/gateway"
	"github.com/codeassist/assistant-api/internal/metrics"
	"github.com/codeassist/assistant-api/internal/model"
)

// FallbackMessage replaces an empty or sentinel-prefixed model reply.
const FallbackMessage = model.WarningGlyph + " The assistant could not generate a response. Please try again."

// GatewayError is a failed model call. Its message is the model's error text.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// InternalErrorMessage is the reply text returned when the model call itself fails.
func InternalErrorMessage(err error) string {
	return fmt.Sprintf("%s Internal assistant error (%s)", model.WarningGlyph, err.Error())
}

// Outcome classifies a reply.
type Outcome int

const (
	// OutcomeOK means the model produced usable text.
	OutcomeOK Outcome = iota
	// OutcomeEmpty means the model answered with nothing or a sentinel-prefixed message.
	OutcomeEmpty
	// OutcomeFailed means the model call returned an error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return metrics.OutcomeSuccess
	case OutcomeEmpty:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeError
	}
}

// ReplyResult is the classified result of a reply call.
// Text is always safe to return to the caller.
type ReplyResult struct {
	Text     string
	Duration time.Duration
	Outcome  Outcome
	Err      error
}

// OK reports whether the model produced usable text.
func (r ReplyResult) OK() bool {
	return r.Outcome == OutcomeOK
}

// ReplyInput is the input of Reply and ReplyCodeOnly.
type ReplyInput struct {
	Prompt    string
	Language  string
	Code      string
	UserID    string
	UserLevel string
	Identity  *model.Identity
}

// ResolveUserID picks the request's user ID, then the caller's uid, then "unknown".
func ResolveUserID(requestUserID string, identity *model.Identity) string {
	if requestUserID != "" {
		return requestUserID
	}
	if identity != nil && identity.UID != "" {
		return identity.UID
	}
	return model.UnknownUserID
}

// AssistantService forwards assistant operations to the model gateway.
type AssistantService struct {
	gateway gateway.Gateway
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(gw gateway.Gateway, logger *slog.Logger, recorder metrics.Recorder) *AssistantService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AssistantService{
		gateway: gw,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
	}
}

// Preload triggers the idempotent model load.
func (s *AssistantService) Preload(ctx context.Context) error {
	return s.gateway.Preload(ctx)
}

// Generate writes code for a prompt. Errors are *GatewayError.
func (s *AssistantService) Generate(ctx context.Context, prompt, language string) (string, error) {
	start := s.now()
	code, err := s.gateway.Generate(ctx, prompt, language)
	return s.direct(ctx, gateway.OpGenerate, start, code, err)
}

// Autocomplete continues code. Errors are *GatewayError.
func (s *AssistantService) Autocomplete(ctx context.Context, code, language string) (string, error) {
	start := s.now()
	suggestion, err := s.gateway.Autocomplete(ctx, code, language)
	return s.direct(ctx, gateway.OpAutocomplete, start, suggestion, err)
}

// Reply answers a question. It never returns an error; failures are folded into the result text.
func (s *AssistantService) Reply(ctx context.Context, in ReplyInput) ReplyResult {
	userID := ResolveUserID(in.UserID, in.Identity)

	start := s.now()
	text, err := s.gateway.Reply(ctx, in.Prompt, in.Language, in.Code, userID, in.UserLevel)
	return s.classify(ctx, gateway.OpReply, userID, start, text, err)
}

// ReplyCodeOnly answers a question with code only, folding failures into the result text.
func (s *AssistantService) ReplyCodeOnly(ctx context.Context, in ReplyInput) ReplyResult {
	userID := ResolveUserID(in.UserID, in.Identity)

	start := s.now()
	text, err := s.gateway.ReplyCodeOnly(ctx, in.Prompt, in.Language, in.Code, userID)
	return s.classify(ctx, gateway.OpReplyCodeOnly, userID, start, text, err)
}

func (s *AssistantService) direct(ctx context.Context, op string, start time.Time, text string, err error) (string, error) {
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveGatewayCall(op, metrics.OutcomeError, elapsed)
		s.logGatewayError(ctx, op, err)
		return "", &GatewayError{Op: op, Err: err}
	}

	s.metrics.ObserveGatewayCall(op, metrics.OutcomeSuccess, elapsed)
	return text, nil
}

func (s *AssistantService) classify(ctx context.Context, op, userID string, start time.Time, text string, err error) ReplyResult {
	elapsed := s.now().Sub(start)

	var result ReplyResult
	switch {
	case err != nil:
		s.logGatewayError(ctx, op, err)
		result = ReplyResult{
			Text:    InternalErrorMessage(err),
			Outcome: OutcomeFailed,
			Err:     &GatewayError{Op: op, Err: err},
		}
	case model.IsFailedResponse(text):
		s.logger.WarnContext(ctx, "model returned no usable reply",
			slog.String("operation", op),
			slog.String("user_id", userID),
			slog.Int("length", len(text)),
		)
		result = ReplyResult{Text: FallbackMessage, Outcome: OutcomeEmpty}
	default:
		result = ReplyResult{Text: text, Outcome: OutcomeOK}
	}

	result.Duration = elapsed
	s.metrics.ObserveGatewayCall(op, result.Outcome.String(), elapsed)
	return result
}

func (s *AssistantService) logGatewayError(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "model gateway call failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
		slog.String("stack", string(debug.Stack())),
	)
}
