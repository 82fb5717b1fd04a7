package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/codeassist/assistant-api/internal/auth"
	"github.com/codeassist/assistant-api/internal/handler/dto"
	"github.com/codeassist/assistant-api/internal/service"
)

// AssistantHandler handles the /api/assistant endpoints.
type AssistantHandler struct {
	svc    *service.AssistantService
	logger *slog.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(svc *service.AssistantService, logger *slog.Logger) *AssistantHandler {
	return &AssistantHandler{
		svc:    svc,
		logger: logger,
	}
}

type validator interface {
	Validate() error
}

// Generate handles POST /api/assistant/generate.
func (h *AssistantHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.CodePrompt
	if !h.decode(w, r, &req) {
		return
	}

	code, err := h.svc.Generate(r.Context(), *req.Prompt, *req.Language)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GenerateResponse{Code: code})
}

// Autocomplete handles POST /api/assistant/autocomplete.
func (h *AssistantHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var req dto.CodeInput
	if !h.decode(w, r, &req) {
		return
	}

	suggestion, err := h.svc.Autocomplete(r.Context(), *req.Code, *req.Language)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AutocompleteResponse{Suggestion: suggestion})
}

// Reply handles POST /api/assistant/reply.
// Model failures are reported in the reply text with status 200.
func (h *AssistantHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req dto.CodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.svc.Reply(r.Context(), replyInput(r, &req))
	h.logReplyFailure(r, result)

	resp := dto.ReplyResponse{Reply: result.Text}
	if result.OK() {
		resp.Duration = seconds(result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplyCodeOnly handles POST /api/assistant/reply-code-only.
// Model failures are reported in the code field with status 200.
func (h *AssistantHandler) ReplyCodeOnly(w http.ResponseWriter, r *http.Request) {
	var req dto.CodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.svc.ReplyCodeOnly(r.Context(), replyInput(r, &req))
	h.logReplyFailure(r, result)

	resp := dto.CodeOnlyResponse{Code: result.Text}
	if result.OK() {
		resp.Duration = seconds(result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads and validates the request body, writing 413 or 422 on failure.
func (h *AssistantHandler) decode(w http.ResponseWriter, r *http.Request, v validator) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			writeDetail(w, http.StatusUnprocessableEntity, "request body is required")
		default:
			writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		}
		return false
	}

	if err := v.Validate(); err != nil {
		h.logger.Debug("request validation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// logReplyFailure records a failed model call that is answered with 200.
func (h *AssistantHandler) logReplyFailure(r *http.Request, result service.ReplyResult) {
	if result.Err == nil {
		return
	}
	h.logger.WarnContext(r.Context(), "reply answered with error text",
		slog.String("path", r.URL.Path),
		slog.String("uid", auth.UIDFromContext(r.Context())),
		slog.String("error", result.Err.Error()),
	)
}

func replyInput(r *http.Request, req *dto.CodeRequest) service.ReplyInput {
	return service.ReplyInput{
		Prompt:    *req.Prompt,
		Language:  *req.Language,
		Code:      *req.Code,
		UserID:    req.UserID,
		UserLevel: req.UserLevel,
		Identity:  auth.IdentityFromContext(r.Context()),
	}
}

func seconds(result service.ReplyResult) *float64 {
	s := result.Duration.Seconds()
	return &s
}
