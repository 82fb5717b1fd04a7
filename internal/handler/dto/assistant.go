// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"strings"
)

// CodePrompt is the body of POST /api/assistant/generate.
type CodePrompt struct {
	Prompt   *string `json:"prompt"`
	Language *string `json:"language"`
}

// Validate reports missing required fields.
func (p *CodePrompt) Validate() error {
	return missing(field{"prompt", p.Prompt}, field{"language", p.Language})
}

// CodeInput is the body of POST /api/assistant/autocomplete.
type CodeInput struct {
	Code     *string `json:"code"`
	Language *string `json:"language"`
}

// Validate reports missing required fields.
func (c *CodeInput) Validate() error {
	return missing(field{"code", c.Code}, field{"language", c.Language})
}

// CodeRequest is the body of the reply endpoints.
type CodeRequest struct {
	Prompt    *string `json:"prompt"`
	Language  *string `json:"language"`
	Code      *string `json:"code"`
	UserID    string  `json:"user_id,omitempty"`
	UserLevel string  `json:"user_level,omitempty"`
}

// Validate reports missing required fields.
func (c *CodeRequest) Validate() error {
	return missing(field{"prompt", c.Prompt}, field{"language", c.Language}, field{"code", c.Code})
}

// GenerateResponse is returned by generate.
type GenerateResponse struct {
	Code string `json:"code"`
}

// AutocompleteResponse is returned by autocomplete.
type AutocompleteResponse struct {
	Suggestion string `json:"suggestion"`
}

// ReplyResponse is returned by reply. Duration is set only on success.
type ReplyResponse struct {
	Reply    string   `json:"reply"`
	Duration *float64 `json:"duration,omitempty"`
}

// CodeOnlyResponse is returned by reply-code-only. Duration is set only on success.
type CodeOnlyResponse struct {
	Code     string   `json:"code"`
	Duration *float64 `json:"duration,omitempty"`
}

// MessageResponse is the body of the informational GET routes.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError lists the required fields absent from a request body.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "field required: " + strings.Join(e.Fields, ", ")
}

type field struct {
	name  string
	value *string
}

func missing(fields ...field) error {
	var names []string
	for _, f := range fields {
		if f.value == nil {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &ValidationError{Fields: names}
}
