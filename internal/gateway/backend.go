package gateway

import "fmt"

// Options selects and configures a Backend.
type Options struct {
	Backend  string
	Model    string
	Endpoint string
	APIKey   string
	// GeminiAPIKey is used by the gemini backend when APIKey is empty.
	GeminiAPIKey string
}

// NewBackend builds the Backend named by opts.Backend.
func NewBackend(opts Options) (Backend, error) {
	switch opts.Backend {
	case "gemini":
		key := opts.APIKey
		if key == "" {
			key = opts.GeminiAPIKey
		}
		return NewGemini(key, opts.Model), nil
	case "openai":
		return NewOpenAI(opts.Endpoint, opts.APIKey, opts.Model), nil
	case "static":
		return NewStatic(), nil
	default:
		return nil, fmt.Errorf("unknown gateway backend %q", opts.Backend)
	}
}
