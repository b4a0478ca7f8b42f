// Package llm provides the optional free-form completion service used when
// a question matches no known intent.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Completer produces free text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds completion client configuration.
type Config struct {
	APIKey   string        // Gemini API key
	Model    string        // e.g. "gemini-2.5-flash"
	Endpoint string        // API endpoint override (empty = default)
	Timeout  time.Duration // per request
}

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 30 * time.Second
)

// ErrEmptyCompletion is returned when Gemini answers without any text.
var ErrEmptyCompletion = errors.New("gemini returned empty response")

// GeminiClient implements Completer on top of the genai SDK.
type GeminiClient struct {
	config Config
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini client, filling in defaults. Close releases it.
func NewGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}
	return &GeminiClient{
		config: cfg,
		client: client,
		model:  client.GenerativeModel(cfg.Model),
	}, nil
}

// Complete sends prompt to Gemini and returns the first candidate's text.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	var text string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		if part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			text = string(part)
		}
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}

	log.Debug().Str("model", g.config.Model).Dur("elapsed", time.Since(start)).Msg("completion received")
	return text, nil
}

// Close releases the underlying SDK client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}
