// Package inference wraps the hosted text-generation endpoint behind a
// gateway that always produces a reply.
package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kodbank/apiserver/config"
	"github.com/rs/zerolog"
)

// FallbackText replaces the model's reply whenever generation fails.
const FallbackText = "Sorry, I could not process your request."

const (
	DefaultMaxLength   = 100
	DefaultTemperature = float32(0.7)
)

// ErrMalformedResponse is returned when the endpoint answers without the
// expected generated text.
var ErrMalformedResponse = errors.New("malformed inference response")

// Params are the fixed generation parameters sent with every request.
type Params struct {
	MaxLength   int
	Temperature float32
}

// DefaultParams returns the parameters used for chat replies.
func DefaultParams() Params {
	return Params{MaxLength: DefaultMaxLength, Temperature: DefaultTemperature}
}

// UpstreamError reports a non-success response from the endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("inference endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Provider performs a single generation attempt against a hosted model.
type Provider interface {
	Complete(ctx context.Context, prompt string, params Params) (string, error)
}

// Gateway turns provider failures into FallbackText. It never returns an
// error.
type Gateway struct {
	provider Provider
	params   Params
	logger   zerolog.Logger
}

// NewGateway constructs a Gateway. A nil provider always yields FallbackText.
func NewGateway(provider Provider, logger zerolog.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		params:   DefaultParams(),
		logger:   logger.With().Str("component", "inference").Logger(),
	}
}

// Generate returns the model's reply to text, or FallbackText.
func (g *Gateway) Generate(ctx context.Context, text string) string {
	if g.provider == nil {
		g.logger.Warn().Msg("no inference provider configured")
		return FallbackText
	}

	reply, err := g.provider.Complete(ctx, text, g.params)
	if err != nil {
		g.logger.Warn().Err(err).Msg("inference request failed, using fallback")
		return FallbackText
	}
	if strings.TrimSpace(reply) == "" {
		g.logger.Warn().Err(ErrMalformedResponse).Msg("inference returned empty text, using fallback")
		return FallbackText
	}
	return reply
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(cfg config.InferenceConfig) (Provider, error) {
	switch cfg.Provider {
	case "huggingface", "":
		return NewHuggingFaceClient(cfg.HuggingFaceModelURL, cfg.HuggingFaceAPIKey)
	case "openai":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unsupported inference provider %q", cfg.Provider)
	}
}
