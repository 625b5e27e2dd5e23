package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/microsoft/DialoGPT-medium"
	requestTimeout        = 30 * time.Second
	maxResponseBytes      = 1 << 20
)

// HuggingFaceClient calls the Hugging Face hosted inference API.
type HuggingFaceClient struct {
	httpClient *http.Client
	modelURL   string
	apiKey     string
}

// NewHuggingFaceClient constructs a client for the given model endpoint.
func NewHuggingFaceClient(modelURL, apiKey string) (*HuggingFaceClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("hugging face api key is required")
	}
	if strings.TrimSpace(modelURL) == "" {
		modelURL = defaultHuggingFaceURL
	}
	return &HuggingFaceClient{
		httpClient: &http.Client{Timeout: requestTimeout},
		modelURL:   modelURL,
		apiKey:     apiKey,
	}, nil
}

type huggingFaceRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters huggingFaceParameters `json:"parameters"`
}

type huggingFaceParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float32 `json:"temperature"`
}

type huggingFaceGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Complete sends prompt to the model and returns the first generated text.
func (c *HuggingFaceClient) Complete(ctx context.Context, prompt string, params Params) (string, error) {
	payload, err := json.Marshal(huggingFaceRequest{
		Inputs: prompt,
		Parameters: huggingFaceParameters{
			MaxLength:   params.MaxLength,
			Temperature: params.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var generations []huggingFaceGeneration
	if err := json.Unmarshal(body, &generations); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(generations) == 0 || generations[0].GeneratedText == "" {
		return "", ErrMalformedResponse
	}
	return generations[0].GeneratedText, nil
}
