package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProviderError describes a failed call to a model backend. The core treats
// every backend failure identically regardless of transport.
type ProviderError struct {
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error for model %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ModelClient generates a completion from one model backend. Failures are
// reported as *ProviderError.
type ModelClient interface {
	Generate(ctx context.Context, model string, messages []ChatMessage) (string, error)
}

// RouterClient dispatches model calls to the right backend by model ID.
// "ollama/<name>" goes to a local Ollama endpoint, everything else to
// OpenRouter.
type RouterClient struct {
	openRouterURL string
	openRouterKey string
	ollamaURL     string
	timeout       time.Duration
}

// NewRouterClient creates a client from the loaded process configuration
func NewRouterClient() *RouterClient {
	return &RouterClient{
		openRouterURL: OpenRouterAPIURL,
		openRouterKey: OpenRouterAPIKey,
		ollamaURL:     OllamaAPIURL,
		timeout:       ModelQueryTimeout,
	}
}

// Generate queries a single model and returns its response text.
// Returns *ProviderError on any failure.
func (c *RouterClient) Generate(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	var content string
	var err error

	if isOllamaModel(model) {
		content, err = c.queryOllama(ctx, model, messages)
	} else {
		content, err = c.queryOpenRouter(ctx, model, messages)
	}

	if err != nil {
		return "", &ProviderError{Model: model, Err: err}
	}
	return content, nil
}

// isOllamaModel reports whether the model string targets a local Ollama
// model. Convention: "ollama/<model_name>" in the council roster.
func isOllamaModel(model string) bool {
	return strings.HasPrefix(model, "ollama/")
}

// queryOpenRouter calls the OpenRouter chat completions API
func (c *RouterClient) queryOpenRouter(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	payload := OpenRouterRequest{
		Model:    model,
		Messages: messages,
	}

	body, err := c.postJSON(ctx, c.openRouterURL, payload, map[string]string{
		"Authorization": "Bearer " + c.openRouterKey,
	})
	if err != nil {
		return "", err
	}

	var apiResponse OpenRouterAPIResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return apiResponse.Choices[0].Message.Content, nil
}

// queryOllama calls the Ollama chat HTTP API.
// Docs: https://github.com/ollama/ollama/blob/main/docs/api.md#chat
func (c *RouterClient) queryOllama(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	if c.ollamaURL == "" {
		return "", fmt.Errorf("ollama model requested but OLLAMA_API_URL is not set")
	}

	// Strip the provider prefix so users can list "ollama/llama3" etc.
	rawModel := model
	if i := strings.Index(model, "/"); i >= 0 {
		rawModel = model[i+1:]
	}

	payload := OllamaRequest{
		Model:    rawModel,
		Messages: messages,
		Stream:   false,
	}

	body, err := c.postJSON(ctx, c.ollamaURL+"/api/chat", payload, nil)
	if err != nil {
		return "", err
	}

	var apiResponse OllamaAPIResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return apiResponse.Message.Content, nil
}

// postJSON sends a JSON POST request and returns the response body.
// Non-200 status codes are errors carrying the response body text.
func (c *RouterClient) postJSON(ctx context.Context, url string, payload interface{}, headers map[string]string) ([]byte, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: c.timeout,
	}

	// Marshal payload to JSON
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// Make the request
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return bodyBytes, nil
}
