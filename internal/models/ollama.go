package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"

	"github.com/dohr-michael/sidekick/internal/config"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llava"
)

// NewOllama creates a gateway against a local or remote Ollama server.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (*EinoGateway, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOllamaModel
	}

	modelConfig := &einoollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelName,
	}

	if d := cfg.Timeout.Duration(); d > 0 {
		modelConfig.Timeout = d
	} else {
		modelConfig.Timeout = 300 * time.Second
	}

	maxTokens := maxTokensOr(cfg.MaxTokens)
	opts := &einoollama.Options{NumPredict: maxTokens}

	if len(cfg.Options) > 0 {
		if temp, ok := cfg.Options["temperature"].(float64); ok {
			opts.Temperature = float32(temp)
		}
		if numCtx, ok := cfg.Options["num_ctx"].(float64); ok {
			opts.NumCtx = int(numCtx)
		}
		if topP, ok := cfg.Options["top_p"].(float64); ok {
			opts.TopP = float32(topP)
		}
		if topK, ok := cfg.Options["top_k"].(float64); ok {
			opts.TopK = int(topK)
		}
	}

	modelConfig.Options = opts

	name := "ollama/" + modelName

	// Reverse proxies in front of Ollama answer with plain text errors; surface them as service errors.
	modelConfig.HTTPClient = &http.Client{
		Timeout:   modelConfig.Timeout,
		Transport: &ollamaTransport{inner: http.DefaultTransport, provider: name},
	}

	m, err := einoollama.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, err
	}
	return NewEinoGateway(name, m, maxTokens), nil
}

// ollamaTransport turns non-JSON or non-2xx responses into typed errors before
// the client library tries to decode them.
type ollamaTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *ollamaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &TransportError{Provider: t.provider, Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, t.reject(resp, fmt.Sprintf("%d", resp.StatusCode))
	}

	// Ollama sends application/x-ndjson for streaming, application/json otherwise.
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "json") {
		return nil, t.reject(resp, "unavailable")
	}

	return resp, nil
}

func (t *ollamaTransport) reject(resp *http.Response, code string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()
	return &ServiceError{
		Provider: t.provider,
		Code:     code,
		Message:  strings.TrimSpace(string(body)),
	}
}
