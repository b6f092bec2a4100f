package adk

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
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 1024
)

type AnthropicProvider struct {
	APIKey  string
	Model   string
	BaseURL string

	Attempts   int
	RetryDelay time.Duration

	httpClient *http.Client
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = DefaultModel("anthropic")
	}
	return &AnthropicProvider{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    defaultAnthropicBaseURL,
		Attempts:   2,
		RetryDelay: time.Second,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	// No dynamic listing; return the supported set.
	return []string{
		"claude-sonnet-4-5",
		"claude-opus-4-5",
		"claude-haiku-4-5",
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

// Primary sends the system prompt separately and honours temperature.
func (p *AnthropicProvider) Primary(ctx context.Context, r Request) (string, error) {
	return p.send(ctx, anthropicRequest{
		Model:       p.model(r),
		System:      r.System,
		Messages:    []anthropicMessage{{Role: "user", Content: r.User}},
		MaxTokens:   maxTokens(r.MaxOutputTokens),
		Temperature: r.Temperature,
	})
}

// Secondary folds the system prompt into the single user turn.
func (p *AnthropicProvider) Secondary(ctx context.Context, r Request) (string, error) {
	content := r.User
	if r.System != "" {
		content = r.System + "\n\n" + r.User
	}
	return p.send(ctx, anthropicRequest{
		Model:     p.model(r),
		Messages:  []anthropicMessage{{Role: "user", Content: content}},
		MaxTokens: maxTokens(r.MaxOutputTokens),
	})
}

func (p *AnthropicProvider) send(ctx context.Context, payload anthropicRequest) (string, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	_, body, err := doWithRetry(ctx, p.Attempts, p.RetryDelay, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/messages", bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", p.APIKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		resp, err := p.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, b, &StatusError{Code: resp.StatusCode, Body: truncatePayload(b, 512)}
		}
		return resp.StatusCode, b, nil
	})
	if err != nil {
		return "", CallError(fmt.Errorf("anthropic messages: %w", err))
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &ServiceCallError{Kind: KindParse, Err: err}
	}
	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &ServiceCallError{Kind: KindEmptyResponse, Err: errors.New("anthropic: empty content")}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) model(r Request) string {
	if r.Model != "" {
		return r.Model
	}
	return p.Model
}

func maxTokens(n int) int {
	if n > 0 {
		return n
	}
	return anthropicMaxTokens
}
