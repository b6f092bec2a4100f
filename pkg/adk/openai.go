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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string

	// Attempts per HTTP call, including the first one.
	Attempts   int
	RetryDelay time.Duration

	httpClient *http.Client
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultModel("openai")
	}
	return &OpenAIProvider{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    defaultOpenAIBaseURL,
		Attempts:   2,
		RetryDelay: time.Second,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API returned status: %s", resp.Status)
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	var models []string
	for _, m := range result.Data {
		if strings.HasPrefix(m.ID, "gpt") || strings.HasPrefix(m.ID, "o") {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

type responsesRequest struct {
	Model           string            `json:"model"`
	Instructions    string            `json:"instructions,omitempty"`
	Input           string            `json:"input"`
	Temperature     *float64          `json:"temperature,omitempty"`
	MaxOutputTokens int               `json:"max_output_tokens,omitempty"`
	Reasoning       *reasoningOptions `json:"reasoning,omitempty"`
}

type reasoningOptions struct {
	Effort string `json:"effort"`
}

type responsesResponse struct {
	Status     string `json:"status"`
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Primary uses the Responses API.
func (p *OpenAIProvider) Primary(ctx context.Context, r Request) (string, error) {
	payload := responsesRequest{
		Model:           p.model(r),
		Instructions:    r.System,
		Input:           r.User,
		Temperature:     r.Temperature,
		MaxOutputTokens: r.MaxOutputTokens,
	}
	if r.ReasoningEffort != "" && IsReasoningModel(payload.Model) {
		payload.Reasoning = &reasoningOptions{Effort: r.ReasoningEffort}
	}

	body, err := p.post(ctx, "/responses", payload)
	if err != nil {
		return "", err
	}

	var out responsesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &ServiceCallError{Kind: KindParse, Err: err}
	}
	if text := strings.TrimSpace(out.OutputText); text != "" {
		return text, nil
	}
	for _, o := range out.Output {
		for _, c := range o.Content {
			if strings.TrimSpace(c.Text) != "" {
				return c.Text, nil
			}
		}
	}
	return "", &ServiceCallError{Kind: KindEmptyResponse, Err: fmt.Errorf("openai: empty response (status %q)", out.Status)}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// Secondary uses Chat Completions.
func (p *OpenAIProvider) Secondary(ctx context.Context, r Request) (string, error) {
	payload := chatRequest{
		Model: p.model(r),
		Messages: []chatMessage{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.User},
		},
		Temperature: r.Temperature,
	}

	body, err := p.post(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &ServiceCallError{Kind: KindParse, Err: err}
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", &ServiceCallError{Kind: KindEmptyResponse, Err: errors.New("openai: no choices returned")}
	}
	return result.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) model(r Request) string {
	if r.Model != "" {
		return r.Model
	}
	return p.Model
}

func (p *OpenAIProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	_, body, err := doWithRetry(ctx, p.Attempts, p.RetryDelay, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
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
		return nil, CallError(fmt.Errorf("openai %s: %w", path, err))
	}
	return body, nil
}
