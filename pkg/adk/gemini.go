package adk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

func NewGeminiProvider(ctx context.Context, apiKey string, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = DefaultModel("gemini")
	}

	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (g *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// m.Name is like "models/gemini-pro"
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// Primary calls GenerateContent with a system instruction, generation config
// and a JSON response MIME type. A fresh GenerativeModel is built per call so
// concurrent requests never share configuration.
func (g *GeminiProvider) Primary(ctx context.Context, r Request) (string, error) {
	model := g.client.GenerativeModel(g.model(r))
	if r.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(r.System)}}
	}
	if r.Temperature != nil {
		model.SetTemperature(float32(*r.Temperature))
	}
	if r.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(r.MaxOutputTokens))
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(r.User))
	if err != nil {
		return "", CallError(fmt.Errorf("gemini generate: %w", err))
	}
	return responseText(resp)
}

// Secondary sends system and user text as one chat turn with no generation config.
func (g *GeminiProvider) Secondary(ctx context.Context, r Request) (string, error) {
	session := g.client.GenerativeModel(g.model(r)).StartChat()
	prompt := r.User
	if r.System != "" {
		prompt = r.System + "\n\n" + r.User
	}
	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", CallError(fmt.Errorf("gemini chat: %w", err))
	}
	return responseText(resp)
}

func (g *GeminiProvider) model(r Request) string {
	if r.Model != "" {
		return strings.TrimPrefix(r.Model, "models/")
	}
	return g.modelName
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ServiceCallError{Kind: KindEmptyResponse, Err: errors.New("gemini: no response candidates")}
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", &ServiceCallError{Kind: KindEmptyResponse, Err: errors.New("gemini: empty text")}
	}
	return sb.String(), nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
