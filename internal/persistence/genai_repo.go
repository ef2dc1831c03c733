package persistence

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixbrock/chartlint/internal/app"
	"github.com/felixbrock/chartlint/internal/domain"
	"google.golang.org/genai"
)

// GenAIRepo completes chat messages with Google's Gemini API.
type GenAIRepo struct {
	client *genai.Client
}

// NewGenAIRepo connects to the Gemini API. An empty baseUrl keeps the SDK's
// default endpoint.
func NewGenAIRepo(ctx context.Context, apiKey string, baseUrl string, httpClient *http.Client) (*GenAIRepo, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseUrl},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIRepo{client: client}, nil
}

func decodeDataUrl(url string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, "", fmt.Errorf("unsupported image url %q", url)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", errors.New("image url is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}

// toGenAIContents moves system messages into the system instruction and maps
// every other message to user content.
func toGenAIContents(msgs []app.Message) (*genai.Content, []*genai.Content, error) {
	var system *genai.Content
	var contents []*genai.Content

	for _, m := range msgs {
		parts := make([]*genai.Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.ImageUrl == "" {
				parts = append(parts, genai.NewPartFromText(p.Text))
				continue
			}
			data, mimeType, err := decodeDataUrl(p.ImageUrl)
			if err != nil {
				return nil, nil, err
			}
			parts = append(parts, genai.NewPartFromBytes(data, mimeType))
		}

		if m.Role == app.RoleSystem {
			system = genai.NewContentFromParts(parts, genai.RoleUser)
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return system, contents, nil
}

func (r *GenAIRepo) Complete(ctx context.Context, profile app.Profile, msgs []app.Message) (string, error) {
	system, contents, err := toGenAIContents(msgs)
	if err != nil {
		return "", &domain.InferenceError{Stage: profile.Name, Err: err}
	}

	resp, err := r.client.Models.GenerateContent(ctx, profile.Model, contents, &genai.GenerateContentConfig{
		SystemInstruction: system,
		MaxOutputTokens:   int32(profile.MaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.InferenceError{Stage: profile.Name, StatusCode: apiErr.Code, Err: err}
		}
		return "", &domain.InferenceError{Stage: profile.Name, Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &domain.InferenceError{Stage: profile.Name, StatusCode: 200, Err: errors.New("empty completion error")}
	}

	if resp.UsageMetadata != nil {
		slog.Debug("completion received",
			"model", profile.Model,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}

	return text, nil
}
