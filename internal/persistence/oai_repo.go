package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixbrock/chartlint/internal/app"
	"github.com/felixbrock/chartlint/internal/domain"
)

// OAIRepo completes chat messages against an OpenAI compatible endpoint.
type OAIRepo struct {
	BaseHeaders []string
	BaseUrl     string
	Client      *http.Client
}

func NewOAIRepo(apiKey string, baseUrl string, client *http.Client) OAIRepo {
	if client == nil {
		client = http.DefaultClient
	}
	return OAIRepo{
		BaseHeaders: []string{
			"Content-Type:application/json",
			fmt.Sprintf("Authorization:Bearer %s", apiKey)},
		BaseUrl: strings.TrimSuffix(baseUrl, "/"),
		Client:  client,
	}
}

type oaiImageUrl struct {
	Url string `json:"url"`
}

type oaiContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageUrl *oaiImageUrl `json:"image_url,omitempty"`
}

// oaiMessage content is either a plain string or a list of parts.
type oaiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type oaiChatReq struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []oaiMessage `json:"messages"`
}

type oaiChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type oaiCompletion struct {
	Id      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []oaiChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func toOAIMessages(msgs []app.Message) []oaiMessage {
	converted := make([]oaiMessage, len(msgs))
	for i, m := range msgs {
		hasImage := false
		for _, p := range m.Parts {
			if p.ImageUrl != "" {
				hasImage = true
			}
		}

		if !hasImage {
			converted[i] = oaiMessage{Role: string(m.Role), Content: m.Text()}
			continue
		}

		parts := make([]oaiContentPart, len(m.Parts))
		for j, p := range m.Parts {
			if p.ImageUrl != "" {
				parts[j] = oaiContentPart{Type: "image_url", ImageUrl: &oaiImageUrl{Url: p.ImageUrl}}
			} else {
				parts[j] = oaiContentPart{Type: "text", Text: p.Text}
			}
		}
		converted[i] = oaiMessage{Role: string(m.Role), Content: parts}
	}
	return converted
}

func (r OAIRepo) Complete(ctx context.Context, profile app.Profile, msgs []app.Message) (string, error) {
	body, err := json.Marshal(oaiChatReq{Model: profile.Model, MaxTokens: profile.MaxTokens, Messages: toOAIMessages(msgs)})

	if err != nil {
		return "", &domain.InferenceError{Stage: profile.Name, Err: err}
	}

	url := fmt.Sprintf("%s/chat/completions", r.BaseUrl)
	completion, err := request[oaiCompletion](ctx, r.Client, reqConfig{Method: "POST", Url: url, Headers: r.BaseHeaders, Body: body}, http.StatusOK)

	if err != nil {
		var statusErr *statusError
		var decodeErr *decodeError
		switch {
		case errors.As(err, &statusErr):
			return "", &domain.InferenceError{Stage: profile.Name, StatusCode: statusErr.Code, Err: err}
		case errors.As(err, &decodeErr):
			return "", &domain.InferenceError{Stage: profile.Name, StatusCode: decodeErr.Code, Err: err}
		}
		return "", &domain.InferenceError{Stage: profile.Name, Err: err}
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", &domain.InferenceError{Stage: profile.Name, StatusCode: http.StatusOK, Err: errors.New("empty completion choices error")}
	}

	slog.Debug("completion received",
		"model", completion.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"finish_reason", completion.Choices[0].FinishReason)

	return completion.Choices[0].Message.Content, nil
}
