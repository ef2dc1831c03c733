package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixbrock/chartlint/internal/app"
	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = app.Profile{Name: "classify", Model: "gpt-4o-mini", MaxTokens: 50}

func TestOAIRepo_Complete(t *testing.T) {
	var got map[string]any
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","model":"gpt-4o-mini","choices":[{"message":{"content":" Bar Plot\n"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":2}}`)
	}))
	defer srv.Close()

	repo := NewOAIRepo("sk-test", srv.URL+"/v1/", srv.Client())
	msgs := app.NewPrompt(domain.CodeArtifact("plt.bar(x, y)")).Classification()

	text, err := repo.Complete(context.Background(), profile, msgs)
	require.NoError(t, err)

	assert.Equal(t, " Bar Plot\n", text)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, float64(50), got["max_tokens"])

	sent := got["messages"].([]any)
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].(map[string]any)["role"])
	assert.Equal(t, msgs[1].Text(), sent[1].(map[string]any)["content"])
}

func TestOAIRepo_ImageParts(t *testing.T) {
	img := domain.Image{Filename: "chart.png", MimeType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}
	msgs := app.NewPrompt(domain.ImageArtifact(img)).Critique("HISTOGRAM RULES")

	converted := toOAIMessages(msgs)
	require.Len(t, converted, 2)
	assert.Equal(t, msgs[0].Text(), converted[0].Content)

	parts, ok := converted[1].Content.([]oaiContentPart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Contains(t, parts[0].Text, "HISTOGRAM RULES")
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", parts[1].ImageUrl.Url)
}

func TestOAIRepo_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      int
		retryable bool
	}{
		{name: "rate limited", status: 429, body: `{"error":{"message":"slow down"}}`, code: 429, retryable: true},
		{name: "bad key", status: 401, body: `{"error":{"message":"invalid key"}}`, code: 401, retryable: false},
		{name: "server error", status: 502, body: `bad gateway`, code: 502, retryable: true},
		{name: "malformed body", status: 200, body: `<html>proxy error page</html>`, code: 200, retryable: false},
		{name: "empty body", status: 200, body: ``, code: 200, retryable: false},
		{name: "no choices", status: 200, body: `{"id":"c1","choices":[]}`, code: 200, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			repo := NewOAIRepo("sk-test", srv.URL, srv.Client())
			_, err := repo.Complete(context.Background(), profile, app.NewPrompt(domain.CodeArtifact("x")).Classification())

			var inferenceErr *domain.InferenceError
			require.True(t, errors.As(err, &inferenceErr))
			assert.Equal(t, "classify", inferenceErr.Stage)
			assert.Equal(t, tt.code, inferenceErr.StatusCode)
			assert.Equal(t, tt.retryable, inferenceErr.Retryable())
		})
	}
}

func TestOAIRepo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	repo := NewOAIRepo("sk-test", url, nil)
	_, err := repo.Complete(context.Background(), profile, app.NewPrompt(domain.CodeArtifact("x")).Classification())

	var inferenceErr *domain.InferenceError
	require.ErrorAs(t, err, &inferenceErr)
	assert.Zero(t, inferenceErr.StatusCode)
	assert.True(t, inferenceErr.Retryable())
}
