package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixbrock/chartlint/internal/app"
	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenAIRepo_RequiresKey(t *testing.T) {
	_, err := NewGenAIRepo(context.Background(), "", "", nil)
	assert.Error(t, err)
}

var geminiProfile = app.Profile{Name: "critique", Model: "gemini-2.5-flash", MaxTokens: 1000}

func newTestGenAIRepo(t *testing.T, handler http.HandlerFunc) *GenAIRepo {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	repo, err := NewGenAIRepo(context.Background(), "gm-test", srv.URL, srv.Client())
	require.NoError(t, err)
	return repo
}

func TestGenAIRepo_Complete(t *testing.T) {
	var got map[string]any
	var path, key string

	repo := newTestGenAIRepo(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Use fewer slices."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":120,"candidatesTokenCount":4}}`)
	})

	msgs := app.NewPrompt(domain.CodeArtifact("plt.pie(x)")).Critique("PIE RULES")

	text, err := repo.Complete(context.Background(), geminiProfile, msgs)
	require.NoError(t, err)

	assert.Equal(t, "Use fewer slices.", text)
	assert.Equal(t, "gm-test", key)
	assert.True(t, strings.HasSuffix(path, "gemini-2.5-flash:generateContent"), path)

	generation, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1000), generation["maxOutputTokens"])

	system, ok := got["systemInstruction"].(map[string]any)
	require.True(t, ok)
	systemParts := system["parts"].([]any)
	require.Len(t, systemParts, 1)
	assert.Equal(t, msgs[0].Text(), systemParts[0].(map[string]any)["text"])

	contents := got["contents"].([]any)
	require.Len(t, contents, 1)
	userParts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, userParts, 1)
	assert.Contains(t, userParts[0].(map[string]any)["text"], "PIE RULES")
}

func TestGenAIRepo_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      int
		retryable bool
	}{
		{name: "rate limited", status: 429, body: `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, code: 429, retryable: true},
		{name: "bad key", status: 401, body: `{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`, code: 401, retryable: false},
		{name: "server error", status: 503, body: `unavailable`, code: 503, retryable: true},
		{name: "no candidates", status: 200, body: `{"candidates":[]}`, code: 200, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestGenAIRepo(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := repo.Complete(context.Background(), geminiProfile, app.NewPrompt(domain.CodeArtifact("x")).Classification())

			var inferenceErr *domain.InferenceError
			require.True(t, errors.As(err, &inferenceErr))
			assert.Equal(t, "critique", inferenceErr.Stage)
			assert.Equal(t, tt.code, inferenceErr.StatusCode)
			assert.Equal(t, tt.retryable, inferenceErr.Retryable())
		})
	}
}

func TestToGenAIContents(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\n")
	msgs := app.NewPrompt(domain.ImageArtifact(domain.Image{Filename: "c.png", MimeType: "image/png", Data: data})).Critique("RULES")

	system, contents, err := toGenAIContents(msgs)
	require.NoError(t, err)

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, msgs[0].Text(), system.Parts[0].Text)

	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 2)
	assert.Contains(t, contents[0].Parts[0].Text, "RULES")
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, data, contents[0].Parts[1].InlineData.Data)
}

func TestDecodeDataUrl(t *testing.T) {
	data, mimeType, err := decodeDataUrl("data:image/jpeg;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("hi"), data)

	_, _, err = decodeDataUrl("https://example.com/chart.png")
	assert.Error(t, err)

	_, _, err = decodeDataUrl("data:image/png,raw")
	assert.Error(t, err)
}
