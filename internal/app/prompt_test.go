package app

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/felixbrock/chartlint/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func imageArtifact() domain.Artifact {
	return domain.ImageArtifact(domain.Image{Filename: "chart.png", MimeType: "image/png", Data: pngHeader, Url: "/static/images/chart.png"})
}

func TestPrompt_ClassificationCode(t *testing.T) {
	msgs := NewPrompt(domain.CodeArtifact("plt.pie([1,2,3])")).Classification()

	want := []Message{
		{Role: RoleSystem, Parts: []Part{{Text: detectorPersona}}},
		{Role: RoleUser, Parts: []Part{{Text: detectionPrompt + "\n\nChart Code:\nplt.pie([1,2,3])"}}},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("classification messages mismatch (-want +got):\n%s", diff)
	}
}

func TestPrompt_ClassificationHasNoCritiqueInstructions(t *testing.T) {
	for _, a := range []domain.Artifact{domain.CodeArtifact("plt.hist(x)"), imageArtifact()} {
		for _, m := range NewPrompt(a).Classification() {
			text := m.Text()
			assert.NotContains(t, text, linterPersona)
			assert.NotContains(t, text, "Steps:")
			assert.NotContains(t, text, "data-ink")
		}
	}
}

func TestPrompt_ClassificationImage(t *testing.T) {
	msgs := NewPrompt(imageArtifact()).Classification()

	require.Len(t, msgs, 2)
	require.Len(t, msgs[1].Parts, 2)
	assert.Equal(t, detectionPrompt, msgs[1].Parts[0].Text)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngHeader), msgs[1].Parts[1].ImageUrl)
}

func TestPrompt_CritiqueCode(t *testing.T) {
	rules := "Pie Chart rules:\nNumber of slices: no more than 5-7."
	msgs := NewPrompt(domain.CodeArtifact("plt.pie([1,2,3])")).Critique(rules)

	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, linterPersona, msgs[0].Text())

	user := msgs[1].Text()
	assert.Contains(t, user, rules)
	assert.True(t, strings.HasPrefix(user, methodology))
	assert.Contains(t, user, "\n\nChart Code:\nplt.pie([1,2,3])")
	assert.True(t, strings.HasSuffix(user, dataInkFix))
}

func TestPrompt_CritiqueCarriesThresholdExamples(t *testing.T) {
	user := NewPrompt(domain.CodeArtifact("sns.violinplot(data=df)")).Critique("General chart rules:")[1].Text()

	assert.Contains(t, user, "Examples of thresholds for different rules might include:")
	assert.Contains(t, user, "Pie charts should have no more than 5-7 slices.")
	assert.Contains(t, user, "A treemap with more than 20 blocks may become too crowded to interpret effectively.")
	assert.Less(t, strings.Index(user, "Examples of thresholds"), strings.Index(user, "General chart rules:"))
}

func TestPrompt_CritiqueIsDeterministic(t *testing.T) {
	p := NewPrompt(domain.CodeArtifact("plt.plot(x, y)"))
	assert.Equal(t, p.Critique("rules"), p.Critique("rules"))
}

func TestPrompt_CritiqueImage(t *testing.T) {
	rules := "Histogram rules:\nNumber of bins: between 5 and 20."
	p := NewPrompt(imageArtifact())
	msgs := p.Critique(rules)

	require.Len(t, msgs, 2)
	assert.Equal(t, linterPersona, msgs[0].Text())

	user := msgs[1]
	require.Len(t, user.Parts, 2)
	assert.Contains(t, user.Parts[0].Text, rules)
	assert.NotContains(t, user.Text(), dataInkFix)
	assert.NotContains(t, user.Text(), "Chart Code:")

	// Both requests carry the same encoded image.
	assert.Equal(t, p.Classification()[1].Parts[1].ImageUrl, user.Parts[1].ImageUrl)
}
