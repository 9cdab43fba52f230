package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestParseVisionReport_Valid(t *testing.T) {
	vr, err := parseVisionReport("```json\n{\"is_valid\": true, \"reason\": \"\", \"report\": \" 西红柿炒鸡蛋：番茄200g，鸡蛋100g \"}\n```")
	require.NoError(t, err)
	assert.True(t, vr.IsValid)
	assert.Equal(t, "西红柿炒鸡蛋：番茄200g，鸡蛋100g", vr.Report)
}

func TestParseVisionReport_Invalid(t *testing.T) {
	vr, err := parseVisionReport(`{"is_valid": false, "reason": "图片模糊", "report": ""}`)
	require.NoError(t, err)
	assert.False(t, vr.IsValid)
	assert.Equal(t, "图片模糊", vr.Reason)
}

func TestParseVisionReport_ValidWithoutReportIsInvalid(t *testing.T) {
	vr, err := parseVisionReport(`{"is_valid": true, "reason": "", "report": "   "}`)
	require.NoError(t, err)
	assert.False(t, vr.IsValid)
	assert.NotEmpty(t, vr.Reason)
}

func TestParseVisionReport_Garbage(t *testing.T) {
	_, err := parseVisionReport("I cannot help with that")
	assert.Error(t, err)
}

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: `{"dish_name":`},
				{Text: `"面条"}`},
			}},
		}},
	}
	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"dish_name":"面条"}`, text)

	_, err = extractTextFromResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = extractTextFromResponse(nil)
	assert.Error(t, err)
}

func TestBuildSummarizePrompt(t *testing.T) {
	p := buildSummarizePrompt("番茄200g")
	assert.Contains(t, p, "番茄200g")
	assert.Contains(t, p, "L1-L5")
}

func TestClientOptions(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key",
		WithModel("gemini-custom"),
		WithRateLimit(5),
		WithModel(""),
	)
	require.NoError(t, err)
	assert.Equal(t, "gemini-custom", c.model)
	assert.Equal(t, 5, c.limiter.Burst())
	assert.NoError(t, c.Close())
}

func TestAnalyzeImage_EmptyImage(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key")
	require.NoError(t, err)

	_, err = c.AnalyzeImage(context.Background(), nil, "image/jpeg")
	assert.Error(t, err)
}
