// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/interfaces"
	"github.com/bobmcallan/pagoda/internal/models"
)

const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultRateLimit = 2 // requests per second
)

// Client implements the VisionClient interface
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit caps outbound requests per second
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client:  genaiClient,
		model:   DefaultModel,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close closes the client
func (c *Client) Close() error {
	// The genai client doesn't have a Close method
	return nil
}

// AnalyzeImage asks the model whether the photo shows a dish and, if so,
// for a description of its ingredients and cooking method.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (*models.VisionReport, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	c.logger.Debug().Str("model", c.model).Int("bytes", len(image)).Str("mime", mimeType).Msg("Analysing image")

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(visionUserPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(visionSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.1),
	}

	text, err := c.generate(ctx, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to analyse image: %w", err)
	}
	return parseVisionReport(text)
}

// Summarize maps a vision report onto the pagoda nutrition vector.
func (c *Client) Summarize(ctx context.Context, visionReport string) (*models.Report, error) {
	c.logger.Debug().Str("model", c.model).Int("report_len", len(visionReport)).Msg("Summarising vision report")

	contents := genai.Text(buildSummarizePrompt(visionReport))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(summarizeSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	}

	text, err := c.generate(ctx, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise report: %w", err)
	}
	return models.ParseReport(text)
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}

// parseVisionReport decodes the structured vision response. A response
// claiming validity without any report text is treated as invalid.
func parseVisionReport(text string) (*models.VisionReport, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var vr models.VisionReport
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &vr); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	vr.Reason = strings.TrimSpace(vr.Reason)
	vr.Report = strings.TrimSpace(vr.Report)

	if vr.IsValid && vr.Report == "" {
		vr.IsValid = false
		if vr.Reason == "" {
			vr.Reason = "no dish could be identified"
		}
	}
	return &vr, nil
}

// Ensure Client implements VisionClient
var _ interfaces.VisionClient = (*Client)(nil)
