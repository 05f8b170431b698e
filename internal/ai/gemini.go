package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ackwest/seoengine/internal/core"
)

// GeminiConfig configures the Gemini-backed generator. MaxTokens caps
// the output budget per generation.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	MinInterval time.Duration
}

// GeminiGenerator implements core.ContentGenerator on the Gemini API.
type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int32
	pace      *pacer
	log       *zap.Logger
}

// NewGeminiGenerator constructs a GeminiGenerator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, log *zap.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	maxTokens := int32(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &GeminiGenerator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		pace:      newPacer(cfg.MinInterval),
		log:       log,
	}, nil
}

func (g *GeminiGenerator) GenerateBlogPost(ctx context.Context, brief core.BlogBrief) (core.BlogDraft, error) {
	raw, err := g.generate(ctx, blogSystemPrompt, buildBlogPrompt(brief))
	if err != nil {
		return core.BlogDraft{}, err
	}
	return parseBlogDraft(raw)
}

func (g *GeminiGenerator) GenerateSocialPost(ctx context.Context, brief core.SocialBrief) (core.SocialPost, error) {
	raw, err := g.generate(ctx, socialSystemPrompt, buildSocialPrompt(brief))
	if err != nil {
		return core.SocialPost{}, err
	}
	content, hashtags, err := parseSocialContent(raw)
	if err != nil {
		return core.SocialPost{}, err
	}
	return core.SocialPost{
		Platform: brief.Platform,
		Content:  content,
		Hashtags: hashtags,
		LinkURL:  brief.LinkURL,
		Status:   core.ContentStatusDraft,
	}, nil
}

func (g *GeminiGenerator) GenerateReviewReply(ctx context.Context, review core.Review, client core.Client) (string, error) {
	raw, err := g.generate(ctx, reviewSystemPrompt, buildReviewReplyPrompt(review, client))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (g *GeminiGenerator) generate(ctx context.Context, system, user string) (string, error) {
	if err := g.pace.wait(ctx); err != nil {
		return "", err
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.7),
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", g.model, err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return text, nil
}
