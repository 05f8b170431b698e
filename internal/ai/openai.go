// Package ai drafts blog posts, social posts, and review replies by
// calling a language model provider.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

// OpenAIConfig configures the OpenAI-backed generator. MaxTokens caps
// the completion budget for long-form drafts; short-form calls use a
// fraction of it.
type OpenAIConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
	MaxTokens     int
	MinInterval   time.Duration
}

// OpenAIGenerator implements core.ContentGenerator on the OpenAI chat API.
// When the primary model errors the fallback model gets one attempt.
type OpenAIGenerator struct {
	client    openai.Client
	model     string
	fallback  string
	maxTokens int64
	pace      *pacer
	log       *zap.Logger
}

// NewOpenAIGenerator constructs an OpenAIGenerator.
func NewOpenAIGenerator(cfg OpenAIConfig, log *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = "gpt-4o-mini"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	return &OpenAIGenerator{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		fallback:  fallback,
		maxTokens: maxTokens,
		pace:      newPacer(cfg.MinInterval),
		log:       log,
	}, nil
}

func (g *OpenAIGenerator) GenerateBlogPost(ctx context.Context, brief core.BlogBrief) (core.BlogDraft, error) {
	raw, err := g.complete(ctx, blogSystemPrompt, buildBlogPrompt(brief), g.maxTokens)
	if err != nil {
		return core.BlogDraft{}, err
	}
	return parseBlogDraft(raw)
}

func (g *OpenAIGenerator) GenerateSocialPost(ctx context.Context, brief core.SocialBrief) (core.SocialPost, error) {
	raw, err := g.complete(ctx, socialSystemPrompt, buildSocialPrompt(brief), g.shortBudget(8))
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

func (g *OpenAIGenerator) GenerateReviewReply(ctx context.Context, review core.Review, client core.Client) (string, error) {
	raw, err := g.complete(ctx, reviewSystemPrompt, buildReviewReplyPrompt(review, client), g.shortBudget(20))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// shortBudget splits the configured budget down for short-form calls,
// keeping a floor so tiny budgets still produce usable output.
func (g *OpenAIGenerator) shortBudget(divisor int64) int64 {
	budget := g.maxTokens / divisor
	if budget < 200 {
		budget = 200
	}
	return budget
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string, maxTokens int64) (string, error) {
	if err := g.pace.wait(ctx); err != nil {
		return "", err
	}
	raw, err := g.call(ctx, g.model, system, user, maxTokens)
	if err == nil {
		return raw, nil
	}
	g.log.Warn("primary model failed, trying fallback",
		zap.String("model", g.model),
		zap.String("fallback", g.fallback),
		zap.Error(err))
	raw, fbErr := g.call(ctx, g.fallback, system, user, maxTokens)
	if fbErr != nil {
		return "", fmt.Errorf("chat completion (%s, fallback %s): %w", g.model, g.fallback, fbErr)
	}
	return raw, nil
}

func (g *OpenAIGenerator) call(ctx context.Context, model, system, user string, maxTokens int64) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}
