package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ackwest/seoengine/internal/core"
)

type blogPayload struct {
	Title             string         `json:"title"`
	MetaTitle         string         `json:"meta_title"`
	MetaDescription   string         `json:"meta_description"`
	Body              string         `json:"body"`
	Excerpt           string         `json:"excerpt"`
	SecondaryKeywords []string       `json:"secondary_keywords"`
	FAQ               []core.FAQItem `json:"faq"`
}

type socialPayload struct {
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// parseBlogDraft decodes a model response into a draft. Models wrap JSON
// in markdown fences often enough that we strip them first.
func parseBlogDraft(raw string) (core.BlogDraft, error) {
	var payload blogPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return core.BlogDraft{}, fmt.Errorf("decode blog response: %w", err)
	}
	if payload.Title == "" || payload.Body == "" {
		return core.BlogDraft{}, fmt.Errorf("blog response missing title or body")
	}
	return core.BlogDraft{
		Title:             payload.Title,
		MetaTitle:         payload.MetaTitle,
		MetaDescription:   payload.MetaDescription,
		Body:              payload.Body,
		Excerpt:           payload.Excerpt,
		SecondaryKeywords: payload.SecondaryKeywords,
		FAQ:               payload.FAQ,
	}, nil
}

func parseSocialContent(raw string) (string, []string, error) {
	var payload socialPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return "", nil, fmt.Errorf("decode social response: %w", err)
	}
	if payload.Content == "" {
		return "", nil, fmt.Errorf("social response missing content")
	}
	return payload.Content, payload.Hashtags, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
