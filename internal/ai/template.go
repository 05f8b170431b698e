package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/ackwest/seoengine/internal/core"
)

// TemplateGenerator is the deterministic fallback used when no model
// provider is configured. Drafts are serviceable skeletons meant for
// human editing, not publishing as-is.
type TemplateGenerator struct{}

// NewTemplateGenerator constructs a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) GenerateBlogPost(_ context.Context, brief core.BlogBrief) (core.BlogDraft, error) {
	if brief.Keyword == "" {
		return core.BlogDraft{}, fmt.Errorf("blog brief keyword is required")
	}
	title := fmt.Sprintf("%s in %s: A Practical Guide from %s",
		titleCase(brief.Keyword), brief.Geo, brief.BusinessName)

	var body strings.Builder
	fmt.Fprintf(&body, "<h1>%s</h1>\n", title)
	fmt.Fprintf(&body, "<p>If you are searching for %s in %s, this guide covers what to expect, what it costs, and how to choose the right %s professional for the job.</p>\n",
		brief.Keyword, brief.Geo, brief.Industry)

	sections := []struct{ heading, text string }{
		{"What To Expect", "Every job starts with an honest assessment. A good provider explains the work in plain terms, gives a written estimate, and sticks to it."},
		{"How To Choose A Provider", "Compare at least two local options. Check licensing, insurance, and recent reviews before you commit. The best choice is rarely the cheapest quote."},
		{"Common Questions", "Homeowners usually ask about timing, pricing, and guarantees. Ask up front so there are no surprises later."},
		{"Why It Pays To Act Early", "Small problems grow. Addressing them early costs less and keeps your options open."},
	}
	for _, s := range sections {
		fmt.Fprintf(&body, "<h2>%s</h2>\n<p>%s</p>\n", s.heading, s.text)
	}

	if len(brief.USPs) > 0 {
		fmt.Fprintf(&body, "<h2>Why Choose %s</h2>\n<ul>\n", brief.BusinessName)
		for _, usp := range brief.USPs {
			fmt.Fprintf(&body, "<li>%s</li>\n", usp)
		}
		body.WriteString("</ul>\n")
	}

	if len(brief.InternalLinks) > 0 {
		body.WriteString("<h2>Related Services</h2>\n<ul>\n")
		for _, page := range brief.InternalLinks {
			fmt.Fprintf(&body, "<li><a href=%q>%s</a></li>\n", page.URL, page.Title)
		}
		body.WriteString("</ul>\n")
	}

	contact := brief.Phone
	if contact == "" {
		contact = brief.Email
	}
	if contact != "" {
		fmt.Fprintf(&body, "<p>Ready to get started? Contact %s at %s today.</p>\n", brief.BusinessName, contact)
	}

	faqCount := brief.FAQCount
	if faqCount <= 0 {
		faqCount = 4
	}
	faq := buildTemplateFAQ(brief, faqCount)
	for _, item := range faq {
		fmt.Fprintf(&body, "<h3>%s</h3>\n<p>%s</p>\n", item.Question, item.Answer)
	}

	metaTitle := clampText(fmt.Sprintf("%s in %s | %s", titleCase(brief.Keyword), brief.Geo, brief.BusinessName), 60)
	metaDesc := clampText(fmt.Sprintf(
		"Looking for %s in %s? %s explains what to expect, what it costs, and how to pick the right %s pro. Get straight answers from a local team.",
		brief.Keyword, brief.Geo, brief.BusinessName, brief.Industry), 160)

	return core.BlogDraft{
		Title:           title,
		MetaTitle:       metaTitle,
		MetaDescription: metaDesc,
		Body:            body.String(),
		Excerpt:         fmt.Sprintf("What %s customers in %s should know about %s.", brief.Industry, brief.Geo, brief.Keyword),
		SecondaryKeywords: []string{
			brief.Keyword + " near me",
			brief.Keyword + " cost",
			"best " + brief.Keyword + " " + brief.Geo,
		},
		FAQ: faq,
	}, nil
}

func (g *TemplateGenerator) GenerateSocialPost(_ context.Context, brief core.SocialBrief) (core.SocialPost, error) {
	if brief.Topic == "" {
		return core.SocialPost{}, fmt.Errorf("social brief topic is required")
	}
	var content string
	switch brief.Platform {
	case core.PlatformLinkedIn:
		content = fmt.Sprintf("%s: a quick note from the %s team in %s. %s Reach out if we can help.",
			titleCase(brief.Topic), brief.BusinessName, brief.Geo, brief.Topic)
	case core.PlatformGoogle:
		content = fmt.Sprintf("%s: now at %s in %s. Call or message us to learn more.",
			titleCase(brief.Topic), brief.BusinessName, brief.Geo)
	default:
		content = fmt.Sprintf("News from %s: %s. We serve %s and nearby areas.",
			brief.BusinessName, brief.Topic, brief.Geo)
	}
	if brief.LinkURL != "" {
		content += " " + brief.LinkURL
	}
	return core.SocialPost{
		Platform: brief.Platform,
		Content:  content,
		Hashtags: []string{slugWord(brief.Geo), "localbusiness", slugWord(brief.BusinessName)},
		LinkURL:  brief.LinkURL,
		Status:   core.ContentStatusDraft,
	}, nil
}

func (g *TemplateGenerator) GenerateReviewReply(_ context.Context, review core.Review, client core.Client) (string, error) {
	name := strings.TrimSpace(review.ReviewerName)
	if name == "" {
		name = "there"
	}
	if review.Rating >= 4 {
		return fmt.Sprintf("Thank you, %s! We really appreciate you taking the time to share this. It means a lot to everyone at %s, and we look forward to helping you again.", name, client.BusinessName), nil
	}
	if review.Rating == 3 {
		return fmt.Sprintf("Thanks for the honest feedback, %s. We're glad parts of your experience went well, and we'd like to hear how we could have done better. Please reach out to us directly at %s.", name, client.BusinessName), nil
	}
	return fmt.Sprintf("%s, we're sorry your experience fell short of what you should expect from %s. We'd like the chance to make it right. Please contact us directly so the owner can follow up personally.", name, client.BusinessName), nil
}

func buildTemplateFAQ(brief core.BlogBrief, count int) []core.FAQItem {
	all := []core.FAQItem{
		{
			Question: fmt.Sprintf("How much does %s cost in %s?", brief.Keyword, brief.Geo),
			Answer:   "Pricing depends on the scope of the work. Most providers offer a free estimate, and a written quote protects you from surprises.",
		},
		{
			Question: fmt.Sprintf("How do I find a reliable %s company near me?", brief.Industry),
			Answer:   "Look for current licensing, proof of insurance, and recent reviews from customers in your area.",
		},
		{
			Question: "How long does the work usually take?",
			Answer:   "Straightforward jobs often finish the same day. Larger projects get a timeline in the estimate before work begins.",
		},
		{
			Question: fmt.Sprintf("Does %s offer emergency service?", brief.BusinessName),
			Answer:   fmt.Sprintf("Contact %s directly to confirm current availability in %s.", brief.BusinessName, brief.Geo),
		},
		{
			Question: "Is the work guaranteed?",
			Answer:   "Reputable providers stand behind their work in writing. Ask what the guarantee covers and for how long.",
		},
	}
	if count > len(all) {
		count = len(all)
	}
	return all[:count]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func clampText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}

func slugWord(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
