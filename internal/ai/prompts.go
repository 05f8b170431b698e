package ai

import (
	"fmt"
	"strings"

	"github.com/ackwest/seoengine/internal/core"
)

const blogSystemPrompt = `You are an SEO content writer for local service businesses.
You write helpful, concrete, locally-relevant articles that read like they were
written by someone who knows the trade. Respond with a single JSON object and
nothing else.`

const socialSystemPrompt = `You are a social media copywriter for local service
businesses. Respond with a single JSON object and nothing else.`

const reviewSystemPrompt = `You write short, warm, professional replies to customer
reviews on behalf of a local business owner. Respond with the reply text only.`

func buildBlogPrompt(brief core.BlogBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a blog post for %s, a %s business serving %s.\n",
		brief.BusinessName, brief.Industry, brief.Geo)
	fmt.Fprintf(&b, "Primary keyword: %q. Target length: %d words.\n", brief.Keyword, brief.WordCount)
	if brief.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", brief.Tone)
	}
	if len(brief.USPs) > 0 {
		fmt.Fprintf(&b, "Work in these selling points naturally: %s.\n", strings.Join(brief.USPs, "; "))
	}
	if len(brief.InternalLinks) > 0 {
		b.WriteString("Link to these pages where relevant:\n")
		for _, page := range brief.InternalLinks {
			fmt.Fprintf(&b, "- %s (%s)\n", page.Title, page.URL)
		}
	}
	if brief.Phone != "" || brief.Email != "" {
		fmt.Fprintf(&b, "Close with a call to action mentioning phone %s or email %s.\n", brief.Phone, brief.Email)
	}
	faqCount := brief.FAQCount
	if faqCount <= 0 {
		faqCount = 4
	}
	fmt.Fprintf(&b, `Return JSON with keys:
"title", "meta_title" (50-60 chars), "meta_description" (140-160 chars),
"body" (HTML with one h1, 3-6 h2 sections, h3 subsections),
"excerpt" (1-2 sentences), "secondary_keywords" (array of strings),
"faq" (array of %d {"question","answer"} objects).`, faqCount)
	return b.String()
}

func buildSocialPrompt(brief core.SocialBrief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write one %s post for %s (%s) about: %s.\n",
		brief.Platform, brief.BusinessName, brief.Geo, brief.Topic)
	if brief.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", brief.Tone)
	}
	switch brief.Platform {
	case core.PlatformLinkedIn:
		b.WriteString("Professional register, no emoji spam, up to 1300 characters.\n")
	case core.PlatformGoogle:
		b.WriteString("Google Business Profile update, under 1500 characters, end with a call to action.\n")
	default:
		b.WriteString("Conversational, under 400 characters, one or two emoji at most.\n")
	}
	if brief.LinkURL != "" {
		fmt.Fprintf(&b, "Reference this link: %s\n", brief.LinkURL)
	}
	b.WriteString(`Return JSON with keys "content" and "hashtags" (array, 3-5 tags without #).`)
	return b.String()
}

func buildReviewReplyPrompt(review core.Review, client core.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s (%s in %s).\n", client.BusinessName, client.Industry, client.Geo)
	fmt.Fprintf(&b, "Review by %s, %d/5 stars on %s:\n%s\n",
		review.ReviewerName, review.Rating, review.Platform, review.Text)
	if review.Rating >= 4 {
		b.WriteString("Thank them specifically for what they praised. Keep it under 60 words.")
	} else {
		b.WriteString("Acknowledge the problem without excuses, offer to make it right, and invite them to contact the owner directly. Keep it under 80 words.")
	}
	return b.String()
}
