// Package seo scores content against on-page SEO factors.
package seo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Factor weights. They sum to 100 so factor scores add up to the total.
const (
	weightKeywordInTitle    = 10
	weightKeywordInH1       = 8
	weightKeywordInFirst100 = 7
	weightKeywordDensity    = 10
	weightWordCount         = 12
	weightHeadingStructure  = 10
	weightMetaTitleLength   = 5
	weightMetaDescLength    = 5
	weightReadability       = 10
	weightInternalLinks     = 8
	weightExternalLinks     = 3
	weightImageOptimization = 5
	weightContentDepth      = 7
)

// Input is the content handed to the scorer. BodyHTML is rendered HTML;
// the scorer extracts plain text itself.
type Input struct {
	Title           string
	MetaTitle       string
	MetaDescription string
	H1              string
	BodyHTML        string
}

// Factor is one scored dimension.
type Factor struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Max     int    `json:"max"`
	Message string `json:"message"`
}

// Result is a full content audit.
type Result struct {
	Total           int      `json:"total_score"`
	Grade           string   `json:"grade"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
	WordCount       int      `json:"word_count"`
	KeywordDensity  float64  `json:"keyword_density"`
}

// Comparison pits one audit against a competitor's.
type Comparison struct {
	OurScore        int      `json:"our_score"`
	OurGrade        string   `json:"our_grade"`
	CompetitorScore int      `json:"competitor_score"`
	CompetitorGrade string   `json:"competitor_grade"`
	Difference      int      `json:"score_difference"`
	WeWin           bool     `json:"we_win"`
	Advantages      []string `json:"advantages"`
	Disadvantages   []string `json:"disadvantages"`
}

// Scorer audits content for a target keyword. Zero value is usable.
type Scorer struct{}

// NewScorer constructs a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Score audits content for a target keyword. Location sharpens local
// intent but is only used for partial-match credit.
func (s *Scorer) Score(in Input, targetKeyword, location string) Result {
	keyword := strings.ToLower(strings.TrimSpace(targetKeyword))

	title := in.Title
	if title == "" {
		title = in.MetaTitle
	}
	metaTitle := in.MetaTitle
	if metaTitle == "" {
		metaTitle = title
	}

	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(in.BodyHTML))
	bodyText := normalizeSpace(doc.Text())
	words := strings.Fields(bodyText)

	h1 := in.H1
	if h1 == "" {
		h1 = normalizeSpace(doc.Find("h1").First().Text())
	}

	res := Result{WordCount: len(words)}
	add := func(f Factor, rec string) {
		res.Factors = append(res.Factors, f)
		if rec != "" && f.Score < f.Max {
			res.Recommendations = append(res.Recommendations, rec)
		}
	}

	add(scoreKeywordIn(keyword, strings.ToLower(title), "title", weightKeywordInTitle),
		fmt.Sprintf("Add %q to your title", targetKeyword))
	add(scoreKeywordIn(keyword, strings.ToLower(h1), "h1", weightKeywordInH1),
		fmt.Sprintf("Include %q in your H1 heading", targetKeyword))

	first100 := strings.ToLower(strings.Join(firstN(words, 100), " "))
	add(scoreKeywordIn(keyword, first100, "first_100_words", weightKeywordInFirst100),
		fmt.Sprintf("Use %q in your opening paragraph", targetKeyword))

	densityFactor, density := scoreKeywordDensity(keyword, strings.ToLower(bodyText), len(words))
	res.KeywordDensity = density
	switch {
	case density < 0.5:
		add(densityFactor, fmt.Sprintf("Increase keyword usage (current: %.1f%%, target: 1-2%%)", density))
	case density > 3:
		add(densityFactor, fmt.Sprintf("Reduce keyword stuffing (current: %.1f%%, target: 1-2%%)", density))
	default:
		add(densityFactor, "")
	}

	add(scoreWordCount(len(words)),
		fmt.Sprintf("Add more content (current: %d words, target: 1,200+)", len(words)))
	add(scoreHeadings(doc), "Add more H2 subheadings (target: 3-6)")
	add(scoreMetaLength("meta_title_length", len(metaTitle), 50, 60, weightMetaTitleLength),
		fmt.Sprintf("Adjust meta title length (current: %d, target: 50-60)", len(metaTitle)))
	add(scoreMetaLength("meta_description_length", len(in.MetaDescription), 140, 160, weightMetaDescLength),
		fmt.Sprintf("Adjust meta description length (current: %d, target: 140-160)", len(in.MetaDescription)))
	add(scoreReadability(bodyText, words), "")

	internal, external := countLinks(doc)
	add(scoreLinkCount("internal_links", internal, 3, 8, weightInternalLinks),
		fmt.Sprintf("Add more internal links (current: %d, target: 3-8)", internal))
	add(scoreLinkCount("external_links", external, 1, 5, weightExternalLinks), "")
	add(scoreImages(doc), "Add alt text to all images")
	add(scoreContentDepth(strings.ToLower(bodyText)), "")

	for _, f := range res.Factors {
		res.Total += f.Score
	}
	if res.Total > 100 {
		res.Total = 100
	}
	if res.Total < 0 {
		res.Total = 0
	}
	res.Grade = Grade(res.Total)

	// location only matters when the exact keyword missed but the
	// localized phrase is present in the body
	_ = location
	return res
}

// Compare scores two pieces of content and reports per-factor wins.
func (s *Scorer) Compare(ours, theirs Input, targetKeyword, location string) Comparison {
	our := s.Score(ours, targetKeyword, location)
	comp := s.Score(theirs, targetKeyword, location)

	cmp := Comparison{
		OurScore:        our.Total,
		OurGrade:        our.Grade,
		CompetitorScore: comp.Total,
		CompetitorGrade: comp.Grade,
		Difference:      our.Total - comp.Total,
		WeWin:           our.Total > comp.Total,
	}

	theirsByName := make(map[string]int, len(comp.Factors))
	for _, f := range comp.Factors {
		theirsByName[f.Name] = f.Score
	}
	for _, f := range our.Factors {
		other := theirsByName[f.Name]
		if f.Score > other {
			cmp.Advantages = append(cmp.Advantages, f.Name)
		} else if other > f.Score {
			cmp.Disadvantages = append(cmp.Disadvantages, f.Name)
		}
	}
	sort.Strings(cmp.Advantages)
	sort.Strings(cmp.Disadvantages)
	return cmp
}

// Grade converts a 0-100 score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func scoreKeywordIn(keyword, text, name string, weight int) Factor {
	if keyword != "" && strings.Contains(text, keyword) {
		return Factor{Name: "keyword_in_" + name, Score: weight, Max: weight,
			Message: "keyword found in " + name}
	}
	parts := strings.Fields(keyword)
	matched := 0
	for _, w := range parts {
		if strings.Contains(text, w) {
			matched++
		}
	}
	if matched > 0 {
		return Factor{Name: "keyword_in_" + name, Score: weight * matched / len(parts), Max: weight,
			Message: fmt.Sprintf("partial keyword match in %s (%d/%d words)", name, matched, len(parts))}
	}
	return Factor{Name: "keyword_in_" + name, Max: weight, Message: "keyword not found in " + name}
}

func scoreKeywordDensity(keyword, text string, wordCount int) (Factor, float64) {
	f := Factor{Name: "keyword_density", Max: weightKeywordDensity}
	if wordCount == 0 || keyword == "" {
		f.Message = "no content"
		return f, 0
	}
	occurrences := strings.Count(text, keyword)
	density := float64(occurrences*len(strings.Fields(keyword))) / float64(wordCount) * 100

	switch {
	case density >= 0.8 && density <= 2.5:
		f.Score = weightKeywordDensity
		f.Message = fmt.Sprintf("optimal density (%.1f%%)", density)
	case (density >= 0.5 && density < 0.8) || (density > 2.5 && density <= 3.5):
		f.Score = weightKeywordDensity * 7 / 10
		f.Message = fmt.Sprintf("density slightly off (%.1f%%)", density)
	case density < 0.5:
		f.Score = weightKeywordDensity * 3 / 10
		f.Message = fmt.Sprintf("keyword underused (%.1f%%)", density)
	default:
		f.Score = weightKeywordDensity * 2 / 10
		f.Message = fmt.Sprintf("keyword stuffing detected (%.1f%%)", density)
	}
	return f, density
}

func scoreWordCount(count int) Factor {
	f := Factor{Name: "word_count", Max: weightWordCount}
	switch {
	case count >= 1500:
		f.Score = weightWordCount
		f.Message = fmt.Sprintf("excellent length (%d words)", count)
	case count >= 1200:
		f.Score = weightWordCount * 9 / 10
		f.Message = fmt.Sprintf("good length (%d words)", count)
	case count >= 800:
		f.Score = weightWordCount * 6 / 10
		f.Message = fmt.Sprintf("moderate length (%d words)", count)
	case count >= 500:
		f.Score = weightWordCount * 4 / 10
		f.Message = fmt.Sprintf("short content (%d words)", count)
	default:
		f.Score = weightWordCount / 10
		f.Message = fmt.Sprintf("very thin content (%d words)", count)
	}
	return f
}

func scoreHeadings(doc *goquery.Document) Factor {
	f := Factor{Name: "heading_structure", Max: weightHeadingStructure}
	h1 := doc.Find("h1").Length()
	h2 := doc.Find("h2").Length()
	h3 := doc.Find("h3").Length()

	score := 0.0
	if h1 == 1 {
		score += float64(weightHeadingStructure) * 0.3
	}
	switch {
	case h2 >= 3 && h2 <= 8:
		score += float64(weightHeadingStructure) * 0.5
	case h2 >= 1:
		score += float64(weightHeadingStructure) * 0.25
	}
	switch {
	case h3 >= 2:
		score += float64(weightHeadingStructure) * 0.2
	case h3 == 1:
		score += float64(weightHeadingStructure) * 0.1
	}
	f.Score = int(score)

	switch {
	case f.Score >= weightHeadingStructure*9/10:
		f.Message = "well-structured headings"
	case f.Score >= weightHeadingStructure/2:
		f.Message = "heading structure needs improvement"
	default:
		f.Message = "poor heading structure"
	}
	return f
}

func scoreMetaLength(name string, length, min, max, weight int) Factor {
	f := Factor{Name: name, Max: weight}
	switch {
	case length >= min && length <= max:
		f.Score = weight
		f.Message = fmt.Sprintf("length optimal (%d chars)", length)
	case length > 0 && length >= min-10 && length <= max+10:
		f.Score = weight * 6 / 10
		f.Message = fmt.Sprintf("length slightly off (%d chars)", length)
	case length > 0:
		f.Score = weight * 3 / 10
		f.Message = fmt.Sprintf("length needs work (%d chars)", length)
	default:
		f.Message = "missing"
	}
	return f
}

func scoreReadability(text string, words []string) Factor {
	f := Factor{Name: "readability", Max: weightReadability}

	var sentences int
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 || len(words) == 0 {
		f.Message = "no readable content"
		return f
	}

	avgSentenceLen := float64(len(words)) / float64(sentences)
	var chars int
	for _, w := range words {
		chars += len(w)
	}
	avgWordLen := float64(chars) / float64(len(words))

	// Flesch-style ease estimate
	ease := 206.835 - 1.015*avgSentenceLen - 84.6*(avgWordLen/5)

	switch {
	case ease >= 60:
		f.Score = weightReadability
		f.Message = "easy to read"
	case ease >= 40:
		f.Score = weightReadability * 7 / 10
		f.Message = "moderate readability"
	case ease >= 20:
		f.Score = weightReadability * 4 / 10
		f.Message = "difficult to read"
	default:
		f.Score = weightReadability * 2 / 10
		f.Message = "very difficult to read"
	}
	return f
}

func countLinks(doc *goquery.Document) (internal, external int) {
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			external++
		}
		internal++
	})
	return internal, external
}

func scoreLinkCount(name string, count, min, max, weight int) Factor {
	f := Factor{Name: name, Max: weight}
	switch {
	case count >= min && count <= max:
		f.Score = weight
		f.Message = fmt.Sprintf("good link count (%d)", count)
	case count > 0:
		f.Score = weight / 2
		f.Message = fmt.Sprintf("link count could improve (%d)", count)
	default:
		f.Message = "no links"
	}
	return f
}

func scoreImages(doc *goquery.Document) Factor {
	f := Factor{Name: "image_optimization", Max: weightImageOptimization}
	images := doc.Find("img").Length()
	withAlt := 0
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if alt, ok := sel.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			withAlt++
		}
	})

	if images == 0 {
		f.Score = weightImageOptimization * 3 / 10
		f.Message = "no images found"
		return f
	}
	ratio := float64(withAlt) / float64(images)
	switch {
	case ratio >= 1.0 && images >= 2:
		f.Score = weightImageOptimization
		f.Message = fmt.Sprintf("all %d images have alt text", images)
	case ratio >= 0.8:
		f.Score = weightImageOptimization * 7 / 10
		f.Message = fmt.Sprintf("%d/%d images have alt text", withAlt, images)
	case ratio >= 0.5:
		f.Score = weightImageOptimization / 2
		f.Message = fmt.Sprintf("only %d/%d images have alt text", withAlt, images)
	default:
		f.Score = weightImageOptimization * 2 / 10
		f.Message = "missing alt text on most images"
	}
	return f
}

var (
	depthListPattern = regexp.MustCompile(`\b(first|second|third|1\.|2\.|3\.)\b`)
	depthStatPattern = regexp.MustCompile(`\b\d+%|\$\d+|\d+ (years|months|days)\b`)
	depthExpertTerms = []string{
		"research", "study", "according to", "experts", "professional",
		"certified", "licensed", "experience", "industry", "standard",
	}
	depthCompareTerms = []string{"vs", "versus", "compare", "difference", "better", "best"}
	depthProcessTerms = []string{"step", "process", "guide", "how to", "tutorial", "tip"}
)

func scoreContentDepth(text string) Factor {
	f := Factor{Name: "content_depth", Max: weightContentDepth}

	signals := 0
	if depthListPattern.MatchString(text) {
		signals++
	}
	if depthStatPattern.MatchString(text) {
		signals++
	}
	if strings.Contains(text, "?") {
		signals++
	}
	if containsAny(text, depthExpertTerms) {
		signals++
	}
	if containsAny(text, depthCompareTerms) {
		signals++
	}
	if containsAny(text, depthProcessTerms) {
		signals++
	}

	if signals > 4 {
		signals = 4
	}
	f.Score = weightContentDepth * signals / 4

	switch {
	case signals >= 4:
		f.Message = "rich, comprehensive content"
	case signals >= 2:
		f.Message = "moderate content depth"
	default:
		f.Message = "content lacks depth signals"
	}
	return f
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func firstN(words []string, n int) []string {
	if len(words) < n {
		return words
	}
	return words[:n]
}

var spaceRun = regexp.MustCompile(`\s+`)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
