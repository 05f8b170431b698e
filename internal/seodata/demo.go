package seodata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

// Demo produces deterministic simulated data so dashboards and rank
// history stay usable before an API key is configured. Positions are
// seeded per keyword, so repeated checks return stable values.
type Demo struct{}

// NewDemo builds a Demo source.
func NewDemo() *Demo { return &Demo{} }

func demoRand(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(p)))
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func demoMetrics(keyword string) KeywordMetrics {
	r := demoRand(keyword)
	base := 2000 - len(keyword)*50
	if base < 100 {
		base = 100
	}
	volume := base + r.Intn(700) - 200
	if volume < 10 {
		volume = 10
	}
	return KeywordMetrics{
		Keyword:     keyword,
		Volume:      volume,
		CPC:         0.5 + r.Float64()*7.5,
		Competition: 0.3 + r.Float64()*0.6,
		Difficulty:  20 + r.Intn(60),
		Results:     volume * 1000,
	}
}

// KeywordOverview returns simulated metrics for a phrase.
func (d *Demo) KeywordOverview(_ context.Context, keyword string) (KeywordMetrics, error) {
	return demoMetrics(keyword), nil
}

// KeywordVariations returns simulated related phrases.
func (d *Demo) KeywordVariations(_ context.Context, keyword string, limit int) ([]KeywordMetrics, error) {
	modifiers := []string{"near me", "cost", "services", "best", "company", "reviews", "pricing", "local"}
	if limit <= 0 || limit > len(modifiers) {
		limit = len(modifiers)
	}
	out := make([]KeywordMetrics, 0, limit)
	for _, m := range modifiers[:limit] {
		out = append(out, demoMetrics(keyword+" "+m))
	}
	return out, nil
}

// KeywordQuestions returns simulated question phrases.
func (d *Demo) KeywordQuestions(_ context.Context, keyword string, limit int) ([]KeywordMetrics, error) {
	stems := []string{"how much does %s cost", "what is %s", "how to choose %s", "is %s worth it", "who offers %s"}
	if limit <= 0 || limit > len(stems) {
		limit = len(stems)
	}
	out := make([]KeywordMetrics, 0, limit)
	for _, stem := range stems[:limit] {
		out = append(out, demoMetrics(fmt.Sprintf(stem, keyword)))
	}
	return out, nil
}

// BulkKeywordOverview returns simulated metrics for each phrase.
func (d *Demo) BulkKeywordOverview(_ context.Context, keywords []string) ([]KeywordMetrics, error) {
	out := make([]KeywordMetrics, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, demoMetrics(kw))
	}
	return out, nil
}

// DomainOverview returns a simulated footprint for a domain.
func (d *Demo) DomainOverview(_ context.Context, domain string) (DomainOverview, error) {
	domain = CleanDomain(domain)
	r := demoRand(domain)
	keywords := 50 + r.Intn(450)
	return DomainOverview{
		Domain:          domain,
		Database:        "us",
		Rank:            100000 + r.Intn(900000),
		OrganicKeywords: keywords,
		OrganicTraffic:  keywords * (3 + r.Intn(10)),
		OrganicCost:     float64(keywords) * (0.5 + r.Float64()*3),
	}, nil
}

// DomainOrganicKeywords returns simulated positions for a domain.
// Roughly 70% of seeded keywords rank somewhere in the top 50.
func (d *Demo) DomainOrganicKeywords(_ context.Context, domain string, limit int) ([]DomainKeyword, error) {
	domain = CleanDomain(domain)
	if limit <= 0 {
		limit = 20
	}
	topics := []string{"repair", "installation", "replacement", "maintenance", "emergency service", "inspection", "quote", "near me"}
	out := make([]DomainKeyword, 0, limit)
	for i := 0; i < limit && i < len(topics)*2; i++ {
		kw := strings.Split(domain, ".")[0] + " " + topics[i%len(topics)]
		if i >= len(topics) {
			kw = "best " + kw
		}
		out = append(out, demoPosition(domain, kw))
	}
	return out, nil
}

func demoPosition(domain, keyword string) DomainKeyword {
	kr := demoRand(keyword)
	m := demoMetrics(keyword)
	dk := DomainKeyword{
		Keyword:     keyword,
		Volume:      m.Volume,
		CPC:         m.CPC,
		Competition: m.Competition,
		Difficulty:  m.Difficulty,
	}
	if kr.Float64() >= 0.7 {
		return dk
	}
	switch kr.Intn(4) {
	case 0:
		dk.Position = 1 + kr.Intn(3)
	case 1:
		dk.Position = 4 + kr.Intn(7)
	case 2:
		dk.Position = 11 + kr.Intn(10)
	default:
		dk.Position = 21 + kr.Intn(30)
	}
	changes := []int{-3, -2, -1, 0, 0, 0, 1, 1, 2, 3, 5}
	if prev := dk.Position + changes[kr.Intn(len(changes))]; prev > 0 {
		dk.PreviousPosition = prev
	}
	slug := strings.Join(strings.Fields(keyword)[:min(2, len(strings.Fields(keyword)))], "-")
	dk.URL = "https://" + domain + "/" + slug
	if dk.Position <= 10 && kr.Float64() < 0.4 {
		dk.FeatureCodes = []string{"1"} // local pack
	}
	return dk
}

// PositionFor returns the simulated position for one keyword on a
// domain, zero when not ranking.
func (d *Demo) PositionFor(_ context.Context, domain, keyword string) (DomainKeyword, error) {
	return demoPosition(CleanDomain(domain), keyword), nil
}

// Competitors returns simulated rival domains.
func (d *Demo) Competitors(_ context.Context, domain string, limit int) ([]CompetitorDomain, error) {
	domain = CleanDomain(domain)
	r := demoRand(domain, "competitors")
	if limit <= 0 || limit > 10 {
		limit = 5
	}
	out := make([]CompetitorDomain, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, CompetitorDomain{
			Domain:           fmt.Sprintf("competitor%d-%s", i+1, domain),
			CompetitionLevel: 0.2 + r.Float64()*0.6,
			CommonKeywords:   10 + r.Intn(90),
			OrganicKeywords:  50 + r.Intn(500),
			OrganicTraffic:   100 + r.Intn(5000),
			OrganicCost:      float64(100 + r.Intn(3000)),
		})
	}
	return out, nil
}

// KeywordGaps returns simulated gap keywords.
func (d *Demo) KeywordGaps(_ context.Context, domain string, competitors []string, limit int) ([]KeywordGap, error) {
	domain = CleanDomain(domain)
	r := demoRand(domain, "gaps")
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	if len(competitors) > 4 {
		competitors = competitors[:4]
	}
	out := make([]KeywordGap, 0, limit)
	for i := 0; i < limit; i++ {
		kw := fmt.Sprintf("gap keyword %d %s", i+1, strings.Split(domain, ".")[0])
		m := demoMetrics(kw)
		gap := KeywordGap{
			Keyword:             kw,
			Volume:              m.Volume,
			CPC:                 m.CPC,
			Competition:         m.Competition,
			Difficulty:          m.Difficulty,
			CompetitorPositions: make(map[string]int, len(competitors)),
		}
		for _, comp := range competitors {
			gap.CompetitorPositions[CleanDomain(comp)] = 1 + r.Intn(10)
		}
		out = append(out, gap)
	}
	return out, nil
}

// BacklinkOverview returns a simulated backlink profile.
func (d *Demo) BacklinkOverview(_ context.Context, domain string) (BacklinkOverview, error) {
	domain = CleanDomain(domain)
	r := demoRand(domain, "backlinks")
	domains := 20 + r.Intn(300)
	return BacklinkOverview{
		Domain:           domain,
		TotalBacklinks:   domains * (2 + r.Intn(20)),
		ReferringDomains: domains,
		ReferringURLs:    domains * 2,
		ReferringIPs:     domains - r.Intn(domains/2+1),
	}, nil
}
