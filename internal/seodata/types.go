// Package seodata queries a SEMRush-compatible analytics API for
// keyword metrics, domain rankings, and competitor intelligence.
// Responses are semicolon-separated CSV reports.
package seodata

// KeywordMetrics holds search metrics for one keyword phrase.
type KeywordMetrics struct {
	Keyword     string  `json:"keyword"`
	Volume      int     `json:"volume"`
	CPC         float64 `json:"cpc"`
	Competition float64 `json:"competition"`
	Difficulty  int     `json:"difficulty"`
	Results     int     `json:"results,omitempty"`
}

// DomainOverview summarizes a domain's organic and paid footprint.
type DomainOverview struct {
	Domain          string  `json:"domain"`
	Database        string  `json:"database"`
	Rank            int     `json:"rank"`
	OrganicKeywords int     `json:"organic_keywords"`
	OrganicTraffic  int     `json:"organic_traffic"`
	OrganicCost     float64 `json:"organic_cost"`
	AdwordsKeywords int     `json:"adwords_keywords"`
	AdwordsTraffic  int     `json:"adwords_traffic"`
	AdwordsCost     float64 `json:"adwords_cost"`
}

// DomainKeyword is one organic position a domain holds.
type DomainKeyword struct {
	Keyword          string   `json:"keyword"`
	Position         int      `json:"position"`
	PreviousPosition int      `json:"previous_position,omitempty"`
	URL              string   `json:"url,omitempty"`
	Volume           int      `json:"volume"`
	CPC              float64  `json:"cpc"`
	Competition      float64  `json:"competition"`
	Difficulty       int      `json:"difficulty,omitempty"`
	FeatureCodes     []string `json:"serp_features,omitempty"`
}

// CompetitorDomain is one organic-search rival of a domain.
type CompetitorDomain struct {
	Domain           string  `json:"domain"`
	CompetitionLevel float64 `json:"competition_level"`
	CommonKeywords   int     `json:"common_keywords"`
	OrganicKeywords  int     `json:"organic_keywords"`
	OrganicTraffic   int     `json:"organic_traffic"`
	OrganicCost      float64 `json:"organic_cost"`
}

// KeywordGap is a keyword competitors rank for that the target misses.
type KeywordGap struct {
	Keyword             string         `json:"keyword"`
	Volume              int            `json:"volume"`
	CPC                 float64        `json:"cpc"`
	Competition         float64        `json:"competition"`
	Difficulty          int            `json:"difficulty"`
	YourPosition        int            `json:"your_position"`
	CompetitorPositions map[string]int `json:"competitor_positions"`
}

// BacklinkOverview summarizes a domain's backlink profile.
type BacklinkOverview struct {
	Domain           string `json:"domain"`
	TotalBacklinks   int    `json:"total_backlinks"`
	ReferringDomains int    `json:"referring_domains"`
	ReferringURLs    int    `json:"referring_urls"`
	ReferringIPs     int    `json:"referring_ips"`
}

// serpFeatureNames maps the API's numeric SERP feature codes to names.
var serpFeatureNames = map[string]string{
	"0":  "featured_snippet",
	"1":  "local_pack",
	"2":  "reviews",
	"3":  "sitelinks",
	"4":  "image_pack",
	"5":  "video",
	"6":  "knowledge_panel",
	"7":  "top_stories",
	"8":  "people_also_ask",
	"9":  "shopping",
	"10": "twitter",
	"11": "thumbnail",
	"12": "instant_answer",
	"13": "jobs",
	"14": "ads",
	"15": "ads_bottom",
	"16": "carousel",
	"17": "faq",
}

// FeatureName resolves a numeric SERP feature code to a readable name.
// Unknown codes come back as "feature_<code>".
func FeatureName(code string) string {
	if name, ok := serpFeatureNames[code]; ok {
		return name
	}
	return "feature_" + code
}
