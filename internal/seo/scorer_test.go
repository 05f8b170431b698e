package seo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func optimizedBody() string {
	para := strings.Repeat("Our licensed team handles drain cleaning and pipe repair with care. ", 30)
	var b strings.Builder
	b.WriteString("<h1>Emergency Plumber Austin You Can Trust</h1>")
	b.WriteString("<p>Looking for an emergency plumber austin homeowners rely on? ")
	b.WriteString("Our certified, licensed crew has 20 years of experience. ")
	b.WriteString("First, we inspect. Second, we quote. Third, we fix. ")
	b.WriteString("Over 95% of jobs finish the same day.</p>")
	for i := 0; i < 5; i++ {
		b.WriteString("<h2>Service</h2><h3>Detail</h3><p>" + para + "</p>")
		b.WriteString("<p>How to spot a leak: follow this step by step guide. ")
		b.WriteString("An emergency plumber austin residents call should compare options and pick the best.</p>")
	}
	b.WriteString(`<a href="/services">services</a><a href="/about">about</a><a href="/contact">contact</a>`)
	b.WriteString(`<a href="https://www.epa.gov/watersense">EPA WaterSense</a>`)
	b.WriteString(`<img src="/a.jpg" alt="plumber fixing pipe"><img src="/b.jpg" alt="water heater install">`)
	return b.String()
}

func TestScoreOptimizedContent(t *testing.T) {
	t.Parallel()

	in := Input{
		Title:           "Emergency Plumber Austin | 24/7 Repairs by Ace Plumbing Pros",
		MetaTitle:       "Emergency Plumber Austin | 24/7 Repairs by Ace Plumbing",
		MetaDescription: "Need an emergency plumber in Austin? Ace Plumbing offers 24/7 repairs, drain cleaning, and water heater service with upfront pricing and licensed pros.",
		BodyHTML:        optimizedBody(),
	}

	res := NewScorer().Score(in, "emergency plumber austin", "Austin, TX")

	require.GreaterOrEqual(t, res.Total, 80, "factors: %+v", res.Factors)
	require.Contains(t, []string{"A", "A+"}, res.Grade)
	require.Len(t, res.Factors, 13)

	byName := factorMap(res)
	require.Equal(t, byName["keyword_in_title"].Max, byName["keyword_in_title"].Score)
	require.Equal(t, byName["keyword_in_h1"].Max, byName["keyword_in_h1"].Score)
	require.Equal(t, byName["word_count"].Max, byName["word_count"].Score)
	require.Equal(t, byName["image_optimization"].Max, byName["image_optimization"].Score)
}

func TestScoreThinContent(t *testing.T) {
	t.Parallel()

	in := Input{
		Title:    "Welcome",
		BodyHTML: "<p>We do plumbing.</p>",
	}
	res := NewScorer().Score(in, "emergency plumber austin", "")

	require.Less(t, res.Total, 50)
	require.Equal(t, "F", res.Grade)
	require.NotEmpty(t, res.Recommendations)

	byName := factorMap(res)
	require.Zero(t, byName["keyword_in_title"].Score)
	require.Zero(t, byName["internal_links"].Score)
}

func TestScorePartialKeywordMatch(t *testing.T) {
	t.Parallel()

	f := scoreKeywordIn("emergency plumber austin", "best plumber in town", "title", 10)
	require.Equal(t, 3, f.Score) // 1 of 3 keyword words present
	require.Equal(t, 10, f.Max)
}

func TestGradeBoundaries(t *testing.T) {
	t.Parallel()

	cases := map[int]string{95: "A+", 90: "A+", 85: "A", 75: "B", 65: "C", 55: "D", 40: "F"}
	for score, grade := range cases {
		require.Equal(t, grade, Grade(score), "score %d", score)
	}
}

func TestCompareReportsAdvantages(t *testing.T) {
	t.Parallel()

	strong := Input{
		Title:           "Emergency Plumber Austin | 24/7 Repairs by Ace Plumbing Pros",
		MetaDescription: "Need an emergency plumber in Austin? Ace Plumbing offers 24/7 repairs, drain cleaning, and water heater service with upfront pricing and licensed pros.",
		BodyHTML:        optimizedBody(),
	}
	weak := Input{Title: "Blog", BodyHTML: "<p>short post</p>"}

	cmp := NewScorer().Compare(strong, weak, "emergency plumber austin", "")
	require.True(t, cmp.WeWin)
	require.Positive(t, cmp.Difference)
	require.Contains(t, cmp.Advantages, "keyword_in_title")
	require.Empty(t, cmp.Disadvantages)
}

func factorMap(res Result) map[string]Factor {
	out := make(map[string]Factor, len(res.Factors))
	for _, f := range res.Factors {
		out[f.Name] = f
	}
	return out
}
