package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

func testSite(url string) core.WordPressSite {
	return core.WordPressSite{URL: url, Username: "editor", AppPassword: "abcd efgh ijkl"}
}

func newServerClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(testSite(srv.URL), Config{MaxRetries: 2, Backoff: time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewClient(core.WordPressSite{URL: "https://example.com"}, Config{}, zap.NewNop())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestTestConnection(t *testing.T) {
	t.Parallel()

	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/users/me", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "editor", user)
		require.Equal(t, "abcd efgh ijkl", pass)
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "Editor"})
	}))

	require.NoError(t, c.TestConnection(context.Background()))
}

func TestCreatePostResolvesTerms(t *testing.T) {
	t.Parallel()

	var createdTag atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Blog", r.URL.Query().Get("search"))
		json.NewEncoder(w).Encode([]Term{{ID: 4, Name: "Blog", Slug: "blog"}})
	})
	mux.HandleFunc("GET /wp-json/wp/v2/tags", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]Term{})
	})
	mux.HandleFunc("POST /wp-json/wp/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "plumber dallas", body["name"])
		createdTag.Store(true)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Term{ID: 31, Name: "plumber dallas"})
	})
	mux.HandleFunc("POST /wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Dallas Plumbing Guide", body["title"])
		require.Equal(t, "publish", body["status"])
		require.Equal(t, []any{float64(4)}, body["categories"])
		require.Equal(t, []any{float64(31)}, body["tags"])
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     99,
			"link":   "https://acme.com/dallas-plumbing-guide",
			"status": "publish",
			"slug":   "dallas-plumbing-guide",
			"title":  map[string]string{"rendered": "Dallas Plumbing Guide"},
		})
	})

	c := newServerClient(t, mux)
	post, err := c.CreatePost(context.Background(), PostInput{
		Title:      "Dallas Plumbing Guide",
		Content:    "<p>body</p>",
		Status:     "publish",
		Categories: []string{"Blog"},
		Tags:       []string{"plumber dallas"},
	})
	require.NoError(t, err)
	require.Equal(t, 99, post.ID)
	require.Equal(t, "https://acme.com/dallas-plumbing-guide", post.Link)
	require.True(t, createdTag.Load())
}

func TestCreatePostWritesSEOMeta(t *testing.T) {
	t.Parallel()

	var metaKeys []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wp-json/wp/v2/posts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 12, "status": "publish"})
	})
	mux.HandleFunc("POST /wp-json/wp/v2/posts/12", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Meta map[string]any `json:"meta"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for k := range body.Meta {
			metaKeys = append(metaKeys, k)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 12})
	})

	c := newServerClient(t, mux)
	_, err := c.CreatePost(context.Background(), PostInput{
		Title:           "Post",
		Content:         "<p>body</p>",
		Status:          "publish",
		MetaTitle:       "SEO Title",
		MetaDescription: "SEO description.",
		FocusKeyword:    "plumber dallas",
	})
	require.NoError(t, err)
	require.Contains(t, metaKeys, "_yoast_wpseo_title")
	require.Contains(t, metaKeys, "_yoast_wpseo_metadesc")
	require.Contains(t, metaKeys, "rank_math_title")
}

func TestDoJSONRetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]Term{{ID: 1, Name: "News"}})
	}))

	terms, err := c.GetCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, terms, 1)
	require.Equal(t, int32(2), calls.Load())
}

func TestDoJSONDoesNotRetry4xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"code":"rest_cannot_create"}`, http.StatusForbidden)
	}))

	_, err := c.GetCategories(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 403")
	require.Equal(t, int32(1), calls.Load())
}

func TestNewClientNormalizesURL(t *testing.T) {
	t.Parallel()

	c, err := NewClient(testSite("acme.com/"), Config{}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(c.apiURL, "https://acme.com/wp-json"))
}
