package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ackwest/seoengine/internal/core"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

type stubAssets struct {
	assets []Asset
	err    error
}

func (a *stubAssets) ListAssets(context.Context, core.Platform, string) ([]Asset, error) {
	return a.assets, a.err
}

func oauthFixture(t *testing.T, assets AssetLister) (*Service, *storemem.ClientStore, *fakeClock) {
	t.Helper()
	clients := storemem.NewClientStore()
	clock := &fakeClock{t: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	cfg := Config{
		RedirectBase: "https://app.example.com",
		Facebook:     Credentials{ClientID: "fb-app", ClientSecret: "fb-secret"},
		LinkedIn:     Credentials{ClientID: "li-app", ClientSecret: "li-secret"},
		Google:       Credentials{ClientID: "g-app", ClientSecret: "g-secret"},
	}
	svc := NewService(cfg, clients, assets, clock, zap.NewNop())
	require.NoError(t, clients.CreateClient(context.Background(), core.Client{ID: "cl_1", IsActive: true}))
	return svc, clients, clock
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()

	svc, _, _ := oauthFixture(t, nil)
	raw, err := svc.AuthorizeURL("cl_1", core.PlatformLinkedIn)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "www.linkedin.com", u.Host)
	q := u.Query()
	require.Equal(t, "li-app", q.Get("client_id"))
	require.Equal(t, "https://app.example.com/v1/oauth/linkedin/callback", q.Get("redirect_uri"))
	require.NotEmpty(t, q.Get("state"))
	require.Contains(t, q.Get("scope"), "w_organization_social")
}

func TestAuthorizeURLGoogleRequestsOfflineAccess(t *testing.T) {
	t.Parallel()

	svc, _, _ := oauthFixture(t, nil)
	raw, err := svc.AuthorizeURL("cl_1", core.PlatformGoogle)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "offline", u.Query().Get("access_type"))
	require.Equal(t, "consent", u.Query().Get("prompt"))
}

func TestAuthorizeURLUnknownPlatform(t *testing.T) {
	t.Parallel()

	svc, _, _ := oauthFixture(t, nil)
	_, err := svc.AuthorizeURL("cl_1", core.Platform("myspace"))
	require.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestHandleCallbackStoresIntegration(t *testing.T) {
	t.Parallel()

	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "auth-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "li-token",
			"refresh_token": "li-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(tokens.Close)

	svc, clients, _ := oauthFixture(t, &stubAssets{assets: []Asset{{ID: "4242", Name: "Acme"}}})
	svc.endpoints[core.PlatformLinkedIn] = oauth2.Endpoint{
		AuthURL:  tokens.URL + "/auth",
		TokenURL: tokens.URL + "/token",
	}

	state, err := svc.states.Generate("cl_1", core.PlatformLinkedIn)
	require.NoError(t, err)

	integ, err := svc.HandleCallback(context.Background(), core.PlatformLinkedIn, "auth-code", state)
	require.NoError(t, err)
	require.Equal(t, "li-token", integ.AccessToken)
	require.Equal(t, "li-refresh", integ.RefreshToken)
	require.Equal(t, "4242", integ.AssetID)

	client, err := clients.GetClient(context.Background(), "cl_1")
	require.NoError(t, err)
	require.Equal(t, "li-token", client.Integrations[core.PlatformLinkedIn].AccessToken)
}

func TestHandleCallbackFacebookLongLivedToken(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "short-token", "token_type": "Bearer"})
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
		require.Equal(t, "short-token", r.URL.Query().Get("fb_exchange_token"))
		json.NewEncoder(w).Encode(map[string]any{"access_token": "long-token", "expires_in": 5184000})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc, _, clock := oauthFixture(t, &stubAssets{assets: []Asset{
		{ID: "page-1", Name: "Acme Page", AccessToken: "page-token"},
	}})
	svc.endpoints[core.PlatformFacebook] = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.graphURL = srv.URL

	state, err := svc.states.Generate("cl_1", core.PlatformFacebook)
	require.NoError(t, err)

	integ, err := svc.HandleCallback(context.Background(), core.PlatformFacebook, "code", state)
	require.NoError(t, err)
	// Page token wins over the long-lived user token for publishing.
	require.Equal(t, "page-token", integ.AccessToken)
	require.Equal(t, "page-1", integ.AssetID)
	require.NotNil(t, integ.ExpiresAt)
	require.True(t, integ.ExpiresAt.After(clock.t))
}

func TestHandleCallbackRejectsReplayedState(t *testing.T) {
	t.Parallel()

	svc, _, _ := oauthFixture(t, nil)
	state, err := svc.states.Generate("cl_1", core.PlatformLinkedIn)
	require.NoError(t, err)

	_, err = svc.states.Consume(state)
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), core.PlatformLinkedIn, "code", state)
	require.ErrorIs(t, err, ErrBadState)
}

func TestStateExpires(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	store := NewStateStore(clock)
	token, err := store.Generate("cl_1", core.PlatformGoogle)
	require.NoError(t, err)

	clock.t = clock.t.Add(11 * time.Minute)
	_, err = store.Consume(token)
	require.ErrorIs(t, err, ErrBadState)
}

func TestStateWrongPlatform(t *testing.T) {
	t.Parallel()

	svc, _, _ := oauthFixture(t, nil)
	state, err := svc.states.Generate("cl_1", core.PlatformGoogle)
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), core.PlatformLinkedIn, "code", state)
	require.ErrorIs(t, err, ErrBadState)
}
