package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ackwest/seoengine/internal/core"
)

// Provider API bases, overridable in tests.
const (
	facebookGraphURL = "https://graph.facebook.com/v18.0"
	linkedinBaseURL  = "https://api.linkedin.com/v2"
	gbpAccountsURL   = "https://mybusinessaccountmanagement.googleapis.com/v1"
	gbpInfoURL       = "https://mybusinessbusinessinformation.googleapis.com/v1"
)

// longLivedFacebookToken trades a short-lived user token for the
// long-lived variant via the fb_exchange_token grant.
func (s *Service) longLivedFacebookToken(ctx context.Context, short string) (string, time.Time, error) {
	q := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {s.cfg.Facebook.ClientID},
		"client_secret":     {s.cfg.Facebook.ClientSecret},
		"fb_exchange_token": {short},
	}
	var reply struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := getJSON(ctx, s.graphURL+"/oauth/access_token?"+q.Encode(), "", &reply); err != nil {
		return "", time.Time{}, err
	}
	if reply.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("empty long-lived token reply")
	}
	var expiry time.Time
	if reply.ExpiresIn > 0 {
		expiry = s.clock.Now().Add(time.Duration(reply.ExpiresIn) * time.Second)
	}
	return reply.AccessToken, expiry, nil
}

// HTTPAssetLister queries each provider for the destinations a token
// can post to.
type HTTPAssetLister struct {
	graphURL    string
	linkedinURL string
	accountsURL string
	infoURL     string
}

// NewHTTPAssetLister builds a lister against the production APIs.
func NewHTTPAssetLister() *HTTPAssetLister {
	return &HTTPAssetLister{
		graphURL:    facebookGraphURL,
		linkedinURL: linkedinBaseURL,
		accountsURL: gbpAccountsURL,
		infoURL:     gbpInfoURL,
	}
}

// ListAssets fetches postable destinations for a platform.
func (l *HTTPAssetLister) ListAssets(ctx context.Context, platform core.Platform, accessToken string) ([]Asset, error) {
	switch platform {
	case core.PlatformFacebook:
		return l.facebookPages(ctx, accessToken)
	case core.PlatformLinkedIn:
		return l.linkedinOrganizations(ctx, accessToken)
	case core.PlatformGoogle:
		return l.gbpLocations(ctx, accessToken)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
}

func (l *HTTPAssetLister) facebookPages(ctx context.Context, token string) ([]Asset, error) {
	q := url.Values{
		"access_token": {token},
		"fields":       {"id,name,access_token"},
	}
	var reply struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := getJSON(ctx, l.graphURL+"/me/accounts?"+q.Encode(), "", &reply); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("list pages: %s", reply.Error.Message)
	}
	out := make([]Asset, 0, len(reply.Data))
	for _, page := range reply.Data {
		out = append(out, Asset{ID: page.ID, Name: page.Name, AccessToken: page.AccessToken})
	}
	return out, nil
}

func (l *HTTPAssetLister) linkedinOrganizations(ctx context.Context, token string) ([]Asset, error) {
	var acls struct {
		Elements []struct {
			OrganizationalTarget string `json:"organizationalTarget"`
		} `json:"elements"`
	}
	err := getJSON(ctx, l.linkedinURL+"/organizationalEntityAcls?q=roleAssignee&role=ADMINISTRATOR&state=APPROVED", token, &acls)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	var out []Asset
	for _, el := range acls.Elements {
		orgID := strings.TrimPrefix(el.OrganizationalTarget, "urn:li:organization:")
		if orgID == el.OrganizationalTarget {
			continue
		}
		asset := Asset{ID: orgID, Name: "Organization " + orgID}
		var detail struct {
			LocalizedName string `json:"localizedName"`
		}
		if err := getJSON(ctx, l.linkedinURL+"/organizations/"+orgID, token, &detail); err == nil && detail.LocalizedName != "" {
			asset.Name = detail.LocalizedName
		}
		out = append(out, asset)
	}
	return out, nil
}

func (l *HTTPAssetLister) gbpLocations(ctx context.Context, token string) ([]Asset, error) {
	var accounts struct {
		Accounts []struct {
			Name string `json:"name"`
		} `json:"accounts"`
	}
	if err := getJSON(ctx, l.accountsURL+"/accounts", token, &accounts); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var out []Asset
	for _, account := range accounts.Accounts {
		var locations struct {
			Locations []struct {
				Name  string `json:"name"`
				Title string `json:"title"`
			} `json:"locations"`
		}
		err := getJSON(ctx, l.infoURL+"/"+account.Name+"/locations?readMask=name,title", token, &locations)
		if err != nil {
			return nil, fmt.Errorf("list locations for %s: %w", account.Name, err)
		}
		for _, loc := range locations.Locations {
			parts := strings.Split(loc.Name, "/")
			out = append(out, Asset{ID: parts[len(parts)-1], Name: loc.Title})
		}
	}
	return out, nil
}

func getJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d: %.200s", resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}
