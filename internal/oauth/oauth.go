// Package oauth connects client social accounts: it runs the
// authorization-code flow for Facebook, LinkedIn, and Google Business
// Profile and stores the resulting tokens on the client profile.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/ackwest/seoengine/internal/core"
)

// ErrUnknownPlatform is returned for platforms without OAuth support.
var ErrUnknownPlatform = errors.New("oauth: unknown platform")

// Platform scopes. Facebook needs page management for publishing,
// LinkedIn organization share rights, Google the business.manage scope.
var platformScopes = map[core.Platform][]string{
	core.PlatformFacebook: {
		"pages_show_list", "pages_read_engagement", "pages_manage_posts",
		"business_management",
	},
	core.PlatformLinkedIn: {
		"r_liteprofile", "w_member_social",
		"r_organization_social", "w_organization_social",
	},
	core.PlatformGoogle: {
		"https://www.googleapis.com/auth/business.manage",
	},
}

// Asset is one postable destination: a page, organization, or
// business location.
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// AccessToken is set for Facebook pages, which carry their own
	// page token distinct from the user token.
	AccessToken string `json:"-"`
}

// AssetLister fetches the destinations a fresh token can post to.
type AssetLister interface {
	ListAssets(ctx context.Context, platform core.Platform, accessToken string) ([]Asset, error)
}

// Credentials holds one platform's app registration.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Config holds app registrations and the public callback base URL.
type Config struct {
	RedirectBase string // e.g. https://app.ackwest.com
	Facebook     Credentials
	LinkedIn     Credentials
	Google       Credentials
}

// Service drives the authorize/callback/refresh cycle.
type Service struct {
	cfg       Config
	clients   core.ClientStore
	states    *StateStore
	assets    AssetLister
	clock     core.Clock
	log       *zap.Logger
	endpoints map[core.Platform]oauth2.Endpoint
	graphURL  string
}

// NewService wires an OAuth service.
func NewService(cfg Config, clients core.ClientStore, assets AssetLister, clock core.Clock, log *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		clients: clients,
		states:  NewStateStore(clock),
		assets:  assets,
		clock:   clock,
		log:     log.Named("oauth"),
		endpoints: map[core.Platform]oauth2.Endpoint{
			core.PlatformFacebook: endpoints.Facebook,
			core.PlatformLinkedIn: endpoints.LinkedIn,
			core.PlatformGoogle:   endpoints.Google,
		},
		graphURL: facebookGraphURL,
	}
}

// Configured reports whether app credentials exist for a platform.
func (s *Service) Configured(platform core.Platform) bool {
	creds, err := s.credentials(platform)
	return err == nil && creds.ClientID != "" && creds.ClientSecret != ""
}

// AuthorizeURL starts the flow: it mints a state token and returns
// the provider URL to redirect the operator to.
func (s *Service) AuthorizeURL(clientID string, platform core.Platform) (string, error) {
	conf, err := s.oauthConfig(platform)
	if err != nil {
		return "", err
	}
	state, err := s.states.Generate(clientID, platform)
	if err != nil {
		return "", err
	}

	var opts []oauth2.AuthCodeOption
	if platform == core.PlatformGoogle {
		// Google only hands out a refresh token for offline access
		// with explicit consent.
		opts = append(opts,
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return conf.AuthCodeURL(state, opts...), nil
}

// HandleCallback finishes the flow: validates state, exchanges the
// code, picks the first postable asset, and stores the integration on
// the client.
func (s *Service) HandleCallback(ctx context.Context, platform core.Platform, code, stateToken string) (core.Integration, error) {
	state, err := s.states.Consume(stateToken)
	if err != nil {
		return core.Integration{}, err
	}
	if state.Platform != platform {
		return core.Integration{}, fmt.Errorf("%w: state issued for %s", ErrBadState, state.Platform)
	}

	conf, err := s.oauthConfig(platform)
	if err != nil {
		return core.Integration{}, err
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return core.Integration{}, fmt.Errorf("exchange code: %w", err)
	}

	integ := core.Integration{
		Platform:     platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ConnectedAt:  s.clock.Now(),
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		integ.ExpiresAt = &expiry
	}

	// Facebook's exchange returns a short-lived user token; trade it
	// for the ~60-day one before listing pages. Failure keeps the
	// short token rather than aborting the connection.
	if platform == core.PlatformFacebook {
		if long, expiry, err := s.longLivedFacebookToken(ctx, token.AccessToken); err != nil {
			s.log.Warn("long-lived token exchange failed", zap.Error(err))
		} else {
			integ.AccessToken = long
			if !expiry.IsZero() {
				integ.ExpiresAt = &expiry
			}
		}
	}

	if s.assets != nil {
		assets, err := s.assets.ListAssets(ctx, platform, integ.AccessToken)
		if err != nil {
			s.log.Warn("asset listing failed",
				zap.String("platform", string(platform)), zap.Error(err))
		} else if len(assets) > 0 {
			integ.AssetID = assets[0].ID
			// Facebook publishing uses the page token, not the user
			// token the exchange returned.
			if assets[0].AccessToken != "" {
				integ.AccessToken = assets[0].AccessToken
			}
		}
	}

	if err := s.saveIntegration(ctx, state.ClientID, integ); err != nil {
		return core.Integration{}, err
	}

	s.log.Info("platform connected",
		zap.String("client_id", state.ClientID),
		zap.String("platform", string(platform)),
		zap.String("asset_id", integ.AssetID))
	return integ, nil
}

// Refresh renews an expiring token using the stored refresh token and
// persists the result.
func (s *Service) Refresh(ctx context.Context, clientID string, platform core.Platform) (core.Integration, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return core.Integration{}, fmt.Errorf("load client: %w", err)
	}
	integ, ok := client.Integrations[platform]
	if !ok || integ.RefreshToken == "" {
		return core.Integration{}, fmt.Errorf("client %s, %s: no refresh token: %w", clientID, platform, core.ErrNotFound)
	}

	conf, err := s.oauthConfig(platform)
	if err != nil {
		return core.Integration{}, err
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: integ.RefreshToken,
		Expiry:       time.Unix(1, 0), // force refresh
	}).Token()
	if err != nil {
		return core.Integration{}, fmt.Errorf("refresh token: %w", err)
	}

	integ.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		integ.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		integ.ExpiresAt = &expiry
	}
	if err := s.saveIntegration(ctx, clientID, integ); err != nil {
		return core.Integration{}, err
	}
	return integ, nil
}

// Disconnect removes a stored integration.
func (s *Service) Disconnect(ctx context.Context, clientID string, platform core.Platform) error {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	if _, ok := client.Integrations[platform]; !ok {
		return fmt.Errorf("client %s, %s: %w", clientID, platform, core.ErrNotFound)
	}
	delete(client.Integrations, platform)
	client.UpdatedAt = s.clock.Now()
	return s.clients.UpdateClient(ctx, client)
}

func (s *Service) saveIntegration(ctx context.Context, clientID string, integ core.Integration) error {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	if client.Integrations == nil {
		client.Integrations = make(map[core.Platform]core.Integration)
	}
	client.Integrations[integ.Platform] = integ
	client.UpdatedAt = s.clock.Now()
	if err := s.clients.UpdateClient(ctx, client); err != nil {
		return fmt.Errorf("save integration: %w", err)
	}
	return nil
}

func (s *Service) credentials(platform core.Platform) (Credentials, error) {
	switch platform {
	case core.PlatformFacebook:
		return s.cfg.Facebook, nil
	case core.PlatformLinkedIn:
		return s.cfg.LinkedIn, nil
	case core.PlatformGoogle:
		return s.cfg.Google, nil
	default:
		return Credentials{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
}

func (s *Service) oauthConfig(platform core.Platform) (*oauth2.Config, error) {
	creds, err := s.credentials(platform)
	if err != nil {
		return nil, err
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("oauth app for %s not configured", platform)
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     s.endpoints[platform],
		RedirectURL:  s.cfg.RedirectBase + "/v1/oauth/" + string(platform) + "/callback",
		Scopes:       platformScopes[platform],
	}, nil
}
