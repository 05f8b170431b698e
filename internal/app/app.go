// Package app assembles the configured providers into a running
// service: stores, generators, publishers, background workers, and
// the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/ai"
	"github.com/ackwest/seoengine/internal/api"
	"github.com/ackwest/seoengine/internal/calls"
	systemclock "github.com/ackwest/seoengine/internal/clock/system"
	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/content"
	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/events"
	eventsmem "github.com/ackwest/seoengine/internal/events/memory"
	eventspubsub "github.com/ackwest/seoengine/internal/events/pubsub"
	"github.com/ackwest/seoengine/internal/hash/sha256"
	"github.com/ackwest/seoengine/internal/id/uuid"
	"github.com/ackwest/seoengine/internal/leads"
	"github.com/ackwest/seoengine/internal/monitor"
	"github.com/ackwest/seoengine/internal/notify"
	"github.com/ackwest/seoengine/internal/oauth"
	queuemem "github.com/ackwest/seoengine/internal/queue/memory"
	"github.com/ackwest/seoengine/internal/rank"
	"github.com/ackwest/seoengine/internal/reviews"
	"github.com/ackwest/seoengine/internal/scheduler"
	"github.com/ackwest/seoengine/internal/seo"
	"github.com/ackwest/seoengine/internal/seodata"
	"github.com/ackwest/seoengine/internal/social"
	storagegcs "github.com/ackwest/seoengine/internal/storage/gcs"
	storagelocal "github.com/ackwest/seoengine/internal/storage/local"
	storagemem "github.com/ackwest/seoengine/internal/storage/memory"
	storemem "github.com/ackwest/seoengine/internal/store/memory"
	storepg "github.com/ackwest/seoengine/internal/store/postgres"
	"github.com/ackwest/seoengine/internal/webhook"
	"github.com/ackwest/seoengine/internal/wordpress"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	Cfg config.Config
	Log *zap.Logger

	Server    *api.Server
	Scheduler *scheduler.Scheduler
	Deliverer *webhook.Deliverer

	pool   *pgxpool.Pool
	psc    *pubsub.Client
	gcs    *gcstorage.Client
	cancel context.CancelFunc
}

type stores struct {
	clients     core.ClientStore
	content     core.ContentStore
	leads       core.LeadStore
	reviews     core.ReviewStore
	ranks       core.RankStore
	competitors core.CompetitorStore
	webhooks    core.WebhookStore
}

// New builds the full dependency graph from configuration. Nothing is
// started yet; call Start.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	clock := systemclock.New()
	ids := uuid.New()
	hasher := sha256.New()

	st, err := a.buildStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := a.buildBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The webhook service doubles as an event publisher: every domain
	// event is matched against registered endpoints and queued.
	queue := queuemem.NewQueue[webhook.Delivery](cfg.Webhooks.QueueDepth)
	a.Deliverer = webhook.NewDeliverer(webhook.DelivererConfig{
		Workers: cfg.Webhooks.Workers,
		Timeout: cfg.WebhookTimeout(),
		Retries: cfg.Webhooks.MaxRetries,
		Backoff: time.Duration(cfg.Webhooks.BackoffMs) * time.Millisecond,
	}, st.webhooks, queue, clock, ids, log)
	webhooks := webhook.NewService(webhook.ServiceConfig{
		TimeoutSeconds: cfg.Webhooks.TimeoutSeconds,
		MaxRetries:     cfg.Webhooks.MaxRetries,
	}, st.webhooks, queue, a.Deliverer, clock, ids, log)

	bus, err := a.buildEventBus(ctx, cfg)
	if err != nil {
		return nil, err
	}
	publisher := events.NewFanout(append(bus, webhooks)...)

	generator, provider, err := buildGenerator(ctx, cfg.AI, log)
	if err != nil {
		return nil, err
	}

	var keywordData api.KeywordData
	var rankData rank.DataSource
	if cfg.SEOData.APIKey != "" {
		client := seodata.NewClient(seodata.Config{
			BaseURL:  cfg.SEOData.BaseURL,
			APIKey:   cfg.SEOData.APIKey,
			Database: cfg.SEOData.Database,
			Timeout:  time.Duration(cfg.SEOData.TimeoutSeconds) * time.Second,
		}, log)
		keywordData, rankData = client, client
	} else {
		demo := seodata.NewDemo()
		keywordData, rankData = demo, demo
		log.Warn("seodata api key not set, serving demo keyword data")
	}

	var callsSvc *calls.Service
	if cfg.CallRail.APIKey != "" && cfg.CallRail.AccountID != "" {
		callClient := calls.NewClient(calls.Config{
			BaseURL:   cfg.CallRail.BaseURL,
			APIKey:    cfg.CallRail.APIKey,
			AccountID: cfg.CallRail.AccountID,
			Timeout:   time.Duration(cfg.CallRail.TimeoutSeconds) * time.Second,
		}, log)
		callsSvc = calls.NewService(callClient, st.clients, clock, log)
	}

	mailer, err := notify.New(cfg.Notify, log)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	monitorSvc, err := buildMonitor(cfg.Monitor, st.competitors, blobs, publisher, hasher, clock, ids, log)
	if err != nil {
		return nil, err
	}

	wpManager := wordpress.NewManager(st.clients, st.content, publisher, clock, wordpress.Config{
		Timeout:    time.Duration(cfg.WordPress.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.WordPress.MaxRetries,
		Backoff:    time.Duration(cfg.WordPress.BackoffMs) * time.Millisecond,
	}, log)

	socialTimeout := 30 * time.Second
	socialSvc := social.NewService(st.clients, st.content, publisher, clock, map[core.Platform]social.Publisher{
		core.PlatformFacebook: social.NewFacebookPublisher(socialTimeout),
		core.PlatformLinkedIn: social.NewLinkedInPublisher(socialTimeout),
		core.PlatformGoogle:   social.NewGBPPublisher(socialTimeout),
	}, log)

	var oauthSvc *oauth.Service
	if oauthConfigured(cfg.OAuth) {
		oauthSvc = oauth.NewService(oauth.Config{
			RedirectBase: cfg.OAuth.RedirectBase,
			Facebook:     oauth.Credentials{ClientID: cfg.OAuth.Facebook.ClientID, ClientSecret: cfg.OAuth.Facebook.ClientSecret},
			LinkedIn:     oauth.Credentials{ClientID: cfg.OAuth.LinkedIn.ClientID, ClientSecret: cfg.OAuth.LinkedIn.ClientSecret},
			Google:       oauth.Credentials{ClientID: cfg.OAuth.Google.ClientID, ClientSecret: cfg.OAuth.Google.ClientSecret},
		}, st.clients, oauth.NewHTTPAssetLister(), clock, log)
	}

	contentSvc := content.NewService(st.clients, st.content, generator, seo.NewScorer(), publisher, clock, ids, provider, log)
	rankSvc := rank.NewService(st.clients, st.ranks, publisher, rankData, clock, ids, log)
	leadSvc := leads.NewService(st.clients, st.leads, publisher, leadNotifier(mailer), clock, ids, log)
	reviewSvc := reviews.NewService(st.clients, st.reviews, publisher, generator, clock, ids, log)

	if cfg.Scheduler.Enabled {
		a.Scheduler = scheduler.New(clock, log)
		err := scheduler.RegisterAll(a.Scheduler, cfg.Scheduler, scheduler.Deps{
			Clients:     st.clients,
			Content:     st.content,
			Leads:       st.leads,
			Reviews:     st.reviews,
			Competitors: st.competitors,
			Crawler:     monitorSvc,
			Ranks:       rankSvc,
			Publisher:   wpManager,
			Mailer:      mailer,
			Clock:       clock,
			AdminEmail:  cfg.Notify.AdminTo,
			Log:         log,
		})
		if err != nil {
			return nil, fmt.Errorf("register jobs: %w", err)
		}
	}

	// A typed nil *Scheduler must not land in the interface field, or
	// the handlers' nil checks stop working.
	var jobs api.JobRunner
	if a.Scheduler != nil {
		jobs = a.Scheduler
	}

	a.Server = api.NewServer(api.Deps{
		Clients:     st.clients,
		Competitors: st.competitors,
		Content:     contentSvc,
		WordPress:   wpManager,
		Social:      socialSvc,
		Leads:       leadSvc,
		Reviews:     reviewSvc,
		Ranks:       rankSvc,
		Keywords:    keywordData,
		Crawler:     monitorSvc,
		Calls:       callsSvc,
		Webhooks:    webhooks,
		OAuth:       oauthSvc,
		Scheduler:   jobs,
		Events:      publisher,
		Clock:       clock,
		IDs:         ids,
	}, cfg, log)

	return a, nil
}

// Start launches the webhook workers and the cron scheduler.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Deliverer.Start(ctx)
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
}

// Close stops background work and releases external connections.
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.Deliverer.Wait()
	if a.Scheduler != nil {
		select {
		case <-a.Scheduler.Stop().Done():
		case <-ctx.Done():
		}
	}
	if a.psc != nil {
		if err := a.psc.Close(); err != nil {
			a.Log.Warn("pubsub close failed", zap.Error(err))
		}
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.Log.Warn("gcs close failed", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *App) buildStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.DB.Provider {
	case "postgres":
		pool, err := storepg.Connect(ctx, storepg.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if err := storepg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
		a.pool = pool
		return stores{
			clients:     storepg.NewClientStore(pool),
			content:     storepg.NewContentStore(pool),
			leads:       storepg.NewLeadStore(pool),
			reviews:     storepg.NewReviewStore(pool),
			ranks:       storepg.NewRankStore(pool),
			competitors: storepg.NewCompetitorStore(pool),
			webhooks:    storepg.NewWebhookStore(pool),
		}, nil
	default:
		return stores{
			clients:     storemem.NewClientStore(),
			content:     storemem.NewContentStore(),
			leads:       storemem.NewLeadStore(),
			reviews:     storemem.NewReviewStore(),
			ranks:       storemem.NewRankStore(),
			competitors: storemem.NewCompetitorStore(),
			webhooks:    storemem.NewWebhookStore(),
		}, nil
	}
}

func (a *App) buildBlobStore(ctx context.Context, cfg config.Config) (core.BlobStore, error) {
	switch cfg.Storage.Provider {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		a.gcs = client
		return storagegcs.New(client, storagegcs.Config{
			Bucket: cfg.Storage.GCSBucket,
			Prefix: cfg.Storage.Prefix,
		})
	case "local":
		return storagelocal.New(storagelocal.Config{BaseDir: cfg.Storage.LocalDir})
	default:
		return storagemem.NewBlobStore(), nil
	}
}

// buildEventBus returns the external publishers the fanout should
// carry alongside the webhook service.
func (a *App) buildEventBus(ctx context.Context, cfg config.Config) ([]core.EventPublisher, error) {
	switch cfg.Events.Provider {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		a.psc = client
		return []core.EventPublisher{eventspubsub.New(client.Topic(cfg.Events.TopicName))}, nil
	case "memory":
		return []core.EventPublisher{eventsmem.New()}, nil
	default:
		return nil, nil
	}
}

func buildGenerator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (core.ContentGenerator, string, error) {
	interval := time.Duration(cfg.MinIntervalSec) * time.Second
	switch cfg.Provider {
	case "openai":
		gen, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:        cfg.OpenAIKey,
			Model:         cfg.OpenAIModel,
			FallbackModel: cfg.FallbackModel,
			MaxTokens:     cfg.MaxTokens,
			MinInterval:   interval,
		}, log)
		return gen, "openai", err
	case "gemini":
		gen, err := ai.NewGeminiGenerator(ctx, ai.GeminiConfig{
			APIKey:      cfg.GeminiKey,
			Model:       cfg.GeminiModel,
			MaxTokens:   cfg.MaxTokens,
			MinInterval: interval,
		}, log)
		return gen, "gemini", err
	default:
		return ai.NewTemplateGenerator(), "template", nil
	}
}

func buildMonitor(cfg config.MonitorConfig, competitors core.CompetitorStore, blobs core.BlobStore, events core.EventPublisher, hasher core.Hasher, clock core.Clock, ids core.IDGenerator, log *zap.Logger) (*monitor.Service, error) {
	mcfg := monitor.Config{
		UserAgent:        cfg.UserAgent,
		RequestTimeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxPagesPerCrawl: cfg.MaxPagesPerCrawl,
		MaxChildSitemaps: cfg.MaxChildSitemaps,
		RenderEnabled:    cfg.RenderEnabled,
	}
	fetcher, err := monitor.NewCollyFetcher(mcfg, log)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	var renderer monitor.Renderer
	if cfg.RenderEnabled {
		r, err := monitor.NewChromedpRenderer(monitor.RendererConfig{
			UserAgent:      cfg.UserAgent,
			MaxConcurrency: 2,
			Timeout:        time.Duration(cfg.RenderTimeoutSec) * time.Second,
		}, log)
		if err != nil {
			log.Warn("headless renderer unavailable", zap.Error(err))
		} else {
			renderer = r
		}
	}
	detector := monitor.NewHeuristicDetector(2048, nil, []string{"__NEXT_DATA__", "data-reactroot"})
	discoverer := monitor.NewDiscoverer(mcfg, log)

	return monitor.NewService(mcfg, competitors, blobs, events, hasher, clock, ids, discoverer, fetcher, renderer, detector, log), nil
}

// leadNotifier keeps lead capture working when SMTP is not configured.
func leadNotifier(m *notify.Mailer) leads.Notifier {
	if m == nil || !m.Configured() {
		return nil
	}
	return m
}

func oauthConfigured(cfg config.OAuthConfig) bool {
	return cfg.Facebook.ClientID != "" || cfg.LinkedIn.ClientID != "" || cfg.Google.ClientID != ""
}
