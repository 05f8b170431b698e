package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/notify"
)

// Crawler runs the competitor crawl.
type Crawler interface {
	CrawlAll(ctx context.Context) error
}

// RankChecker runs the keyword position check.
type RankChecker interface {
	CheckAll(ctx context.Context) error
}

// Publisher pushes due scheduled content live.
type Publisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// Mailer sends the digest and summary mails.
type Mailer interface {
	AlertDigest(ctx context.Context, to, businessName string, items []notify.DigestItem) error
	DailySummary(ctx context.Context, to string, s notify.Summary) error
	ContentDue(ctx context.Context, to, businessName string, items []notify.DueItem) error
}

// Deps carries everything the standard jobs touch. Crawler,
// RankChecker, and Publisher may be nil; their jobs are then not
// registered.
type Deps struct {
	Clients     core.ClientStore
	Content     core.ContentStore
	Leads       core.LeadStore
	Reviews     core.ReviewStore
	Competitors core.CompetitorStore
	Crawler     Crawler
	Ranks       RankChecker
	Publisher   Publisher
	Mailer      Mailer
	Clock       core.Clock
	AdminEmail  string
	Log         *zap.Logger
}

// RegisterAll wires the six standard jobs onto the scheduler using
// the configured cron specs.
func RegisterAll(s *Scheduler, cfg config.SchedulerConfig, deps Deps) error {
	log := deps.Log.Named("jobs")

	type entry struct {
		name string
		spec string
		fn   JobFunc
	}
	entries := []entry{}

	if deps.Crawler != nil {
		entries = append(entries, entry{JobCompetitorCrawl, cfg.CompetitorCrawl, deps.Crawler.CrawlAll})
	}
	if deps.Ranks != nil {
		entries = append(entries, entry{JobRankCheck, cfg.RankCheck, deps.Ranks.CheckAll})
	}
	if deps.Publisher != nil {
		entries = append(entries, entry{JobAutoPublish, cfg.AutoPublish, func(ctx context.Context) error {
			published, err := deps.Publisher.PublishDue(ctx)
			if err != nil {
				return err
			}
			if published > 0 {
				log.Info("auto-publish ran", zap.Int("published", published))
			}
			return nil
		}})
	}
	entries = append(entries,
		entry{JobAlertDigest, cfg.AlertDigest, func(ctx context.Context) error {
			return alertDigest(ctx, deps)
		}},
		entry{JobDailySummary, cfg.DailySummary, func(ctx context.Context) error {
			return dailySummary(ctx, deps)
		}},
		entry{JobContentDueNotice, cfg.ContentDueNotice, func(ctx context.Context) error {
			return contentDueNotice(ctx, deps)
		}},
	)

	for _, e := range entries {
		if err := s.Register(e.name, e.spec, e.fn); err != nil {
			return err
		}
	}
	return nil
}

// alertDigest mails each client the competitor pages that changed in
// the last hour. Clients with nothing new get nothing.
func alertDigest(ctx context.Context, deps Deps) error {
	clients, err := deps.Clients.ListClients(ctx, true)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	cutoff := deps.Clock.Now().Add(-time.Hour)

	for _, client := range clients {
		if client.LeadNotificationEmail == "" {
			continue
		}
		competitors, err := deps.Competitors.ListCompetitors(ctx, client.ID)
		if err != nil {
			return fmt.Errorf("list competitors for %s: %w", client.ID, err)
		}
		var items []notify.DigestItem
		for _, comp := range competitors {
			pages, err := deps.Competitors.ListPages(ctx, comp.ID)
			if err != nil {
				return fmt.Errorf("list pages for %s: %w", comp.ID, err)
			}
			for _, page := range pages {
				if page.LastChanged == nil || page.LastChanged.Before(cutoff) {
					continue
				}
				items = append(items, notify.DigestItem{
					Competitor: comp.Domain,
					URL:        page.URL,
					Kind:       "changed",
					ChangedAt:  *page.LastChanged,
				})
			}
		}
		err = deps.Mailer.AlertDigest(ctx, client.LeadNotificationEmail, client.BusinessName, items)
		if err != nil {
			return fmt.Errorf("send digest to %s: %w", client.ID, err)
		}
	}
	return nil
}

// dailySummary mails the admin yesterday's platform activity.
func dailySummary(ctx context.Context, deps Deps) error {
	if deps.AdminEmail == "" {
		return nil
	}
	clients, err := deps.Clients.ListClients(ctx, true)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	now := deps.Clock.Now()
	since := now.Add(-24 * time.Hour)

	summary := notify.Summary{Date: now, ActiveClients: len(clients)}
	for _, client := range clients {
		leads, err := deps.Leads.ListLeads(ctx, client.ID, "", since)
		if err != nil {
			return fmt.Errorf("list leads for %s: %w", client.ID, err)
		}
		summary.NewLeads += len(leads)

		reviews, err := deps.Reviews.ListReviews(ctx, client.ID, since)
		if err != nil {
			return fmt.Errorf("list reviews for %s: %w", client.ID, err)
		}
		summary.ReviewsReceived += len(reviews)

		posts, err := deps.Content.ListBlogPosts(ctx, client.ID, core.ContentStatusPublished)
		if err != nil {
			return fmt.Errorf("list posts for %s: %w", client.ID, err)
		}
		for _, post := range posts {
			if post.PublishedAt != nil && !post.PublishedAt.Before(since) {
				summary.PublishedPosts++
			}
		}
	}
	return deps.Mailer.DailySummary(ctx, deps.AdminEmail, summary)
}

// contentDueNotice reminds clients about approved posts scheduled to
// publish in the next 24 hours.
func contentDueNotice(ctx context.Context, deps Deps) error {
	clients, err := deps.Clients.ListClients(ctx, true)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	now := deps.Clock.Now()
	horizon := now.Add(24 * time.Hour)

	for _, client := range clients {
		if client.LeadNotificationEmail == "" {
			continue
		}
		posts, err := deps.Content.ListBlogPosts(ctx, client.ID, core.ContentStatusApproved)
		if err != nil {
			return fmt.Errorf("list posts for %s: %w", client.ID, err)
		}
		var items []notify.DueItem
		for _, post := range posts {
			if post.ScheduledFor == nil {
				continue
			}
			if post.ScheduledFor.Before(now) || post.ScheduledFor.After(horizon) {
				continue
			}
			items = append(items, notify.DueItem{Title: post.Title, ScheduledFor: *post.ScheduledFor})
		}
		err = deps.Mailer.ContentDue(ctx, client.LeadNotificationEmail, client.BusinessName, items)
		if err != nil {
			return fmt.Errorf("send due notice to %s: %w", client.ID, err)
		}
	}
	return nil
}
