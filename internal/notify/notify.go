// Package notify sends transactional email: lead alerts, competitor
// digests, daily summaries, and content-due notices.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/config"
	"github.com/ackwest/seoengine/internal/core"
)

// Mailer delivers email over SMTP. With no SMTP host configured it is
// a no-op that only logs, so the rest of the system never has to care
// whether email is wired up.
type Mailer struct {
	cfg    config.NotifyConfig
	client *mail.Client
	log    *zap.Logger
}

// New builds a Mailer. Returns a no-op sender when cfg.SMTPHost is
// empty.
func New(cfg config.NotifyConfig, log *zap.Logger) (*Mailer, error) {
	m := &Mailer{cfg: cfg, log: log.Named("notify")}
	if cfg.SMTPHost == "" {
		m.log.Info("smtp not configured, email disabled")
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass))
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	m.client = client
	return m, nil
}

// Configured reports whether the Mailer can actually send.
func (m *Mailer) Configured() bool { return m.client != nil }

// Send delivers one plain-text message. No-op when unconfigured.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Configured() {
		m.log.Debug("email skipped, smtp not configured",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	if to == "" {
		return fmt.Errorf("recipient is required: %w", core.ErrInvalidInput)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LeadCaptured alerts the client that a new lead arrived.
func (m *Mailer) LeadCaptured(ctx context.Context, client core.Client, lead core.Lead) error {
	subject, body := LeadAlert(client, lead)
	return m.Send(ctx, client.LeadNotificationEmail, subject, body)
}

// DigestItem is one changed competitor page in an alert digest.
type DigestItem struct {
	Competitor string
	URL        string
	Kind       string
	ChangedAt  time.Time
}

// AlertDigest sends the competitor change digest. Empty digests are
// skipped.
func (m *Mailer) AlertDigest(ctx context.Context, to string, businessName string, items []DigestItem) error {
	if len(items) == 0 {
		return nil
	}
	subject, body := Digest(businessName, items)
	return m.Send(ctx, to, subject, body)
}

// Summary is one day's platform activity for the admin summary mail.
type Summary struct {
	Date            time.Time
	ActiveClients   int
	NewLeads        int
	PublishedPosts  int
	ReviewsReceived int
}

// DailySummary sends the admin activity summary.
func (m *Mailer) DailySummary(ctx context.Context, to string, s Summary) error {
	subject, body := SummaryMail(s)
	return m.Send(ctx, to, subject, body)
}

// DueItem is one scheduled post approaching its publish time.
type DueItem struct {
	Title        string
	ScheduledFor time.Time
}

// ContentDue reminds a client that scheduled content publishes soon.
func (m *Mailer) ContentDue(ctx context.Context, to string, businessName string, items []DueItem) error {
	if len(items) == 0 {
		return nil
	}
	subject, body := DueNotice(businessName, items)
	return m.Send(ctx, to, subject, body)
}

// LeadAlert renders the new-lead notification.
func LeadAlert(client core.Client, lead core.Lead) (subject, body string) {
	subject = fmt.Sprintf("New Lead: %s", lead.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "New lead received for %s!\n\n", client.BusinessName)
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Phone: %s\n", orDefault(lead.Phone, "Not provided"))
	fmt.Fprintf(&b, "Email: %s\n", orDefault(lead.Email, "Not provided"))
	fmt.Fprintf(&b, "Source: %s\n\n", lead.Source)
	fmt.Fprintf(&b, "Message:\n%s\n\n", orDefault(lead.Message, "No message"))
	fmt.Fprintf(&b, "Lead ID: %s\nReceived: %s\n",
		lead.ID, lead.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	return subject, b.String()
}

// Digest renders the competitor change digest.
func Digest(businessName string, items []DigestItem) (subject, body string) {
	subject = fmt.Sprintf("Competitor Activity: %d change(s) detected", len(items))

	var b strings.Builder
	fmt.Fprintf(&b, "Competitor changes detected for %s:\n\n", businessName)
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s %s (%s)\n",
			item.Competitor, item.Kind, item.URL,
			item.ChangedAt.Format("Jan 2 15:04"))
	}
	return subject, b.String()
}

// SummaryMail renders the daily admin summary.
func SummaryMail(s Summary) (subject, body string) {
	subject = fmt.Sprintf("Daily Summary for %s", s.Date.Format("Jan 2, 2006"))

	var b strings.Builder
	fmt.Fprintf(&b, "Platform activity for %s:\n\n", s.Date.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Active clients:    %d\n", s.ActiveClients)
	fmt.Fprintf(&b, "New leads:         %d\n", s.NewLeads)
	fmt.Fprintf(&b, "Posts published:   %d\n", s.PublishedPosts)
	fmt.Fprintf(&b, "Reviews received:  %d\n", s.ReviewsReceived)
	return subject, b.String()
}

// DueNotice renders the content-due reminder.
func DueNotice(businessName string, items []DueItem) (subject, body string) {
	subject = fmt.Sprintf("%d scheduled post(s) publishing soon", len(items))

	var b strings.Builder
	fmt.Fprintf(&b, "Upcoming content for %s:\n\n", businessName)
	for _, item := range items {
		fmt.Fprintf(&b, "- %q publishes %s\n",
			item.Title, item.ScheduledFor.Format("Jan 2 at 3:04 PM"))
	}
	return subject, b.String()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
