// Package rank tracks keyword positions for client domains and flags
// movement against the previous snapshot.
package rank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
	"github.com/ackwest/seoengine/internal/seodata"
)

// DataSource supplies organic position data. Satisfied by both the
// live seodata client and its demo fallback.
type DataSource interface {
	DomainOrganicKeywords(ctx context.Context, domain string, limit int) ([]seodata.DomainKeyword, error)
	PositionFor(ctx context.Context, domain, keyword string) (seodata.DomainKeyword, error)
}

// CheckResult is the outcome of one keyword check for a client.
type CheckResult struct {
	Snapshot core.RankSnapshot `json:"snapshot"`
	Movement core.RankMovement `json:"movement"`
}

// Summary buckets a client's latest positions.
type Summary struct {
	Total      int `json:"total"`
	InTop3     int `json:"in_top_3"`
	InTop10    int `json:"in_top_10"`
	InTop20    int `json:"in_top_20"`
	NotRanking int `json:"not_ranking"`
}

// HistoryReport aggregates the stored snapshots for one keyword.
type HistoryReport struct {
	Keyword         string              `json:"keyword"`
	CurrentPosition int                 `json:"current_position"`
	BestPosition    int                 `json:"best_position"`
	WorstPosition   int                 `json:"worst_position"`
	AveragePosition float64             `json:"average_position"`
	Trend           string              `json:"trend"` // improving, declining, stable
	History         []core.RankSnapshot `json:"history"`
}

// Service runs position checks and persists snapshot history.
type Service struct {
	clients core.ClientStore
	ranks   core.RankStore
	events  core.EventPublisher
	data    DataSource
	clock   core.Clock
	ids     core.IDGenerator
	log     *zap.Logger
}

// NewService wires a rank tracking service.
func NewService(clients core.ClientStore, ranks core.RankStore, events core.EventPublisher, data DataSource, clock core.Clock, ids core.IDGenerator, log *zap.Logger) *Service {
	return &Service{
		clients: clients,
		ranks:   ranks,
		events:  events,
		data:    data,
		clock:   clock,
		ids:     ids,
		log:     log.Named("rank"),
	}
}

// CheckAll runs a position check for every active client. Per-client
// failures are logged and skipped so one bad domain cannot stall the
// nightly sweep.
func (s *Service) CheckAll(ctx context.Context) error {
	clients, err := s.clients.ListClients(ctx, true)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	for _, client := range clients {
		if client.WebsiteURL == "" || len(client.PrimaryKeywords)+len(client.SecondaryKeywords) == 0 {
			continue
		}
		if _, err := s.CheckClient(ctx, client.ID); err != nil {
			s.log.Warn("rank check failed",
				zap.String("client_id", client.ID),
				zap.Error(err))
		}
	}
	return nil
}

// CheckClient checks every tracked keyword for one client, saves a
// snapshot per keyword, and emits movement events.
func (s *Service) CheckClient(ctx context.Context, clientID string) ([]CheckResult, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.WebsiteURL == "" {
		return nil, fmt.Errorf("client %s: %w: no website url", clientID, core.ErrInvalidInput)
	}

	domain := seodata.CleanDomain(client.WebsiteURL)
	keywords := append(append([]string{}, client.PrimaryKeywords...), client.SecondaryKeywords...)

	// One domain_organic report covers every keyword the domain ranks
	// for, so a single request serves the whole keyword set.
	ranked := make(map[string]seodata.DomainKeyword)
	organic, err := s.data.DomainOrganicKeywords(ctx, domain, 500)
	if err != nil {
		s.log.Warn("bulk organic report failed, falling back to per-keyword lookups",
			zap.String("domain", domain), zap.Error(err))
	}
	for _, dk := range organic {
		ranked[strings.ToLower(dk.Keyword)] = dk
	}

	now := s.clock.Now()
	results := make([]CheckResult, 0, len(keywords))
	for _, keyword := range keywords {
		dk, ok := ranked[strings.ToLower(keyword)]
		if !ok && organic == nil {
			dk, err = s.data.PositionFor(ctx, domain, keyword)
			if err != nil {
				s.log.Warn("position lookup failed",
					zap.String("keyword", keyword), zap.Error(err))
				continue
			}
		}

		res, err := s.record(ctx, client, domain, keyword, dk, now)
		if err != nil {
			s.log.Warn("record snapshot failed",
				zap.String("keyword", keyword), zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) record(ctx context.Context, client core.Client, domain, keyword string, dk seodata.DomainKeyword, now time.Time) (CheckResult, error) {
	prev, err := s.ranks.LatestSnapshot(ctx, client.ID, keyword)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return CheckResult{}, fmt.Errorf("previous snapshot: %w", err)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return CheckResult{}, fmt.Errorf("new id: %w", err)
	}

	snap := core.RankSnapshot{
		ID:           id,
		ClientID:     client.ID,
		Keyword:      keyword,
		Domain:       domain,
		Position:     dk.Position,
		URL:          dk.URL,
		SearchVolume: dk.Volume,
		CPC:          dk.CPC,
		Features:     features(dk.FeatureCodes),
		CheckedAt:    now,
	}
	if err := s.ranks.SaveSnapshot(ctx, snap); err != nil {
		return CheckResult{}, fmt.Errorf("save snapshot: %w", err)
	}

	movement := core.RankMovement{
		Keyword:  keyword,
		Previous: prev.Position,
		Current:  snap.Position,
	}
	if movement.Previous > 0 && movement.Current > 0 {
		movement.Delta = movement.Previous - movement.Current
	}

	s.observe(ctx, client, movement, prev.ID == "")
	return CheckResult{Snapshot: snap, Movement: movement}, nil
}

func (s *Service) observe(ctx context.Context, client core.Client, mv core.RankMovement, first bool) {
	var label, event string
	switch {
	case first:
		label = "new"
	case mv.Delta > 0:
		label, event = "improved", core.EventRankingImproved
	case mv.Delta < 0:
		label, event = "dropped", core.EventRankingDropped
	case mv.Previous == 0 && mv.Current > 0:
		// Entered the rankings after previously not placing.
		label, event = "improved", core.EventRankingImproved
	case mv.Previous > 0 && mv.Current == 0:
		label, event = "dropped", core.EventRankingDropped
	default:
		label = "flat"
	}
	metrics.RankCheck(label)

	if event == "" || s.events == nil {
		return
	}
	err := s.events.Publish(ctx, core.Event{
		Name:      event,
		ClientID:  client.ID,
		Timestamp: s.clock.Now(),
		Data: map[string]any{
			"keyword":           mv.Keyword,
			"previous_position": mv.Previous,
			"current_position":  mv.Current,
			"delta":             mv.Delta,
		},
	})
	if err != nil {
		s.log.Warn("publish rank event failed", zap.Error(err))
	}
}

// Latest returns each tracked keyword's newest snapshot for a client.
func (s *Service) Latest(ctx context.Context, clientID string) ([]core.RankSnapshot, error) {
	return s.ranks.LatestForClient(ctx, clientID)
}

// Summarize buckets the client's latest positions into top-3/10/20.
func (s *Service) Summarize(ctx context.Context, clientID string) (Summary, error) {
	snaps, err := s.ranks.LatestForClient(ctx, clientID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Total: len(snaps)}
	for _, snap := range snaps {
		switch {
		case snap.Position == 0:
			sum.NotRanking++
		case snap.Position <= 3:
			sum.InTop3++
			sum.InTop10++
			sum.InTop20++
		case snap.Position <= 10:
			sum.InTop10++
			sum.InTop20++
		case snap.Position <= 20:
			sum.InTop20++
		}
	}
	return sum, nil
}

// History aggregates stored snapshots for one keyword since a cutoff.
func (s *Service) History(ctx context.Context, clientID, keyword string, since time.Time) (HistoryReport, error) {
	snaps, err := s.ranks.History(ctx, clientID, keyword, since)
	if err != nil {
		return HistoryReport{}, err
	}

	report := HistoryReport{Keyword: keyword, Trend: "stable", History: snaps}
	positions := make([]int, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Position > 0 {
			positions = append(positions, snap.Position)
		}
	}
	if len(positions) == 0 {
		return report, nil
	}

	report.CurrentPosition = positions[len(positions)-1]
	report.BestPosition = positions[0]
	report.WorstPosition = positions[0]
	total := 0
	for _, p := range positions {
		if p < report.BestPosition {
			report.BestPosition = p
		}
		if p > report.WorstPosition {
			report.WorstPosition = p
		}
		total += p
	}
	report.AveragePosition = float64(total) / float64(len(positions))

	// Trend compares the recent window against the overall average;
	// lower positions are better.
	recent := positions
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	recentTotal := 0
	for _, p := range recent {
		recentTotal += p
	}
	recentAvg := float64(recentTotal) / float64(len(recent))
	switch {
	case recentAvg < report.AveragePosition-0.5:
		report.Trend = "improving"
	case recentAvg > report.AveragePosition+0.5:
		report.Trend = "declining"
	}
	return report, nil
}

func features(codes []string) []core.SERPFeature {
	if len(codes) == 0 {
		return nil
	}
	out := make([]core.SERPFeature, 0, len(codes))
	for _, code := range codes {
		out = append(out, core.SERPFeature{Name: seodata.FeatureName(code)})
	}
	return out
}
