package calls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
)

// Lead quality labels assigned from call characteristics.
const (
	QualityHot    = "hot"
	QualityWarm   = "warm"
	QualityCold   = "cold"
	QualityMissed = "missed"
)

// Calls over this duration indicate genuine buying interest.
const hotLeadSeconds = 120

// CallRecord is one call formatted for the dashboard.
type CallRecord struct {
	ID                string `json:"id"`
	Date              string `json:"date"`
	CallerName        string `json:"caller_name"`
	CallerNumber      string `json:"caller_number"`
	TrackingNumber    string `json:"tracking_number"`
	Duration          int    `json:"duration"`
	DurationFormatted string `json:"duration_formatted"`
	Answered          bool   `json:"answered"`
	Voicemail         bool   `json:"voicemail"`
	FirstCall         bool   `json:"first_call"`
	Source            string `json:"source"`
	RecordingURL      string `json:"recording_url,omitempty"`
	HasTranscript     bool   `json:"has_transcript"`
	Transcript        string `json:"transcript,omitempty"`
	TranscriptPreview string `json:"transcript_preview,omitempty"`
	LeadQuality       string `json:"lead_quality"`
}

// Metrics summarizes a client's call activity over a period.
type Metrics struct {
	TotalCalls           int            `json:"total_calls"`
	Answered             int            `json:"answered"`
	Missed               int            `json:"missed"`
	Voicemails           int            `json:"voicemails"`
	AnswerRate           int            `json:"answer_rate"`
	AvgDuration          int            `json:"avg_duration"`
	AvgDurationFormatted string         `json:"avg_duration_formatted"`
	FirstTimeCallers     int            `json:"first_time_callers"`
	HotLeads             int            `json:"hot_leads"`
	BySource             map[string]int `json:"by_source"`
	ByDay                []DayCount     `json:"by_day"`
	Trend                int            `json:"trend"`
	PeriodDays           int            `json:"period_days"`
}

// DayCount is calls per day for the dashboard chart.
type DayCount struct {
	Date  string `json:"date"`
	Calls int    `json:"calls"`
}

// Service reports call activity per client. Clients are matched onto
// CallRail companies by business name; the match is cached.
type Service struct {
	client  *Client
	clients core.ClientStore
	clock   core.Clock
	log     *zap.Logger

	mu        sync.Mutex
	companies map[string]string
}

// NewService wires a call-tracking service.
func NewService(client *Client, clients core.ClientStore, clock core.Clock, log *zap.Logger) *Service {
	return &Service{
		client:    client,
		clients:   clients,
		clock:     clock,
		log:       log.Named("calls"),
		companies: make(map[string]string),
	}
}

// Configured reports whether the CallRail credentials are present.
func (s *Service) Configured() bool { return s.client.Configured() }

// Recent returns a client's latest calls formatted for display,
// newest first.
func (s *Service) Recent(ctx context.Context, clientID string, limit, days int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if days <= 0 {
		days = 90
	}
	companyID, err := s.companyFor(ctx, clientID)
	if err != nil {
		return nil, err
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	query := CallQuery{
		CompanyID: companyID,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		PerPage:   limit,
		Fields:    []string{"transcription", "conversational_transcript", "recording_player"},
	}
	raw, _, err := s.client.ListCalls(ctx, query)
	if err != nil {
		// Transcript fields need the Conversation Intelligence plan;
		// retry without them on a 400.
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
			return nil, err
		}
		query.Fields = nil
		raw, _, err = s.client.ListCalls(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	out := make([]CallRecord, 0, len(raw))
	for _, call := range raw {
		out = append(out, formatCall(call))
	}
	return out, nil
}

// HotLeads returns recent answered calls long enough to signal real
// interest, for follow-up.
func (s *Service) HotLeads(ctx context.Context, clientID string, days int) ([]CallRecord, error) {
	if days <= 0 {
		days = 7
	}
	companyID, err := s.companyFor(ctx, clientID)
	if err != nil {
		return nil, err
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	answered := true
	raw, _, err := s.client.ListCalls(ctx, CallQuery{
		CompanyID:   companyID,
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		Answered:    &answered,
		MinDuration: hotLeadSeconds,
	})
	if err != nil {
		return nil, err
	}

	out := make([]CallRecord, 0, len(raw))
	for _, call := range raw {
		rec := formatCall(call)
		rec.LeadQuality = QualityHot
		out = append(out, rec)
	}
	return out, nil
}

// ClientMetrics aggregates a client's call activity over the last
// `days` days, with a trend against the preceding period.
func (s *Service) ClientMetrics(ctx context.Context, clientID string, days int) (Metrics, error) {
	if days <= 0 {
		days = 30
	}
	companyID, err := s.companyFor(ctx, clientID)
	if err != nil {
		return Metrics{}, err
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -days)
	raw, _, err := s.client.ListCalls(ctx, CallQuery{
		CompanyID: companyID,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		PerPage:   250,
		Fields:    []string{"duration", "answered", "voicemail", "source", "first_call"},
	})
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		BySource:             map[string]int{},
		ByDay:                []DayCount{},
		AvgDurationFormatted: formatDuration(0),
		PeriodDays:           days,
	}
	if len(raw) == 0 {
		return m, nil
	}

	var answeredDuration, answeredCount int
	byDay := map[string]int{}
	for _, call := range raw {
		m.TotalCalls++
		if call.Answered {
			m.Answered++
			answeredDuration += call.Duration
			answeredCount++
		}
		if call.Voicemail {
			m.Voicemails++
		}
		if call.FirstCall {
			m.FirstTimeCallers++
		}
		if call.Duration > hotLeadSeconds {
			m.HotLeads++
		}
		source := call.Source
		if source == "" {
			source = "Direct"
		}
		m.BySource[source]++
		if len(call.StartTime) >= 10 {
			byDay[call.StartTime[:10]]++
		}
	}
	m.Missed = m.TotalCalls - m.Answered
	m.AnswerRate = percent(m.Answered, m.TotalCalls)
	if answeredCount > 0 {
		m.AvgDuration = answeredDuration / answeredCount
	}
	m.AvgDurationFormatted = formatDuration(m.AvgDuration)

	days2 := make([]string, 0, len(byDay))
	for day := range byDay {
		days2 = append(days2, day)
	}
	sort.Strings(days2)
	for _, day := range days2 {
		m.ByDay = append(m.ByDay, DayCount{Date: day, Calls: byDay[day]})
	}

	// Trend against the preceding window of the same length. Only the
	// total is needed, so one record per page suffices.
	prevStart := end.AddDate(0, 0, -2*days)
	_, prevTotal, err := s.client.ListCalls(ctx, CallQuery{
		CompanyID: companyID,
		StartDate: prevStart.Format("2006-01-02"),
		EndDate:   start.Format("2006-01-02"),
		PerPage:   1,
	})
	if err != nil {
		s.log.Warn("previous period lookup failed", zap.Error(err))
	} else if prevTotal > 0 {
		m.Trend = percent(m.TotalCalls-prevTotal, prevTotal)
	}
	return m, nil
}

// RecordingURL returns the MP3 URL for a call's recording.
func (s *Service) RecordingURL(ctx context.Context, callID string) (string, error) {
	return s.client.RecordingURL(ctx, callID)
}

// companyFor matches a client onto its CallRail company by business
// name. The resolved ID is cached for the process lifetime.
func (s *Service) companyFor(ctx context.Context, clientID string) (string, error) {
	s.mu.Lock()
	cached, ok := s.companies[clientID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return "", err
	}
	companies, err := s.client.Companies(ctx)
	if err != nil {
		return "", err
	}
	for _, comp := range companies {
		if strings.EqualFold(comp.Name, client.BusinessName) {
			s.mu.Lock()
			s.companies[clientID] = comp.ID
			s.mu.Unlock()
			return comp.ID, nil
		}
	}
	return "", fmt.Errorf("no callrail company named %q: %w", client.BusinessName, core.ErrNotFound)
}

func formatCall(call Call) CallRecord {
	transcript := call.ConversationalTranscript
	if transcript == "" {
		transcript = call.Transcription
	}
	name := call.CustomerName
	if name == "" {
		name = "Unknown"
	}
	source := call.Source
	if source == "" {
		source = "Direct"
	}
	recording := call.RecordingPlayer
	if recording == "" {
		recording = call.Recording
	}
	return CallRecord{
		ID:                call.ID,
		Date:              call.StartTime,
		CallerName:        name,
		CallerNumber:      formatPhone(call.CustomerPhone),
		TrackingNumber:    formatPhone(call.TrackingPhone),
		Duration:          call.Duration,
		DurationFormatted: formatDuration(call.Duration),
		Answered:          call.Answered,
		Voicemail:         call.Voicemail,
		FirstCall:         call.FirstCall,
		Source:            source,
		RecordingURL:      recording,
		HasTranscript:     transcript != "",
		Transcript:        transcript,
		TranscriptPreview: preview(transcript, 150),
		LeadQuality:       leadQuality(call),
	}
}

func leadQuality(call Call) string {
	if !call.Answered {
		return QualityMissed
	}
	switch {
	case call.Duration > 180:
		return QualityHot
	case call.Duration > 60:
		return QualityWarm
	default:
		return QualityCold
	}
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// formatPhone renders ten- and eleven-digit North American numbers as
// (NNN) NNN-NNNN; anything else passes through untouched.
func formatPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:])
	case len(d) == 11 && d[0] == '1':
		return fmt.Sprintf("(%s) %s-%s", d[1:4], d[4:7], d[7:])
	default:
		return raw
	}
}

func preview(transcript string, max int) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return ""
	}
	if len(transcript) > max {
		return transcript[:max] + "..."
	}
	return transcript
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
