// Package calls integrates CallRail call tracking: call listings,
// recordings, transcripts, and per-client call metrics.
package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when API credentials are absent.
var ErrNotConfigured = errors.New("callrail: credentials not configured")

// APIError is a non-2xx reply from the CallRail API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("callrail: api error %d: %s", e.StatusCode, e.Message)
}

const maxResponseBytes = 4 << 20

// Config tunes the CallRail API client.
type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.callrail.com/v3"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// Call is one tracked phone call as the API reports it.
type Call struct {
	ID                       string `json:"id"`
	StartTime                string `json:"start_time"`
	CustomerName             string `json:"customer_name"`
	CustomerPhone            string `json:"customer_phone_number"`
	TrackingPhone            string `json:"tracking_phone_number"`
	Duration                 int    `json:"duration"`
	Answered                 bool   `json:"answered"`
	Voicemail                bool   `json:"voicemail"`
	FirstCall                bool   `json:"first_call"`
	Source                   string `json:"source"`
	RecordingPlayer          string `json:"recording_player"`
	Recording                string `json:"recording"`
	Transcription            string `json:"transcription"`
	ConversationalTranscript string `json:"conversational_transcript"`
}

// Company is one company in the CallRail account. Multi-client
// accounts map each tenant onto a company.
type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ScriptURL string `json:"script_url"`
}

// CallQuery filters a call listing. When StartDate and EndDate are
// both set they win over DateRange.
type CallQuery struct {
	CompanyID   string
	StartDate   string
	EndDate     string
	DateRange   string
	Answered    *bool
	MinDuration int
	PerPage     int
	Page        int
	Fields      []string
}

type callsPage struct {
	Calls        []Call `json:"calls"`
	TotalRecords int    `json:"total_records"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
}

// Client talks to the CallRail v3 REST API.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a Client. Credentials may be empty; calls will then
// fail with ErrNotConfigured.
func NewClient(cfg Config, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.Named("callrail"),
	}
}

// Configured reports whether both the API key and account ID are set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != "" && c.cfg.AccountID != ""
}

// ListCalls fetches calls newest first, returning the page of calls
// and the total record count across all pages.
func (c *Client) ListCalls(ctx context.Context, q CallQuery) ([]Call, int, error) {
	params := url.Values{
		"sort":  {"start_time"},
		"order": {"desc"},
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 100
	}
	params.Set("per_page", strconv.Itoa(perPage))
	page := q.Page
	if page <= 0 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	if q.CompanyID != "" {
		params.Set("company_id", q.CompanyID)
	}
	if q.StartDate != "" && q.EndDate != "" {
		params.Set("start_date", q.StartDate)
		params.Set("end_date", q.EndDate)
	} else {
		dateRange := q.DateRange
		if dateRange == "" {
			dateRange = "this_month"
		}
		params.Set("date_range", dateRange)
	}
	if q.Answered != nil {
		params.Set("answered", strconv.FormatBool(*q.Answered))
	}
	if q.MinDuration > 0 {
		params.Set("min_duration", strconv.Itoa(q.MinDuration))
	}
	if len(q.Fields) > 0 {
		params.Set("fields", strings.Join(q.Fields, ","))
	}

	var out callsPage
	if err := c.get(ctx, "/calls.json", params, &out); err != nil {
		return nil, 0, err
	}
	return out.Calls, out.TotalRecords, nil
}

// GetCall fetches one call with its recording and transcript fields.
func (c *Client) GetCall(ctx context.Context, callID string) (Call, error) {
	params := url.Values{
		"fields": {"recording,transcription,conversational_transcript"},
	}
	var out Call
	if err := c.get(ctx, "/calls/"+url.PathEscape(callID)+".json", params, &out); err != nil {
		return Call{}, err
	}
	return out, nil
}

// RecordingURL fetches the MP3 URL for a call's recording.
func (c *Client) RecordingURL(ctx context.Context, callID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.get(ctx, "/calls/"+url.PathEscape(callID)+"/recording.json", nil, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Companies lists all companies in the account.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var out struct {
		Companies []Company `json:"companies"`
	}
	if err := c.get(ctx, "/companies.json", nil, &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

// ResolveCompanyID converts the numeric company ID the CallRail UI
// shows into the string form the API requires. String IDs carry a COM
// prefix; numeric ones are matched against each company's script URL.
func (c *Client) ResolveCompanyID(ctx context.Context, companyID string) (string, error) {
	if companyID == "" || strings.HasPrefix(companyID, "COM") {
		return companyID, nil
	}
	companies, err := c.Companies(ctx)
	if err != nil {
		return "", err
	}
	for _, comp := range companies {
		if strings.Contains(comp.ScriptURL, "/"+companyID+"/") {
			return comp.ID, nil
		}
	}
	c.log.Warn("no string ID found for company, using as-is",
		zap.String("company_id", companyID))
	return companyID, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	target := c.cfg.BaseURL + "/a/" + url.PathEscape(c.cfg.AccountID) + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token token="+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: snippet(body)}
		if resp.StatusCode >= 500 {
			c.log.Warn("api error reply",
				zap.String("endpoint", endpoint),
				zap.Int("status", resp.StatusCode))
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
