package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/models"
)

const (
	eventsPath      = "/events.json"
	attractionsPath = "/attractions.json"
	maxBodyBytes    = 8 << 20
)

// Client talks to the Discovery-style provider API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	policy     RetryPolicy
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient builds a client from provider configuration.
func NewClient(cfg config.ProviderConfig, logger *slog.Logger, opts ...Option) *Client {
	policy := DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     policy,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events fetches one page of events for the pick. Failures are returned in the
// result, never as a silent empty list.
func (c *Client) Events(ctx context.Context, pick models.Pick, r models.DateRange) FetchResult {
	q, err := c.eventQuery(pick, r)
	if err != nil {
		return FetchResult{Err: err}
	}

	body, err := c.get(ctx, eventsPath, q)
	if err != nil {
		c.logger.WarnContext(ctx, "provider fetch failed", "slot", pick.Slot, "pick", pick.Label(), "error", err)
		return FetchResult{Err: err}
	}

	events := extractRaw(body, "_embedded.events")
	c.logger.DebugContext(ctx, "provider fetch completed", "slot", pick.Slot, "events", len(events))
	return FetchResult{Events: events}
}

// SearchAttractions looks up attractions by keyword, best match first.
func (c *Client) SearchAttractions(ctx context.Context, keyword string) ([]models.Attraction, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("size", "5")

	body, err := c.get(ctx, attractionsPath, q)
	if err != nil {
		return nil, err
	}

	var out []models.Attraction
	gjson.GetBytes(body, "_embedded.attractions").ForEach(func(_, a gjson.Result) bool {
		id := a.Get("id").String()
		if id != "" {
			out = append(out, models.Attraction{ID: id, Name: a.Get("name").String()})
		}
		return true
	})
	return out, nil
}

func (c *Client) eventQuery(pick models.Pick, r models.DateRange) (url.Values, error) {
	q := url.Values{}
	q.Set("size", strconv.Itoa(c.pageSize))
	q.Set("sort", "date,asc")

	switch pick.Kind {
	case models.PickKindTeam, models.PickKindArtist:
		if pick.CanonicalID != "" {
			q.Set("attractionId", pick.CanonicalID)
			break
		}
		q.Set("keyword", pick.DisplayName)
		// Keep a name search on the pick's league, e.g. NHL vs MLB Rangers.
		if pick.Kind == models.PickKindTeam && pick.League != "" {
			q.Set("classificationName", pick.League)
		}
	case models.PickKindGenre:
		q.Set("classificationName", pick.GenreBucket)
	case models.PickKindRaw:
		q.Set("keyword", pick.DisplayName)
	default:
		return nil, fmt.Errorf("unsupported pick kind %q", pick.Kind)
	}

	if r.Start != "" {
		q.Set("startDateTime", r.Start+"T00:00:00Z")
	}
	if r.End != "" {
		q.Set("endDateTime", r.End+"T23:59:59Z")
	}
	return q, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	endpoint := c.baseURL + path + "?" + q.Encode()

	var body []byte
	err := Retry(ctx, c.policy, func() error {
		// Build request
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		// Execute; transport failures are retryable unless the caller gave up
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return NewRetryableError(fmt.Errorf("%w: %v", ErrProviderUnavailable, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return NewRetryableError(fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err))
		}

		// Map status to outcome
		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return NewRetryableErrorWithDelay(
				fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode),
				retryAfter(resp.Header.Get("Retry-After")),
			)
		default:
			// 4xx other than 429 will not improve on retry
			return fmt.Errorf("provider rejected request: status %d: %s", resp.StatusCode, faultString(data))
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func extractRaw(body []byte, path string) []models.RawEvent {
	list := gjson.GetBytes(body, path)
	out := make([]models.RawEvent, 0, len(list.Array()))
	list.ForEach(func(_, ev gjson.Result) bool {
		out = append(out, models.RawEvent(ev.Raw))
		return true
	})
	return out
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func faultString(body []byte) string {
	if msg := gjson.GetBytes(body, "fault.faultstring"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "errors.0.detail"); msg.Exists() {
		return msg.String()
	}
	return "no detail"
}
