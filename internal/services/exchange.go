// Track exchange [TrackExchange] implementation
//
// Talks to the public search API (https://api2.mania.exchange/Method/Index/43).
package services

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

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultExchangeURL = "https://tmnf.exchange"
	defaultPageSize    = 10000
	tracksEndpoint     = "/api/tracks"
	// orderUploadedAsc is the order1 value for ascending upload date
	orderUploadedAsc = "1"
)

// searchField names a field the search endpoint can return.
type searchField string

const (
	fieldTrackID    searchField = "TrackId"
	fieldUId        searchField = "UId"
	fieldUploadedAt searchField = "UploadedAt"
)

// searchResponse is the wire shape of GET /api/tracks.
//
// Pointers distinguish a missing field from its zero value.
type searchResponse struct {
	More    *bool          `json:"More"`
	Results []searchResult `json:"Results"`
	hasList bool
}

type searchResult struct {
	TrackID    *int    `json:"TrackId"`
	UId        *string `json:"UId"`
	UploadedAt *string `json:"UploadedAt"`
}

// UnmarshalJSON records whether "Results" was present, so a missing list is not mistaken for an empty page.
func (s *searchResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		More    *bool           `json:"More"`
		Results json.RawMessage `json:"Results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.More = raw.More
	s.hasList = len(raw.Results) > 0 && string(raw.Results) != "null"
	if !s.hasList {
		return nil
	}
	return json.Unmarshal(raw.Results, &s.Results)
}

// validate checks the envelope and that every result carries the requested fields.
func (s *searchResponse) validate(fields ...searchField) error {
	if s.More == nil {
		return fmt.Errorf("%w: missing More", shared.ErrMalformedResponse)
	}
	if !s.hasList {
		return fmt.Errorf("%w: missing Results", shared.ErrMalformedResponse)
	}

	for i, r := range s.Results {
		for _, f := range fields {
			var present bool
			switch f {
			case fieldTrackID:
				present = r.TrackID != nil
			case fieldUId:
				present = r.UId != nil
			case fieldUploadedAt:
				present = r.UploadedAt != nil
			}
			if !present {
				return fmt.Errorf("%w: result %d missing %s", shared.ErrMalformedResponse, i, f)
			}
		}
	}
	return nil
}

// ExchangeService implements [TrackExchange] over HTTP.
type ExchangeService struct {
	baseURL    string
	pageSize   int
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewExchangeService creates a new exchange client from cfg.
//
// A nil client uses [http.DefaultClient], which applies no timeout.
func NewExchangeService(cfg shared.ExchangeConfig, client *http.Client) *ExchangeService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultExchangeURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &ExchangeService{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   cfg.PageSize,
		userAgent:  cfg.UserAgent,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name returns the service name.
func (e *ExchangeService) Name() string {
	return "TMNF Exchange"
}

// PageSize returns the number of tracks requested per page.
func (e *ExchangeService) PageSize() int {
	return e.pageSize
}

func fieldList(fields ...searchField) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func (e *ExchangeService) search(ctx context.Context, query url.Values) (*searchResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	apiURL := e.baseURL + tracksEndpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if msg := strings.TrimSpace(string(detail)); msg != "" {
			return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	return &result, nil
}

// ListTracks returns up to PageSize tracks ordered by ascending upload date.
//
// Calls GET /api/tracks?fields=TrackId,UId,UploadedAt&order1=1&count={n}[&after={id}]
func (e *ExchangeService) ListTracks(ctx context.Context, after *int) (*models.Page, error) {
	fields := []searchField{fieldTrackID, fieldUId, fieldUploadedAt}

	query := url.Values{}
	query.Set("fields", fieldList(fields...))
	query.Set("order1", orderUploadedAsc)
	query.Set("count", strconv.Itoa(e.pageSize))
	if after != nil {
		query.Set("after", strconv.Itoa(*after))
	}

	resp, err := e.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := resp.validate(fields...); err != nil {
		return nil, err
	}

	page := &models.Page{
		More:    *resp.More,
		Results: make([]models.TrackRecord, len(resp.Results)),
	}
	for i, r := range resp.Results {
		page.Results[i] = models.TrackRecord{
			TrackID:    *r.TrackID,
			UId:        *r.UId,
			UploadedAt: *r.UploadedAt,
		}
	}
	return page, nil
}

// UploadDate returns the upload timestamp of trackID.
//
// Calls GET /api/tracks?fields=UploadedAt&count=1&id={id}
func (e *ExchangeService) UploadDate(ctx context.Context, trackID int) (string, error) {
	query := url.Values{}
	query.Set("fields", fieldList(fieldUploadedAt))
	query.Set("count", "1")
	query.Set("id", strconv.Itoa(trackID))

	resp, err := e.search(ctx, query)
	if err != nil {
		return "", err
	}
	if err := resp.validate(fieldUploadedAt); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("%w: %d", shared.ErrTrackNotFound, trackID)
	}
	return *resp.Results[0].UploadedAt, nil
}

// HasRecord reports whether trackID has any recorded replay.
//
// Calls GET /api/tracks?fields=TrackId&count=1&inhasrecord=1&id={id}
func (e *ExchangeService) HasRecord(ctx context.Context, trackID int) (bool, error) {
	query := url.Values{}
	query.Set("fields", fieldList(fieldTrackID))
	query.Set("count", "1")
	query.Set("inhasrecord", "1")
	query.Set("id", strconv.Itoa(trackID))

	resp, err := e.search(ctx, query)
	if err != nil {
		return false, err
	}
	if err := resp.validate(fieldTrackID); err != nil {
		return false, err
	}
	return len(resp.Results) != 0, nil
}
