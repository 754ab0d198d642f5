// Package client calls the card layout JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/tablecards/internal/layout/domain"
	apperrors "github.com/louisbranch/tablecards/internal/platform/errors"
	"github.com/louisbranch/tablecards/internal/platform/otel"
	"github.com/louisbranch/tablecards/internal/platform/timeouts"
	"go.opentelemetry.io/otel/attribute"
)

// APIError is a non-2xx API response.
type APIError struct {
	Status  int
	Code    apperrors.Code
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api returned %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is an API not found response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.lang = strings.TrimSpace(lang)
	}
}

// Client is a typed card layout API client.
type Client struct {
	base *url.URL
	http *http.Client
	lang string
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:8090/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http or https: %q", baseURL)
	}
	c := &Client{
		base: base,
		http: &http.Client{Timeout: timeouts.HTTPClient},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// ListCampaigns returns every campaign.
func (c *Client) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	if err := c.do(ctx, http.MethodGet, "/campaigns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCampaign returns one campaign by id.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (domain.Campaign, error) {
	var out domain.Campaign
	err := c.do(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(campaignID), nil, &out)
	return out, err
}

// GetDefaultLayout returns the campaign's default layout. Campaigns without a
// saved layout get an unsaved default with an empty ID.
func (c *Client) GetDefaultLayout(ctx context.Context, campaignID string) (domain.CardLayout, error) {
	var out domain.CardLayout
	err := c.do(ctx, http.MethodGet, "/campaigns/"+url.PathEscape(campaignID)+"/layouts/default", nil, &out)
	return out, err
}

// SaveLayout stores layout, creating it when it has no ID, and returns the
// stored version.
func (c *Client) SaveLayout(ctx context.Context, layout domain.CardLayout) (domain.CardLayout, error) {
	if strings.TrimSpace(layout.CampaignID) == "" {
		return domain.CardLayout{}, domain.ErrEmptyCampaignID
	}
	path := "/campaigns/" + url.PathEscape(layout.CampaignID) + "/layouts"
	method := http.MethodPost
	if layout.ID != "" {
		path += "/" + url.PathEscape(layout.ID)
		method = http.MethodPut
	}
	var out domain.CardLayout
	err := c.do(ctx, method, path, layout, &out)
	return out, err
}

// ListPresets returns the color presets offered by the service.
func (c *Client) ListPresets(ctx context.Context) ([]domain.ColorPreset, error) {
	var out []domain.ColorPreset
	if err := c.do(ctx, http.MethodGet, "/presets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, span := otel.Start(ctx, "client."+method)
	defer span.End()
	span.SetAttributes(attribute.String("http.route", path))

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.lang != "" {
		req.Header.Set("Accept-Language", c.lang)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Code: apperrors.CodeUnknown}
		var payload struct {
			Code    apperrors.Code `json:"code"`
			Message string         `json:"message"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
			if payload.Code != "" {
				apiErr.Code = payload.Code
			}
			apiErr.Message = payload.Message
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
