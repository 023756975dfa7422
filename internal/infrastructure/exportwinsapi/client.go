// Package exportwinsapi reads the paginated datasets of the legacy export wins service.
package exportwinsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Dataset paths served by the legacy service.
const (
	WinsPath       = "/datasets/data-hub-wins"
	BreakdownsPath = "/datasets/data-hub-breakdowns"
	AdvisersPath   = "/datasets/data-hub-advisors"
)

// Client fetches dataset pages with Hawk request signing.
type Client struct {
	BaseURL     string
	Credentials Credentials
	HTTP        *http.Client
	// VerifyResponses requires a valid Server-Authorization on every response.
	VerifyResponses bool

	now   func() time.Time
	nonce func() (string, error)
}

// NewClient returns a client with a 30 second timeout that verifies responses.
func NewClient(baseURL, hawkID, hawkKey string) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		Credentials:     Credentials{ID: hawkID, Key: hawkKey},
		HTTP:            &http.Client{Timeout: 30 * time.Second},
		VerifyResponses: true,
	}
}

type page struct {
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// Pages walks a dataset from path, following next links until there are none.
// fn receives the raw results of each page in order.
func (c *Client) Pages(ctx context.Context, path string, fn func(results []json.RawMessage) error) error {
	next := c.BaseURL + path
	for n := 1; next != ""; n++ {
		p, err := c.fetch(ctx, next)
		if err != nil {
			return err
		}
		log.Debug().Str("url", next).Int("page", n).Int("results", len(p.Results)).Msg("fetched legacy export wins page")
		if err := fn(p.Results); err != nil {
			return err
		}
		next = ""
		if p.Next != nil {
			next = c.absolute(*p.Next)
		}
	}
	return nil
}

func (c *Client) absolute(next string) string {
	if strings.HasPrefix(next, "http://") || strings.HasPrefix(next, "https://") {
		return next
	}
	return c.BaseURL + "/" + strings.TrimLeft(next, "/")
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	now, nonce := time.Now, randomNonce
	if c.now != nil {
		now = c.now
	}
	if c.nonce != nil {
		nonce = c.nonce
	}
	n, err := nonce()
	if err != nil {
		return nil, err
	}
	a := newArtifacts(http.MethodGet, u, now().Unix(), n, payloadHash("", nil))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", a.header(c.Credentials))
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", u.Path, resp.StatusCode)
	}
	if c.VerifyResponses {
		if err := verifyResponse(a, c.Credentials, resp.Header.Get("Server-Authorization"), resp.Header.Get("Content-Type"), body); err != nil {
			return nil, fmt.Errorf("get %s: %w", u.Path, err)
		}
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u.Path, err)
	}
	return &p, nil
}

// Wins walks the legacy wins dataset.
func (c *Client) Wins(ctx context.Context, fn func(LegacyWin) error) error {
	return eachRecord(ctx, c, WinsPath, fn)
}

// Breakdowns walks the legacy breakdowns dataset.
func (c *Client) Breakdowns(ctx context.Context, fn func(LegacyBreakdown) error) error {
	return eachRecord(ctx, c, BreakdownsPath, fn)
}

// Advisers walks the legacy win advisers dataset.
func (c *Client) Advisers(ctx context.Context, fn func(LegacyAdviser) error) error {
	return eachRecord(ctx, c, AdvisersPath, fn)
}

// eachRecord decodes every result into T. Records that fail to decode are logged and skipped.
func eachRecord[T any](ctx context.Context, c *Client, path string, fn func(T) error) error {
	return c.Pages(ctx, path, func(results []json.RawMessage) error {
		for _, raw := range results {
			var rec T
			if err := json.Unmarshal(raw, &rec); err != nil {
				log.Error().Err(err).Str("dataset", path).RawJSON("record", raw).Msg("cannot decode legacy record")
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
