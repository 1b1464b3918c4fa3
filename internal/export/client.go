// Package export talks to the R-Forge export endpoint that serves the
// project title fragment.
package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"projectpage/internal/config"
	"projectpage/internal/observability"
	"projectpage/internal/page"
)

// Client fetches project title fragments. Every failure is reported as
// ok=false and never surfaces as an error.
type Client struct {
	httpClient *http.Client
	scheme     string
	path       string
	maxBytes   int64
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Export.Timeout},
		scheme:     cfg.Export.Scheme,
		path:       cfg.Export.Path,
		maxBytes:   cfg.Export.MaxBytes,
	}
}

// TitleURL addresses the fragment for names, e.g.
// http://r-forge.r-project.org/export/projtitl.php?group_name=sbsa
func (c *Client) TitleURL(names page.Names) string {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     names.Domain,
		Path:     c.path,
		RawQuery: "group_name=" + url.QueryEscape(names.Group),
	}
	return u.String()
}

// ProjectTitle performs one GET with the client timeout. Non-2xx responses
// and bodies longer than the configured cap count as failures.
func (c *Client) ProjectTitle(ctx context.Context, names page.Names) (string, bool) {
	target := c.TitleURL(names)
	start := time.Now()
	defer func() { observability.ExportLatency.Observe(time.Since(start).Seconds()) }()

	body, err := c.fetch(ctx, target)
	if err != nil {
		log.Debug().Err(err).Str("url", target).Msg("project title unavailable")
		return "", false
	}
	observability.ExportFetches.WithLabelValues(observability.OutcomeOK).Inc()
	return body, true
}

func (c *Client) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		observability.ExportFetches.WithLabelValues(observability.OutcomeRequest).Inc()
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ExportFetches.WithLabelValues(observability.OutcomeTransport).Inc()
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observability.ExportFetches.WithLabelValues(observability.OutcomeStatus).Inc()
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// one byte past the cap tells an exact fit from an oversized body
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		observability.ExportFetches.WithLabelValues(observability.OutcomeRead).Inc()
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(b)) > c.maxBytes {
		observability.ExportFetches.WithLabelValues(observability.OutcomeTooLarge).Inc()
		return "", fmt.Errorf("body exceeds %d bytes", c.maxBytes)
	}
	return string(b), nil
}
