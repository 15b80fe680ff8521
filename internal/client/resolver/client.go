package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const userAgent = "ytm-bot/0.1"

// AudioInfo is the resolved audio reference for a single video.
type AudioInfo struct {
	Title       string
	Thumbnail   string
	Duration    string
	DownloadURL string
}

// SearchResult is one entry returned by the search service.
type SearchResult struct {
	ID     string
	Title  string
	Author string
	URL    string
}

// Client describes operations the service layer relies on.
type Client interface {
	ResolveAudio(ctx context.Context, videoURL string) (AudioInfo, error)
	SearchVideos(ctx context.Context, query string) []SearchResult
}

// HTTPClient wraps the stdlib client for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIClient implements Client against the third-party resolver endpoints.
type APIClient struct {
	httpClient  HTTPClient
	resolveBase string
	searchBase  string
	logger      *zap.Logger
}

// NewClient builds a resolver API client.
func NewClient(httpClient HTTPClient, resolveBase, searchBase string, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &APIClient{
		httpClient:  httpClient,
		resolveBase: strings.TrimRight(resolveBase, "/"),
		searchBase:  strings.TrimRight(searchBase, "/"),
		logger:      logger,
	}
}

// ResolveAudio asks the generate endpoint for a downloadable audio URL.
// The thumbnail is derived locally from the video identifier rather than
// trusted from the response.
func (c *APIClient) ResolveAudio(ctx context.Context, videoURL string) (AudioInfo, error) {
	if strings.TrimSpace(videoURL) == "" {
		return AudioInfo{}, fmt.Errorf("video url is empty")
	}

	u := fmt.Sprintf("%s/?action=generate&url=%s", c.resolveBase, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return AudioInfo{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AudioInfo{}, fmt.Errorf("resolve request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return AudioInfo{}, fmt.Errorf("resolve failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return AudioInfo{}, fmt.Errorf("resolve failed: expected JSON response, got %s", ct)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return AudioInfo{}, fmt.Errorf("decode resolve response: %w", err)
	}

	if !payload.Success {
		return AudioInfo{}, fmt.Errorf("resolver reported failure for %s", videoURL)
	}

	title := payload.Title
	if title == "" {
		title = "Unknown Title"
	}
	duration := payload.Duration
	if duration == "" {
		duration = "Unknown"
	}

	return AudioInfo{
		Title:       title,
		Thumbnail:   ThumbnailURL(ExtractVideoID(videoURL)),
		Duration:    duration,
		DownloadURL: payload.DownloadURL,
	}, nil
}

// SearchVideos queries the keyword search endpoint. Any failure degrades to
// an empty result list; the caller never sees an error.
func (c *APIClient) SearchVideos(ctx context.Context, query string) []SearchResult {
	u := fmt.Sprintf("%s/ytsearch.php?query=%s", c.searchBase, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.Error("search request build failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("search request failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("search returned non-success status",
			zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil
	}

	var items []searchItemDTO
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		c.logger.Error("decode search response failed", zap.String("query", query), zap.Error(err))
		return nil
	}

	results := make([]SearchResult, 0, len(items))
	for _, it := range items {
		results = append(results, SearchResult{
			ID:     it.ID,
			Title:  it.Title,
			Author: it.Author,
			URL:    it.URL,
		})
	}
	return results
}
