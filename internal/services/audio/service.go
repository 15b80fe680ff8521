package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ytm-bot/internal/client/resolver"
)

// maxAudioBytes caps in-memory buffering of a resolved audio file.
const maxAudioBytes = 50 << 20

// Service orchestrates the resolve-and-fetch workflow for audio downloads.
type Service struct {
	client     resolver.Client
	httpClient resolver.HTTPClient
	logger     *zap.Logger
}

// NewService constructs an audio service instance.
func NewService(client resolver.Client, httpClient resolver.HTTPClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Service{
		client:     client,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Resolve proxies to the resolver client.
func (s *Service) Resolve(ctx context.Context, videoURL string) (resolver.AudioInfo, error) {
	return s.client.ResolveAudio(ctx, videoURL)
}

// Search proxies to the search client. Failures surface as an empty list.
func (s *Service) Search(ctx context.Context, query string) []resolver.SearchResult {
	return s.client.SearchVideos(ctx, query)
}

// FetchAudio downloads the resolved audio and its thumbnail into memory for
// upload. A failed thumbnail fetch is non-fatal and yields a nil thumb.
func (s *Service) FetchAudio(ctx context.Context, info resolver.AudioInfo) (audio, thumb []byte, err error) {
	audio, err = s.fetch(ctx, info.DownloadURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch audio: %w", err)
	}

	thumb, err = s.fetch(ctx, info.Thumbnail)
	if err != nil {
		s.logger.Warn("thumbnail fetch failed", zap.String("url", info.Thumbnail), zap.Error(err))
		thumb = nil
	}

	return audio, thumb, nil
}

func (s *Service) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed: status=%d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
}
