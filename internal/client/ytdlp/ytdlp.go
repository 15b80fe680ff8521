package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ErrTimeout reports that the extraction tool exceeded its deadline.
var ErrTimeout = errors.New("yt-dlp timed out")

// VideoInfo is the simplified metadata schema served by the /info endpoint.
type VideoInfo struct {
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Uploader  string   `json:"uploader"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []Format `json:"formats"`
}

// Format is a single downloadable rendition with a direct URL.
type Format struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Filesize   int64  `json:"filesize"`
	URL        string `json:"url"`
}

// Fetcher extracts metadata for a video URL.
type Fetcher interface {
	Fetch(ctx context.Context, videoURL string) (VideoInfo, error)
}

// CLI shells out to the yt-dlp binary.
type CLI struct {
	binPath string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCLI builds a yt-dlp adapter. An empty binPath falls back to "yt-dlp"
// resolved via PATH.
func NewCLI(binPath string, timeout time.Duration, logger *zap.Logger) *CLI {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLI{binPath: binPath, timeout: timeout, logger: logger}
}

// Fetch runs `yt-dlp -j <url>` under a hard wall-clock deadline and maps the
// tool's JSON dump to the simplified schema. A deadline overrun maps to
// ErrTimeout so the HTTP layer can answer 504.
func (c *CLI) Fetch(ctx context.Context, videoURL string) (VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binPath, "-j", videoURL)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return VideoInfo{}, ErrTimeout
	}
	if err != nil {
		c.logger.Error("yt-dlp failed",
			zap.String("url", videoURL), zap.String("stderr", stderr.String()), zap.Error(err))
		return VideoInfo{}, fmt.Errorf("yt-dlp failed: %s", stderr.String())
	}

	info, err := parseOutput(stdout.Bytes())
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return info, nil
}

// rawInfo matches the subset of the yt-dlp JSON dump we care about.
type rawInfo struct {
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Uploader  string   `json:"uploader"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []rawFmt `json:"formats"`
}

type rawFmt struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	FormatNote string  `json:"format_note"`
	Height     float64 `json:"height"`
	Filesize   int64   `json:"filesize"`
	URL        string  `json:"url"`
}

// parseOutput maps the tool dump to VideoInfo, dropping formats that carry
// no direct URL.
func parseOutput(data []byte) (VideoInfo, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return VideoInfo{}, err
	}

	info := VideoInfo{
		Title:     raw.Title,
		Duration:  raw.Duration,
		Uploader:  raw.Uploader,
		Thumbnail: raw.Thumbnail,
		Formats:   make([]Format, 0, len(raw.Formats)),
	}

	for _, f := range raw.Formats {
		if f.URL == "" {
			continue
		}
		res := f.FormatNote
		if res == "" && f.Height > 0 {
			res = fmt.Sprintf("%dp", int(f.Height))
		}
		info.Formats = append(info.Formats, Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: res,
			Filesize:   f.Filesize,
			URL:        f.URL,
		})
	}

	return info, nil
}
