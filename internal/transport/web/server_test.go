package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ytm-bot/internal/client/resolver"
	"ytm-bot/internal/client/ytdlp"
	"ytm-bot/internal/services/audio"
	"ytm-bot/internal/storage/cooldown"
	"ytm-bot/internal/transport/telegram"
)

type fakeFetcher struct {
	info ytdlp.VideoInfo
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) (ytdlp.VideoInfo, error) {
	return f.info, f.err
}

type nopAPI struct{}

func (nopAPI) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	return tgbotapi.Message{}, nil
}

func (nopAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (nopAPI) GetChatMember(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	return tgbotapi.ChatMember{Status: "member"}, nil
}

type nopResolver struct{}

func (nopResolver) ResolveAudio(context.Context, string) (resolver.AudioInfo, error) {
	return resolver.AudioInfo{}, errors.New("unavailable")
}

func (nopResolver) SearchVideos(context.Context, string) []resolver.SearchResult {
	return nil
}

func newTestServer(t *testing.T, fetcher ytdlp.Fetcher) *Server {
	t.Helper()

	store := cooldown.New(filepath.Join(t.TempDir(), "cooldowns.json"), 10*time.Second, nil)
	service := audio.NewService(nopResolver{}, nil, nil)

	bot, err := telegram.NewBot(nopAPI{}, "testbot", service, store, telegram.Settings{
		MaxSearchResults: 10,
	}, nil)
	if err != nil {
		t.Fatalf("NewBot: %v", err)
	}
	return NewServer(bot, fetcher, nil)
}

func TestHome(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "running") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestInfoMissingURL(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("body missing error key")
	}
}

func TestInfoTimeoutMapsTo504(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{err: ytdlp.ErrTimeout})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info?url=https://youtu.be/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestInfoToolFailureMapsTo500(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{err: errors.New("yt-dlp failed: no video")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info?url=https://youtu.be/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "yt-dlp failed" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestInfoSuccess(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{info: ytdlp.VideoInfo{
		Title:    "A Video",
		Duration: 212,
		Uploader: "Someone",
		Formats: []ytdlp.Format{
			{FormatID: "22", Ext: "mp4", Resolution: "720p", URL: "https://cdn/a"},
		},
	}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info?url=https://youtu.be/dQw4w9WgXcQ", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body ytdlp.VideoInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Title != "A Video" || len(body.Formats) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWebhookAcknowledgesUpdate(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	update := `{"update_id":1,"message":{"message_id":1,"from":{"id":42},"chat":{"id":99},"text":"/start"}}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(update))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "OK" {
		t.Errorf("status field = %q, want OK", body["status"])
	}
}

func TestWebhookRejectsGet(t *testing.T) {
	srv := newTestServer(t, &fakeFetcher{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
