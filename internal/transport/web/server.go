package web

import (
	"encoding/json"
	"errors"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"ytm-bot/internal/client/ytdlp"
	"ytm-bot/internal/transport/telegram"
)

// Server exposes the metadata fetch endpoint and the bot webhook.
type Server struct {
	bot     *telegram.Bot
	fetcher ytdlp.Fetcher
	logger  *zap.Logger
}

// NewServer constructs the HTTP surface.
func NewServer(bot *telegram.Bot, fetcher ytdlp.Fetcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{bot: bot, fetcher: fetcher, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/webhook", s.handleWebhook)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("✅ YouTube Downloader API is running."))
}

// handleInfo wraps the external extraction tool and reformats its output.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	videoURL := r.URL.Query().Get("url")
	if videoURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'url' parameter"})
		return
	}

	info, err := s.fetcher.Fetch(r.Context(), videoURL)
	switch {
	case errors.Is(err, ytdlp.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "yt-dlp timed out"})
	case err != nil:
		s.logger.Error("metadata fetch failed", zap.String("url", videoURL), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "yt-dlp failed",
			"stderr": err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, info)
	}
}

// handleWebhook accepts a single Telegram update. A handled update always
// answers {"status":"OK"}; malformed payloads and panics surface as a
// generic server error while still counting as received by the transport.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("webhook handler panicked", zap.Any("panic", rec))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		}
	}()

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Error("decode update failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	s.bot.HandleUpdate(r.Context(), update)

	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
