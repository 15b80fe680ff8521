package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ytm-bot/internal/client/resolver"
	"ytm-bot/internal/services/audio"
	"ytm-bot/internal/storage/cooldown"
)

const (
	actionCheckMembership = "check_membership"
	actionDownload        = "download"

	inlineCacheSeconds = 5
)

// API is the slice of the Telegram client the bot needs. *tgbotapi.BotAPI
// satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Settings carries the gating and formatting knobs fixed at process start.
type Settings struct {
	RequiredChannels []string
	AdminID          int64
	MaxSearchResults int
}

// Bot routes inbound updates through the membership and cooldown gates and
// formats replies.
type Bot struct {
	api          API
	username     string
	audioService *audio.Service
	cooldowns    *cooldown.Store
	settings     Settings
	logger       *zap.Logger
}

// NewBot constructs a bot instance.
func NewBot(api API, username string, audioService *audio.Service, cooldowns *cooldown.Store, settings Settings, logger *zap.Logger) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("telegram api is nil")
	}
	if audioService == nil {
		return nil, fmt.Errorf("audio service is nil")
	}
	if cooldowns == nil {
		return nil, fmt.Errorf("cooldown store is nil")
	}
	if settings.MaxSearchResults <= 0 {
		settings.MaxSearchResults = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:          api,
		username:     username,
		audioService: audioService,
		cooldowns:    cooldowns,
		settings:     settings,
		logger:       logger,
	}, nil
}

// HandleUpdate classifies a single webhook update and routes it. All handler
// failures are logged and swallowed; the transport is never asked to retry.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		b.handleInlineQuery(ctx, update.InlineQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := msg.Text

	if !b.isMember(userID) {
		b.sendMessage(chatID, restrictedText(b.settings.RequiredChannels), verifyKeyboard())
		return
	}

	switch {
	case strings.HasPrefix(text, "/start"):
		b.sendMessage(chatID, welcomeText(), welcomeKeyboard(b.settings.RequiredChannels))

	case strings.HasPrefix(text, "/admin") && userID == b.settings.AdminID:
		b.sendMessage(chatID, "Admin panel coming soon...", nil)

	default:
		if videoURL := resolver.FindVideoURL(text); videoURL != "" {
			b.handleDownloadRequest(ctx, chatID, userID, videoURL)
			return
		}
		b.handleSearchRequest(ctx, chatID, userID, text)
	}
}

// handleDownloadRequest runs the gated download flow for a URL sent in chat.
func (b *Bot) handleDownloadRequest(ctx context.Context, chatID, userID int64, videoURL string) {
	if remaining, throttled := b.cooldowns.Acquire(userID); throttled {
		b.sendMessage(chatID, waitText(remaining), nil)
		return
	}

	b.sendMessage(chatID, "⏳ Processing your YouTube link...", nil)
	b.deliverAudio(ctx, chatID, videoURL, nil)
}

// handleSearchRequest treats the whole message text as a search query.
func (b *Bot) handleSearchRequest(ctx context.Context, chatID, userID int64, query string) {
	if remaining, throttled := b.cooldowns.Acquire(userID); throttled {
		b.sendMessage(chatID, waitText(remaining), nil)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("🔍 Searching YouTube for %q...", query), nil)

	results := b.audioService.Search(ctx, query)
	if len(results) == 0 {
		b.sendMessage(chatID, fmt.Sprintf("❌ No results found for %q", query), nil)
		return
	}

	if len(results) > b.settings.MaxSearchResults {
		results = results[:b.settings.MaxSearchResults]
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Search Results:</b>\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(results))
	for i, video := range results {
		fmt.Fprintf(&sb, "%d. <b>%s</b>\n", i+1, video.Title)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. Download", i+1),
				actionDownload+"|"+video.URL,
			),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(chatID, sb.String(), &markup)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answerCallback(cb.ID, "", false)
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	action, param := splitCallbackData(cb.Data)

	// Fresh gate on every callback, whatever the requested action.
	if !b.isMember(userID) {
		b.answerCallback(cb.ID, "❌ You must join our channels first!", true)
		b.editMessage(chatID, messageID, restrictedText(b.settings.RequiredChannels), verifyKeyboard())
		return
	}

	switch action {
	case actionCheckMembership:
		if b.isMember(userID) {
			b.editMessage(chatID, messageID, verifiedText(), nil)
			b.answerCallback(cb.ID, "Membership verified successfully!", false)
		} else {
			b.answerCallback(cb.ID, "❌ You still need to join all channels!", true)
		}

	case actionDownload:
		if param == "" {
			b.answerCallback(cb.ID, "", false)
			return
		}
		if remaining, throttled := b.cooldowns.Acquire(userID); throttled {
			b.answerCallback(cb.ID, waitText(remaining), true)
			return
		}
		b.answerCallback(cb.ID, "Processing your request...", false)
		b.editMessage(chatID, messageID, "⏳ Processing your request...", nil)
		b.deliverAudio(ctx, chatID, param, &editTarget{chatID: chatID, messageID: messageID})

	default:
		b.answerCallback(cb.ID, "", false)
	}
}

func (b *Bot) handleInlineQuery(ctx context.Context, iq *tgbotapi.InlineQuery) {
	query := strings.TrimSpace(iq.Query)

	if !b.isMember(iq.From.ID) {
		article := tgbotapi.NewInlineQueryResultArticleHTML(
			uuid.NewString(),
			"❌ Join Required Channels",
			restrictedText(b.settings.RequiredChannels),
		)
		b.answerInline(iq.ID, []interface{}{article})
		return
	}

	if query == "" {
		article := tgbotapi.NewInlineQueryResultArticleHTML(
			uuid.NewString(),
			"Type a song name or keyword",
			"🔍 Type a song name to search from YouTube...",
		)
		b.answerInline(iq.ID, []interface{}{article})
		return
	}

	videos := b.audioService.Search(ctx, query)
	if len(videos) > b.settings.MaxSearchResults {
		videos = videos[:b.settings.MaxSearchResults]
	}

	results := make([]interface{}, 0, len(videos))
	for _, video := range videos {
		article := tgbotapi.NewInlineQueryResultArticleHTML(
			uuid.NewString(),
			video.Title,
			fmt.Sprintf("🎵 <b>%s</b>\n\n🔗 URL: %s", video.Title, video.URL),
		)
		article.Description = fmt.Sprintf("🎧 Author: %s\n🔗 URL: %s", video.Author, video.URL)
		article.ThumbURL = resolver.ThumbnailURL(video.ID)
		markup := inlineResultKeyboard(b.username, video.URL, video.Title)
		article.ReplyMarkup = &markup
		results = append(results, article)
	}

	b.answerInline(iq.ID, results)
}

// editTarget identifies a message to update in place during a download flow
// started from a callback button.
type editTarget struct {
	chatID    int64
	messageID int
}

// deliverAudio resolves the video, fetches the audio and thumbnail bytes and
// uploads them as a single audio reply. Failure notices go to the edit target
// when one is set, otherwise out as fresh messages.
func (b *Bot) deliverAudio(ctx context.Context, chatID int64, videoURL string, edit *editTarget) {
	notifyFailure := func(text string) {
		if edit != nil {
			b.editMessage(edit.chatID, edit.messageID, text, nil)
			return
		}
		b.sendMessage(chatID, text, nil)
	}

	info, err := b.audioService.Resolve(ctx, videoURL)
	if err != nil || info.DownloadURL == "" {
		if err == nil {
			err = fmt.Errorf("resolver returned no download url")
		}
		b.logger.Error("resolve failed", zap.String("url", videoURL), zap.Error(err))
		notifyFailure(fmt.Sprintf("❌ Failed to process this video\n\nError: %s\n\nTry again or contact support.", err))
		return
	}

	b.sendChatAction(chatID, "upload_audio")

	audioBytes, thumbBytes, err := b.audioService.FetchAudio(ctx, info)
	if err != nil {
		b.logger.Error("audio fetch failed", zap.String("url", videoURL), zap.Error(err))
		notifyFailure("Failed to process audio file.")
		return
	}

	upload := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{
		Name:  info.Title + ".mp3",
		Bytes: audioBytes,
	})
	upload.Title = info.Title
	upload.Performer = b.username
	upload.Caption = audioCaption(b.username)
	if secs, err := strconv.Atoi(info.Duration); err == nil {
		upload.Duration = secs
	}
	if thumbBytes != nil {
		upload.Thumb = tgbotapi.FileBytes{Name: "thumb.jpg", Bytes: thumbBytes}
	}
	if markup := joinChannelKeyboard(b.settings.RequiredChannels); markup != nil {
		upload.ReplyMarkup = *markup
	}

	if _, err := b.api.Send(upload); err != nil {
		b.logger.Error("send audio failed", zap.String("url", videoURL), zap.Error(err))
		notifyFailure("Failed to process audio file.")
	}
}

// splitCallbackData parses the action|param payload encoding.
func splitCallbackData(data string) (action, param string) {
	parts := strings.SplitN(data, "|", 2)
	action = parts[0]
	if len(parts) > 1 {
		param = parts[1]
	}
	return action, param
}

// sendMessage delivers an HTML text message. Send failures are logged and
// swallowed since the notification channel is itself the failing path.
func (b *Bot) sendMessage(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("edit message failed", zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
	}
}

func (b *Bot) answerCallback(callbackID, text string, alert bool) {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = alert
	if _, err := b.api.Request(answer); err != nil {
		b.logger.Error("answer callback failed", zap.Error(err))
	}
}

func (b *Bot) answerInline(inlineQueryID string, results []interface{}) {
	answer := tgbotapi.InlineConfig{
		InlineQueryID: inlineQueryID,
		IsPersonal:    true,
		CacheTime:     inlineCacheSeconds,
		Results:       results,
	}
	if _, err := b.api.Request(answer); err != nil {
		b.logger.Error("answer inline failed", zap.Error(err))
	}
}

func (b *Bot) sendChatAction(chatID int64, action string) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.logger.Error("send chat action failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}
