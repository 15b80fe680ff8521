package telegram

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func restrictedText(channels []string) string {
	var sb strings.Builder
	sb.WriteString("🔒 Restricted Access\n\nYou must join our channels to use this bot:\n\n")
	for i, ch := range channels {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, ch)
	}
	sb.WriteString("\nJoin them and click the button below to verify:")
	return sb.String()
}

func welcomeText() string {
	return "🎵 <b>YouTube Music Bot</b>\n\n" +
		"Send me:\n" +
		"• A song name to search\n" +
		"• A YouTube URL to download"
}

func verifiedText() string {
	return "✅ Membership Verified!\n\nYou can now use all bot features.\n\nSend /start to begin."
}

func waitText(remaining time.Duration) string {
	secs := int(remaining / time.Second)
	return fmt.Sprintf("⏳ Please wait %d seconds before your next request", secs)
}

func audioCaption(username string) string {
	return "🎵 Downloaded via @" + username
}

func verifyKeyboard() *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Verify Membership", actionCheckMembership),
		),
	)
	return &markup
}

func welcomeKeyboard(channels []string) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{searchSongButton("🔍 Search Song", "")},
	}
	if len(channels) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💐 Join Our Channel", channelURL(channels[0])),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func joinChannelKeyboard(channels []string) *tgbotapi.InlineKeyboardMarkup {
	if len(channels) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💐 Join Our Channel", channelURL(channels[0])),
		),
	)
	return &markup
}

func inlineResultKeyboard(username, videoURL, title string) tgbotapi.InlineKeyboardMarkup {
	deepLink := fmt.Sprintf("https://t.me/%s?text=%s", username, url.QueryEscape(videoURL))
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎧 Download", deepLink),
		),
		tgbotapi.NewInlineKeyboardRow(
			searchSongButton("🔍 Search More", title),
		),
	)
}

// searchSongButton opens an inline query in the current chat.
func searchSongButton(text, query string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.InlineKeyboardButton{
		Text:                         text,
		SwitchInlineQueryCurrentChat: &query,
	}
}

func channelURL(channel string) string {
	return "https://t.me/" + strings.TrimPrefix(channel, "@")
}
