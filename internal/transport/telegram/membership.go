package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// memberStatuses are the roles that count as "plain participant or higher".
var memberStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// isMember reports whether the user belongs to every required channel.
// Never cached; lookup failures log with channel and user context and
// collapse to false without retry.
func (b *Bot) isMember(userID int64) bool {
	for _, channel := range b.settings.RequiredChannels {
		member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				SuperGroupUsername: channel,
				UserID:             userID,
			},
		})
		if err != nil {
			b.logger.Error("membership check failed",
				zap.String("channel", channel), zap.Int64("user", userID), zap.Error(err))
			return false
		}
		if !memberStatuses[member.Status] {
			return false
		}
	}
	return true
}
