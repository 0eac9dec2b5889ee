package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// ChatAdministratorIDs resolves a chat's administrator set via the Bot API.
// Implements auth.AdminLister.
func (b *Bot) ChatAdministratorIDs(ctx context.Context, chatID int64) ([]int64, error) {
	members, err := b.api.GetChatAdministrators(ctx, &telego.GetChatAdministratorsParams{
		ChatID: tu.ID(chatID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat administrators: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.MemberUser().ID)
	}
	return ids, nil
}

// commandArgs returns the whitespace-separated arguments following the
// command token itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// displayName picks the label a user is shown under: username when set,
// first name otherwise.
func displayName(user *telego.User) string {
	if user.Username != "" {
		return user.Username
	}
	return user.FirstName
}

// escapeMarkdown escapes the characters Telegram's legacy Markdown mode
// treats as entity markers, for user-supplied text interpolated into
// formatted replies.
func escapeMarkdown(text string) string {
	specialChars := []string{"_", "*", "`", "["}

	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	message := tu.Message(tu.ID(chatID), text)
	message.ParseMode = telego.ModeMarkdown

	_, err := b.api.SendMessage(ctx, message)
	if err != nil {
		// Check if it's a rate limit error
		if strings.Contains(err.Error(), "Too Many Requests") {
			// Extract retry_after value from error message
			// Format: "telego: sendMessage: api: 429 \"Too Many Requests: retry after 5\", migrate to chat ID: 0, retry after: 5"
			parts := strings.Split(err.Error(), "retry after: ")
			if len(parts) == 2 {
				var retryAfter int
				if _, _ = fmt.Sscanf(parts[1], "%d", &retryAfter); retryAfter > 0 {
					slog.Debug("bot: API error", "error", err.Error())
					slog.Info("bot: Rate limit hit, waiting", "seconds", retryAfter)
					time.Sleep(time.Duration(retryAfter) * time.Second)
					_, retryErr := b.api.SendMessage(ctx, message)
					if retryErr != nil {
						err = retryErr
					} else {
						slog.Info("bot: Message sent successfully after rate limit wait")
					}
				}
			}
		}
		if err != nil {
			slog.Error("bot: Failed to send message", "error", err, "chat_id", chatID, "text_length", len(text))
		}
	}
}
