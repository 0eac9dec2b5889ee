package bot

import (
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
)

const (
	resetCallbackPrefix = "reset:"
	resetConfirmData    = "reset:confirm"
	resetCancelData     = "reset:cancel"
)

func (b *Bot) resetHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /reset", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, true); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Yes, reset all data").WithCallbackData(resetConfirmData),
			tu.InlineKeyboardButton("❌ Cancel").WithCallbackData(resetCancelData),
		),
	)

	prompt := tu.Message(tu.ID(msg.Chat.ID),
		"⚠️ *WARNING: This will delete ALL bot data!*\n\nAre you sure you want to continue?")
	prompt.ParseMode = telego.ModeMarkdown
	prompt.ReplyMarkup = keyboard

	if _, err := b.api.SendMessage(ctx, prompt); err != nil {
		slog.Error("bot: Failed to send reset prompt", "error", err, "chat_id", msg.Chat.ID)
	}
	return nil
}

// resetCallbackHandler concludes the reset prompt. The prompt instance's
// entire state travels in the callback data: confirm wipes the group's data,
// anything else cancels.
func (b *Bot) resetCallbackHandler(ctx *th.Context, update telego.Update) error {
	query := update.CallbackQuery
	if query == nil {
		return nil
	}

	if err := b.api.AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID)); err != nil {
		slog.Error("bot: Failed to answer callback query", "error", err, "query_id", query.ID)
	}

	if query.Message == nil {
		return nil
	}

	chatID := query.Message.GetChat().ID
	messageID := query.Message.GetMessageID()

	var outcome string
	if query.Data == resetConfirmData {
		if err := b.tracker.Reset(ctx, chatID); err != nil {
			outcome = "❌ Failed to reset data."
		} else {
			outcome = "✅ All bot data has been reset!"
		}
	} else {
		outcome = "Reset cancelled."
	}

	_, err := b.api.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      outcome,
	})
	if err != nil {
		slog.Error("bot: Failed to edit reset prompt", "error", err, "chat_id", chatID)
	}
	return nil
}
