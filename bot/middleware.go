package bot

import (
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

// recoverMiddleware is the dispatcher-boundary error catch: a panicking
// handler is logged and answered with a generic apology, and the bot keeps
// serving subsequent updates.
func (b *Bot) recoverMiddleware(ctx *th.Context, update telego.Update) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bot: Recovered from panic in handler", "panic", r, "update_id", update.UpdateID)

			if update.Message != nil {
				b.sendMessage(ctx, update.Message.Chat.ID, "❌ An error occurred. Please try again later.")
			}
		}
	}()

	return ctx.Next(update)
}
