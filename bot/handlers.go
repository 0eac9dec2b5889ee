package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"telegram-target-tracker-bot/auth"
	"telegram-target-tracker-bot/tracker"
)

const (
	welcomeText = "🎯 *Target Tracker Bot*\n\n" +
		"I help track daily targets for group members!\n\n" +
		"*Available Commands:*\n" +
		"📌 /addtarget <target> - Add your target for today\n" +
		"📌 /mytarget - Check your today's target\n" +
		"📌 /today - See all targets for today\n" +
		"📌 /mytargets - See your recent targets (last 7 days)\n" +
		"📌 /done - Mark today's target as completed\n\n" +
		"*Admin Commands:*\n" +
		"🛠 /reset - Clear all bot data (testing only)\n" +
		"🛠 /addtargetfor @username <target> - Add target for a user\n" +
		"🛠 /status - Check bot status\n" +
		"🛠 /help - Show this help message"

	helpText = "🎯 *Target Tracker Bot Help*\n\n" +
		"*User Commands:*\n" +
		"📌 /addtarget <target> - Add your daily target\n" +
		"📌 /mytarget - View your today's target\n" +
		"📌 /today - View all targets for today\n" +
		"📌 /mytargets - View your recent targets\n" +
		"📌 /done - Mark your target as completed\n\n" +
		"*Admin Commands:*\n" +
		"🛠 /addtargetfor @username <target> - Add target for a user\n" +
		"🛠 /reset - Reset all bot data\n" +
		"🛠 /status - Check bot status\n" +
		"🛠 /help - Show this help message\n\n" +
		"*Note:* This bot only works in the authorized group!"

	genericFailureText = "❌ Something went wrong. Please try again later."
)

// authorize runs the policy for a message-based command.
func (b *Bot) authorize(ctx *th.Context, msg *telego.Message, groupScoped, adminOnly bool) error {
	return b.policy.Authorize(ctx, auth.Request{
		ChatID:      msg.Chat.ID,
		ChatType:    msg.Chat.Type,
		UserID:      msg.From.ID,
		GroupScoped: groupScoped,
		AdminOnly:   adminOnly,
	})
}

// replyAuthError turns a policy denial (or store failure) into the
// user-facing message. Denials are not application errors; only store
// failures get logged with detail.
func (b *Bot) replyAuthError(ctx *th.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, auth.ErrGroupsOnly):
		b.sendMessage(ctx, chatID, "⚠️ This bot only works in groups!")
	case errors.Is(err, auth.ErrGroupNotAuthorized):
		b.sendMessage(ctx, chatID, "🚫 This bot is not authorized to work in this group!")
	case errors.Is(err, auth.ErrAdminOnly):
		b.sendMessage(ctx, chatID, "🚫 This command is for admins only!")
	default:
		slog.Error("bot: Authorization check failed", "error", err, "chat_id", chatID)
		b.sendMessage(ctx, chatID, genericFailureText)
	}
}

func (b *Bot) startHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /start", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	groupName := msg.Chat.Title
	if groupName == "" {
		groupName = "Unknown Group"
	}

	if err := b.storage.AuthorizeGroup(ctx, msg.Chat.ID, groupName); err != nil {
		b.sendMessage(ctx, msg.Chat.ID, genericFailureText)
		return nil
	}

	b.sendMessage(ctx, msg.Chat.ID, welcomeText)
	return nil
}

func (b *Bot) helpHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}

	slog.Info("bot: /help", "chat_id", msg.Chat.ID)

	b.sendMessage(ctx, msg.Chat.ID, helpText)
	return nil
}

func (b *Bot) addTargetHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /addtarget", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	args := commandArgs(msg.Text)
	if len(args) == 0 {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Please provide your target!\nUsage: /addtarget <your target>")
		return nil
	}

	target := strings.Join(args, " ")

	rec, err := b.tracker.AddTarget(ctx, msg.Chat.ID, msg.From.ID, displayName(msg.From), target)
	switch {
	case errors.Is(err, tracker.ErrEmptyTarget):
		b.sendMessage(ctx, msg.Chat.ID, "❌ Target cannot be empty!")
	case errors.Is(err, tracker.ErrTargetTooLong):
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("❌ Target is too long! Maximum %d characters.", b.tracker.MaxTargetLength()))
	case err != nil:
		b.sendMessage(ctx, msg.Chat.ID, "❌ Failed to add target. Please try again.")
	default:
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("✅ Target added!\n📝 *Your Target:* %s", escapeMarkdown(rec.Target)))
	}
	return nil
}

func (b *Bot) addTargetForHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /addtargetfor", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, true); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	args := commandArgs(msg.Text)
	if len(args) < 2 {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Usage: /addtargetfor @username <target>")
		return nil
	}

	username := strings.TrimPrefix(args[0], "@")
	target := strings.Join(args[1:], " ")

	rec, err := b.tracker.AddTargetForUsername(ctx, msg.Chat.ID, username, target)
	switch {
	case errors.Is(err, tracker.ErrEmptyTarget):
		b.sendMessage(ctx, msg.Chat.ID, "❌ Usage: /addtargetfor @username <target>")
	case errors.Is(err, tracker.ErrTargetTooLong):
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("❌ Target is too long! Maximum %d characters.", b.tracker.MaxTargetLength()))
	case err != nil:
		b.sendMessage(ctx, msg.Chat.ID, "❌ Failed to add target.")
	default:
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("✅ Target added for @%s!\n📝 *Target:* %s",
				escapeMarkdown(rec.Username), escapeMarkdown(rec.Target)))
	}
	return nil
}

func (b *Bot) myTargetHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /mytarget", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	rec, err := b.tracker.TodayTarget(ctx, msg.From.ID)
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		b.sendMessage(ctx, msg.Chat.ID,
			"📭 You haven't set a target for today!\nUse /addtarget <your target> to add one.")
	case err != nil:
		b.sendMessage(ctx, msg.Chat.ID, genericFailureText)
	default:
		b.sendMessage(ctx, msg.Chat.ID, tracker.FormatTargetDetail(rec))
	}
	return nil
}

func (b *Bot) todayHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /today", "chat_id", msg.Chat.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	records, err := b.tracker.GroupTargets(ctx, msg.Chat.ID)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, genericFailureText)
		return nil
	}

	if len(records) == 0 {
		b.sendMessage(ctx, msg.Chat.ID, "📭 No targets set for today!")
		return nil
	}

	b.sendMessage(ctx, msg.Chat.ID, tracker.FormatRoster(records))
	return nil
}

func (b *Bot) myTargetsHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /mytargets", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	records, err := b.tracker.RecentTargets(ctx, msg.From.ID)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, genericFailureText)
		return nil
	}

	if len(records) == 0 {
		b.sendMessage(ctx, msg.Chat.ID, "📭 You haven't set any targets yet!")
		return nil
	}

	b.sendMessage(ctx, msg.Chat.ID, tracker.FormatRecent(records))
	return nil
}

func (b *Bot) doneHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /done", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, false); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	_, err := b.tracker.MarkDone(ctx, msg.From.ID)
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		b.sendMessage(ctx, msg.Chat.ID, "📭 You don't have a target for today!")
	case errors.Is(err, tracker.ErrAlreadyCompleted):
		b.sendMessage(ctx, msg.Chat.ID, "✅ You've already completed today's target!")
	case err != nil:
		b.sendMessage(ctx, msg.Chat.ID, "❌ Failed to mark target as completed.")
	default:
		b.sendMessage(ctx, msg.Chat.ID,
			fmt.Sprintf("🎉 Congratulations @%s! Target marked as completed!",
				escapeMarkdown(displayName(msg.From))))
	}
	return nil
}

func (b *Bot) statusHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}

	slog.Info("bot: /status", "chat_id", msg.Chat.ID, "user_id", msg.From.ID)

	if err := b.authorize(ctx, msg, true, true); err != nil {
		b.replyAuthError(ctx, msg.Chat.ID, err)
		return nil
	}

	groupInfo := "⚠️ *No group authorized yet*"
	authorized, err := b.storage.AuthorizedGroup(ctx)
	if err == nil {
		groupInfo = fmt.Sprintf("✅ *Authorized Group:* %s (ID: %d)",
			escapeMarkdown(authorized.GroupName), authorized.GroupID)
	}

	records, err := b.tracker.GroupTargets(ctx, msg.Chat.ID)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, genericFailureText)
		return nil
	}

	completed := 0
	for _, rec := range records {
		if rec.Completed {
			completed++
		}
	}

	b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf(
		"🤖 *Bot Status*\n\n%s\n\n"+
			"📊 *Today's Statistics:*\n"+
			"   • Total Targets: %d\n"+
			"   • Completed: %d\n"+
			"   • Pending: %d\n\n"+
			"💾 *Database:* Connected",
		groupInfo, len(records), completed, len(records)-completed))
	return nil
}

// messageHandler nudges members who talk about goals without recording one.
// Runs for plain text only; unauthorized groups are ignored silently.
func (b *Bot) messageHandler(ctx *th.Context, update telego.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return nil
	}

	if err := b.authorize(ctx, msg, true, false); err != nil {
		return nil
	}

	text := strings.ToLower(msg.Text)
	for _, word := range []string{"target", "goal", "task", "todo"} {
		if strings.Contains(text, word) {
			b.sendMessage(ctx, msg.Chat.ID, "🎯 Don't forget to set your daily target with /addtarget !")
			return nil
		}
	}
	return nil
}
