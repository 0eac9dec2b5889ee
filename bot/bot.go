package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"telegram-target-tracker-bot/auth"
	"telegram-target-tracker-bot/storage"
	"telegram-target-tracker-bot/tracker"
)

var (
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

type Bot struct {
	api     *telego.Bot
	storage *storage.Storage
	tracker *tracker.Tracker
	policy  *auth.Policy
}

func New(api *telego.Bot, store *storage.Storage, maxTargetLength int) *Bot {
	b := &Bot{
		api:     api,
		storage: store,
		tracker: tracker.New(store, maxTargetLength),
	}
	b.policy = auth.NewPolicy(store, b)

	return b
}

// Run starts long polling and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	botUser, err := b.api.GetMe(ctx)
	if err != nil {
		slog.Error("bot: Cannot retrieve api user", "error", err)

		return ErrGetMe
	}

	slog.Info("bot: Running as", "id", botUser.ID, "username", botUser.Username,
		"name", botUser.FirstName, "is_bot", botUser.IsBot)

	updates, err := b.api.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		slog.Error("bot: Cannot get update channel", "error", err)

		return ErrUpdatesChannel
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		slog.Error("bot: Cannot initialize bot handler", "error", err)

		return ErrHandlerInit
	}

	defer func() { _ = bh.Stop() }()

	bh.Use(b.recoverMiddleware)

	bh.Handle(b.startHandler, th.CommandEqual("start"))
	bh.Handle(b.helpHandler, th.CommandEqual("help"))
	bh.Handle(b.addTargetHandler, th.CommandEqual("addtarget"))
	bh.Handle(b.addTargetForHandler, th.CommandEqual("addtargetfor"))
	bh.Handle(b.myTargetHandler, th.CommandEqual("mytarget"))
	bh.Handle(b.todayHandler, th.CommandEqual("today"))
	bh.Handle(b.myTargetsHandler, th.CommandEqual("mytargets"))
	bh.Handle(b.doneHandler, th.CommandEqual("done"))
	bh.Handle(b.resetHandler, th.CommandEqual("reset"))
	bh.Handle(b.statusHandler, th.CommandEqual("status"))
	bh.Handle(b.resetCallbackHandler, th.CallbackDataPrefix(resetCallbackPrefix))
	bh.Handle(b.messageHandler, th.AnyMessage())

	return bh.Start()
}
