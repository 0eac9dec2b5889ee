package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telegram-target-tracker-bot/storage"
)

const (
	// DefaultMaxTargetLength bounds target text when no explicit limit is
	// configured.
	DefaultMaxTargetLength = 500

	// RecentTargetsLimit is how many days back /mytargets looks.
	RecentTargetsLimit = 7
)

var (
	ErrEmptyTarget      = errors.New("target text is empty")
	ErrTargetTooLong    = errors.New("target text is too long")
	ErrNotFound         = errors.New("no target for that day")
	ErrAlreadyCompleted = errors.New("target already completed")
)

// Store is the persistence contract the tracker operates through.
type Store interface {
	UpsertTarget(ctx context.Context, rec storage.TargetRecord) error
	TargetByUserAndDate(ctx context.Context, userID int64, date time.Time) (*storage.TargetRecord, error)
	TargetsByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]storage.TargetRecord, error)
	RecentTargetsByUser(ctx context.Context, userID int64, limit int) ([]storage.TargetRecord, error)
	CompleteTarget(ctx context.Context, userID int64, date time.Time, completedAt time.Time) error
	ResetGroup(ctx context.Context, groupID int64) error
	ResetAll(ctx context.Context) error
}

// Tracker manages the daily target lifecycle: one record per member per day,
// created by AddTarget, flipped once by MarkDone, removed only by Reset.
type Tracker struct {
	store     Store
	maxTarget int
	now       func() time.Time
}

func New(store Store, maxTargetLength int) *Tracker {
	if maxTargetLength <= 0 {
		maxTargetLength = DefaultMaxTargetLength
	}
	return &Tracker{
		store:     store,
		maxTarget: maxTargetLength,
		now:       time.Now,
	}
}

// Midnight truncates t to the start of its calendar day. Every date used as
// key material goes through this, so "today" is stable within a day.
func Midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// ValidateTarget checks target text against the non-empty and length rules.
func (t *Tracker) ValidateTarget(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyTarget
	}
	if len(text) > t.maxTarget {
		return fmt.Errorf("%w: maximum %d characters", ErrTargetTooLong, t.maxTarget)
	}
	return nil
}

// MaxTargetLength returns the configured target text limit.
func (t *Tracker) MaxTargetLength() int {
	return t.maxTarget
}

// AddTarget records text as the user's target for today. An existing record
// for the day is overwritten and its completion state is lost.
func (t *Tracker) AddTarget(ctx context.Context, groupID, userID int64, username, text string) (*storage.TargetRecord, error) {
	if err := t.ValidateTarget(text); err != nil {
		return nil, err
	}

	now := t.now()
	rec := storage.TargetRecord{
		GroupID:   groupID,
		UserID:    userID,
		Username:  username,
		Target:    text,
		Date:      Midnight(now),
		CreatedAt: now,
		Completed: false,
	}

	if err := t.store.UpsertTarget(ctx, rec); err != nil {
		return nil, err
	}

	slog.Info("tracker: Target added", "group_id", groupID, "user_id", userID,
		"username", username, "date", rec.Date)
	return &rec, nil
}

// AddTargetForUsername records a target on behalf of a member known only by
// username, using the derived synthetic identity. The same username always
// lands on the same record.
func (t *Tracker) AddTargetForUsername(ctx context.Context, groupID int64, username, text string) (*storage.TargetRecord, error) {
	username = strings.TrimPrefix(username, "@")
	if username == "" {
		return nil, ErrEmptyTarget
	}
	return t.AddTarget(ctx, groupID, DeriveUserID(username), username, text)
}

// TodayTarget returns the user's target for today, or ErrNotFound.
func (t *Tracker) TodayTarget(ctx context.Context, userID int64) (*storage.TargetRecord, error) {
	rec, err := t.store.TargetByUserAndDate(ctx, userID, Midnight(t.now()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// GroupTargets returns every target in the group for today, insertion order.
func (t *Tracker) GroupTargets(ctx context.Context, groupID int64) ([]storage.TargetRecord, error) {
	return t.store.TargetsByGroupAndDate(ctx, groupID, Midnight(t.now()))
}

// RecentTargets returns the user's targets for the last few days, newest first.
func (t *Tracker) RecentTargets(ctx context.Context, userID int64) ([]storage.TargetRecord, error) {
	return t.store.RecentTargetsByUser(ctx, userID, RecentTargetsLimit)
}

// MarkDone completes today's target. The caller is told apart whether there
// was nothing to complete (ErrNotFound) or it was already done
// (ErrAlreadyCompleted); CompletedAt is never overwritten.
func (t *Tracker) MarkDone(ctx context.Context, userID int64) (*storage.TargetRecord, error) {
	now := t.now()
	date := Midnight(now)

	rec, err := t.store.TargetByUserAndDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if rec.Completed {
		return rec, ErrAlreadyCompleted
	}

	if err := t.store.CompleteTarget(ctx, userID, date, now); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec.Completed = true
	rec.CompletedAt = &now

	slog.Info("tracker: Target completed", "user_id", userID, "date", date)
	return rec, nil
}

// Reset deletes all of a group's targets and its authorization record.
// Irreversible; the caller is responsible for admin gating and confirmation.
func (t *Tracker) Reset(ctx context.Context, groupID int64) error {
	if err := t.store.ResetGroup(ctx, groupID); err != nil {
		return err
	}
	slog.Info("tracker: Group data reset", "group_id", groupID)
	return nil
}

// ResetAll deletes every target and authorization record.
func (t *Tracker) ResetAll(ctx context.Context) error {
	if err := t.store.ResetAll(ctx); err != nil {
		return err
	}
	slog.Info("tracker: All data reset")
	return nil
}
