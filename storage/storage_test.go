package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func day(yearDay int) time.Time {
	return time.Date(2025, 3, yearDay, 0, 0, 0, 0, time.UTC)
}

func TestUpsertTargetKeepsOneRowPerUserAndDay(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	doneAt := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	first := TargetRecord{
		GroupID: 100, UserID: 7, Username: "alice", Target: "first",
		Date: day(14), CreatedAt: doneAt, Completed: true, CompletedAt: &doneAt,
	}
	if err := s.UpsertTarget(ctx, first); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	second := TargetRecord{
		GroupID: 100, UserID: 7, Username: "alice", Target: "second",
		Date: day(14), CreatedAt: doneAt.Add(time.Hour),
	}
	if err := s.UpsertTarget(ctx, second); err != nil {
		t.Fatalf("UpsertTarget (second): %v", err)
	}

	recs, err := s.TargetsByGroupAndDate(ctx, 100, day(14))
	if err != nil {
		t.Fatalf("TargetsByGroupAndDate: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one row, got %d", len(recs))
	}
	if recs[0].Target != "second" {
		t.Fatalf("expected second write to win, got %q", recs[0].Target)
	}
	if recs[0].Completed || recs[0].CompletedAt != nil {
		t.Fatal("expected upsert to reset completion state")
	}
}

func TestTargetByUserAndDateNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.TargetByUserAndDate(context.Background(), 7, day(14))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTargetsByGroupAndDateInsertionOrder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i, username := range []string{"alice", "bob", "carol"} {
		rec := TargetRecord{
			GroupID: 100, UserID: int64(i + 1), Username: username,
			Target: "t", Date: day(14), CreatedAt: time.Now(),
		}
		if err := s.UpsertTarget(ctx, rec); err != nil {
			t.Fatalf("UpsertTarget: %v", err)
		}
	}
	// Other group and other day must not leak in.
	other := TargetRecord{GroupID: 200, UserID: 9, Username: "dave", Target: "t", Date: day(14)}
	if err := s.UpsertTarget(ctx, other); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	recs, err := s.TargetsByGroupAndDate(ctx, 100, day(14))
	if err != nil {
		t.Fatalf("TargetsByGroupAndDate: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(recs))
	}
	for i, username := range []string{"alice", "bob", "carol"} {
		if recs[i].Username != username {
			t.Fatalf("expected insertion order, got %q at %d", recs[i].Username, i)
		}
	}
}

func TestRecentTargetsByUserNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for d := 10; d <= 18; d++ {
		rec := TargetRecord{GroupID: 100, UserID: 7, Username: "alice", Target: "t", Date: day(d)}
		if err := s.UpsertTarget(ctx, rec); err != nil {
			t.Fatalf("UpsertTarget: %v", err)
		}
	}

	recs, err := s.RecentTargetsByUser(ctx, 7, 7)
	if err != nil {
		t.Fatalf("RecentTargetsByUser: %v", err)
	}
	if len(recs) != 7 {
		t.Fatalf("expected limit of 7, got %d", len(recs))
	}
	if !recs[0].Date.Equal(day(18)) {
		t.Fatalf("expected newest day first, got %v", recs[0].Date)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Date.After(recs[i-1].Date) {
			t.Fatal("expected dates in descending order")
		}
	}
}

func TestCompleteTarget(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CompleteTarget(ctx, 7, day(14), time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := TargetRecord{GroupID: 100, UserID: 7, Username: "alice", Target: "t", Date: day(14)}
	if err := s.UpsertTarget(ctx, rec); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	doneAt := time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC)
	if err := s.CompleteTarget(ctx, 7, day(14), doneAt); err != nil {
		t.Fatalf("CompleteTarget: %v", err)
	}

	got, err := s.TargetByUserAndDate(ctx, 7, day(14))
	if err != nil {
		t.Fatalf("TargetByUserAndDate: %v", err)
	}
	if !got.Completed || got.CompletedAt == nil || !got.CompletedAt.Equal(doneAt) {
		t.Fatalf("expected completed record at %v, got %+v", doneAt, got)
	}
}

func TestGroupAuthorization(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	count, err := s.AuthorizedGroupCount(ctx)
	if err != nil {
		t.Fatalf("AuthorizedGroupCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty allow-list, got %d", count)
	}

	if err := s.AuthorizeGroup(ctx, 100, "Test Group"); err != nil {
		t.Fatalf("AuthorizeGroup: %v", err)
	}
	// Upsert by group_id: re-registering refreshes, not duplicates.
	if err := s.AuthorizeGroup(ctx, 100, "Renamed Group"); err != nil {
		t.Fatalf("AuthorizeGroup (again): %v", err)
	}

	count, err = s.AuthorizedGroupCount(ctx)
	if err != nil {
		t.Fatalf("AuthorizedGroupCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one allow-list entry, got %d", count)
	}

	allowed, err := s.GroupAuthorized(ctx, 100)
	if err != nil {
		t.Fatalf("GroupAuthorized: %v", err)
	}
	if !allowed {
		t.Fatal("expected group 100 to be authorized")
	}
	allowed, err = s.GroupAuthorized(ctx, 200)
	if err != nil {
		t.Fatalf("GroupAuthorized: %v", err)
	}
	if allowed {
		t.Fatal("expected group 200 not to be authorized")
	}

	auth, err := s.AuthorizedGroup(ctx)
	if err != nil {
		t.Fatalf("AuthorizedGroup: %v", err)
	}
	if auth.GroupName != "Renamed Group" {
		t.Fatalf("expected refreshed name, got %q", auth.GroupName)
	}
}

func TestResetGroupScoping(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, rec := range []TargetRecord{
		{GroupID: 100, UserID: 7, Username: "alice", Target: "t", Date: day(14)},
		{GroupID: 200, UserID: 8, Username: "bob", Target: "t", Date: day(14)},
	} {
		if err := s.UpsertTarget(ctx, rec); err != nil {
			t.Fatalf("UpsertTarget: %v", err)
		}
	}
	if err := s.AuthorizeGroup(ctx, 100, "A"); err != nil {
		t.Fatalf("AuthorizeGroup: %v", err)
	}
	if err := s.AuthorizeGroup(ctx, 200, "B"); err != nil {
		t.Fatalf("AuthorizeGroup: %v", err)
	}

	if err := s.ResetGroup(ctx, 100); err != nil {
		t.Fatalf("ResetGroup: %v", err)
	}

	if _, err := s.TargetByUserAndDate(ctx, 7, day(14)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected group 100 targets gone, got %v", err)
	}
	if _, err := s.TargetByUserAndDate(ctx, 8, day(14)); err != nil {
		t.Fatalf("expected group 200 targets to survive, got %v", err)
	}
	allowed, err := s.GroupAuthorized(ctx, 100)
	if err != nil {
		t.Fatalf("GroupAuthorized: %v", err)
	}
	if allowed {
		t.Fatal("expected group 100 authorization removed")
	}

	if err := s.ResetAll(ctx); err != nil {
		t.Fatalf("ResetAll: %v", err)
	}
	count, err := s.AuthorizedGroupCount(ctx)
	if err != nil {
		t.Fatalf("AuthorizedGroupCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty allow-list after ResetAll, got %d", count)
	}
	if _, err := s.TargetByUserAndDate(ctx, 8, day(14)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected all targets gone, got %v", err)
	}
}
