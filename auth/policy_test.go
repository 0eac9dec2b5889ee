package auth

import (
	"context"
	"errors"
	"testing"
)

type fakeRegistry struct {
	count   int64
	allowed map[int64]bool
	err     error
}

func (f *fakeRegistry) AuthorizedGroupCount(context.Context) (int64, error) {
	return f.count, f.err
}

func (f *fakeRegistry) GroupAuthorized(_ context.Context, groupID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[groupID], nil
}

type fakeAdminLister struct {
	ids    []int64
	err    error
	called bool
}

func (f *fakeAdminLister) ChatAdministratorIDs(context.Context, int64) ([]int64, error) {
	f.called = true
	return f.ids, f.err
}

func groupRequest(chatID, userID int64) Request {
	return Request{ChatID: chatID, ChatType: "supergroup", UserID: userID, GroupScoped: true}
}

func TestAuthorizeBootstrapAllowsAnyGroup(t *testing.T) {
	policy := NewPolicy(&fakeRegistry{count: 0}, &fakeAdminLister{})

	if err := policy.Authorize(context.Background(), groupRequest(100, 7)); err != nil {
		t.Fatalf("expected empty allow-list to permit any group, got %v", err)
	}
}

func TestAuthorizeAllowList(t *testing.T) {
	registry := &fakeRegistry{count: 1, allowed: map[int64]bool{100: true}}
	policy := NewPolicy(registry, &fakeAdminLister{})

	if err := policy.Authorize(context.Background(), groupRequest(100, 7)); err != nil {
		t.Fatalf("expected listed group to be permitted, got %v", err)
	}
	if err := policy.Authorize(context.Background(), groupRequest(200, 7)); !errors.Is(err, ErrGroupNotAuthorized) {
		t.Fatalf("expected ErrGroupNotAuthorized for unlisted group, got %v", err)
	}
}

func TestAuthorizeGroupsOnly(t *testing.T) {
	policy := NewPolicy(&fakeRegistry{}, &fakeAdminLister{})

	req := Request{ChatID: 7, ChatType: "private", UserID: 7, GroupScoped: true}
	if err := policy.Authorize(context.Background(), req); !errors.Is(err, ErrGroupsOnly) {
		t.Fatalf("expected ErrGroupsOnly for private chat, got %v", err)
	}

	// Commands without group scoping skip the chat-kind and allow-list rules.
	req = Request{ChatID: 7, ChatType: "private", UserID: 7}
	if err := policy.Authorize(context.Background(), req); err != nil {
		t.Fatalf("expected unscoped command to pass in private chat, got %v", err)
	}
}

func TestAuthorizeAdminOnly(t *testing.T) {
	admins := &fakeAdminLister{ids: []int64{1, 2}}
	policy := NewPolicy(&fakeRegistry{count: 0}, admins)

	req := groupRequest(100, 1)
	req.AdminOnly = true
	if err := policy.Authorize(context.Background(), req); err != nil {
		t.Fatalf("expected admin to be permitted, got %v", err)
	}

	req.UserID = 7
	if err := policy.Authorize(context.Background(), req); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("expected ErrAdminOnly for non-admin, got %v", err)
	}
}

func TestAuthorizeAdminCheckFailsClosed(t *testing.T) {
	admins := &fakeAdminLister{err: errors.New("transport down")}
	policy := NewPolicy(&fakeRegistry{count: 0}, admins)

	req := groupRequest(100, 1)
	req.AdminOnly = true
	if err := policy.Authorize(context.Background(), req); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("expected failed admin lookup to deny, got %v", err)
	}
}

func TestAuthorizeGroupCheckShortCircuitsAdminLookup(t *testing.T) {
	registry := &fakeRegistry{count: 1, allowed: map[int64]bool{100: true}}
	admins := &fakeAdminLister{ids: []int64{7}}
	policy := NewPolicy(registry, admins)

	req := groupRequest(200, 7)
	req.AdminOnly = true
	if err := policy.Authorize(context.Background(), req); !errors.Is(err, ErrGroupNotAuthorized) {
		t.Fatalf("expected group denial, got %v", err)
	}
	if admins.called {
		t.Fatal("expected admin lookup to be skipped after group denial")
	}
}

func TestAuthorizeRegistryFailureIsNotADenial(t *testing.T) {
	storeErr := errors.New("database gone")
	policy := NewPolicy(&fakeRegistry{err: storeErr}, &fakeAdminLister{})

	err := policy.Authorize(context.Background(), groupRequest(100, 7))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if errors.Is(err, ErrGroupNotAuthorized) || errors.Is(err, ErrAdminOnly) {
		t.Fatal("expected store failure not to be masked as a denial")
	}
}
