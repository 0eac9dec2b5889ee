// Package auth decides whether an incoming command may run in its chat and
// role context. Group authorization is two-phase: until the first group
// registers itself via /start the allow-list is empty and every group is
// permitted; afterwards only listed groups are.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	ErrGroupsOnly         = errors.New("command only works in groups")
	ErrGroupNotAuthorized = errors.New("group is not authorized")
	ErrAdminOnly          = errors.New("command is for admins only")
)

// DefaultAdminCheckTimeout bounds the remote administrator lookup so a
// hanging transport cannot stall a command forever.
const DefaultAdminCheckTimeout = 3 * time.Second

// GroupRegistry is the allow-list view the policy consults.
type GroupRegistry interface {
	AuthorizedGroupCount(ctx context.Context) (int64, error)
	GroupAuthorized(ctx context.Context, groupID int64) (bool, error)
}

// AdminLister resolves a chat's administrator set. Implemented by the
// messaging gateway; the call crosses the network and may fail.
type AdminLister interface {
	ChatAdministratorIDs(ctx context.Context, chatID int64) ([]int64, error)
}

// Request describes one command invocation to be authorized.
type Request struct {
	ChatID      int64
	ChatType    string
	UserID      int64
	GroupScoped bool
	AdminOnly   bool
}

type Policy struct {
	groups       GroupRegistry
	admins       AdminLister
	adminTimeout time.Duration
}

func NewPolicy(groups GroupRegistry, admins AdminLister) *Policy {
	return &Policy{
		groups:       groups,
		admins:       admins,
		adminTimeout: DefaultAdminCheckTimeout,
	}
}

// Authorize applies the rules in a fixed order: chat-kind check, then the
// allow-list, then the admin check. The first two are local and short-circuit
// before the admin lookup, which is a remote call. Registry failures are
// returned as-is (store failure, not a denial); admin lookup failures fail
// closed as ErrAdminOnly.
func (p *Policy) Authorize(ctx context.Context, req Request) error {
	if req.GroupScoped && !isGroupChat(req.ChatType) {
		return ErrGroupsOnly
	}

	if req.GroupScoped {
		count, err := p.groups.AuthorizedGroupCount(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			allowed, err := p.groups.GroupAuthorized(ctx, req.ChatID)
			if err != nil {
				return err
			}
			if !allowed {
				return ErrGroupNotAuthorized
			}
		}
	}

	if req.AdminOnly {
		adminCtx, cancel := context.WithTimeout(ctx, p.adminTimeout)
		defer cancel()

		admins, err := p.admins.ChatAdministratorIDs(adminCtx, req.ChatID)
		if err != nil {
			slog.Warn("auth: Admin check failed, denying", "error", err,
				"chat_id", req.ChatID, "user_id", req.UserID)
			return ErrAdminOnly
		}

		isAdmin := false
		for _, id := range admins {
			if id == req.UserID {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			return ErrAdminOnly
		}
	}

	return nil
}

func isGroupChat(chatType string) bool {
	return chatType == "group" || chatType == "supergroup"
}
