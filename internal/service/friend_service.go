package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.FriendServiceHandler = (*FriendService)(nil)

var (
	errNoEmails      = errors.New("at least one email is required")
	errBefriendSelf  = errors.New("cannot add yourself as a friend")
	errMissingFriend = errors.New("friend_id is required")
	errNotFriends    = errors.New("not friends with this user")
)

// FriendStore is the persistence FriendService needs. storage.Store satisfies it.
type FriendStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AddFriendship(ctx context.Context, userID, friendID string) (bool, error)
	RemoveFriendship(ctx context.Context, userID, friendID string) error
	ListFriends(ctx context.Context, userID string) ([]*models.User, error)
	InviteFriend(ctx context.Context, inviterID, email string) error
}

// FriendService implements the Connect FriendService.
type FriendService struct {
	store  FriendStore
	logger *slog.Logger
}

// NewFriendService creates a new FriendService.
func NewFriendService(store FriendStore, logger *slog.Logger) *FriendService {
	return &FriendService{store: store, logger: logger}
}

// AddFriends befriends each registered email and invites the rest.
// Every email is validated before anything is written.
func (s *FriendService) AddFriends(ctx context.Context, req *connect.Request[api.AddFriendsRequest]) (*connect.Response[api.AddFriendsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddFriends request received", "user_id", userID, "emails_count", len(req.Msg.Emails))

	if len(req.Msg.Emails) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNoEmails)
	}

	var emails []string
	seen := make(map[string]bool)
	for _, raw := range req.Msg.Emails {
		email, err := auth.NormalizeEmail(raw)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		if !seen[email] {
			seen[email] = true
			emails = append(emails, email)
		}
	}

	resp := &api.AddFriendsResponse{
		Added:          []*api.User{},
		AlreadyFriends: []*api.User{},
		Invited:        []string{},
	}
	for _, email := range emails {
		friend, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, s.internal("AddFriends", userID, err)
		}

		if friend == nil {
			if err := s.store.InviteFriend(ctx, userID, email); err != nil {
				return nil, s.internal("AddFriends", userID, err)
			}
			resp.Invited = append(resp.Invited, email)
			continue
		}

		if friend.ID == userID {
			return nil, connect.NewError(connect.CodeInvalidArgument, errBefriendSelf)
		}
		added, err := s.store.AddFriendship(ctx, userID, friend.ID)
		if err != nil {
			return nil, s.internal("AddFriends", userID, err)
		}
		if added {
			resp.Added = append(resp.Added, toAPIUser(friend))
		} else {
			resp.AlreadyFriends = append(resp.AlreadyFriends, toAPIUser(friend))
		}
	}

	s.logger.Info("Friends added",
		"user_id", userID,
		"added", len(resp.Added),
		"invited", len(resp.Invited),
	)
	return connect.NewResponse(resp), nil
}

// ListFriends returns the caller's friends.
func (s *FriendService) ListFriends(ctx context.Context, req *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	friends, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, s.internal("ListFriends", userID, err)
	}

	out := make([]*api.User, len(friends))
	for i, f := range friends {
		out[i] = toAPIUser(f)
	}
	return connect.NewResponse(&api.ListFriendsResponse{Friends: out}), nil
}

// RemoveFriend ends a friendship for both sides.
func (s *FriendService) RemoveFriend(ctx context.Context, req *connect.Request[api.RemoveFriendRequest]) (*connect.Response[api.RemoveFriendResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemoveFriend request received", "user_id", userID, "friend_id", req.Msg.FriendID)

	if req.Msg.FriendID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingFriend)
	}

	friend, err := s.store.GetUserByID(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, s.internal("RemoveFriend", userID, err)
	}
	if friend == nil {
		return nil, connect.NewError(connect.CodeNotFound, auth.ErrUserNotFound)
	}

	if err := s.store.RemoveFriendship(ctx, userID, friend.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeInvalidArgument, errNotFriends)
		}
		return nil, s.internal("RemoveFriend", userID, err)
	}

	return connect.NewResponse(&api.RemoveFriendResponse{}), nil
}

func (s *FriendService) internal(op, userID string, err error) error {
	s.logger.Error(op+" failed", "user_id", userID, "error", err)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
