package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mmynk/settleup/internal/models"
)

// CreateGroup creates a group owned by the caller. The caller is added as a
// member when missing, and every member ID must belong to a registered user.
func (e *Engine) CreateGroup(ctx context.Context, callerID, name, description string, members []string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("group name is required")
	}

	memberIDs := dedupe(members)
	if !slices.Contains(memberIDs, callerID) {
		memberIDs = append(memberIDs, callerID)
	}
	if err := e.requireUsers(ctx, memberIDs); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   callerID,
		Members:     memberIDs,
	}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return nil, storeErr("create group", err)
	}

	e.logger.Info("Group created", "group_id", group.ID, "members", len(memberIDs))
	return group, nil
}

// ListUserGroups returns the groups the caller belongs to, newest first.
func (e *Engine) ListUserGroups(ctx context.Context, callerID string) ([]*models.Group, error) {
	groups, err := e.store.ListGroupsByMember(ctx, callerID)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	return groups, nil
}

// GetGroup returns a group the caller belongs to.
func (e *Engine) GetGroup(ctx context.Context, groupID, callerID string) (*models.Group, error) {
	return e.memberGroup(ctx, groupID, callerID)
}

// AddMembers adds registered users to a group. At least one of them must be new.
func (e *Engine) AddMembers(ctx context.Context, groupID, callerID string, memberIDs []string) (*models.Group, error) {
	ids := dedupe(memberIDs)
	if len(ids) == 0 {
		return nil, invalidf("member IDs are required")
	}

	group, err := e.memberGroup(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if err := e.requireUsers(ctx, ids); err != nil {
		return nil, err
	}

	var added []string
	for _, id := range ids {
		if !group.IsMember(id) {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return nil, fmt.Errorf("%w: all provided users are already members", ErrConflict)
	}

	if err := e.store.AddGroupMembers(ctx, groupID, added); err != nil {
		return nil, storeErr("add group members", err)
	}
	e.logger.Info("Members added", "group_id", groupID, "added", len(added))

	return e.reloadGroup(ctx, groupID)
}

// RemoveMember removes a member from a group. The creator stays while
// anyone else remains.
func (e *Engine) RemoveMember(ctx context.Context, groupID, callerID, memberID string) (*models.Group, error) {
	group, err := e.memberGroup(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy == memberID && len(group.Members) > 1 {
		return nil, invalidf("group creator cannot be removed while other members exist")
	}
	if !group.IsMember(memberID) {
		return nil, invalidf("user %s is not a member of this group", memberID)
	}

	if err := e.store.RemoveGroupMember(ctx, groupID, memberID); err != nil {
		return nil, storeErr("remove group member", err)
	}
	e.logger.Info("Member removed", "group_id", groupID, "member_id", memberID)

	return e.reloadGroup(ctx, groupID)
}

func (e *Engine) reloadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("reload group", err)
	}
	return group, nil
}

// requireUsers fails with ErrInvalidInput unless every ID is a registered user.
func (e *Engine) requireUsers(ctx context.Context, ids []string) error {
	users, err := e.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return storeErr("look up users", err)
	}
	if len(users) != len(ids) {
		return invalidf("one or more member IDs are invalid")
	}
	return nil
}
