package models

import "slices"

// Group represents a set of users who share expenses.
// Membership gates every expense, balance and settlement operation.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the group's creator.
	// The creator cannot be removed while other members remain.
	CreatedBy string

	// Members is the list of member user IDs in join order.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last membership or name change.
	UpdatedAt int64
}

// IsMember reports whether userID belongs to the group.
func (g *Group) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}
