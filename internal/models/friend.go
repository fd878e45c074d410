package models

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// FriendInvitation is a pending friend request to an email that has no
// account yet. It turns into a friendship when that email registers.
type FriendInvitation struct {
	InviterID  string
	Email      string
	Status     string
	CreatedAt  int64
	AcceptedAt int64
}
