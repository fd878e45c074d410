package api

type AddFriendsRequest struct {
	Emails []string `json:"emails"`
}

// AddFriendsResponse reports what happened to each requested email.
// Emails without an account are invited and befriended on registration.
type AddFriendsResponse struct {
	Added          []*User  `json:"added"`
	AlreadyFriends []*User  `json:"already_friends"`
	Invited        []string `json:"invited"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends []*User `json:"friends"`
}

type RemoveFriendRequest struct {
	FriendID string `json:"friend_id"`
}

type RemoveFriendResponse struct{}
