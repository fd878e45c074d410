package api

// Balance is one edge of a group's snapshot: UserID owes OwesTo Amount.
type Balance struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	OwesTo  string `json:"owes_to"`
	Amount  Money  `json:"amount"`
}

// Transaction is one simplified payment that settles net positions.
type Transaction struct {
	PayerID string `json:"payer_id"`
	PayeeID string `json:"payee_id"`
	Amount  Money  `json:"amount"`
}

// MemberBalance is a member's net position with paid and owed totals.
type MemberBalance struct {
	UserID     string `json:"user_id"`
	NetBalance Money  `json:"net_balance"`
	TotalPaid  Money  `json:"total_paid"`
	TotalOwed  Money  `json:"total_owed"`
}

// Counterparty is the other side of an edge that involves the caller.
type Counterparty struct {
	UserID string `json:"user_id"`
	Amount Money  `json:"amount"`
}

// YourBalances splits the snapshot into what the caller owes and is owed.
type YourBalances struct {
	YouOwe  []Counterparty `json:"you_owe"`
	OwesYou []Counterparty `json:"owes_you"`
}

// Settlement is a recorded payment between two members.
type Settlement struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	PayerID   string `json:"payer_id"`
	PayeeID   string `json:"payee_id"`
	Amount    Money  `json:"amount"`
	Note      string `json:"note,omitempty"`
	SettledAt int64  `json:"settled_at"`
}

type CalculateBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type CalculateBalancesResponse struct {
	Balances []*Balance      `json:"balances"`
	Summary  []Transaction   `json:"summary"`
	Members  []MemberBalance `json:"members"`
	Version  int64           `json:"version"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	AllBalances  []*Balance   `json:"all_balances"`
	YourBalances YourBalances `json:"your_balances"`
	Version      int64        `json:"version"`
}

// SettleBalanceRequest pays Amount from the caller to PayeeID.
type SettleBalanceRequest struct {
	GroupID string `json:"group_id"`
	PayeeID string `json:"payee_id"`
	Amount  Money  `json:"amount"`
	Note    string `json:"note,omitempty"`
}

type SettleBalanceResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
