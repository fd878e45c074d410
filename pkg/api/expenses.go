package api

// Split is one participant's share of an expense.
type Split struct {
	UserID string `json:"user_id"`
	Amount Money  `json:"amount"`
}

// Expense is a payment by one member on behalf of the participants.
type Expense struct {
	ID           string   `json:"id"`
	GroupID      string   `json:"group_id"`
	PayerID      string   `json:"payer_id"`
	Amount       Money    `json:"amount"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	Date         int64    `json:"date"`
	Participants []string `json:"participants"`
	Splits       []Split  `json:"splits"`
	IsSettled    bool     `json:"is_settled"`
	CreatedAt    int64    `json:"created_at"`
}

// CreateExpenseRequest records an expense paid by the caller.
// Participants defaults to every group member when empty.
type CreateExpenseRequest struct {
	GroupID      string   `json:"group_id"`
	Amount       Money    `json:"amount"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	Date         int64    `json:"date,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}
