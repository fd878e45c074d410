package calculator

import "github.com/shopspring/decimal"

// Pair identifies a directed obligation: Debtor owes Creditor.
type Pair struct {
	Debtor   string
	Creditor string
}

// PairwiseLedger accumulates what each debtor owes each creditor.
// Users and pairs keep first-seen order so every derived result is
// reproducible for the same input order.
type PairwiseLedger struct {
	users []string
	seen  map[string]bool
	pairs []Pair
	owed  map[Pair]decimal.Decimal
}

// NewPairwiseLedger returns an empty ledger.
func NewPairwiseLedger() *PairwiseLedger {
	return &PairwiseLedger{
		seen: make(map[string]bool),
		owed: make(map[Pair]decimal.Decimal),
	}
}

// Touch registers a user without recording any obligation.
func (l *PairwiseLedger) Touch(userID string) {
	if l.seen[userID] {
		return
	}
	l.seen[userID] = true
	l.users = append(l.users, userID)
}

// Add records that debtor owes creditor amount more.
// Self-obligations are ignored.
func (l *PairwiseLedger) Add(debtor, creditor string, amount decimal.Decimal) {
	l.Touch(creditor)
	l.Touch(debtor)
	if debtor == creditor {
		return
	}
	p := Pair{Debtor: debtor, Creditor: creditor}
	cur, ok := l.owed[p]
	if !ok {
		l.pairs = append(l.pairs, p)
	}
	l.owed[p] = cur.Add(amount)
}

// Owed returns the accumulated amount for a pair.
func (l *PairwiseLedger) Owed(debtor, creditor string) decimal.Decimal {
	return l.owed[Pair{Debtor: debtor, Creditor: creditor}]
}

// Pairs returns the recorded pairs in first-seen order.
func (l *PairwiseLedger) Pairs() []Pair {
	return l.pairs
}

// Users returns every registered user in first-seen order.
func (l *PairwiseLedger) Users() []string {
	return l.users
}

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	PayerID string
	Amount  decimal.Decimal
	Shares  []Share
}

// BuildLedger folds every share that is not the payer's own into the ledger
// as an obligation from the share's user to the payer.
func BuildLedger(expenses []ExpenseForBalance) *PairwiseLedger {
	l := NewPairwiseLedger()
	for _, e := range expenses {
		// A payer with no cross-debts still shows up with a zero position.
		l.Touch(e.PayerID)
		for _, s := range e.Shares {
			l.Add(s.UserID, e.PayerID, s.Amount)
		}
	}
	return l
}
