package calculator

import "github.com/shopspring/decimal"

// Positions maps each user to a signed net amount for one group.
// Positive = is owed money, negative = owes money.
type Positions struct {
	order []string
	net   map[string]decimal.Decimal
}

// NewPositions returns an empty set of positions.
func NewPositions() *Positions {
	return &Positions{net: make(map[string]decimal.Decimal)}
}

// Add adjusts a user's position by delta, registering the user if needed.
func (p *Positions) Add(userID string, delta decimal.Decimal) {
	cur, ok := p.net[userID]
	if !ok {
		p.order = append(p.order, userID)
	}
	p.net[userID] = cur.Add(delta)
}

// Get returns the user's position (zero if unknown).
func (p *Positions) Get(userID string) decimal.Decimal {
	return p.net[userID]
}

// Users returns users in registration order.
func (p *Positions) Users() []string {
	return p.order
}

// Len returns the number of users tracked.
func (p *Positions) Len() int {
	return len(p.order)
}

// NetPositions collapses a pairwise ledger into one net amount per user.
func NetPositions(l *PairwiseLedger) *Positions {
	p := NewPositions()
	for _, u := range l.Users() {
		p.Add(u, decimal.Zero)
	}
	for _, pair := range l.Pairs() {
		amt := l.Owed(pair.Debtor, pair.Creditor)
		p.Add(pair.Debtor, amt.Neg())
		p.Add(pair.Creditor, amt)
	}
	return p
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	FromUserID string // Who paid (debtor settling up)
	ToUserID   string // Who received (creditor being paid)
	Amount     decimal.Decimal
}

// ApplySettlements offsets positions by recorded payments: the payer's
// position improves and the receiver's position shrinks.
func ApplySettlements(p *Positions, settlements []SettlementForBalance) {
	for _, s := range settlements {
		p.Add(s.FromUserID, s.Amount)
		p.Add(s.ToUserID, s.Amount.Neg())
	}
}
