package calculator

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	MemberID   string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid across all expenses and settlements
	TotalOwed  decimal.Decimal // Total of this member's shares plus settlements received
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// CalculateGroupBalances computes per-member positions and the simplified
// debt list for a group.
//
// Algorithm:
//   - Every share not owned by the payer becomes an obligation share.user -> payer
//   - Obligations collapse into one net amount per member
//   - Settlements, when given, offset the net amounts (payer up, receiver down)
//   - Net amounts are simplified with greedy largest-first matching
func CalculateGroupBalances(expenses []ExpenseForBalance, settlements []SettlementForBalance) ([]MemberBalance, []DebtEdge) {
	positions := NetPositions(BuildLedger(expenses))
	ApplySettlements(positions, settlements)

	totals := make(map[string]*MemberBalance, positions.Len())
	for _, u := range positions.Users() {
		totals[u] = &MemberBalance{MemberID: u}
	}
	for _, e := range expenses {
		totals[e.PayerID].TotalPaid = totals[e.PayerID].TotalPaid.Add(e.Amount)
		for _, s := range e.Shares {
			totals[s.UserID].TotalOwed = totals[s.UserID].TotalOwed.Add(s.Amount)
		}
	}
	for _, s := range settlements {
		totals[s.FromUserID].TotalPaid = totals[s.FromUserID].TotalPaid.Add(s.Amount)
		totals[s.ToUserID].TotalOwed = totals[s.ToUserID].TotalOwed.Add(s.Amount)
	}

	memberBalances := make([]MemberBalance, 0, positions.Len())
	for _, u := range positions.Users() {
		bal := totals[u]
		bal.NetBalance = RoundCents(positions.Get(u))
		memberBalances = append(memberBalances, *bal)
	}

	return memberBalances, Simplify(positions)
}

type party struct {
	userID string
	amount decimal.Decimal
}

func byAmountDesc(a, b party) int {
	return b.amount.Cmp(a.amount)
}

// Simplify turns net positions into a short list of debtor -> creditor
// payments that bring every position back to zero.
//
// Only positions and payments strictly above one cent count; a side is
// retired once its remainder drops below one cent.
//
// Creditors and debtors are each sorted by magnitude, largest first, with a
// stable sort over registration order. A two-pointer sweep then settles
// min(creditor, debtor) between the current pair and advances whichever side
// is exhausted (both, when they hit zero together). Each step retires at
// least one member, so the result has at most (members with non-zero
// position - 1) edges.
func Simplify(p *Positions) []DebtEdge {
	var creditors, debtors []party
	for _, u := range p.Users() {
		amount := RoundCents(p.Get(u))
		if !exceedsCent(amount) {
			continue
		}
		if amount.IsPositive() {
			creditors = append(creditors, party{userID: u, amount: amount})
		} else {
			debtors = append(debtors, party{userID: u, amount: amount.Neg()})
		}
	}

	slices.SortStableFunc(creditors, byAmountDesc)
	slices.SortStableFunc(debtors, byAmountDesc)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := RoundCents(decimal.Min(debtor.amount, creditor.amount))
		if exceedsCent(amount) {
			edges = append(edges, DebtEdge{
				From:   debtor.userID,
				To:     creditor.userID,
				Amount: amount,
			})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if isNegligible(debtor.amount) {
			i++
		}
		if isNegligible(creditor.amount) {
			j++
		}
	}

	return edges
}
