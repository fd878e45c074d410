package calculator

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// genExpenses draws a random group history: 2-6 members, 1-12 expenses,
// each split equally among a random non-empty subset of members.
func genExpenses(t *rapid.T) ([]string, []ExpenseForBalance) {
	n := rapid.IntRange(2, 6).Draw(t, "members")
	users := make([]string, n)
	for i := range users {
		users[i] = fmt.Sprintf("u%d", i)
	}

	count := rapid.IntRange(1, 12).Draw(t, "expenses")
	expenses := make([]ExpenseForBalance, 0, count)
	for i := 0; i < count; i++ {
		payer := rapid.SampledFrom(users).Draw(t, "payer")
		idx := rapid.SliceOfNDistinct(rapid.IntRange(0, n-1), 1, n, rapid.ID[int]).Draw(t, "participants")
		participants := make([]string, len(idx))
		for k, j := range idx {
			participants[k] = users[j]
		}
		cents := rapid.Int64Range(1, 500_000).Draw(t, "cents")
		amount := decimal.New(cents, -2)

		shares, err := EqualSplit(amount, participants)
		if err != nil {
			t.Fatalf("EqualSplit: %v", err)
		}
		expenses = append(expenses, ExpenseForBalance{PayerID: payer, Amount: amount, Shares: shares})
	}
	return users, expenses
}

func TestSimplify_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		users, expenses := genExpenses(t)

		positions := NetPositions(BuildLedger(expenses))
		edges := Simplify(positions)

		// Each unemitted one-cent step can leave a cent on a member.
		tolerance := Cent.Mul(decimal.NewFromInt(int64(len(users))))

		flow := make(map[string]decimal.Decimal)
		total := decimal.Zero
		for _, e := range edges {
			if e.From == e.To {
				t.Fatalf("self edge %v", e)
			}
			if !e.Amount.GreaterThan(Cent) {
				t.Fatalf("edge of one cent or less: %v", e)
			}
			flow[e.From] = flow[e.From].Sub(e.Amount)
			flow[e.To] = flow[e.To].Add(e.Amount)
			total = total.Add(e.Amount)
		}

		nonZero := 0
		for _, u := range positions.Users() {
			net := positions.Get(u)
			if !net.IsZero() {
				nonZero++
			}
			if diff := flow[u].Sub(net).Abs(); diff.GreaterThan(tolerance) {
				t.Fatalf("%s: edges move %s, net position %s", u, flow[u], net)
			}
		}

		spent := decimal.Zero
		for _, e := range expenses {
			spent = spent.Add(e.Amount)
		}
		if total.GreaterThan(spent) {
			t.Fatalf("edges total %s exceeds expenses total %s", total, spent)
		}

		if nonZero > 0 && len(edges) > nonZero-1 {
			t.Fatalf("%d edges for %d non-zero members", len(edges), nonZero)
		}
	})
}

func TestSimplify_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_, expenses := genExpenses(t)

		first := Simplify(NetPositions(BuildLedger(expenses)))
		second := Simplify(NetPositions(BuildLedger(expenses)))

		if len(first) != len(second) {
			t.Fatalf("edge count changed: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].From != second[i].From || first[i].To != second[i].To || !first[i].Amount.Equal(second[i].Amount) {
				t.Fatalf("edge %d changed: %v vs %v", i, first[i], second[i])
			}
		}
	})
}

func TestEqualSplit_SumsExactly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(1, 10_000_000).Draw(t, "cents")
		n := rapid.IntRange(1, 20).Draw(t, "participants")
		participants := make([]string, n)
		for i := range participants {
			participants[i] = fmt.Sprintf("p%d", i)
		}
		amount := decimal.New(cents, -2)

		shares, err := EqualSplit(amount, participants)
		if err != nil {
			t.Fatalf("EqualSplit: %v", err)
		}
		sum := decimal.Zero
		for _, s := range shares {
			if s.Amount.IsNegative() {
				t.Fatalf("negative share %v", s)
			}
			sum = sum.Add(s.Amount)
		}
		if !sum.Equal(amount) {
			t.Fatalf("shares sum to %s, want %s", sum, amount)
		}
	})
}
