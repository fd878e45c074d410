package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func equalExpense(t *testing.T, payer string, amount string, participants ...string) ExpenseForBalance {
	t.Helper()
	shares, err := EqualSplit(d(amount), participants)
	require.NoError(t, err)
	return ExpenseForBalance{PayerID: payer, Amount: d(amount), Shares: shares}
}

func assertEdge(t *testing.T, edge DebtEdge, from, to, amount string) {
	t.Helper()
	assert.Equal(t, from, edge.From)
	assert.Equal(t, to, edge.To)
	assert.True(t, edge.Amount.Equal(d(amount)), "edge %s->%s amount = %s, want %s", edge.From, edge.To, edge.Amount, amount)
}

func TestBuildLedger_SkipsSelfShares(t *testing.T) {
	ledger := BuildLedger([]ExpenseForBalance{
		equalExpense(t, "A", "90", "A", "B", "C"),
	})

	assert.Equal(t, []string{"A", "B", "C"}, ledger.Users())
	assert.Len(t, ledger.Pairs(), 2)
	assert.True(t, ledger.Owed("B", "A").Equal(d("30")))
	assert.True(t, ledger.Owed("C", "A").Equal(d("30")))
	assert.True(t, ledger.Owed("A", "A").IsZero())
}

func TestBuildLedger_PayerOnlyGetsZeroPosition(t *testing.T) {
	ledger := BuildLedger([]ExpenseForBalance{
		equalExpense(t, "A", "50", "A"),
	})
	positions := NetPositions(ledger)

	require.Equal(t, []string{"A"}, positions.Users())
	assert.True(t, positions.Get("A").IsZero())
	assert.Empty(t, Simplify(positions))
}

func TestBuildLedger_AccumulatesPerPair(t *testing.T) {
	ledger := BuildLedger([]ExpenseForBalance{
		equalExpense(t, "A", "20", "A", "B"),
		equalExpense(t, "A", "10", "A", "B"),
		equalExpense(t, "B", "4", "A", "B"),
	})

	assert.True(t, ledger.Owed("B", "A").Equal(d("15")))
	assert.True(t, ledger.Owed("A", "B").Equal(d("2")))

	positions := NetPositions(ledger)
	assert.True(t, positions.Get("A").Equal(d("13")))
	assert.True(t, positions.Get("B").Equal(d("-13")))
}

func TestCalculateGroupBalances_SingleExpense(t *testing.T) {
	members, edges := CalculateGroupBalances([]ExpenseForBalance{
		equalExpense(t, "A", "90", "A", "B", "C"),
	}, nil)

	require.Len(t, edges, 2)
	assertEdge(t, edges[0], "B", "A", "30")
	assertEdge(t, edges[1], "C", "A", "30")

	require.Len(t, members, 3)
	assert.Equal(t, "A", members[0].MemberID)
	assert.True(t, members[0].NetBalance.Equal(d("60")))
	assert.True(t, members[0].TotalPaid.Equal(d("90")))
	assert.True(t, members[0].TotalOwed.Equal(d("30")))
}

func TestCalculateGroupBalances_TwoExpenses(t *testing.T) {
	members, edges := CalculateGroupBalances([]ExpenseForBalance{
		equalExpense(t, "A", "90", "A", "B", "C"),
		equalExpense(t, "B", "60", "A", "B", "C"),
	}, nil)

	net := map[string]decimal.Decimal{}
	for _, m := range members {
		net[m.MemberID] = m.NetBalance
	}
	assert.True(t, net["A"].Equal(d("40")), "A net = %s", net["A"])
	assert.True(t, net["B"].Equal(d("10")), "B net = %s", net["B"])
	assert.True(t, net["C"].Equal(d("-50")), "C net = %s", net["C"])

	require.Len(t, edges, 2)
	assertEdge(t, edges[0], "C", "A", "40")
	assertEdge(t, edges[1], "C", "B", "10")
}

func TestSimplify_CollapsesChain(t *testing.T) {
	// A owes B 10, B owes C 10: A should pay C directly.
	ledger := NewPairwiseLedger()
	ledger.Add("A", "B", d("10"))
	ledger.Add("B", "C", d("10"))

	edges := Simplify(NetPositions(ledger))
	require.Len(t, edges, 1)
	assertEdge(t, edges[0], "A", "C", "10")
}

func TestSimplify_CancelsMutualDebts(t *testing.T) {
	ledger := NewPairwiseLedger()
	ledger.Add("A", "B", d("25.50"))
	ledger.Add("B", "A", d("25.50"))

	assert.Empty(t, Simplify(NetPositions(ledger)))
}

func TestSimplify_StableOrderOnTies(t *testing.T) {
	p := NewPositions()
	p.Add("C1", d("10"))
	p.Add("D1", d("-10"))
	p.Add("C2", d("10"))
	p.Add("D2", d("-10"))

	edges := Simplify(p)
	require.Len(t, edges, 2)
	assertEdge(t, edges[0], "D1", "C1", "10")
	assertEdge(t, edges[1], "D2", "C2", "10")
}

func TestSimplify_LargestFirst(t *testing.T) {
	p := NewPositions()
	p.Add("A", d("5"))
	p.Add("B", d("-12"))
	p.Add("C", d("15"))
	p.Add("D", d("-8"))

	edges := Simplify(p)
	require.Len(t, edges, 3)
	assertEdge(t, edges[0], "B", "C", "12")
	assertEdge(t, edges[1], "D", "C", "3")
	assertEdge(t, edges[2], "D", "A", "5")
}

func TestSimplify_OneCentThreshold(t *testing.T) {
	t.Run("one cent each way is ignored", func(t *testing.T) {
		p := NewPositions()
		p.Add("A", d("0.01"))
		p.Add("B", d("-0.01"))

		assert.Empty(t, Simplify(p))
	})

	t.Run("two cents is settled", func(t *testing.T) {
		p := NewPositions()
		p.Add("A", d("0.02"))
		p.Add("B", d("-0.02"))

		edges := Simplify(p)
		require.Len(t, edges, 1)
		assertEdge(t, edges[0], "B", "A", "0.02")
	})

	t.Run("one cent left mid-sweep is not emitted", func(t *testing.T) {
		p := NewPositions()
		p.Add("C1", d("5.01"))
		p.Add("D1", d("-5.00"))
		p.Add("D2", d("-3.00"))
		p.Add("C2", d("2.99"))

		edges := Simplify(p)
		require.Len(t, edges, 2)
		assertEdge(t, edges[0], "D1", "C1", "5.00")
		assertEdge(t, edges[1], "D2", "C2", "2.99")
	})
}

func TestApplySettlements_Offsets(t *testing.T) {
	expenses := []ExpenseForBalance{equalExpense(t, "A", "90", "A", "B", "C")}
	settlements := []SettlementForBalance{{FromUserID: "B", ToUserID: "A", Amount: d("30")}}

	members, edges := CalculateGroupBalances(expenses, settlements)

	require.Len(t, edges, 1)
	assertEdge(t, edges[0], "C", "A", "30")

	for _, m := range members {
		if m.MemberID == "B" {
			assert.True(t, m.NetBalance.IsZero())
			assert.True(t, m.TotalPaid.Equal(d("30")))
		}
	}
}

func TestApplySettlements_Partial(t *testing.T) {
	expenses := []ExpenseForBalance{equalExpense(t, "A", "90", "A", "B", "C")}
	settlements := []SettlementForBalance{{FromUserID: "C", ToUserID: "A", Amount: d("12.5")}}

	_, edges := CalculateGroupBalances(expenses, settlements)

	require.Len(t, edges, 2)
	assertEdge(t, edges[0], "B", "A", "30")
	assertEdge(t, edges[1], "C", "A", "17.5")
}
