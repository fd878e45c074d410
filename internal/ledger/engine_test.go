package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

type fixture struct {
	ctx     context.Context
	store   *sqlite.SQLiteStore
	engine  *ledger.Engine
	a, b, c string
	groupID string
}

func newFixture(t *testing.T, mode ledger.Mode) *fixture {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		ctx:    context.Background(),
		store:  store,
		engine: ledger.NewEngine(store, ledger.Config{Mode: mode}),
	}

	ids := make([]string, 3)
	for i, name := range []string{"alice", "bob", "carol"} {
		u := models.NewUser(name+"@example.com", name, "hash")
		require.NoError(t, store.CreateUser(f.ctx, u))
		ids[i] = u.ID
	}
	f.a, f.b, f.c = ids[0], ids[1], ids[2]

	group, err := f.engine.CreateGroup(f.ctx, f.a, "Trip", "", []string{f.a, f.b, f.c})
	require.NoError(t, err)
	f.groupID = group.ID
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) addExpense(t *testing.T, payer, amount string, participants ...string) *models.Expense {
	t.Helper()
	exp, err := f.engine.CreateExpense(f.ctx, ledger.ExpenseInput{
		GroupID:      f.groupID,
		PayerID:      payer,
		Amount:       d(amount),
		Description:  "expense",
		Participants: participants,
	})
	require.NoError(t, err)
	return exp
}

type edge struct {
	from, to, amount string
}

func edgesOf(balances []*models.Balance) []edge {
	out := make([]edge, len(balances))
	for i, b := range balances {
		out[i] = edge{from: b.UserID, to: b.OwesTo, amount: b.Amount.StringFixed(2)}
	}
	return out
}

func TestEngine_ExpenseScenarios(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)

	f.addExpense(t, f.a, "90", f.a, f.b, f.c)

	res, err := f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.b)
	require.NoError(t, err)
	assert.ElementsMatch(t, []edge{
		{from: f.b, to: f.a, amount: "30.00"},
		{from: f.c, to: f.a, amount: "30.00"},
	}, edgesOf(res.Balances))

	f.addExpense(t, f.b, "60", f.a, f.b, f.c)

	res, err = f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	assert.Equal(t, []edge{
		{from: f.c, to: f.a, amount: "40.00"},
		{from: f.c, to: f.b, amount: "10.00"},
	}, edgesOf(res.Balances))

	net := make(map[string]string)
	for _, m := range res.Members {
		net[m.MemberID] = m.NetBalance.StringFixed(2)
	}
	assert.Equal(t, map[string]string{f.a: "40.00", f.b: "10.00", f.c: "-50.00"}, net)
}

func TestEngine_CalculateIsIdempotent(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)
	f.addExpense(t, f.a, "100", f.a, f.b, f.c)
	f.addExpense(t, f.c, "45.50", f.b, f.c)

	first, err := f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	second, err := f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)

	assert.Equal(t, edgesOf(first.Balances), edgesOf(second.Balances))
	assert.Equal(t, first.Version+1, second.Version)

	stored, err := f.engine.GetGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	assert.Equal(t, second.Version, stored.Version)
	assert.Equal(t, edgesOf(second.Balances), edgesOf(stored.All))
}

func TestEngine_GetGroupBalancesSplitsCallerView(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)
	f.addExpense(t, f.a, "90", f.a, f.b, f.c)

	view, err := f.engine.GetGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	assert.Len(t, view.All, 2)
	assert.Empty(t, view.YouOwe)
	require.Len(t, view.OwesYou, 2)
	for _, cp := range view.OwesYou {
		assert.Equal(t, "30.00", cp.Amount.StringFixed(2))
	}

	view, err = f.engine.GetGroupBalances(f.ctx, f.groupID, f.b)
	require.NoError(t, err)
	require.Len(t, view.YouOwe, 1)
	assert.Equal(t, f.a, view.YouOwe[0].UserID)
	assert.Empty(t, view.OwesYou)
}

func TestEngine_SettleBalance(t *testing.T) {
	t.Run("overpayment is rejected without a settlement record", func(t *testing.T) {
		f := newFixture(t, ledger.ModeRecompute)
		f.addExpense(t, f.a, "90", f.a, f.b, f.c)

		_, err := f.engine.SettleBalance(f.ctx, ledger.SettleInput{
			GroupID: f.groupID, PayerID: f.b, PayeeID: f.a, Amount: d("30.01"),
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)

		settlements, err := f.engine.ListSettlements(f.ctx, f.groupID, f.a)
		require.NoError(t, err)
		assert.Empty(t, settlements)
	})

	t.Run("recompute mode regenerates the settled edge from expenses", func(t *testing.T) {
		f := newFixture(t, ledger.ModeRecompute)
		f.addExpense(t, f.a, "90", f.a, f.b, f.c)

		settlement, err := f.engine.SettleBalance(f.ctx, ledger.SettleInput{
			GroupID: f.groupID, PayerID: f.b, PayeeID: f.a, Amount: d("30"), Note: "cash",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, settlement.ID)
		assert.Equal(t, "30.00", settlement.Amount.StringFixed(2))

		view, err := f.engine.GetGroupBalances(f.ctx, f.groupID, f.b)
		require.NoError(t, err)
		require.Len(t, view.YouOwe, 1)
		assert.Equal(t, "30.00", view.YouOwe[0].Amount.StringFixed(2))
	})

	t.Run("offset mode keeps settlements through recompute", func(t *testing.T) {
		f := newFixture(t, ledger.ModeOffset)
		f.addExpense(t, f.a, "90", f.a, f.b, f.c)

		_, err := f.engine.SettleBalance(f.ctx, ledger.SettleInput{
			GroupID: f.groupID, PayerID: f.b, PayeeID: f.a, Amount: d("30"),
		})
		require.NoError(t, err)
		_, err = f.engine.SettleBalance(f.ctx, ledger.SettleInput{
			GroupID: f.groupID, PayerID: f.c, PayeeID: f.a, Amount: d("12.50"),
		})
		require.NoError(t, err)

		res, err := f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.a)
		require.NoError(t, err)
		assert.Equal(t, []edge{{from: f.c, to: f.a, amount: "17.50"}}, edgesOf(res.Balances))

		settlements, err := f.engine.ListSettlements(f.ctx, f.groupID, f.c)
		require.NoError(t, err)
		assert.Len(t, settlements, 2)
	})

	t.Run("validation errors", func(t *testing.T) {
		f := newFixture(t, ledger.ModeRecompute)
		f.addExpense(t, f.a, "90", f.a, f.b, f.c)

		tests := []struct {
			name string
			in   ledger.SettleInput
			want error
		}{
			{"self settlement", ledger.SettleInput{GroupID: f.groupID, PayerID: f.b, PayeeID: f.b, Amount: d("1")}, ledger.ErrInvalidInput},
			{"zero amount", ledger.SettleInput{GroupID: f.groupID, PayerID: f.b, PayeeID: f.a, Amount: d("0")}, ledger.ErrInvalidInput},
			{"sub-cent amount", ledger.SettleInput{GroupID: f.groupID, PayerID: f.b, PayeeID: f.a, Amount: d("0.004")}, ledger.ErrInvalidInput},
			{"missing payee", ledger.SettleInput{GroupID: f.groupID, PayerID: f.b, Amount: d("1")}, ledger.ErrInvalidInput},
			{"payee outside group", ledger.SettleInput{GroupID: f.groupID, PayerID: f.b, PayeeID: "stranger", Amount: d("1")}, ledger.ErrForbidden},
			{"payer outside group", ledger.SettleInput{GroupID: f.groupID, PayerID: "stranger", PayeeID: f.a, Amount: d("1")}, ledger.ErrForbidden},
			{"no standing edge", ledger.SettleInput{GroupID: f.groupID, PayerID: f.a, PayeeID: f.b, Amount: d("1")}, ledger.ErrNotFound},
			{"unknown group", ledger.SettleInput{GroupID: "missing", PayerID: f.b, PayeeID: f.a, Amount: d("1")}, ledger.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.engine.SettleBalance(f.ctx, tt.in)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestEngine_CreateExpense(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)

	t.Run("defaults participants to all members", func(t *testing.T) {
		exp := f.addExpense(t, f.b, "10")
		assert.Equal(t, []string{f.a, f.b, f.c}, exp.Participants)

		total := decimal.Zero
		for _, s := range exp.Splits {
			total = total.Add(s.Amount)
		}
		assert.True(t, total.Equal(d("10")), "splits sum to %s", total)
		assert.Equal(t, "3.34", exp.Splits[0].Amount.StringFixed(2))
	})

	t.Run("filters outsiders, dedupes and appends the payer", func(t *testing.T) {
		exp := f.addExpense(t, f.a, "20", f.b, "stranger", f.b)
		assert.Equal(t, []string{f.b, f.a}, exp.Participants)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		tests := []struct {
			name string
			in   ledger.ExpenseInput
			want error
		}{
			{"no description", ledger.ExpenseInput{GroupID: f.groupID, PayerID: f.a, Amount: d("5")}, ledger.ErrInvalidInput},
			{"negative amount", ledger.ExpenseInput{GroupID: f.groupID, PayerID: f.a, Amount: d("-5"), Description: "x"}, ledger.ErrInvalidInput},
			{"only outsiders", ledger.ExpenseInput{GroupID: f.groupID, PayerID: f.a, Amount: d("5"), Description: "x", Participants: []string{"stranger"}}, ledger.ErrInvalidInput},
			{"non-member payer", ledger.ExpenseInput{GroupID: f.groupID, PayerID: "stranger", Amount: d("5"), Description: "x"}, ledger.ErrForbidden},
			{"unknown group", ledger.ExpenseInput{GroupID: "missing", PayerID: f.a, Amount: d("5"), Description: "x"}, ledger.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.engine.CreateExpense(f.ctx, tt.in)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("expense lookups are gated by membership", func(t *testing.T) {
		exp := f.addExpense(t, f.c, "7", f.a, f.c)

		got, err := f.engine.GetExpense(f.ctx, exp.ID, f.b)
		require.NoError(t, err)
		assert.Equal(t, exp.ID, got.ID)

		_, err = f.engine.GetExpense(f.ctx, exp.ID, "stranger")
		assert.ErrorIs(t, err, ledger.ErrForbidden)

		_, err = f.engine.GetExpense(f.ctx, "missing", f.a)
		assert.ErrorIs(t, err, ledger.ErrNotFound)

		list, err := f.engine.ListGroupExpenses(f.ctx, f.groupID, f.a)
		require.NoError(t, err)
		assert.Len(t, list, 3)
	})
}

func TestEngine_ConcurrentExpensesConverge(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)
	members := []string{f.a, f.b, f.c}

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.CreateExpense(f.ctx, ledger.ExpenseInput{
				GroupID:     f.groupID,
				PayerID:     members[i%3],
				Amount:      decimal.NewFromInt(int64(10 + i)),
				Description: "round",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.engine.GetGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stored.Version)

	fresh, err := f.engine.CalculateGroupBalances(f.ctx, f.groupID, f.a)
	require.NoError(t, err)
	assert.Equal(t, edgesOf(fresh.Balances), edgesOf(stored.All))
}

func TestEngine_Groups(t *testing.T) {
	f := newFixture(t, ledger.ModeRecompute)

	dave := models.NewUser("dave@example.com", "dave", "hash")
	require.NoError(t, f.store.CreateUser(f.ctx, dave))

	t.Run("create adds the caller", func(t *testing.T) {
		g, err := f.engine.CreateGroup(f.ctx, f.b, "Flat", "rent", []string{f.c})
		require.NoError(t, err)
		assert.Equal(t, []string{f.c, f.b}, g.Members)
		assert.Equal(t, f.b, g.CreatedBy)

		_, err = f.engine.CreateGroup(f.ctx, f.b, "Flat", "", []string{"ghost"})
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)

		_, err = f.engine.CreateGroup(f.ctx, f.b, "  ", "", nil)
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	})

	t.Run("add and remove members", func(t *testing.T) {
		g, err := f.engine.AddMembers(f.ctx, f.groupID, f.b, []string{dave.ID, f.a})
		require.NoError(t, err)
		assert.Equal(t, []string{f.a, f.b, f.c, dave.ID}, g.Members)

		_, err = f.engine.AddMembers(f.ctx, f.groupID, f.b, []string{dave.ID})
		assert.ErrorIs(t, err, ledger.ErrConflict)

		_, err = f.engine.AddMembers(f.ctx, f.groupID, "stranger", []string{dave.ID})
		assert.ErrorIs(t, err, ledger.ErrForbidden)

		_, err = f.engine.RemoveMember(f.ctx, f.groupID, f.b, f.a)
		assert.ErrorIs(t, err, ledger.ErrInvalidInput, "creator stays while others remain")

		g, err = f.engine.RemoveMember(f.ctx, f.groupID, f.a, dave.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.a, f.b, f.c}, g.Members)

		_, err = f.engine.RemoveMember(f.ctx, f.groupID, f.a, dave.ID)
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	})

	t.Run("listing and reading", func(t *testing.T) {
		groups, err := f.engine.ListUserGroups(f.ctx, f.c)
		require.NoError(t, err)
		assert.Len(t, groups, 2)

		_, err = f.engine.GetGroup(f.ctx, f.groupID, dave.ID)
		assert.ErrorIs(t, err, ledger.ErrForbidden)

		_, err = f.engine.GetGroup(f.ctx, "missing", f.a)
		assert.True(t, errors.Is(err, ledger.ErrNotFound))
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ledger.Mode
		wantErr bool
	}{
		{"", ledger.ModeRecompute, false},
		{"recompute", ledger.ModeRecompute, false},
		{"offset", ledger.ModeOffset, false},
		{"ledger", "", true},
	}
	for _, tt := range tests {
		got, err := ledger.ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
