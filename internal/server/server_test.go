package server_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/server"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

type testServer struct {
	url      string
	client   *http.Client
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	expenses apiconnect.ExpenseServiceClient
	balances apiconnect.BalanceServiceClient
	friends  apiconnect.FriendServiceClient
}

func setupTestServer(t *testing.T, mode ledger.Mode) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	handler := server.NewHandler(server.Deps{
		Engine:        ledger.NewEngine(store, ledger.Config{Mode: mode, Recorder: m}),
		Friends:       store,
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWT:           auth.NewJWTManager("test-secret", time.Hour),
		Metrics:       m,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		url:      srv.URL,
		client:   srv.Client(),
		auth:     apiconnect.NewAuthServiceClient(srv.Client(), srv.URL),
		groups:   apiconnect.NewGroupServiceClient(srv.Client(), srv.URL),
		expenses: apiconnect.NewExpenseServiceClient(srv.Client(), srv.URL),
		balances: apiconnect.NewBalanceServiceClient(srv.Client(), srv.URL),
		friends:  apiconnect.NewFriendServiceClient(srv.Client(), srv.URL),
	}
}

type session struct {
	userID string
	token  string
}

func (ts *testServer) register(t *testing.T, name string) session {
	t.Helper()
	resp, err := ts.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password123",
	}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Msg.Token)
	return session{userID: resp.Msg.User.ID, token: resp.Msg.Token}
}

func authed[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+s.token)
	return req
}

func money(s string) api.Money {
	return api.MustMoney(s)
}

func assertCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}

func TestAuthFlow(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)
	ctx := context.Background()

	alice := ts.register(t, "alice")

	_, err := ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "alice@example.com", DisplayName: "Again", Password: "password123",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = ts.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "short",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	login, err := ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "alice@example.com", Password: "password123",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.userID, login.Msg.User.ID)

	_, err = ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	}))
	assertCode(t, err, connect.CodeUnauthenticated)

	me, err := ts.auth.GetCurrentUser(ctx, authed(alice, &api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Msg.User.DisplayName)

	_, err = ts.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = ts.auth.Logout(ctx, authed(alice, &api.LogoutRequest{}))
	require.NoError(t, err)
}

func TestProtectedServicesRequireToken(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)
	ctx := context.Background()

	_, err := ts.groups.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	bad := session{token: "not-a-token"}
	_, err = ts.balances.GetBalances(ctx, authed(bad, &api.GetBalancesRequest{GroupID: "g"}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGroupLifecycle(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)
	ctx := context.Background()

	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	carol := ts.register(t, "carol")

	created, err := ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{bob.userID},
	}))
	require.NoError(t, err)
	group := created.Msg.Group
	assert.Equal(t, alice.userID, group.CreatedBy)
	assert.ElementsMatch(t, []string{alice.userID, bob.userID}, group.Members)

	_, err = ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.groups.GetGroup(ctx, authed(carol, &api.GetGroupRequest{GroupID: group.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = ts.groups.GetGroup(ctx, authed(alice, &api.GetGroupRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = ts.groups.AddMembers(ctx, authed(alice, &api.AddMembersRequest{
		GroupID: group.ID, MemberIDs: []string{bob.userID},
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	added, err := ts.groups.AddMembers(ctx, authed(bob, &api.AddMembersRequest{
		GroupID: group.ID, MemberIDs: []string{carol.userID},
	}))
	require.NoError(t, err)
	assert.Len(t, added.Msg.Group.Members, 3)

	listed, err := ts.groups.ListGroups(ctx, authed(carol, &api.ListGroupsRequest{}))
	require.NoError(t, err)
	require.Len(t, listed.Msg.Groups, 1)
	assert.Equal(t, group.ID, listed.Msg.Groups[0].ID)

	removed, err := ts.groups.RemoveMember(ctx, authed(alice, &api.RemoveMemberRequest{
		GroupID: group.ID, MemberID: carol.userID,
	}))
	require.NoError(t, err)
	assert.NotContains(t, removed.Msg.Group.Members, carol.userID)
}

func TestExpensesAndBalances(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeOffset)
	ctx := context.Background()

	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	carol := ts.register(t, "carol")

	created, err := ts.groups.CreateGroup(ctx, authed(alice, &api.CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{bob.userID, carol.userID},
	}))
	require.NoError(t, err)
	groupID := created.Msg.Group.ID

	exp, err := ts.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID:     groupID,
		Amount:      money("90"),
		Description: "Dinner",
	}))
	require.NoError(t, err)
	assert.Equal(t, alice.userID, exp.Msg.Expense.PayerID)
	require.Len(t, exp.Msg.Expense.Splits, 3)
	for _, s := range exp.Msg.Expense.Splits {
		assert.True(t, s.Amount.Equal(decimal.NewFromInt(30)), "split %s", s.Amount)
	}

	_, err = ts.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID: groupID, Amount: money("0"), Description: "Nothing",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	got, err := ts.expenses.GetExpense(ctx, authed(bob, &api.GetExpenseRequest{ExpenseID: exp.Msg.Expense.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Msg.Expense.Description)

	list, err := ts.expenses.ListExpenses(ctx, authed(carol, &api.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Len(t, list.Msg.Expenses, 1)

	calc, err := ts.balances.CalculateBalances(ctx, authed(bob, &api.CalculateBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, calc.Msg.Balances, 2)
	for _, b := range calc.Msg.Balances {
		assert.Equal(t, alice.userID, b.OwesTo)
		assert.True(t, b.Amount.Equal(decimal.NewFromInt(30)))
	}
	assert.Len(t, calc.Msg.Summary, 2)
	assert.Len(t, calc.Msg.Members, 3)

	_, err = ts.balances.SettleBalance(ctx, authed(carol, &api.SettleBalanceRequest{
		GroupID: groupID, PayeeID: alice.userID, Amount: money("45"),
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.balances.SettleBalance(ctx, authed(alice, &api.SettleBalanceRequest{
		GroupID: groupID, PayeeID: carol.userID, Amount: money("5"),
	}))
	assertCode(t, err, connect.CodeNotFound)

	settled, err := ts.balances.SettleBalance(ctx, authed(carol, &api.SettleBalanceRequest{
		GroupID: groupID, PayeeID: alice.userID, Amount: money("12.50"), Note: "cash",
	}))
	require.NoError(t, err)
	assert.Equal(t, carol.userID, settled.Msg.Settlement.PayerID)
	assert.Equal(t, "cash", settled.Msg.Settlement.Note)

	view, err := ts.balances.GetBalances(ctx, authed(carol, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, view.Msg.YourBalances.YouOwe, 1)
	assert.Equal(t, alice.userID, view.Msg.YourBalances.YouOwe[0].UserID)
	assert.True(t, view.Msg.YourBalances.YouOwe[0].Amount.Equal(decimal.RequireFromString("17.50")))
	assert.Empty(t, view.Msg.YourBalances.OwesYou)

	aliceView, err := ts.balances.GetBalances(ctx, authed(alice, &api.GetBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Len(t, aliceView.Msg.YourBalances.OwesYou, 2)
	assert.Equal(t, view.Msg.Version, aliceView.Msg.Version)

	history, err := ts.balances.ListSettlements(ctx, authed(bob, &api.ListSettlementsRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, history.Msg.Settlements, 1)
	assert.True(t, history.Msg.Settlements[0].Amount.Equal(decimal.RequireFromString("12.5")))

	outsider := ts.register(t, "dave")
	_, err = ts.balances.CalculateBalances(ctx, authed(outsider, &api.CalculateBalancesRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestUpdateProfile(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)
	ctx := context.Background()

	alice := ts.register(t, "alice")
	ts.register(t, "bob")
	ptr := func(s string) *string { return &s }

	updated, err := ts.auth.UpdateProfile(ctx, authed(alice, &api.UpdateProfileRequest{
		DisplayName: ptr("Alice Liddell"),
		Email:       ptr("liddell@example.com"),
	}))
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Msg.User.DisplayName)
	assert.Equal(t, "liddell@example.com", updated.Msg.User.Email)

	_, err = ts.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "liddell@example.com", Password: "password123",
	}))
	require.NoError(t, err)

	_, err = ts.auth.UpdateProfile(ctx, authed(alice, &api.UpdateProfileRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.auth.UpdateProfile(ctx, authed(alice, &api.UpdateProfileRequest{Email: ptr("bob@example.com")}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = ts.auth.UpdateProfile(ctx, authed(alice, &api.UpdateProfileRequest{Password: ptr("short")}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = ts.auth.UpdateProfile(ctx, connect.NewRequest(&api.UpdateProfileRequest{DisplayName: ptr("Nobody")}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestFriends(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)
	ctx := context.Background()

	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	added, err := ts.friends.AddFriends(ctx, authed(alice, &api.AddFriendsRequest{
		Emails: []string{"Bob@example.com", "bob@example.com", "carol@example.com"},
	}))
	require.NoError(t, err)
	require.Len(t, added.Msg.Added, 1)
	assert.Equal(t, bob.userID, added.Msg.Added[0].ID)
	assert.Empty(t, added.Msg.AlreadyFriends)
	assert.Equal(t, []string{"carol@example.com"}, added.Msg.Invited)

	again, err := ts.friends.AddFriends(ctx, authed(bob, &api.AddFriendsRequest{Emails: []string{"alice@example.com"}}))
	require.NoError(t, err)
	assert.Empty(t, again.Msg.Added)
	require.Len(t, again.Msg.AlreadyFriends, 1)
	assert.Equal(t, alice.userID, again.Msg.AlreadyFriends[0].ID)

	_, err = ts.friends.AddFriends(ctx, authed(alice, &api.AddFriendsRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = ts.friends.AddFriends(ctx, authed(alice, &api.AddFriendsRequest{Emails: []string{"alice@example.com"}}))
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = ts.friends.AddFriends(ctx, authed(alice, &api.AddFriendsRequest{Emails: []string{"not-an-email"}}))
	assertCode(t, err, connect.CodeInvalidArgument)

	t.Run("invited email is befriended on registration", func(t *testing.T) {
		carol := ts.register(t, "carol")

		listed, err := ts.friends.ListFriends(ctx, authed(carol, &api.ListFriendsRequest{}))
		require.NoError(t, err)
		require.Len(t, listed.Msg.Friends, 1)
		assert.Equal(t, alice.userID, listed.Msg.Friends[0].ID)

		aliceFriends, err := ts.friends.ListFriends(ctx, authed(alice, &api.ListFriendsRequest{}))
		require.NoError(t, err)
		require.Len(t, aliceFriends.Msg.Friends, 2)
		assert.Equal(t, bob.userID, aliceFriends.Msg.Friends[0].ID)
		assert.Equal(t, carol.userID, aliceFriends.Msg.Friends[1].ID)
	})

	t.Run("removal is mutual", func(t *testing.T) {
		_, err := ts.friends.RemoveFriend(ctx, authed(bob, &api.RemoveFriendRequest{FriendID: alice.userID}))
		require.NoError(t, err)

		listed, err := ts.friends.ListFriends(ctx, authed(alice, &api.ListFriendsRequest{}))
		require.NoError(t, err)
		for _, f := range listed.Msg.Friends {
			assert.NotEqual(t, bob.userID, f.ID)
		}

		_, err = ts.friends.RemoveFriend(ctx, authed(alice, &api.RemoveFriendRequest{FriendID: bob.userID}))
		assertCode(t, err, connect.CodeInvalidArgument)
		_, err = ts.friends.RemoveFriend(ctx, authed(alice, &api.RemoveFriendRequest{FriendID: "missing"}))
		assertCode(t, err, connect.CodeNotFound)
		_, err = ts.friends.RemoveFriend(ctx, authed(alice, &api.RemoveFriendRequest{}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	_, err = ts.friends.ListFriends(ctx, connect.NewRequest(&api.ListFriendsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupTestServer(t, ledger.ModeRecompute)

	resp, err := ts.client.Get(ts.url + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	alice := ts.register(t, "alice")
	created, err := ts.groups.CreateGroup(context.Background(), authed(alice, &api.CreateGroupRequest{Name: "Solo"}))
	require.NoError(t, err)
	_, err = ts.balances.CalculateBalances(context.Background(), authed(alice, &api.CalculateBalancesRequest{
		GroupID: created.Msg.Group.ID,
	}))
	require.NoError(t, err)

	resp, err = ts.client.Get(ts.url + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `settleup_recompute_total{result="ok"} 1`)
}
