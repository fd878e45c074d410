package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     members,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{UserID: s.UserID, Amount: api.NewMoney(s.Amount)}
	}
	return &api.Expense{
		ID:           e.ID,
		GroupID:      e.GroupID,
		PayerID:      e.PayerID,
		Amount:       api.NewMoney(e.Amount),
		Description:  e.Description,
		Category:     e.Category,
		Date:         e.Date,
		Participants: e.Participants,
		Splits:       splits,
		IsSettled:    e.IsSettled,
		CreatedAt:    e.CreatedAt,
	}
}

func toAPIBalances(balances []*models.Balance) []*api.Balance {
	out := make([]*api.Balance, len(balances))
	for i, b := range balances {
		out[i] = &api.Balance{
			ID:      b.ID,
			GroupID: b.GroupID,
			UserID:  b.UserID,
			OwesTo:  b.OwesTo,
			Amount:  api.NewMoney(b.Amount),
		}
	}
	return out
}

func toAPITransactions(edges []calculator.DebtEdge) []api.Transaction {
	out := make([]api.Transaction, len(edges))
	for i, e := range edges {
		out[i] = api.Transaction{PayerID: e.From, PayeeID: e.To, Amount: api.NewMoney(e.Amount)}
	}
	return out
}

func toAPIMembers(members []calculator.MemberBalance) []api.MemberBalance {
	out := make([]api.MemberBalance, len(members))
	for i, m := range members {
		out[i] = api.MemberBalance{
			UserID:     m.MemberID,
			NetBalance: api.NewMoney(m.NetBalance),
			TotalPaid:  api.NewMoney(m.TotalPaid),
			TotalOwed:  api.NewMoney(m.TotalOwed),
		}
	}
	return out
}

func toAPICounterparties(cps []ledger.Counterparty) []api.Counterparty {
	out := make([]api.Counterparty, len(cps))
	for i, cp := range cps {
		out[i] = api.Counterparty{UserID: cp.UserID, Amount: api.NewMoney(cp.Amount)}
	}
	return out
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:        s.ID,
		GroupID:   s.GroupID,
		PayerID:   s.PayerID,
		PayeeID:   s.PayeeID,
		Amount:    api.NewMoney(s.Amount),
		Note:      s.Note,
		SettledAt: s.SettledAt,
	}
}
