package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	engine *ledger.Engine
	logger *slog.Logger
}

// NewExpenseService creates a new ExpenseService backed by the ledger engine.
func NewExpenseService(engine *ledger.Engine, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{engine: engine, logger: logger}
}

// CreateExpense records an expense paid by the caller and refreshes balances.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount.String(),
		"participants", len(req.Msg.Participants),
	)

	expense, err := s.engine.CreateExpense(ctx, ledger.ExpenseInput{
		GroupID:      req.Msg.GroupID,
		PayerID:      userID,
		Amount:       req.Msg.Amount.Decimal,
		Description:  req.Msg.Description,
		Category:     req.Msg.Category,
		Date:         req.Msg.Date,
		Participants: req.Msg.Participants,
	})
	if err != nil {
		s.logger.Warn("CreateExpense failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns the group's expenses, most recent first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expenses, err := s.engine.ListGroupExpenses(ctx, req.Msg.GroupID, userID)
	if err != nil {
		s.logger.Warn("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// GetExpense returns one expense visible to the caller.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.engine.GetExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		s.logger.Warn("GetExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}
