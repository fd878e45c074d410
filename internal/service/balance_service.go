package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.BalanceServiceHandler = (*BalanceService)(nil)

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	engine *ledger.Engine
	logger *slog.Logger
}

// NewBalanceService creates a new BalanceService backed by the ledger engine.
func NewBalanceService(engine *ledger.Engine, logger *slog.Logger) *BalanceService {
	return &BalanceService{engine: engine, logger: logger}
}

// CalculateBalances recomputes and returns the group's simplified debts.
func (s *BalanceService) CalculateBalances(ctx context.Context, req *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CalculateBalances request received", "group_id", req.Msg.GroupID)

	result, err := s.engine.CalculateGroupBalances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		s.logger.Warn("CalculateBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Balances calculated",
		"group_id", req.Msg.GroupID,
		"version", result.Version,
		"edges", len(result.Balances),
	)
	return connect.NewResponse(&api.CalculateBalancesResponse{
		Balances: toAPIBalances(result.Balances),
		Summary:  toAPITransactions(result.Summary),
		Members:  toAPIMembers(result.Members),
		Version:  result.Version,
	}), nil
}

// GetBalances returns the stored snapshot and the caller's part of it.
func (s *BalanceService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.engine.GetGroupBalances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		s.logger.Warn("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBalancesResponse{
		AllBalances: toAPIBalances(view.All),
		YourBalances: api.YourBalances{
			YouOwe:  toAPICounterparties(view.YouOwe),
			OwesYou: toAPICounterparties(view.OwesYou),
		},
		Version: view.Version,
	}), nil
}

// SettleBalance records a payment from the caller to a creditor.
func (s *BalanceService) SettleBalance(ctx context.Context, req *connect.Request[api.SettleBalanceRequest]) (*connect.Response[api.SettleBalanceResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("SettleBalance request received",
		"group_id", req.Msg.GroupID,
		"payee_id", req.Msg.PayeeID,
		"amount", req.Msg.Amount.String(),
	)

	settlement, err := s.engine.SettleBalance(ctx, ledger.SettleInput{
		GroupID: req.Msg.GroupID,
		PayerID: userID,
		PayeeID: req.Msg.PayeeID,
		Amount:  req.Msg.Amount.Decimal,
		Note:    req.Msg.Note,
	})
	if err != nil {
		s.logger.Warn("SettleBalance failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.SettleBalanceResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns the group's settlements, newest first.
func (s *BalanceService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.engine.ListSettlements(ctx, req.Msg.GroupID, userID)
	if err != nil {
		s.logger.Warn("ListSettlements failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
