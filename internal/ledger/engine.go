// Package ledger is the balance engine: it turns a group's expenses into
// net positions, simplifies them into a minimal set of debts and keeps the
// persisted balance snapshot in step with every expense and settlement.
//
// All snapshot writes for one group are serialized, so concurrent
// recomputations apply in a total order and the stored snapshot always
// matches exactly one of them.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// Mode selects how settlements interact with recomputation.
type Mode string

const (
	// ModeRecompute rebuilds balances from expenses alone. A settlement
	// adjusts the standing edge, and the recompute that follows it
	// regenerates the snapshot without regard to settlement history.
	ModeRecompute Mode = "recompute"

	// ModeOffset folds every recorded settlement into the net positions,
	// so settled amounts survive later recomputes.
	ModeOffset Mode = "offset"
)

// ParseMode validates a mode name. The empty string selects ModeRecompute.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRecompute:
		return ModeRecompute, nil
	case ModeOffset:
		return ModeOffset, nil
	default:
		return "", fmt.Errorf("unknown settlement mode %q (want %q or %q)", s, ModeRecompute, ModeOffset)
	}
}

// Recorder receives engine measurements. metrics.Metrics implements it.
type Recorder interface {
	RecomputeObserved(result string, elapsed time.Duration, edges int)
	SettlementRecorded()
}

type nopRecorder struct{}

func (nopRecorder) RecomputeObserved(string, time.Duration, int) {}
func (nopRecorder) SettlementRecorded()                          {}

// Config holds the optional collaborators of an Engine.
type Config struct {
	Mode     Mode
	Recorder Recorder
	Logger   *slog.Logger
}

// Engine implements the ledger operations on top of a Store.
type Engine struct {
	store    Store
	locks    *groupLocks
	mode     Mode
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine creates an engine. Zero Config fields fall back to
// ModeRecompute, no metrics and slog.Default().
func NewEngine(store Store, cfg Config) *Engine {
	e := &Engine{
		store:    store,
		locks:    newGroupLocks(),
		mode:     cfg.Mode,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
	if e.mode == "" {
		e.mode = ModeRecompute
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Mode reports the settlement mode the engine runs in.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Recomputation is the outcome of one recompute of a group's snapshot.
type Recomputation struct {
	// Version is the snapshot version written by this recompute.
	Version int64

	// Balances are the persisted edges in emission order.
	Balances []*models.Balance

	// Summary holds the simplified transactions the edges were built from.
	Summary []calculator.DebtEdge

	// Members lists every user seen in the group's expenses with totals.
	Members []calculator.MemberBalance
}

// Recompute rebuilds and persists the group's balance snapshot.
// It performs no membership check; callers gate access first.
func (e *Engine) Recompute(ctx context.Context, groupID string) (*Recomputation, error) {
	unlock, err := e.locks.acquire(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for group %s: %w", ErrInternal, groupID, err)
	}
	defer unlock()

	return e.recomputeLocked(ctx, groupID)
}

// recomputeLocked must be called with the group's lock held.
func (e *Engine) recomputeLocked(ctx context.Context, groupID string) (*Recomputation, error) {
	start := time.Now()

	result, err := e.rebuild(ctx, groupID)
	if err != nil {
		e.recorder.RecomputeObserved("error", time.Since(start), 0)
		e.logger.Error("Balance recompute failed", "group_id", groupID, "error", err)
		return nil, err
	}

	e.recorder.RecomputeObserved("ok", time.Since(start), len(result.Balances))
	e.logger.Debug("Balances recomputed",
		"group_id", groupID,
		"version", result.Version,
		"edges", len(result.Balances),
	)
	return result, nil
}

func (e *Engine) rebuild(ctx context.Context, groupID string) (*Recomputation, error) {
	expenses, err := e.store.ListExpensesByGroup(ctx, groupID, true)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}

	var settlements []calculator.SettlementForBalance
	if e.mode == ModeOffset {
		recorded, err := e.store.ListSettlementsByGroup(ctx, groupID)
		if err != nil {
			return nil, storeErr("list settlements", err)
		}
		// Oldest first so positions accumulate in the order payments happened.
		for i := len(recorded) - 1; i >= 0; i-- {
			s := recorded[i]
			settlements = append(settlements, calculator.SettlementForBalance{
				FromUserID: s.PayerID,
				ToUserID:   s.PayeeID,
				Amount:     s.Amount,
			})
		}
	}

	members, edges := calculator.CalculateGroupBalances(toBalanceInputs(expenses), settlements)

	balances := make([]*models.Balance, len(edges))
	for i, edge := range edges {
		balances[i] = &models.Balance{
			GroupID: groupID,
			UserID:  edge.From,
			OwesTo:  edge.To,
			Amount:  edge.Amount,
		}
	}

	version, err := e.store.ReplaceBalances(ctx, groupID, balances)
	if err != nil {
		return nil, storeErr("replace balances", err)
	}

	return &Recomputation{
		Version:  version,
		Balances: balances,
		Summary:  edges,
		Members:  members,
	}, nil
}

func toBalanceInputs(expenses []*models.Expense) []calculator.ExpenseForBalance {
	inputs := make([]calculator.ExpenseForBalance, len(expenses))
	for i, exp := range expenses {
		shares := make([]calculator.Share, len(exp.Splits))
		for j, split := range exp.Splits {
			shares[j] = calculator.Share{UserID: split.UserID, Amount: split.Amount}
		}
		inputs[i] = calculator.ExpenseForBalance{
			PayerID: exp.PayerID,
			Amount:  exp.Amount,
			Shares:  shares,
		}
	}
	return inputs
}

// memberGroup loads a group and checks that userID belongs to it.
func (e *Engine) memberGroup(ctx context.Context, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalidf("group ID is required")
	}
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("get group", err)
	}
	if !group.IsMember(userID) {
		return nil, forbiddenf("user %s is not a member of group %s", userID, groupID)
	}
	return group, nil
}
