package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transition is a user-triggered settlement action on a split.
type Transition string

const (
	// TransitionMarkPending is sent by the debtor: "I paid, please confirm".
	TransitionMarkPending Transition = "markPending"
	// TransitionConfirmPayment is sent by the payer to accept a pending payment.
	TransitionConfirmPayment Transition = "confirmPayment"
	// TransitionForceSettle is sent by the payer to settle without debtor confirmation.
	TransitionForceSettle Transition = "forceSettle"
)

func ParseTransition(s string) (Transition, error) {
	switch t := Transition(s); t {
	case TransitionMarkPending, TransitionConfirmPayment, TransitionForceSettle:
		return t, nil
	}

	return "", validationError("unknown transition %q", s)
}

// planTransition returns the update that moves split through t. A false
// changed result means the split is already in the target state and nothing
// must be written, which keeps settled_at stamped once.
func planTransition(split *Split, t Transition, now func() time.Time) (SplitUpdate, bool, error) {
	switch t {
	case TransitionMarkPending:
		switch {
		case split.IsTerminal():
			return SplitUpdate{}, false, fmt.Errorf("%w: split %s is already settled", ErrInvalidTransition, split.ID)
		case split.Status == StatusPending:
			return SplitUpdate{}, false, nil
		}

		pending := StatusPending

		return SplitUpdate{Status: &pending}, true, nil

	case TransitionConfirmPayment:
		switch {
		case split.IsTerminal():
			return SplitUpdate{}, false, nil
		case split.Status != StatusPending:
			return SplitUpdate{}, false, fmt.Errorf("%w: split %s has no pending payment", ErrInvalidTransition, split.ID)
		}

		return settleUpdate(StatusConfirmed, now()), true, nil

	case TransitionForceSettle:
		if split.IsTerminal() {
			return SplitUpdate{}, false, nil
		}

		return settleUpdate(StatusSettled, now()), true, nil
	}

	return SplitUpdate{}, false, validationError("unknown transition %q", t)
}

func settleUpdate(status SettlementStatus, at time.Time) SplitUpdate {
	settled := true
	return SplitUpdate{Status: &status, IsSettled: &settled, SettledAt: &at}
}

// TransitionResult is the split state after a transition.
type TransitionResult struct {
	Split   *Split
	Changed bool
}

// TransitionSplit applies t to a single split. Re-applying a transition that
// already took effect is a no-op.
func (s *Service) TransitionSplit(ctx context.Context, id uuid.UUID, t Transition) (*TransitionResult, error) {
	split, err := s.repo.GetSplit(ctx, id)
	if err != nil {
		return nil, storeError("getting split", err)
	}

	update, changed, err := planTransition(split, t, s.now)
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.repo.UpdateSplit(ctx, id, update); err != nil {
			return nil, storeError("updating split", err)
		}

		update.Apply(split)
	}

	s.recorder.SplitTransitioned(t, changed)

	return &TransitionResult{Split: split, Changed: changed}, nil
}

// BatchResult reports a batch transition. Applied holds the splits processed
// before any failure; Skipped holds the ids never attempted.
type BatchResult struct {
	Applied []*TransitionResult
	Skipped []uuid.UUID
}

// TransitionSplitsBatch applies t to each split in order. Splits are updated
// independently: the first failure stops the batch and earlier transitions
// stay applied.
func (s *Service) TransitionSplitsBatch(ctx context.Context, ids []uuid.UUID, t Transition) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, validationError("at least one split id is required")
	}

	if _, err := ParseTransition(string(t)); err != nil {
		return nil, err
	}

	ids = uniqueIDs(ids)
	result := &BatchResult{Applied: make([]*TransitionResult, 0, len(ids))}

	for i, id := range ids {
		res, err := s.TransitionSplit(ctx, id, t)
		if err != nil {
			result.Skipped = ids[i+1:]
			return result, fmt.Errorf("split %s: %w", id, err)
		}

		result.Applied = append(result.Applied, res)
	}

	return result, nil
}

// Actor returns the party allowed to trigger t: the debtor claims payment
// with markPending, the payer confirms or force-settles.
func (t Transition) Actor(split *Split) uuid.UUID {
	if t == TransitionMarkPending {
		return split.DebtorID
	}

	return split.PayerID()
}

// CheckActor verifies that actor may apply t to every split in ids. A missing
// split yields ErrNotFound, a split where actor holds the other role or no
// role at all yields ErrForbidden.
func (s *Service) CheckActor(ctx context.Context, actor uuid.UUID, ids []uuid.UUID, t Transition) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	splits, err := s.repo.QuerySplits(ctx, SplitFilter{IDs: ids})
	if err != nil {
		return storeError("loading splits", err)
	}

	found := make(map[uuid.UUID]*Split, len(splits))
	for _, split := range splits {
		found[split.ID] = split
	}

	for _, id := range ids {
		split, ok := found[id]
		if !ok {
			return fmt.Errorf("split %s: %w", id, ErrNotFound)
		}

		if t.Actor(split) != actor {
			return fmt.Errorf("split %s: %s is not allowed to %s: %w", id, actor, t, ErrForbidden)
		}
	}

	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
