package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// OffsetDescription is the description of the audit transaction written for every offset.
	OffsetDescription = "offset/deduction"
	// OffsetItemDescription is the item description of the audit split.
	OffsetItemDescription = "offset against prior debt"
)

// Obligation records that DebtorID now owes PayerID Amount.
type Obligation struct {
	PayerID         uuid.UUID
	DebtorID        uuid.UUID
	Amount          decimal.Decimal
	Description     string
	ItemDescription string
	ImageURL        *string
}

// Offset is one netting step against a reverse split.
type Offset struct {
	ReverseSplitID uuid.UUID
	Amount         decimal.Decimal
	// Closed is true when the reverse split was fully consumed and marked settled.
	Closed           bool
	AuditTransaction *Transaction
	AuditSplit       *Split
}

// ObligationResult describes what a netting run committed. On error it holds
// the steps applied before the failure.
type ObligationResult struct {
	Offsets      []Offset
	Remaining    decimal.Decimal
	Forward      *Transaction
	ForwardSplit *Split
}

// OffsetTotal is the amount cancelled against reverse debt.
func (r *ObligationResult) OffsetTotal() decimal.Decimal {
	total := decimal.Zero
	for _, o := range r.Offsets {
		total = total.Add(o.Amount)
	}

	return total
}

type offsetStep struct {
	split  *Split
	amount decimal.Decimal
	closed bool
}

// planOffsets walks reverse splits in order and greedily consumes amount.
// It returns the steps and the amount left once the reverse debt is exhausted.
func planOffsets(amount decimal.Decimal, reverse []*Split) ([]offsetStep, decimal.Decimal) {
	remaining := amount

	var steps []offsetStep

	for _, r := range reverse {
		if !remaining.IsPositive() {
			break
		}

		if !r.Amount.IsPositive() {
			continue
		}

		offset := decimal.Min(remaining, r.Amount)
		steps = append(steps, offsetStep{
			split:  r,
			amount: offset,
			closed: offset.Equal(r.Amount),
		})
		remaining = remaining.Sub(offset)
	}

	return steps, remaining
}

func (o *Obligation) normalize() error {
	o.Description = strings.TrimSpace(o.Description)
	o.ItemDescription = strings.TrimSpace(o.ItemDescription)

	if o.PayerID == uuid.Nil {
		return validationError("payer is required")
	}

	if o.DebtorID == uuid.Nil {
		return validationError("debtor is required")
	}

	if o.PayerID == o.DebtorID {
		return validationError("payer and debtor must differ")
	}

	if !o.Amount.IsPositive() {
		return validationError("amount must be positive")
	}

	if !ValidAmount(o.Amount) {
		return validationError("amount %s must have at most %d decimal places and stay below %s", o.Amount, AmountPlaces, MaxAmount)
	}

	if o.Description == "" {
		o.Description = DefaultDescription
	}

	if o.ItemDescription == "" {
		o.ItemDescription = o.Description
	}

	return nil
}

// RecordObligation nets a new obligation against open debt running the other
// way and records only the remainder as a new open split.
//
// Reverse debt is every split owed by the payer to the debtor whose status is
// NULL and is_settled is false, oldest first. Pending and settled splits are
// never netted. Each offset first updates the reverse split and then writes a
// settled audit transaction, so a retry after a failure re-reads what was
// committed instead of offsetting twice.
func (s *Service) RecordObligation(ctx context.Context, ob Obligation) (*ObligationResult, error) {
	if err := ob.normalize(); err != nil {
		return nil, err
	}

	open, notSettled := StatusOpen, false

	reverse, err := s.repo.QuerySplits(ctx, SplitFilter{
		DebtorID:  &ob.PayerID,
		PayerID:   &ob.DebtorID,
		Status:    &open,
		IsSettled: &notSettled,
		Order:     OrderCreatedAsc,
	})
	if err != nil {
		return nil, storeError("querying reverse obligations", err)
	}

	steps, remaining := planOffsets(ob.Amount, reverse)
	result := &ObligationResult{Remaining: ob.Amount}

	for _, step := range steps {
		offset, err := s.applyOffset(ctx, ob, step)
		if offset != nil {
			result.Offsets = append(result.Offsets, *offset)
			result.Remaining = result.Remaining.Sub(step.amount)
		}

		if err != nil {
			slog.Warn("netting stopped after partial offset",
				"payer_id", ob.PayerID,
				"debtor_id", ob.DebtorID,
				"applied_offsets", len(result.Offsets),
				"error", err,
			)

			return result, err
		}
	}

	result.Remaining = remaining

	if remaining.IsPositive() {
		tx, split, err := s.insertOpenObligation(ctx, ob, remaining)

		result.Forward = tx
		result.ForwardSplit = split

		if err != nil {
			return result, err
		}
	}

	s.recorder.ObligationRecorded(len(result.Offsets), result.OffsetTotal(), remaining)
	slog.Debug("obligation recorded",
		"payer_id", ob.PayerID,
		"debtor_id", ob.DebtorID,
		"amount", ob.Amount,
		"offset", result.OffsetTotal(),
		"remaining", remaining,
	)

	return result, nil
}

// applyOffset commits one offset step. It returns a non-nil Offset once the
// reverse split has been updated, even if writing the audit record fails.
func (s *Service) applyOffset(ctx context.Context, ob Obligation, step offsetStep) (*Offset, error) {
	now := s.now()

	var update SplitUpdate

	if step.closed {
		settled, done := StatusSettled, true
		update = SplitUpdate{Status: &settled, IsSettled: &done, SettledAt: &now}
	} else {
		left := step.split.Amount.Sub(step.amount)
		update = SplitUpdate{Amount: &left}
	}

	if err := s.repo.UpdateSplit(ctx, step.split.ID, update); err != nil {
		return nil, storeError("updating reverse split", err)
	}

	offset := &Offset{
		ReverseSplitID: step.split.ID,
		Amount:         step.amount,
		Closed:         step.closed,
	}

	audit := &Transaction{
		PayerID:     ob.PayerID,
		Description: OffsetDescription,
		TotalAmount: step.amount,
	}
	if err := s.repo.InsertTransaction(ctx, audit); err != nil {
		return offset, storeError("inserting offset transaction", err)
	}

	offset.AuditTransaction = audit

	auditSplit := &Split{
		TransactionID:   audit.ID,
		DebtorID:        ob.DebtorID,
		ItemDescription: OffsetItemDescription,
		Amount:          step.amount,
		Status:          StatusSettled,
		IsSettled:       true,
		SettledAt:       &now,
	}
	if err := s.repo.InsertSplits(ctx, []*Split{auditSplit}); err != nil {
		return offset, storeError("inserting offset split", err)
	}

	offset.AuditSplit = auditSplit

	return offset, nil
}

func (s *Service) insertOpenObligation(ctx context.Context, ob Obligation, amount decimal.Decimal) (*Transaction, *Split, error) {
	tx := &Transaction{
		PayerID:     ob.PayerID,
		Description: ob.Description,
		TotalAmount: amount,
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, nil, storeError("inserting transaction", err)
	}

	split := &Split{
		TransactionID:   tx.ID,
		DebtorID:        ob.DebtorID,
		ItemDescription: ob.ItemDescription,
		Amount:          amount,
		ImageURL:        ob.ImageURL,
	}
	if err := s.repo.InsertSplits(ctx, []*Split{split}); err != nil {
		return tx, nil, storeError("inserting split", err)
	}

	return tx, split, nil
}
