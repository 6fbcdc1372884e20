package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultDescription is used when an expense is recorded without a description.
const DefaultDescription = "Expense"

// Entry is one (debtor, item, amount) line submitted with an expense.
type Entry struct {
	DebtorID        uuid.UUID
	ItemDescription string
	Amount          decimal.Decimal
	ImageURL        *string
}

// AmountPlaces is the number of decimal places amounts are stored with.
const AmountPlaces = 2

// MaxAmount is the exclusive upper bound of a stored amount (NUMERIC(14,2)).
var MaxAmount = decimal.New(1, 12)

// ValidAmount reports whether d is positive, has at most AmountPlaces
// decimal places and is below MaxAmount, so it is stored without rounding.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() &&
		d.Equal(d.Truncate(AmountPlaces)) &&
		d.LessThan(MaxAmount)
}

func (e Entry) valid() bool {
	return e.DebtorID != uuid.Nil &&
		strings.TrimSpace(e.ItemDescription) != "" &&
		ValidAmount(e.Amount)
}

// ValidEntries drops entries with a missing debtor or item, or an amount that
// is non-positive, finer than a cent or out of range.
func ValidEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if !e.valid() {
			continue
		}

		e.ItemDescription = strings.TrimSpace(e.ItemDescription)
		out = append(out, e)
	}

	return out
}

// ExpandBulk builds one entry per distinct debtor, all sharing item and amount.
func ExpandBulk(debtors []uuid.UUID, item string, amount decimal.Decimal, imageURL *string) []Entry {
	debtors = uniqueIDs(debtors)
	entries := make([]Entry, 0, len(debtors))

	for _, d := range debtors {
		entries = append(entries, Entry{
			DebtorID:        d,
			ItemDescription: item,
			Amount:          amount,
			ImageURL:        imageURL,
		})
	}

	return entries
}

func prepareExpense(payerID uuid.UUID, description string, entries []Entry) (string, []Entry, error) {
	if payerID == uuid.Nil {
		return "", nil, validationError("payer is required")
	}

	valid := ValidEntries(entries)
	if len(valid) == 0 {
		return "", nil, validationError("at least one valid entry is required")
	}

	total := decimal.Zero

	for _, e := range valid {
		if e.DebtorID == payerID {
			return "", nil, validationError("payer cannot owe themselves")
		}

		total = total.Add(e.Amount)
	}

	if !total.LessThan(MaxAmount) {
		return "", nil, validationError("expense total %s is out of range", total)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}

	return description, valid, nil
}

// ExpenseResult is the transaction and splits written by RecordExpense.
type ExpenseResult struct {
	Transaction *Transaction
	Splits      []*Split
}

// RecordExpense writes one transaction with a split per valid entry, without netting.
func (s *Service) RecordExpense(ctx context.Context, payerID uuid.UUID, description string, entries []Entry) (*ExpenseResult, error) {
	description, valid, err := prepareExpense(payerID, description, entries)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range valid {
		total = total.Add(e.Amount)
	}

	tx := &Transaction{
		PayerID:     payerID,
		Description: description,
		TotalAmount: total,
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, storeError("inserting transaction", err)
	}

	splits := make([]*Split, 0, len(valid))
	for _, e := range valid {
		splits = append(splits, &Split{
			TransactionID:   tx.ID,
			DebtorID:        e.DebtorID,
			ItemDescription: e.ItemDescription,
			Amount:          e.Amount,
			ImageURL:        e.ImageURL,
		})
	}

	if err := s.repo.InsertSplits(ctx, splits); err != nil {
		return &ExpenseResult{Transaction: tx}, storeError("inserting splits", err)
	}

	s.recorder.ExpenseRecorded(len(splits), total)
	slog.Debug("expense recorded", "transaction_id", tx.ID, "payer_id", payerID, "splits", len(splits), "total", total)

	return &ExpenseResult{Transaction: tx, Splits: splits}, nil
}

// EntryOutcome is the netting result for one entry. Result may be set even
// when Err is, describing what was committed before the failure.
type EntryOutcome struct {
	Entry  Entry
	Result *ObligationResult
	Err    error
}

// NettedExpenseResult holds one outcome per valid entry, in input order.
type NettedExpenseResult struct {
	Outcomes []EntryOutcome
}

// Failed returns the outcomes whose netting run did not complete.
func (r *NettedExpenseResult) Failed() []EntryOutcome {
	var failed []EntryOutcome

	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}

	return failed
}

// RecordExpenseWithNetting runs each valid entry through RecordObligation.
// A failing entry does not stop the others; the returned error joins every
// entry failure and the result still reports what each entry committed.
func (s *Service) RecordExpenseWithNetting(ctx context.Context, payerID uuid.UUID, description string, entries []Entry) (*NettedExpenseResult, error) {
	description, valid, err := prepareExpense(payerID, description, entries)
	if err != nil {
		return nil, err
	}

	result := &NettedExpenseResult{Outcomes: make([]EntryOutcome, 0, len(valid))}
	total := decimal.Zero

	var errs []error

	for _, e := range valid {
		res, err := s.RecordObligation(ctx, Obligation{
			PayerID:         payerID,
			DebtorID:        e.DebtorID,
			Amount:          e.Amount,
			Description:     description,
			ItemDescription: e.ItemDescription,
			ImageURL:        e.ImageURL,
		})

		result.Outcomes = append(result.Outcomes, EntryOutcome{Entry: e, Result: res, Err: err})

		if err != nil {
			errs = append(errs, fmt.Errorf("debtor %s: %w", e.DebtorID, err))
			continue
		}

		total = total.Add(e.Amount)
	}

	if recorded := len(valid) - len(errs); recorded > 0 {
		s.recorder.ExpenseRecorded(recorded, total)
	}

	return result, errors.Join(errs...)
}
