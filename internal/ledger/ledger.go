package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementStatus is the settlement state recorded on a split.
// The open state is stored as NULL.
type SettlementStatus string

const (
	StatusOpen      SettlementStatus = ""
	StatusPending   SettlementStatus = "pending"
	StatusConfirmed SettlementStatus = "confirmed"
	StatusSettled   SettlementStatus = "settled"
)

// Party is the profile slice embedded in joined split and transaction rows.
type Party struct {
	ID          uuid.UUID
	DisplayName string
	AvatarURL   *string
}

// Transaction is a single expense event fronted by the payer.
// TotalAmount is a point-in-time receipt and is not recomputed after netting.
type Transaction struct {
	ID          uuid.UUID
	PayerID     uuid.UUID
	Description string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	Payer       *Party   // Loaded via JOIN
	Splits      []*Split // Loaded by ListTransactions
}

// SettledCount returns how many of the loaded splits are settled.
func (t *Transaction) SettledCount() int {
	n := 0

	for _, s := range t.Splits {
		if s.IsSettled {
			n++
		}
	}

	return n
}

// Split is one obligation line: DebtorID owes the transaction's payer Amount.
type Split struct {
	ID              uuid.UUID
	TransactionID   uuid.UUID
	DebtorID        uuid.UUID
	ItemDescription string
	Amount          decimal.Decimal
	ImageURL        *string
	Status          SettlementStatus
	IsSettled       bool
	SettledAt       *time.Time
	CreatedAt       time.Time
	Debtor          *Party       // Loaded via JOIN
	Transaction     *Transaction // Loaded via JOIN, without Splits
}

// PayerID returns the payer of the parent transaction, or uuid.Nil when the
// transaction was not loaded.
func (s *Split) PayerID() uuid.UUID {
	if s.Transaction == nil {
		return uuid.Nil
	}

	return s.Transaction.PayerID
}

// IsOpen reports whether the split is neither pending nor settled.
func (s *Split) IsOpen() bool {
	return s.Status == StatusOpen && !s.IsSettled
}

// IsTerminal reports whether the split has reached a settled state.
func (s *Split) IsTerminal() bool {
	return s.IsSettled || s.Status == StatusSettled || s.Status == StatusConfirmed
}

// DebtorParty returns the joined debtor profile, falling back to the bare id.
func (s *Split) DebtorParty() Party {
	if s.Debtor != nil {
		return *s.Debtor
	}

	return Party{ID: s.DebtorID}
}

// PayerParty returns the joined payer profile, falling back to the bare id.
func (s *Split) PayerParty() Party {
	if s.Transaction != nil && s.Transaction.Payer != nil {
		return *s.Transaction.Payer
	}

	return Party{ID: s.PayerID()}
}

// Order controls split ordering in queries.
type Order int

const (
	OrderCreatedAsc Order = iota
	OrderCreatedDesc
)

// SplitFilter selects splits joined with their transaction.
// A Status of StatusOpen matches rows whose status is NULL.
type SplitFilter struct {
	IDs       []uuid.UUID
	DebtorID  *uuid.UUID
	PayerID   *uuid.UUID
	Status    *SettlementStatus
	IsSettled *bool
	Order     Order
}

// SplitUpdate carries the fields to change on a single split. Nil fields are left untouched.
type SplitUpdate struct {
	Amount    *decimal.Decimal
	Status    *SettlementStatus
	IsSettled *bool
	SettledAt *time.Time
}

// Apply copies the update onto s.
func (u SplitUpdate) Apply(s *Split) {
	if u.Amount != nil {
		s.Amount = *u.Amount
	}

	if u.Status != nil {
		s.Status = *u.Status
	}

	if u.IsSettled != nil {
		s.IsSettled = *u.IsSettled
	}

	if u.SettledAt != nil {
		s.SettledAt = u.SettledAt
	}
}

// TransactionFilter selects transactions for the recent-activity view.
type TransactionFilter struct {
	PayerID *uuid.UUID
	Limit   int
}
