package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is the store adapter the ledger needs. Each call is atomic for a
// single row only; there are no cross-statement transactions.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	QuerySplits(ctx context.Context, filter SplitFilter) ([]*Split, error)
	GetSplit(ctx context.Context, id uuid.UUID) (*Split, error)
	UpdateSplit(ctx context.Context, id uuid.UUID, update SplitUpdate) error

	InsertTransaction(ctx context.Context, tx *Transaction) error
	InsertSplits(ctx context.Context, splits []*Split) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
}

// Recorder receives ledger events, typically for metrics.
type Recorder interface {
	ExpenseRecorded(entries int, total decimal.Decimal)
	ObligationRecorded(offsets int, offsetTotal, remaining decimal.Decimal)
	SplitTransitioned(t Transition, changed bool)
}

type nopRecorder struct{}

func (nopRecorder) ExpenseRecorded(int, decimal.Decimal)                      {}
func (nopRecorder) ObligationRecorded(int, decimal.Decimal, decimal.Decimal) {}
func (nopRecorder) SplitTransitioned(Transition, bool)                       {}

type Service struct {
	repo     Repository
	now      func() time.Time
	recorder Recorder
}

type Option func(*Service)

// WithClock overrides the time source used for settled_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
