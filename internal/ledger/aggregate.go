package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultRecentLimit is the number of transactions shown in the recent activity view.
const DefaultRecentLimit = 10

// MaxRecentLimit caps how many recent transactions one call may load.
const MaxRecentLimit = 100

// Position is the open amount between the user and one counterparty in one direction.
type Position struct {
	Counterparty Party
	Amount       decimal.Decimal
	SplitCount   int
}

// NetPositions summarizes who owes the user and whom the user owes.
type NetPositions struct {
	OwedToMe []Position
	IOwe     []Position
}

// Net returns what counterparty owes the user minus what the user owes them.
func (p *NetPositions) Net(counterparty uuid.UUID) decimal.Decimal {
	net := decimal.Zero

	for _, pos := range p.OwedToMe {
		if pos.Counterparty.ID == counterparty {
			net = net.Add(pos.Amount)
		}
	}

	for _, pos := range p.IOwe {
		if pos.Counterparty.ID == counterparty {
			net = net.Sub(pos.Amount)
		}
	}

	return net
}

// AggregatePositions folds unsettled splits into per-counterparty totals.
// owedToMe holds splits the user paid for, iOwe holds splits the user owes.
// Pending splits still count; settled ones and self-pairs do not.
func AggregatePositions(userID uuid.UUID, owedToMe, iOwe []*Split) NetPositions {
	return NetPositions{
		OwedToMe: foldPositions(userID, owedToMe, (*Split).DebtorParty),
		IOwe:     foldPositions(userID, iOwe, (*Split).PayerParty),
	}
}

func foldPositions(userID uuid.UUID, splits []*Split, counterparty func(*Split) Party) []Position {
	byParty := make(map[uuid.UUID]*Position)

	for _, s := range splits {
		if s.IsSettled {
			continue
		}

		party := counterparty(s)
		if party.ID == userID {
			continue
		}

		pos, ok := byParty[party.ID]
		if !ok {
			pos = &Position{Counterparty: party, Amount: decimal.Zero}
			byParty[party.ID] = pos
		}

		pos.Amount = pos.Amount.Add(s.Amount)
		pos.SplitCount++
	}

	out := make([]Position, 0, len(byParty))
	for _, pos := range byParty {
		out = append(out, *pos)
	}

	slices.SortFunc(out, func(a, b Position) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}

		if c := cmp.Compare(a.Counterparty.DisplayName, b.Counterparty.DisplayName); c != 0 {
			return c
		}

		return cmp.Compare(a.Counterparty.ID.String(), b.Counterparty.ID.String())
	})

	return out
}

// NetPositions loads the user's unsettled splits in both directions and aggregates them.
func (s *Service) NetPositions(ctx context.Context, userID uuid.UUID) (*NetPositions, error) {
	notSettled := false

	owedToMe, err := s.repo.QuerySplits(ctx, SplitFilter{PayerID: &userID, IsSettled: &notSettled})
	if err != nil {
		return nil, storeError("querying splits owed to user", err)
	}

	iOwe, err := s.repo.QuerySplits(ctx, SplitFilter{DebtorID: &userID, IsSettled: &notSettled})
	if err != nil {
		return nil, storeError("querying splits owed by user", err)
	}

	positions := AggregatePositions(userID, owedToMe, iOwe)

	return &positions, nil
}

// PendingRequest groups a debtor's payment claims awaiting the payer's confirmation.
type PendingRequest struct {
	Debtor   Party
	Payer    Party
	Amount   decimal.Decimal
	SplitIDs []uuid.UUID
}

// GroupPendingRequests groups pending splits paid for by payerID per debtor.
// SplitIDs keep the input order so batch confirmation targets exactly the group.
func GroupPendingRequests(payerID uuid.UUID, splits []*Split) []PendingRequest {
	byDebtor := make(map[uuid.UUID]*PendingRequest)

	var order []uuid.UUID

	for _, s := range splits {
		if s.Status != StatusPending || s.PayerID() != payerID {
			continue
		}

		req, ok := byDebtor[s.DebtorID]
		if !ok {
			req = &PendingRequest{Debtor: s.DebtorParty(), Payer: s.PayerParty(), Amount: decimal.Zero}
			byDebtor[s.DebtorID] = req
			order = append(order, s.DebtorID)
		}

		req.Amount = req.Amount.Add(s.Amount)
		req.SplitIDs = append(req.SplitIDs, s.ID)
	}

	out := make([]PendingRequest, 0, len(order))
	for _, id := range order {
		out = append(out, *byDebtor[id])
	}

	slices.SortStableFunc(out, func(a, b PendingRequest) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}

		return cmp.Compare(a.Debtor.DisplayName, b.Debtor.DisplayName)
	})

	return out
}

func (s *Service) PendingRequests(ctx context.Context, payerID uuid.UUID) ([]PendingRequest, error) {
	pending := StatusPending

	splits, err := s.repo.QuerySplits(ctx, SplitFilter{
		PayerID: &payerID,
		Status:  &pending,
		Order:   OrderCreatedAsc,
	})
	if err != nil {
		return nil, storeError("querying pending splits", err)
	}

	return GroupPendingRequests(payerID, splits), nil
}

// CounterpartyDetail is the ledger between the user and one other profile.
type CounterpartyDetail struct {
	CounterpartyID uuid.UUID
	OwesMe         []*Split
	IOwe           []*Split

	OwesMeTotal decimal.Decimal
	IOweTotal   decimal.Decimal

	// Ids targeted by the batch actions on the detail screen.
	ConfirmAllIDs      []uuid.UUID
	MarkAllPaidIDs     []uuid.UUID
	SendAllRequestsIDs []uuid.UUID
	PendingIOweCount   int
}

// Unsettled reports whether the split still counts toward the outstanding totals.
func unsettled(s *Split) bool {
	return !s.IsSettled && s.Status != StatusSettled
}

func BuildCounterpartyDetail(counterpartyID uuid.UUID, owesMe, iOwe []*Split) *CounterpartyDetail {
	d := &CounterpartyDetail{
		CounterpartyID: counterpartyID,
		OwesMe:         owesMe,
		IOwe:           iOwe,
		OwesMeTotal:    decimal.Zero,
		IOweTotal:      decimal.Zero,
	}

	for _, s := range owesMe {
		if !unsettled(s) {
			continue
		}

		d.OwesMeTotal = d.OwesMeTotal.Add(s.Amount)
		d.MarkAllPaidIDs = append(d.MarkAllPaidIDs, s.ID)

		if s.Status == StatusPending {
			d.ConfirmAllIDs = append(d.ConfirmAllIDs, s.ID)
		}
	}

	for _, s := range iOwe {
		if !unsettled(s) {
			continue
		}

		d.IOweTotal = d.IOweTotal.Add(s.Amount)
		d.SendAllRequestsIDs = append(d.SendAllRequestsIDs, s.ID)

		if s.Status == StatusPending {
			d.PendingIOweCount++
		}
	}

	return d
}

// CounterpartyDetail loads every split between userID and counterpartyID, newest first.
func (s *Service) CounterpartyDetail(ctx context.Context, userID, counterpartyID uuid.UUID) (*CounterpartyDetail, error) {
	if userID == counterpartyID {
		return nil, validationError("counterparty must differ from user")
	}

	owesMe, err := s.repo.QuerySplits(ctx, SplitFilter{
		DebtorID: &counterpartyID,
		PayerID:  &userID,
		Order:    OrderCreatedDesc,
	})
	if err != nil {
		return nil, storeError("querying splits owed to user", err)
	}

	iOwe, err := s.repo.QuerySplits(ctx, SplitFilter{
		DebtorID: &userID,
		PayerID:  &counterpartyID,
		Order:    OrderCreatedDesc,
	})
	if err != nil {
		return nil, storeError("querying splits owed by user", err)
	}

	return BuildCounterpartyDetail(counterpartyID, owesMe, iOwe), nil
}

// RecentTransactions returns the payer's latest transactions with their splits.
// A non-positive limit means DefaultRecentLimit; limits above MaxRecentLimit are capped.
func (s *Service) RecentTransactions(ctx context.Context, payerID uuid.UUID, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	limit = min(limit, MaxRecentLimit)

	txs, err := s.repo.ListTransactions(ctx, TransactionFilter{PayerID: &payerID, Limit: limit})
	if err != nil {
		return nil, storeError("listing transactions", err)
	}

	return txs, nil
}

// Dashboard is the summary shown on the landing screen.
type Dashboard struct {
	Positions *NetPositions
	Pending   []PendingRequest
	Recent    []*Transaction
}

// Dashboard loads positions, pending requests and recent activity concurrently.
// The reads are independent, so the first failure cancels the others.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, recentLimit int) (*Dashboard, error) {
	var d Dashboard

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		positions, err := s.NetPositions(ctx, userID)
		if err != nil {
			return fmt.Errorf("net positions: %w", err)
		}

		d.Positions = positions

		return nil
	})

	g.Go(func() error {
		pending, err := s.PendingRequests(ctx, userID)
		if err != nil {
			return fmt.Errorf("pending requests: %w", err)
		}

		d.Pending = pending

		return nil
	})

	g.Go(func() error {
		recent, err := s.RecentTransactions(ctx, userID, recentLimit)
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}

		d.Recent = recent

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &d, nil
}
