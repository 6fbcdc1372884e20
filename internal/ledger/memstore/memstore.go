// Package memstore provides an in-memory ledger and profile store for tests and dev mode.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

// Fault is consulted before every write. A non-nil error aborts that write only.
type Fault func(op string) error

type Store struct {
	mu           sync.RWMutex
	profiles     map[uuid.UUID]*profile.Profile
	transactions map[uuid.UUID]*ledger.Transaction
	splits       map[uuid.UUID]*ledger.Split
	clock        time.Time
	fault        Fault
}

func New() *Store {
	return &Store{
		profiles:     make(map[uuid.UUID]*profile.Profile),
		transactions: make(map[uuid.UUID]*ledger.Transaction),
		splits:       make(map[uuid.UUID]*ledger.Split),
		clock:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

// SetFault installs f as the write fault hook. Passing nil clears it.
func (m *Store) SetFault(f Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = f
}

// tick returns a strictly increasing timestamp so creation order is total.
func (m *Store) tick() time.Time {
	m.clock = m.clock.Add(time.Microsecond)
	return m.clock
}

func (m *Store) check(op string) error {
	if m.fault == nil {
		return nil
	}

	return m.fault(op)
}

// =============================================================================
// PROFILES
// =============================================================================

func (m *Store) CreateProfile(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("CreateProfile"); err != nil {
		return err
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	p.CreatedAt = m.tick()

	stored := *p
	m.profiles[p.ID] = &stored

	return nil
}

func (m *Store) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, profile.ErrNotFound
	}

	return copyProfile(p), nil
}

func (m *Store) ListProfiles(_ context.Context) ([]*profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*profile.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, copyProfile(p))
	}

	slices.SortFunc(out, func(a, b *profile.Profile) int {
		if c := cmp.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return out, nil
}

func (m *Store) UpdateProfile(_ context.Context, id uuid.UUID, update profile.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("UpdateProfile"); err != nil {
		return err
	}

	p, ok := m.profiles[id]
	if !ok {
		return profile.ErrNotFound
	}

	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}

	if update.AvatarURL != nil {
		p.AvatarURL = new(*update.AvatarURL)
	}

	if update.Bank != nil {
		p.Bank = new(*update.Bank)
	}

	p.UpdatedAt = new(m.tick())

	return nil
}

func copyProfile(p *profile.Profile) *profile.Profile {
	out := *p
	if p.Bank != nil {
		out.Bank = new(*p.Bank)
	}

	return &out
}

func (m *Store) party(id uuid.UUID) *ledger.Party {
	p, ok := m.profiles[id]
	if !ok {
		return &ledger.Party{ID: id}
	}

	return &ledger.Party{ID: p.ID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}

// =============================================================================
// LEDGER
// =============================================================================

func (m *Store) QuerySplits(_ context.Context, filter ledger.SplitFilter) ([]*ledger.Split, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids map[uuid.UUID]struct{}
	if len(filter.IDs) > 0 {
		ids = make(map[uuid.UUID]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = struct{}{}
		}
	}

	var out []*ledger.Split

	for _, s := range m.splits {
		tx := m.transactions[s.TransactionID]

		if ids != nil {
			if _, ok := ids[s.ID]; !ok {
				continue
			}
		}

		if filter.DebtorID != nil && s.DebtorID != *filter.DebtorID {
			continue
		}

		if filter.PayerID != nil && tx.PayerID != *filter.PayerID {
			continue
		}

		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}

		if filter.IsSettled != nil && s.IsSettled != *filter.IsSettled {
			continue
		}

		out = append(out, m.joinSplit(s))
	}

	sortSplits(out, filter.Order)

	return out, nil
}

func sortSplits(splits []*ledger.Split, order ledger.Order) {
	slices.SortFunc(splits, func(a, b *ledger.Split) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}

		if order == ledger.OrderCreatedDesc {
			return -c
		}

		return c
	})
}

func (m *Store) GetSplit(_ context.Context, id uuid.UUID) (*ledger.Split, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.splits[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return m.joinSplit(s), nil
}

func (m *Store) UpdateSplit(_ context.Context, id uuid.UUID, update ledger.SplitUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("UpdateSplit"); err != nil {
		return err
	}

	s, ok := m.splits[id]
	if !ok {
		return ledger.ErrNotFound
	}

	update.Apply(s)

	if s.SettledAt != nil {
		s.SettledAt = new(*s.SettledAt)
	}

	return nil
}

func (m *Store) InsertTransaction(_ context.Context, tx *ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("InsertTransaction"); err != nil {
		return err
	}

	tx.ID = uuid.New()
	tx.CreatedAt = m.tick()

	m.transactions[tx.ID] = &ledger.Transaction{
		ID:          tx.ID,
		PayerID:     tx.PayerID,
		Description: tx.Description,
		TotalAmount: tx.TotalAmount,
		CreatedAt:   tx.CreatedAt,
	}

	return nil
}

// InsertSplits stores splits one by one; a fault leaves the earlier ones stored.
func (m *Store) InsertSplits(_ context.Context, splits []*ledger.Split) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range splits {
		if err := m.check("InsertSplits"); err != nil {
			return err
		}

		if _, ok := m.transactions[s.TransactionID]; !ok {
			return ledger.ErrNotFound
		}

		s.ID = uuid.New()
		s.CreatedAt = m.tick()

		stored := *s
		stored.Debtor = nil
		stored.Transaction = nil

		if s.SettledAt != nil {
			stored.SettledAt = new(*s.SettledAt)
		}

		m.splits[s.ID] = &stored
	}

	return nil
}

func (m *Store) ListTransactions(_ context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*ledger.Transaction

	for _, tx := range m.transactions {
		if filter.PayerID != nil && tx.PayerID != *filter.PayerID {
			continue
		}

		out = append(out, m.joinTransaction(tx))
	}

	slices.SortFunc(out, func(a, b *ledger.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return strings.Compare(b.ID.String(), a.ID.String())
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	for _, tx := range out {
		for _, s := range m.splits {
			if s.TransactionID == tx.ID {
				tx.Splits = append(tx.Splits, m.joinSplit(s))
			}
		}

		sortSplits(tx.Splits, ledger.OrderCreatedAsc)
	}

	return out, nil
}

// joinSplit returns a copy of s with its transaction and profiles attached.
func (m *Store) joinSplit(s *ledger.Split) *ledger.Split {
	out := *s
	if s.SettledAt != nil {
		out.SettledAt = new(*s.SettledAt)
	}

	out.Debtor = m.party(s.DebtorID)

	if tx, ok := m.transactions[s.TransactionID]; ok {
		out.Transaction = m.joinTransaction(tx)
	}

	return &out
}

func (m *Store) joinTransaction(tx *ledger.Transaction) *ledger.Transaction {
	out := *tx
	out.Splits = nil
	out.Payer = m.party(tx.PayerID)

	return &out
}
