package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/ledger/memstore"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

var fixedNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "amount: want %s, got %s", want, got)
}

type fixture struct {
	store *memstore.Store
	svc   *ledger.Service
	alice uuid.UUID
	bob   uuid.UUID
	carol uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()

	return &fixture{
		store: store,
		svc:   ledger.NewService(store, ledger.WithClock(clock)),
		alice: addProfile(t, store, "Alice"),
		bob:   addProfile(t, store, "Bob"),
		carol: addProfile(t, store, "Carol"),
	}
}

func addProfile(t *testing.T, store *memstore.Store, name string) uuid.UUID {
	t.Helper()

	p := &profile.Profile{DisplayName: name}
	require.NoError(t, store.CreateProfile(context.Background(), p))

	return p.ID
}

// owe records a plain expense where debtor owes payer amount, without netting.
func (f *fixture) owe(t *testing.T, payer, debtor uuid.UUID, amount string) *ledger.Split {
	t.Helper()

	res, err := f.svc.RecordExpense(context.Background(), payer, "seed", []ledger.Entry{
		{DebtorID: debtor, ItemDescription: "item", Amount: d(amount)},
	})
	require.NoError(t, err)
	require.Len(t, res.Splits, 1)

	return res.Splits[0]
}

// net is what b owes a minus what a owes b, over unsettled splits.
func (f *fixture) net(t *testing.T, a, b uuid.UUID) decimal.Decimal {
	t.Helper()

	positions, err := f.svc.NetPositions(context.Background(), a)
	require.NoError(t, err)

	return positions.Net(b)
}

func (f *fixture) split(t *testing.T, id uuid.UUID) *ledger.Split {
	t.Helper()

	s, err := f.store.GetSplit(context.Background(), id)
	require.NoError(t, err)

	return s
}

func (f *fixture) splitsBetween(t *testing.T, payer, debtor uuid.UUID) []*ledger.Split {
	t.Helper()

	splits, err := f.store.QuerySplits(context.Background(), ledger.SplitFilter{PayerID: &payer, DebtorID: &debtor})
	require.NoError(t, err)

	return splits
}
