package ledger_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

func TestService_RecordObligation_FullOffset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reverse := f.owe(t, f.alice, f.bob, "100")

	res, err := f.svc.RecordObligation(ctx, ledger.Obligation{
		PayerID:  f.bob,
		DebtorID: f.alice,
		Amount:   d("100"),
	})
	require.NoError(t, err)

	require.Len(t, res.Offsets, 1)
	assert.True(t, res.Remaining.IsZero())
	assert.Nil(t, res.Forward)
	assert.Nil(t, res.ForwardSplit)

	offset := res.Offsets[0]
	assert.Equal(t, reverse.ID, offset.ReverseSplitID)
	assert.True(t, offset.Closed)
	assertAmount(t, "100", offset.Amount)

	closed := f.split(t, reverse.ID)
	assert.True(t, closed.IsSettled)
	assert.Equal(t, ledger.StatusSettled, closed.Status)
	require.NotNil(t, closed.SettledAt)
	assert.Equal(t, fixedNow, *closed.SettledAt)
	assertAmount(t, "100", closed.Amount)

	require.NotNil(t, offset.AuditTransaction)
	assert.Equal(t, f.bob, offset.AuditTransaction.PayerID)
	assert.Equal(t, ledger.OffsetDescription, offset.AuditTransaction.Description)
	assertAmount(t, "100", offset.AuditTransaction.TotalAmount)

	require.NotNil(t, offset.AuditSplit)
	assert.Equal(t, f.alice, offset.AuditSplit.DebtorID)
	assert.Equal(t, ledger.OffsetItemDescription, offset.AuditSplit.ItemDescription)
	assert.True(t, offset.AuditSplit.IsSettled)
	assert.Equal(t, ledger.StatusSettled, offset.AuditSplit.Status)

	// Only the audit split exists in the bob->alice direction.
	forward := f.splitsBetween(t, f.bob, f.alice)
	require.Len(t, forward, 1)
	assert.Equal(t, offset.AuditSplit.ID, forward[0].ID)

	assert.True(t, f.net(t, f.alice, f.bob).IsZero())
}

func TestService_RecordObligation_PartialOffset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reverse := f.owe(t, f.alice, f.bob, "100")

	res, err := f.svc.RecordObligation(ctx, ledger.Obligation{
		PayerID:  f.bob,
		DebtorID: f.alice,
		Amount:   d("30"),
	})
	require.NoError(t, err)

	require.Len(t, res.Offsets, 1)
	assert.False(t, res.Offsets[0].Closed)
	assertAmount(t, "30", res.Offsets[0].Amount)
	assert.True(t, res.Remaining.IsZero())
	assert.Nil(t, res.Forward)

	reduced := f.split(t, reverse.ID)
	assertAmount(t, "70", reduced.Amount)
	assert.True(t, reduced.IsOpen())
	assert.Nil(t, reduced.SettledAt)

	assertAmount(t, "30", res.Offsets[0].AuditTransaction.TotalAmount)
	assertAmount(t, "70", f.net(t, f.alice, f.bob))
}

func TestService_RecordObligation_ExcessOverOffset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reverse := f.owe(t, f.alice, f.bob, "30")

	res, err := f.svc.RecordObligation(ctx, ledger.Obligation{
		PayerID:         f.bob,
		DebtorID:        f.alice,
		Amount:          d("100"),
		Description:     "Dinner",
		ItemDescription: "pasta",
		ImageURL:        new("https://cdn.example.com/receipt.jpg"),
	})
	require.NoError(t, err)

	require.Len(t, res.Offsets, 1)
	assert.True(t, res.Offsets[0].Closed)
	assertAmount(t, "70", res.Remaining)

	require.NotNil(t, res.Forward)
	assert.Equal(t, "Dinner", res.Forward.Description)
	assertAmount(t, "70", res.Forward.TotalAmount)

	require.NotNil(t, res.ForwardSplit)
	assert.Equal(t, f.alice, res.ForwardSplit.DebtorID)
	assert.Equal(t, "pasta", res.ForwardSplit.ItemDescription)
	assertAmount(t, "70", res.ForwardSplit.Amount)
	assert.Equal(t, "https://cdn.example.com/receipt.jpg", *res.ForwardSplit.ImageURL)
	assert.True(t, res.ForwardSplit.IsOpen())

	assert.True(t, f.split(t, reverse.ID).IsSettled)
	assertAmount(t, "70", f.net(t, f.bob, f.alice))
}

func TestService_RecordObligation_NoReverseDebt(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.RecordObligation(context.Background(), ledger.Obligation{
		PayerID:  f.alice,
		DebtorID: f.bob,
		Amount:   d("50"),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Offsets)
	assertAmount(t, "50", res.Remaining)
	require.NotNil(t, res.Forward)
	assert.Equal(t, ledger.DefaultDescription, res.Forward.Description)
	assert.Equal(t, ledger.DefaultDescription, res.ForwardSplit.ItemDescription)
	assertAmount(t, "50", res.Forward.TotalAmount)
}

func TestService_RecordObligation_WalksOldestFirst(t *testing.T) {
	f := newFixture(t)

	first := f.owe(t, f.alice, f.bob, "20")
	second := f.owe(t, f.alice, f.bob, "50")
	third := f.owe(t, f.alice, f.bob, "40")

	res, err := f.svc.RecordObligation(context.Background(), ledger.Obligation{
		PayerID:  f.bob,
		DebtorID: f.alice,
		Amount:   d("45"),
	})
	require.NoError(t, err)

	require.Len(t, res.Offsets, 2)
	assert.Equal(t, first.ID, res.Offsets[0].ReverseSplitID)
	assert.True(t, res.Offsets[0].Closed)
	assert.Equal(t, second.ID, res.Offsets[1].ReverseSplitID)
	assert.False(t, res.Offsets[1].Closed)
	assertAmount(t, "45", res.OffsetTotal())

	assertAmount(t, "25", f.split(t, second.ID).Amount)
	assertAmount(t, "40", f.split(t, third.ID).Amount)
	assertAmount(t, "65", f.net(t, f.alice, f.bob))
}

func TestService_RecordObligation_SkipsPendingAndSettled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.owe(t, f.alice, f.bob, "40")
	_, err := f.svc.TransitionSplit(ctx, pending.ID, ledger.TransitionMarkPending)
	require.NoError(t, err)

	settled := f.owe(t, f.alice, f.bob, "25")
	_, err = f.svc.TransitionSplit(ctx, settled.ID, ledger.TransitionForceSettle)
	require.NoError(t, err)

	// A split owed to someone else is not reverse debt either.
	other := f.owe(t, f.carol, f.bob, "10")

	res, err := f.svc.RecordObligation(ctx, ledger.Obligation{
		PayerID:  f.bob,
		DebtorID: f.alice,
		Amount:   d("15"),
	})
	require.NoError(t, err)

	assert.Empty(t, res.Offsets)
	assertAmount(t, "15", res.ForwardSplit.Amount)
	assertAmount(t, "40", f.split(t, pending.ID).Amount)
	assertAmount(t, "25", f.split(t, settled.ID).Amount)
	assertAmount(t, "10", f.split(t, other.ID).Amount)
}

func TestService_RecordObligation_Validation(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	type testCase struct {
		name string
		ob   ledger.Obligation
	}

	tests := []testCase{
		{name: "MissingPayer", ob: ledger.Obligation{DebtorID: b, Amount: d("1")}},
		{name: "MissingDebtor", ob: ledger.Obligation{PayerID: a, Amount: d("1")}},
		{name: "SelfDebt", ob: ledger.Obligation{PayerID: a, DebtorID: a, Amount: d("1")}},
		{name: "ZeroAmount", ob: ledger.Obligation{PayerID: a, DebtorID: b, Amount: d("0")}},
		{name: "NegativeAmount", ob: ledger.Obligation{PayerID: a, DebtorID: b, Amount: d("-5")}},
		{name: "SubCentAmount", ob: ledger.Obligation{PayerID: a, DebtorID: b, Amount: d("0.004")}},
		{name: "FractionalCent", ob: ledger.Obligation{PayerID: a, DebtorID: b, Amount: d("12.345")}},
		{name: "AmountOutOfRange", ob: ledger.Obligation{PayerID: a, DebtorID: b, Amount: d("1000000000000")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No repository call is expected.
			repo := ledger.NewMockRepository(ctrl)
			svc := ledger.NewService(repo)

			got, err := svc.RecordObligation(context.Background(), tt.ob)

			assert.ErrorIs(t, err, ledger.ErrValidation)
			assert.Nil(t, got)
		})
	}
}

func TestService_RecordObligation_StoreFailures(t *testing.T) {
	payer, debtor := uuid.New(), uuid.New()
	r1 := &ledger.Split{ID: uuid.New(), DebtorID: payer, Amount: d("30")}
	r2 := &ledger.Split{ID: uuid.New(), DebtorID: payer, Amount: d("50")}

	assignTx := func(_ context.Context, tx *ledger.Transaction) error {
		tx.ID = uuid.New()
		return nil
	}

	type testCase struct {
		name          string
		amount        string
		setupMock     func(m *ledger.MockRepository)
		wantOffsets   int
		wantRemaining string
		wantForward   bool
	}

	tests := []testCase{
		{
			name:   "QueryFails",
			amount: "10",
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().QuerySplits(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
		},
		{
			name:   "SecondReverseUpdateFails",
			amount: "60",
			setupMock: func(m *ledger.MockRepository) {
				gomock.InOrder(
					m.EXPECT().QuerySplits(gomock.Any(), gomock.Any()).Return([]*ledger.Split{r1, r2}, nil),
					m.EXPECT().UpdateSplit(gomock.Any(), r1.ID, gomock.Any()).Return(nil),
					m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).DoAndReturn(assignTx),
					m.EXPECT().InsertSplits(gomock.Any(), gomock.Any()).Return(nil),
					m.EXPECT().UpdateSplit(gomock.Any(), r2.ID, gomock.Any()).Return(errors.New("db down")),
				)
			},
			wantOffsets:   1,
			wantRemaining: "30",
		},
		{
			name:   "AuditInsertFails",
			amount: "10",
			setupMock: func(m *ledger.MockRepository) {
				gomock.InOrder(
					m.EXPECT().QuerySplits(gomock.Any(), gomock.Any()).Return([]*ledger.Split{r1}, nil),
					m.EXPECT().UpdateSplit(gomock.Any(), r1.ID, gomock.Any()).Return(nil),
					m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db down")),
				)
			},
			wantOffsets:   1,
			wantRemaining: "0",
		},
		{
			name:   "ForwardSplitFails",
			amount: "40",
			setupMock: func(m *ledger.MockRepository) {
				gomock.InOrder(
					m.EXPECT().QuerySplits(gomock.Any(), gomock.Any()).Return([]*ledger.Split{r1}, nil),
					m.EXPECT().UpdateSplit(gomock.Any(), r1.ID, gomock.Any()).Return(nil),
					m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).DoAndReturn(assignTx),
					m.EXPECT().InsertSplits(gomock.Any(), gomock.Any()).Return(nil),
					m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).DoAndReturn(assignTx),
					m.EXPECT().InsertSplits(gomock.Any(), gomock.Any()).Return(errors.New("db down")),
				)
			},
			wantOffsets:   1,
			wantRemaining: "10",
			wantForward:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := ledger.NewService(repo, ledger.WithClock(clock))
			got, err := svc.RecordObligation(context.Background(), ledger.Obligation{
				PayerID:  payer,
				DebtorID: debtor,
				Amount:   d(tt.amount),
			})

			require.ErrorIs(t, err, ledger.ErrStore)

			if tt.wantOffsets == 0 && tt.wantRemaining == "" {
				assert.Nil(t, got)
				return
			}

			require.NotNil(t, got)
			assert.Len(t, got.Offsets, tt.wantOffsets)
			assertAmount(t, tt.wantRemaining, got.Remaining)
			assert.Equal(t, tt.wantForward, got.Forward != nil)
			assert.Nil(t, got.ForwardSplit)
		})
	}
}

func TestService_RecordObligation_RetryAfterPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.owe(t, f.alice, f.bob, "30")
	second := f.owe(t, f.alice, f.bob, "50")

	updates := 0
	f.store.SetFault(func(op string) error {
		if op != "UpdateSplit" {
			return nil
		}

		updates++
		if updates == 2 {
			return errors.New("connection reset")
		}

		return nil
	})

	res, err := f.svc.RecordObligation(ctx, ledger.Obligation{PayerID: f.bob, DebtorID: f.alice, Amount: d("60")})
	require.ErrorIs(t, err, ledger.ErrStore)
	require.Len(t, res.Offsets, 1)
	assertAmount(t, "30", res.Remaining)

	assert.True(t, f.split(t, first.ID).IsSettled)
	assertAmount(t, "50", f.split(t, second.ID).Amount)

	f.store.SetFault(nil)

	retry, err := f.svc.RecordObligation(ctx, ledger.Obligation{PayerID: f.bob, DebtorID: f.alice, Amount: res.Remaining})
	require.NoError(t, err)
	require.Len(t, retry.Offsets, 1)
	assert.Equal(t, second.ID, retry.Offsets[0].ReverseSplitID)

	assertAmount(t, "20", f.split(t, second.ID).Amount)
	assertAmount(t, "20", f.net(t, f.alice, f.bob))
}

func TestService_RecordExpenseWithNetting_Conservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	people := []uuid.UUID{f.alice, f.bob, f.carol}
	rng := rand.New(rand.NewPCG(7, 11))

	// want[a][b] tracks what b owes a minus what a owes b without any netting.
	want := map[[2]uuid.UUID]string{}
	expected := func(a, b uuid.UUID) string {
		if v, ok := want[[2]uuid.UUID{a, b}]; ok {
			return v
		}

		return "0"
	}

	for range 60 {
		payer := people[rng.IntN(len(people))]
		debtor := people[rng.IntN(len(people))]

		if payer == debtor {
			continue
		}

		amount := decimal.New(int64(rng.IntN(20000)+1), -2)

		_, err := f.svc.RecordExpenseWithNetting(ctx, payer, "random", []ledger.Entry{
			{DebtorID: debtor, ItemDescription: "x", Amount: amount},
		})
		require.NoError(t, err)

		want[[2]uuid.UUID{payer, debtor}] = d(expected(payer, debtor)).Add(amount).String()
		want[[2]uuid.UUID{debtor, payer}] = d(expected(debtor, payer)).Sub(amount).String()

		for _, a := range people {
			for _, b := range people {
				if a == b {
					continue
				}

				assertAmount(t, expected(a, b), f.net(t, a, b))
			}
		}
	}

	// Amounts never go negative after partial offsets.
	splits, err := f.store.QuerySplits(ctx, ledger.SplitFilter{})
	require.NoError(t, err)

	for _, s := range splits {
		assert.False(t, s.Amount.IsNegative(), "split %s went negative: %s", s.ID, s.Amount)
	}
}
