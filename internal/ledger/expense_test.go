package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

func TestValidEntries(t *testing.T) {
	bob := uuid.New()

	got := ledger.ValidEntries([]ledger.Entry{
		{DebtorID: bob, ItemDescription: " coffee ", Amount: d("3.20")},
		{DebtorID: uuid.Nil, ItemDescription: "tea", Amount: d("2")},
		{DebtorID: bob, ItemDescription: "   ", Amount: d("2")},
		{DebtorID: bob, ItemDescription: "water", Amount: d("0")},
		{DebtorID: bob, ItemDescription: "refund", Amount: d("-1")},
		{DebtorID: bob, ItemDescription: "gum", Amount: d("0.004")},
		{DebtorID: bob, ItemDescription: "fee", Amount: d("1.005")},
		{DebtorID: bob, ItemDescription: "yacht", Amount: d("1000000000000")},
		{DebtorID: bob, ItemDescription: "ticket", Amount: d("15.500")},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "coffee", got[0].ItemDescription)
	assert.Equal(t, "ticket", got[1].ItemDescription)
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0.01", true},
		{"12.50", true},
		{"12.500", true},
		{"999999999999.99", true},
		{"0", false},
		{"-1", false},
		{"0.004", false},
		{"12.345", false},
		{"1000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.ValidAmount(d(tt.amount)))
		})
	}
}

func TestExpandBulk(t *testing.T) {
	bob, carol := uuid.New(), uuid.New()
	image := "https://cdn.example.com/pizza.png"

	got := ledger.ExpandBulk([]uuid.UUID{bob, carol, bob}, "pizza", d("8"), &image)

	require.Len(t, got, 2)
	assert.Equal(t, bob, got[0].DebtorID)
	assert.Equal(t, carol, got[1].DebtorID)

	for _, e := range got {
		assert.Equal(t, "pizza", e.ItemDescription)
		assertAmount(t, "8", e.Amount)
		assert.Equal(t, &image, e.ImageURL)
	}
}

func TestService_RecordExpense(t *testing.T) {
	payer, bob, carol := uuid.New(), uuid.New(), uuid.New()

	type args struct {
		description string
		entries     []ledger.Entry
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *ledger.MockRepository)
		wantDesc  string
		wantTotal string
		wantLen   int
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				description: "Lunch",
				entries: []ledger.Entry{
					{DebtorID: bob, ItemDescription: "burger", Amount: d("12.40")},
					{DebtorID: carol, ItemDescription: "salad", Amount: d("9.10")},
					{DebtorID: carol, ItemDescription: "", Amount: d("4")},
				},
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					InsertTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *ledger.Transaction) error {
						assert.Equal(t, payer, tx.PayerID)
						tx.ID = uuid.New()
						tx.CreatedAt = time.Now()

						return nil
					})
				m.EXPECT().
					InsertSplits(gomock.Any(), gomock.Len(2)).
					DoAndReturn(func(_ context.Context, splits []*ledger.Split) error {
						for _, s := range splits {
							assert.True(t, s.IsOpen())
							s.ID = uuid.New()
						}

						return nil
					})
			},
			wantDesc:  "Lunch",
			wantTotal: "21.50",
			wantLen:   2,
		},
		{
			name: "DefaultDescription",
			args: args{
				description: "  ",
				entries:     []ledger.Entry{{DebtorID: bob, ItemDescription: "taxi", Amount: d("20")}},
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().InsertSplits(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantDesc:  ledger.DefaultDescription,
			wantTotal: "20",
			wantLen:   1,
		},
		{
			name: "NoValidEntries",
			args: args{
				entries: []ledger.Entry{{DebtorID: bob, ItemDescription: "taxi", Amount: d("0")}},
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "SelfDebt",
			args: args{
				entries: []ledger.Entry{
					{DebtorID: bob, ItemDescription: "taxi", Amount: d("5")},
					{DebtorID: payer, ItemDescription: "taxi", Amount: d("5")},
				},
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "SubCentOnly",
			args: args{
				entries: []ledger.Entry{{DebtorID: bob, ItemDescription: "gum", Amount: d("0.004")}},
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "TotalOutOfRange",
			args: args{
				entries: []ledger.Entry{
					{DebtorID: bob, ItemDescription: "house", Amount: d("600000000000")},
					{DebtorID: carol, ItemDescription: "house", Amount: d("600000000000")},
				},
			},
			wantErr: ledger.ErrValidation,
		},
		{
			name: "TransactionInsertFails",
			args: args{
				entries: []ledger.Entry{{DebtorID: bob, ItemDescription: "taxi", Amount: d("5")}},
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: ledger.ErrStore,
		},
		{
			name: "SplitInsertFails",
			args: args{
				entries: []ledger.Entry{{DebtorID: bob, ItemDescription: "taxi", Amount: d("5")}},
			},
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.EXPECT().InsertSplits(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: ledger.ErrStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := ledger.NewService(repo)
			got, err := svc.RecordExpense(context.Background(), payer, tt.args.description, tt.args.entries)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDesc, got.Transaction.Description)
			assertAmount(t, tt.wantTotal, got.Transaction.TotalAmount)
			assert.Len(t, got.Splits, tt.wantLen)

			for _, s := range got.Splits {
				assert.Equal(t, got.Transaction.ID, s.TransactionID)
			}
		})
	}
}

func TestService_RecordExpenseWithNetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Bob is already owed 30 by Alice.
	reverse := f.owe(t, f.bob, f.alice, "30")

	res, err := f.svc.RecordExpenseWithNetting(ctx, f.alice, "Dinner", []ledger.Entry{
		{DebtorID: f.bob, ItemDescription: "steak", Amount: d("45")},
		{DebtorID: f.carol, ItemDescription: "fish", Amount: d("20")},
		{DebtorID: f.carol, ItemDescription: "", Amount: d("20")},
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)
	assert.Empty(t, res.Failed())

	bob := res.Outcomes[0].Result
	require.Len(t, bob.Offsets, 1)
	assert.Equal(t, reverse.ID, bob.Offsets[0].ReverseSplitID)
	assertAmount(t, "15", bob.ForwardSplit.Amount)
	assert.Equal(t, "steak", bob.ForwardSplit.ItemDescription)
	assert.Equal(t, "Dinner", bob.Forward.Description)

	carol := res.Outcomes[1].Result
	assert.Empty(t, carol.Offsets)
	assertAmount(t, "20", carol.ForwardSplit.Amount)

	assertAmount(t, "15", f.net(t, f.alice, f.bob))
	assertAmount(t, "20", f.net(t, f.alice, f.carol))
}

func TestService_RecordExpenseWithNetting_EntryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inserts := 0
	f.store.SetFault(func(op string) error {
		if op != "InsertTransaction" {
			return nil
		}

		inserts++
		if inserts == 1 {
			return errors.New("db error")
		}

		return nil
	})

	res, err := f.svc.RecordExpenseWithNetting(ctx, f.alice, "Trip", []ledger.Entry{
		{DebtorID: f.bob, ItemDescription: "fuel", Amount: d("30")},
		{DebtorID: f.carol, ItemDescription: "fuel", Amount: d("30")},
	})
	require.ErrorIs(t, err, ledger.ErrStore)
	assert.Contains(t, err.Error(), f.bob.String())

	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, f.bob, failed[0].Entry.DebtorID)

	assert.NoError(t, res.Outcomes[1].Err)
	assertAmount(t, "30", f.net(t, f.alice, f.carol))
	assert.True(t, f.net(t, f.alice, f.bob).IsZero())
}

func TestService_RecordExpenseWithNetting_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := ledger.NewService(ledger.NewMockRepository(ctrl))

	got, err := svc.RecordExpenseWithNetting(context.Background(), uuid.New(), "x", nil)
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Nil(t, got)

	_, err = svc.RecordExpenseWithNetting(context.Background(), uuid.Nil, "x", []ledger.Entry{
		{DebtorID: uuid.New(), ItemDescription: "a", Amount: d("1")},
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}
