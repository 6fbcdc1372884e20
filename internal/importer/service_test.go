package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

var (
	binh = &profile.Profile{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), DisplayName: "Bình"}
	lan  = &profile.Profile{ID: uuid.MustParse("22222222-2222-4222-8222-222222222222"), DisplayName: "Lan"}
)

func newService(t *testing.T, profiles ...*profile.Profile) *importer.Service {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := profile.NewMockRepository(ctrl)
	repo.EXPECT().ListProfiles(gomock.Any()).Return(profiles, nil).AnyTimes()

	return importer.NewService(profile.NewService(repo))
}

func TestService_Import(t *testing.T) {
	sheet := `Chi tiêu tháng 3;;
người nợ;món;số tiền
Bình;Phở bò;45.000
lan;Cà phê;30k
` + lan.ID.String() + `;Bánh mì;25.000 ₫
Bình;Trà đá;??
;;
`

	svc := newService(t, binh, lan)

	got, err := svc.Import(context.Background(), strings.NewReader(sheet))
	require.NoError(t, err)

	require.Len(t, got.Entries, 3)
	assert.Equal(t, binh.ID, got.Entries[0].DebtorID)
	assert.Equal(t, "Phở bò", got.Entries[0].ItemDescription)
	assert.Equal(t, "45000", got.Entries[0].Amount.String())

	assert.Equal(t, lan.ID, got.Entries[1].DebtorID)
	assert.Equal(t, "30000", got.Entries[1].Amount.String())

	assert.Equal(t, lan.ID, got.Entries[2].DebtorID)
	assert.Equal(t, "25000", got.Entries[2].Amount.String())

	assert.Equal(t, []int{6}, got.Skipped)
}

func TestService_Import_CommaSeparated(t *testing.T) {
	sheet := "debtor,item,amount\nLan,taxi,12.50\n"

	got, err := newService(t, lan).Import(context.Background(), strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "12.5", got.Entries[0].Amount.String())
}

func TestService_Import_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("debtor;item;amount\nLan;crème brûlée;7,50\n")
	require.NoError(t, err)

	got, err := newService(t, lan).Import(context.Background(), strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "7.5", got.Entries[0].Amount.String())
}

func TestService_Import_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sheet   string
		dupe    bool
		wantErr error
	}{
		{
			name:    "NoHeader",
			sheet:   "a;b;c\n1;2;3\n",
			wantErr: importer.ErrNoHeader,
		},
		{
			name:    "UnknownName",
			sheet:   "debtor;item;amount\nMinh;tea;10\n",
			wantErr: importer.ErrUnknownDebtor,
		},
		{
			name:    "UnknownID",
			sheet:   "debtor;item;amount\n" + uuid.NewString() + ";tea;10\n",
			wantErr: importer.ErrUnknownDebtor,
		},
		{
			name:    "AmbiguousName",
			sheet:   "debtor;item;amount\nLan;tea;10\n",
			dupe:    true,
			wantErr: importer.ErrAmbiguousDebtor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := []*profile.Profile{binh, lan}
			if tt.dupe {
				profiles = append(profiles, &profile.Profile{ID: uuid.New(), DisplayName: "LAN"})
			}

			_, err := newService(t, profiles...).Import(context.Background(), strings.NewReader(tt.sheet))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Import_SkipsUnrecordableRows(t *testing.T) {
	sheet := "debtor;item;amount\nLan;refund;-10\nLan;;20\nLan;tea;0\nBình;tea;15\nLan;bad;x\n"

	got, err := newService(t, binh, lan).Import(context.Background(), strings.NewReader(sheet))
	require.NoError(t, err)

	require.Len(t, got.Entries, 1)
	assert.Equal(t, binh.ID, got.Entries[0].DebtorID)
	assert.Equal(t, []int{2, 3, 4, 6}, got.Skipped)
}
