package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1234.56", want: "1234.56"},
		{in: "1.234,56", want: "1234.56"},
		{in: "1,234.56", want: "1234.56"},
		{in: "12,50", want: "12.5"},
		{in: "45.000", want: "45000"},
		{in: "1.250.000", want: "1250000"},
		{in: "1,250,000", want: "1250000"},
		{in: "50k", want: "50000"},
		{in: "2.5K", want: "2500"},
		{in: "1.5m", want: "1500000"},
		{in: "45.000 ₫", want: "45000"},
		{in: "30.000đ", want: "30000"},
		{in: "120000 VND", want: "120000"},
		{in: "-10,00", want: "-10"},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
