package importer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

var currencyMarks = strings.NewReplacer("₫", "", "đ", "", "Đ", "", "VND", "", "vnd", "", " ", "", "\u00a0", "")

// ParseAmount reads amounts as people type them into the expense sheet:
// "1.234,56", "1,234.56", "1234.56", "45.000" (thousands), "50k", "1.5m".
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := currencyMarks.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	multiplier := decimal.NewFromInt(1)

	switch last := clean[len(clean)-1]; last {
	case 'k', 'K':
		multiplier = thousand
		clean = clean[:len(clean)-1]
	case 'm', 'M':
		multiplier = million
		clean = clean[:len(clean)-1]
	}

	d, err := decimal.NewFromString(normalizeSeparators(clean))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}

	return d.Mul(multiplier), nil
}

// normalizeSeparators rewrites s so '.' is the only decimal separator.
// With both separators present the rightmost one is decimal. A lone
// separator followed by exactly three digits is a thousands separator.
func normalizeSeparators(s string) string {
	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')

	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}

		return strings.ReplaceAll(s, ",", "")

	case comma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-comma-1 == 3 {
			return strings.ReplaceAll(s, ",", "")
		}

		return strings.Replace(s, ",", ".", 1)

	case dot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-dot-1 == 3 {
			return strings.ReplaceAll(s, ".", "")
		}
	}

	return s
}
