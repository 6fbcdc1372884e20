package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

// FormatAmount renders an amount with thousands separators, e.g. 1,250,000 or 12.5.
func FormatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return humanize.FormatInteger("#,###.", int(d.IntPart()))
	}

	return humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// FormatAge renders t relative to now, e.g. "3 hours ago".
func FormatAge(t time.Time) string {
	return humanize.Time(t)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
