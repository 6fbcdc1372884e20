package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is a screen reachable from the main menu. Title is rendered above the
// screen; a screen returns Back to hand control to the menu.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

var (
	_ View = DashboardModel{}
	_ View = PendingModel{}
	_ View = ExpenseModel{}
	_ View = RecentModel{}
	_ View = ImportModel{}
	_ View = ExportModel{}
)
