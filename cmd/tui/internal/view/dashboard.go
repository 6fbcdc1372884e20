package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

type DashboardModel struct {
	CommonModel
	session *Session

	spinner   spinner.Model
	loading   bool
	err       error
	dashboard *ledger.Dashboard
}

func NewDashboardModel(session *Session) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DashboardModel{
		session: session,
		spinner: s,
		loading: true,
	}
}

func (m DashboardModel) Title() string     { return "Balances" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.loading = false
		m.err = msg.err
		m.dashboard = msg.dashboard

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadCmd())
		}
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m DashboardModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.loading {
		return style.Render(m.spinner.View() + " Loading balances...")
	}

	if m.err != nil {
		return style.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	box := lipgloss.NewStyle().
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(38)

	owed := box.Render(renderPositions("Owed to me", m.dashboard.Positions.OwedToMe))
	owe := box.Render(renderPositions("I owe", m.dashboard.Positions.IOwe))

	footer := faintStyle.Render(fmt.Sprintf("%d payment claim(s) waiting for your confirmation", len(m.dashboard.Pending)))

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, owed, owe),
		"",
		footer,
		faintStyle.Render(m.ShortHelp()),
	))
}

func renderPositions(title string, positions []ledger.Position) string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n\n")

	if len(positions) == 0 {
		sb.WriteString(faintStyle.Render("Nothing outstanding"))
		return sb.String()
	}

	for _, p := range positions {
		fmt.Fprintf(&sb, "%-20s %12s  (%d)\n", p.Counterparty.DisplayName, FormatAmount(p.Amount), p.SplitCount)
	}

	return strings.TrimRight(sb.String(), "\n")
}

type dashboardMsg struct {
	dashboard *ledger.Dashboard
	err       error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	session := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		d, err := session.Ledger.Dashboard(ctx, session.Me, session.RecentLimit)

		return dashboardMsg{dashboard: d, err: err}
	}
}
