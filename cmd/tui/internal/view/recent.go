package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

type RecentModel struct {
	CommonModel
	session *Session

	table   table.Model
	txs     []*ledger.Transaction
	loading bool
	err     error
}

func NewRecentModel(session *Session) RecentModel {
	columns := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Description", Width: 30},
		{Title: "Total", Width: 14},
		{Title: "Settled", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return RecentModel{
		session: session,
		table:   t,
		loading: true,
	}
}

func (m RecentModel) Title() string     { return "Recent Transactions" }
func (m RecentModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m RecentModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recentLoadMsg:
		m.loading = false
		m.err = msg.err
		m.txs = msg.txs
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 5))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *RecentModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatAge(tx.CreatedAt),
			tx.Description,
			FormatAmount(tx.TotalAmount),
			fmt.Sprintf("%d/%d", tx.SettledCount(), len(tx.Splits)),
		})
	}

	m.table.SetRows(rows)
}

func (m RecentModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(tableView + "\n" + faintStyle.Render(m.ShortHelp()))
}

type recentLoadMsg struct {
	txs []*ledger.Transaction
	err error
}

func (m RecentModel) loadCmd() tea.Cmd {
	session := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := session.Ledger.RecentTransactions(ctx, session.Me, session.RecentLimit)

		return recentLoadMsg{txs: txs, err: err}
	}
}
