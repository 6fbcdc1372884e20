package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

// PendingModel lists payment claims made by debtors on expenses the acting
// profile paid for, and lets the payer confirm them.
type PendingModel struct {
	CommonModel
	session *Session

	table    table.Model
	requests []ledger.PendingRequest
	loading  bool
	err      error
	status   string
}

func NewPendingModel(session *Session) PendingModel {
	columns := []table.Column{
		{Title: "Debtor", Width: 24},
		{Title: "Amount", Width: 14},
		{Title: "Splits", Width: 8},
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

	return PendingModel{
		session: session,
		table:   t,
		loading: true,
	}
}

func (m PendingModel) Title() string { return "Pending Requests" }
func (m PendingModel) ShortHelp() string {
	return "Esc: back | c: confirm selected | a: confirm all | r: refresh"
}

func (m PendingModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PendingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pendingLoadMsg:
		m.loading = false
		m.err = msg.err
		m.requests = msg.requests
		m.refreshTable()

		return m, nil

	case pendingConfirmMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Confirmed %d, then failed: %v", msg.applied, msg.err)
		} else {
			m.status = fmt.Sprintf("Confirmed %d payment(s).", msg.applied)
		}

		return m, m.loadCmd()

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
		case "c":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.requests) {
				return m, nil
			}

			return m, m.confirmCmd(m.requests[idx].SplitIDs)
		case "a":
			var ids []uuid.UUID
			for _, r := range m.requests {
				ids = append(ids, r.SplitIDs...)
			}

			if len(ids) == 0 {
				return m, nil
			}

			return m, m.confirmCmd(ids)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *PendingModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.requests))
	for _, r := range m.requests {
		rows = append(rows, table.Row{
			r.Debtor.DisplayName,
			FormatAmount(r.Amount),
			strconv.Itoa(len(r.SplitIDs)),
		})
	}

	m.table.SetRows(rows)
}

func (m PendingModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading pending requests...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	content := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if len(m.requests) == 0 {
		content = faintStyle.Render("No payments waiting for confirmation.")
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n" + faintStyle.Render(m.ShortHelp()))
}

// Messages

type pendingLoadMsg struct {
	requests []ledger.PendingRequest
	err      error
}

func (m PendingModel) loadCmd() tea.Cmd {
	session := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		requests, err := session.Ledger.PendingRequests(ctx, session.Me)

		return pendingLoadMsg{requests: requests, err: err}
	}
}

type pendingConfirmMsg struct {
	applied int
	err     error
}

func (m PendingModel) confirmCmd(ids []uuid.UUID) tea.Cmd {
	session := m.session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := session.Ledger.TransitionSplitsBatch(ctx, ids, ledger.TransitionConfirmPayment)

		applied := 0
		if res != nil {
			applied = len(res.Applied)
		}

		return pendingConfirmMsg{applied: applied, err: err}
	}
}
