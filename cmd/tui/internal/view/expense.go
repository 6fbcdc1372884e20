package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

type expenseState int

const (
	expenseStateLoading expenseState = iota
	expenseStateForm
	expenseStateSaving
	expenseStateResult
)

// ExpenseModel records an expense paid by the acting profile, splitting the
// same amount across every selected debtor.
type ExpenseModel struct {
	CommonModel
	session *Session

	state  expenseState
	form   *huh.Form
	people map[uuid.UUID]string
	err    error
	lines  []string

	input *expenseInput
}

// expenseInput holds the form bindings. It lives behind a pointer so the
// bindings survive model copies.
type expenseInput struct {
	description string
	debtors     []uuid.UUID
	item        string
	amount      string
	netting     bool
}

func NewExpenseModel(session *Session) ExpenseModel {
	return ExpenseModel{
		session: session,
		input:   &expenseInput{netting: session.Netting},
	}
}

func (m ExpenseModel) Title() string { return "Add Expense" }
func (m ExpenseModel) ShortHelp() string {
	if m.state == expenseStateResult {
		return "Esc: back | n: new expense"
	}

	return "Esc: back | Enter: next"
}

func (m ExpenseModel) Init() tea.Cmd {
	return m.loadPeopleCmd()
}

func (m ExpenseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case peopleMsg:
		if msg.err != nil {
			m.state = expenseStateResult
			m.err = msg.err

			return m, nil
		}

		m.people = make(map[uuid.UUID]string, len(msg.people))
		for _, p := range msg.people {
			m.people[p.ID] = p.DisplayName
		}

		m.form = m.buildForm(msg.people)
		m.state = expenseStateForm

		return m, m.form.Init()

	case expenseSavedMsg:
		m.state = expenseStateResult
		m.err = msg.err
		m.lines = msg.lines

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.state == expenseStateResult && msg.String() == "n" {
			fresh := NewExpenseModel(m.session)
			return fresh, fresh.Init()
		}
	}

	if m.state != expenseStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = expenseStateSaving

	return m, m.saveCmd()
}

func (m ExpenseModel) buildForm(people []*profile.Profile) *huh.Form {
	options := make([]huh.Option[uuid.UUID], len(people))
	for i, p := range people {
		options[i] = huh.NewOption(p.DisplayName, p.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Placeholder(ledger.DefaultDescription).
				Value(&m.input.description),

			huh.NewMultiSelect[uuid.UUID]().
				Key("debtors").
				Title("Who owes you?").
				Options(options...).
				Value(&m.input.debtors).
				Validate(func(ids []uuid.UUID) error {
					if len(ids) == 0 {
						return errors.New("pick at least one person")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("item").
				Title("Item").
				Value(&m.input.item).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("item cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Amount per person").
				Placeholder("50k").
				Value(&m.input.amount).
				Validate(func(s string) error {
					d, err := importer.ParseAmount(s)
					if err != nil {
						return err
					}

					if !d.IsPositive() {
						return errors.New("amount must be positive")
					}
					return nil
				}),

			huh.NewConfirm().
				Key("netting").
				Title("Offset against what you owe them?").
				Value(&m.input.netting),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExpenseModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case expenseStateLoading:
		return style.Render("Loading people...")
	case expenseStateForm:
		return style.Render(m.form.View())
	case expenseStateSaving:
		return style.Render("Saving expense...")
	}

	if m.err != nil {
		body := errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
		if len(m.lines) > 0 {
			body += "\n\n" + strings.Join(m.lines, "\n")
		}

		return style.Render(body + "\n\n" + faintStyle.Render(m.ShortHelp()))
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		successStyle.Render("Expense recorded"),
		"",
		strings.Join(m.lines, "\n"),
		"",
		faintStyle.Render(m.ShortHelp()),
	))
}

// Messages

type peopleMsg struct {
	people []*profile.Profile
	err    error
}

func (m ExpenseModel) loadPeopleCmd() tea.Cmd {
	session := m.session

	return func() tea.Msg {
		people, err := session.counterparties()
		return peopleMsg{people: people, err: err}
	}
}

type expenseSavedMsg struct {
	lines []string
	err   error
}

func (m ExpenseModel) saveCmd() tea.Cmd {
	session := m.session
	people := m.people
	input := *m.input

	return func() tea.Msg {
		amount, err := importer.ParseAmount(input.amount)
		if err != nil {
			return expenseSavedMsg{err: err}
		}

		entries := ledger.ExpandBulk(input.debtors, input.item, amount, nil)

		ctx, cancel := DbCtx()
		defer cancel()

		if !input.netting {
			res, err := session.Ledger.RecordExpense(ctx, session.Me, input.description, entries)
			if err != nil {
				return expenseSavedMsg{err: err}
			}

			lines := make([]string, 0, len(res.Splits))
			for _, s := range res.Splits {
				lines = append(lines, fmt.Sprintf("%s owes you %s", people[s.DebtorID], FormatAmount(s.Amount)))
			}

			return expenseSavedMsg{lines: lines}
		}

		res, err := session.Ledger.RecordExpenseWithNetting(ctx, session.Me, input.description, entries)
		if res == nil {
			return expenseSavedMsg{err: err}
		}

		lines := make([]string, 0, len(res.Outcomes))
		for _, o := range res.Outcomes {
			lines = append(lines, describeOutcome(people[o.Entry.DebtorID], o))
		}

		return expenseSavedMsg{lines: lines, err: err}
	}
}

func describeOutcome(name string, o ledger.EntryOutcome) string {
	if o.Err != nil {
		return fmt.Sprintf("%s: failed (%v)", name, o.Err)
	}

	r := o.Result
	offset := r.OffsetTotal()

	switch {
	case r.ForwardSplit == nil:
		return fmt.Sprintf("%s: %s cancelled against what you owed them", name, FormatAmount(offset))
	case offset.IsZero():
		return fmt.Sprintf("%s owes you %s", name, FormatAmount(r.ForwardSplit.Amount))
	default:
		return fmt.Sprintf("%s: %s offset, owes you %s", name, FormatAmount(offset), FormatAmount(r.ForwardSplit.Amount))
	}
}
