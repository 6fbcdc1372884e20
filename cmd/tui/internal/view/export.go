package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/profile"
)

type exportState int

const (
	exportStateLoading exportState = iota
	exportStateForm
	exportStateExporting
	exportStateResult
)

// ExportModel writes a statement for one counterparty, with the receipt
// images of every outstanding split, into a local directory.
type ExportModel struct {
	CommonModel
	session *Session

	state   exportState
	err     error
	form    *huh.Form
	input   *exportInput
	spinner spinner.Model
	summary string
}

type exportInput struct {
	counterparty uuid.UUID
	path         string
}

func NewExportModel(session *Session) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		session: session,
		input:   &exportInput{path: "./exports"},
		spinner: s,
	}
}

func (m ExportModel) Title() string { return "Export Statement" }

func (m ExportModel) ShortHelp() string {
	switch m.state {
	case exportStateResult:
		return "Esc: back to menu"
	case exportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	session := m.session

	return func() tea.Msg {
		people, err := session.counterparties()
		return peopleMsg{people: people, err: err}
	}
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	switch m.state {
	case exportStateLoading:
		people, ok := msg.(peopleMsg)
		if !ok {
			return m, nil
		}

		if people.err != nil {
			m.state = exportStateResult
			m.err = people.err

			return m, nil
		}

		m.form = m.buildForm(people.people)
		m.state = exportStateForm

		return m, m.form.Init()

	case exportStateForm:
		return m.updateForm(msg)

	case exportStateExporting:
		return m.updateExporting(msg)
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runExportCmd(m.input.counterparty, m.input.path))
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildForm(people []*profile.Profile) *huh.Form {
	options := make([]huh.Option[uuid.UUID], len(people))
	for i, p := range people {
		options[i] = huh.NewOption(p.DisplayName, p.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[uuid.UUID]().
				Key("counterparty").
				Title("Statement with").
				Options(options...).
				Value(&m.input.counterparty),

			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&m.input.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateLoading:
		return lipgloss.NewStyle().Padding(1).Render("Loading people...")

	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Building statement and downloading images...", m.spinner.View()),
		)

	case exportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ExportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("46")).
		Render("Export Complete!")

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Statement:",
			"",
			m.summary,
		),
	)
}

type exportResultMsg struct {
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(counterparty uuid.UUID, path string) tea.Cmd {
	session := m.session

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		stmt, err := session.Export.Export(ctx, session.Me, counterparty, path)
		if err != nil {
			return exportResultMsg{err: err}
		}

		body := stmt.Body()
		if err := os.WriteFile(filepath.Join(path, "statement.txt"), []byte(body), 0o644); err != nil {
			return exportResultMsg{err: fmt.Errorf("writing statement: %w", err)}
		}

		return exportResultMsg{body: body}
	}
}
