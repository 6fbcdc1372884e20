package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateParsing
	importStatePreview
	importStateResult
)

// ImportModel reads an expense sheet, previews the resolved entries and
// records them as one expense paid by the acting profile.
type ImportModel struct {
	CommonModel
	session *Session

	state      importState
	filePicker filepicker.Model
	path       string
	result     *importer.Result
	names      map[uuid.UUID]string

	status string
	err    error
}

func NewImportModel(session *Session) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		session:    session,
		filePicker: fp,
	}
}

func (m ImportModel) Title() string { return "Import Expense Sheet" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStatePreview {
		return "Enter: record expense | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStatePreview && msg.Type == tea.KeyEnter {
			m.state = importStateParsing
			m.status = "Recording expense..."

			return m, m.recordCmd()
		}

	case parsedMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.result = msg.result
		m.names = msg.names
		m.state = importStatePreview

		return m, nil

	case recordedMsg:
		m.state = importStateResult
		m.err = msg.err

		switch {
		case msg.err != nil && msg.recorded == 0:
			m.status = fmt.Sprintf("Error: %v", msg.err)
		case msg.err != nil:
			m.status = fmt.Sprintf("Recorded %d entries, some failed: %v", msg.recorded, msg.err)
		default:
			m.status = fmt.Sprintf("Recorded %d entries.", msg.recorded)
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateParsing
		m.path = path
		m.status = fmt.Sprintf("Reading %s...", path)

		return m, m.parseCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStatePreview, importStateResult:
		m.state = importStateFilePick
		m.result = nil
		m.err = nil
		m.status = ""

		return m, nil
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a sheet with debtor, item and amount columns:\n\n%s", m.filePicker.View()),
		)
	case importStateParsing:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStatePreview:
		return m.viewPreview()
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewPreview() string {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render(filepath.Base(m.path)))
	sb.WriteString("\n\n")

	for _, e := range m.result.Entries {
		fmt.Fprintf(&sb, "%-20s %-28s %12s\n", m.names[e.DebtorID], e.ItemDescription, FormatAmount(e.Amount))
	}

	if len(m.result.Skipped) > 0 {
		lines := make([]string, len(m.result.Skipped))
		for i, l := range m.result.Skipped {
			lines[i] = fmt.Sprint(l)
		}

		sb.WriteString("\n")
		sb.WriteString(faintStyle.Render("Skipped lines: " + strings.Join(lines, ", ")))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1).Render(sb.String())
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(successStyle.Render(m.status) + "\n\n(Esc to go back)")
}

// Messages

type parsedMsg struct {
	result *importer.Result
	names  map[uuid.UUID]string
	err    error
}

type recordedMsg struct {
	recorded int
	err      error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	session := m.session

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return parsedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := session.Importer.Import(ctx, f)
		if err != nil {
			return parsedMsg{err: err}
		}

		people, err := session.Profiles.List(ctx)
		if err != nil {
			return parsedMsg{err: err}
		}

		names := make(map[uuid.UUID]string, len(people))
		for _, p := range people {
			names[p.ID] = p.DisplayName
		}

		return parsedMsg{result: result, names: names}
	}
}

func (m ImportModel) recordCmd() tea.Cmd {
	session := m.session
	entries := m.result.Entries
	description := strings.TrimSuffix(filepath.Base(m.path), filepath.Ext(m.path))

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		if !session.Netting {
			res, err := session.Ledger.RecordExpense(ctx, session.Me, description, entries)
			if err != nil {
				return recordedMsg{err: err}
			}

			return recordedMsg{recorded: len(res.Splits)}
		}

		res, err := session.Ledger.RecordExpenseWithNetting(ctx, session.Me, description, entries)
		if res == nil {
			return recordedMsg{err: err}
		}

		return recordedMsg{recorded: len(res.Outcomes) - len(res.Failed()), err: err}
	}
}
