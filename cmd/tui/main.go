package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/ledger/memstore"
	ledgerStore "github.com/MrJamesThe3rd/tally/internal/ledger/store"
	"github.com/MrJamesThe3rd/tally/internal/logging"
	"github.com/MrJamesThe3rd/tally/internal/profile"
	profileStore "github.com/MrJamesThe3rd/tally/internal/profile/store"
)

const logFile = "tally-tui.log"

type screen struct {
	key   string
	label string
	open  func(*view.Session) view.View
}

var screens = []screen{
	{"1", "Balances", func(s *view.Session) view.View { return view.NewDashboardModel(s) }},
	{"2", "Pending Requests", func(s *view.Session) view.View { return view.NewPendingModel(s) }},
	{"3", "Add Expense", func(s *view.Session) view.View { return view.NewExpenseModel(s) }},
	{"4", "Recent Transactions", func(s *view.Session) view.View { return view.NewRecentModel(s) }},
	{"5", "Import Expense Sheet", func(s *view.Session) view.View { return view.NewImportModel(s) }},
	{"6", "Export Statement", func(s *view.Session) view.View { return view.NewExportModel(s) }},
}

type model struct {
	appName string
	session *view.Session
	me      string

	// current is nil while the menu is shown.
	current view.View
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.current == nil {
			return m.updateMenu(msg)
		}
	case view.BackMsg:
		m.current = nil
		return m, nil
	}

	if m.current == nil {
		return m, nil
	}

	next, cmd := m.current.Update(msg)
	if v, ok := next.(view.View); ok {
		m.current = v
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		return m, tea.Quit
	}

	for _, s := range screens {
		if msg.String() == s.key {
			m.current = s.open(m.session)
			return m, m.current.Init()
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.current != nil {
		title := lipgloss.NewStyle().Bold(true).PaddingLeft(1).Render(m.current.Title())
		return lipgloss.JoinVertical(lipgloss.Left, title, m.current.View())
	}

	menu := fmt.Sprintf("%s TUI (signed in as %s)\n\n", m.appName, m.me)
	for _, s := range screens {
		menu += fmt.Sprintf("%s. %s\n", s.key, s.label)
	}

	menu += "\nq. Quit"

	return lipgloss.NewStyle().Padding(2).Render(menu)
}

func initialModel(ctx context.Context, cfg *config.Config) (model, func(), error) {
	me, err := uuid.Parse(cfg.TUI.ProfileID)
	if err != nil {
		return model{}, nil, fmt.Errorf("TUI_PROFILE_ID must be a profile uuid: %w", err)
	}

	ledgerRepo, profileRepo, closeStore, err := openStores(ctx, cfg, me)
	if err != nil {
		return model{}, nil, err
	}

	var (
		ledgerService  = ledger.NewService(ledgerRepo)
		profileService = profile.NewService(profileRepo)
	)

	self, err := profileService.Get(ctx, me)
	if err != nil {
		closeStore()
		return model{}, nil, fmt.Errorf("loading profile %s: %w", me, err)
	}

	session := &view.Session{
		Me:          me,
		Ledger:      ledgerService,
		Profiles:    profileService,
		Importer:    importer.NewService(profileService),
		Export:      export.NewService(ledgerService, nil),
		Netting:     cfg.Ledger.Netting,
		RecentLimit: cfg.Ledger.RecentLimit,
	}

	return model{appName: cfg.App.Name, session: session, me: self.DisplayName}, closeStore, nil
}

func openStores(ctx context.Context, cfg *config.Config, me uuid.UUID) (ledger.Repository, profile.Repository, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		store := memstore.New()
		if err := seedDemo(ctx, profile.NewService(store), me); err != nil {
			return nil, nil, nil, err
		}

		return store, store, func() {}, nil
	}

	db, err := database.New(cfg.ConnectionString(), cfg.DB.MaxOpenConns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	return ledgerStore.New(db), profileStore.New(db), func() { db.Close() }, nil
}

// seedDemo fills an in-memory store with the acting profile and two friends.
func seedDemo(ctx context.Context, profiles *profile.Service, me uuid.UUID) error {
	for _, p := range []profile.CreateParams{
		{ID: me, DisplayName: "Me"},
		{DisplayName: "Bình"},
		{DisplayName: "Lan"},
	} {
		if _, err := profiles.Create(ctx, p); err != nil {
			return fmt.Errorf("seeding %s: %w", p.DisplayName, err)
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup, so main is the only place that exits.
func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// The terminal belongs to bubbletea, so logs go to a file.
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logFile, err)
	}
	defer f.Close()

	slog.SetDefault(logging.New(f, cfg.Log.Level, logging.FormatJSON))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	m, closeStore, err := initialModel(ctx, cfg)
	cancel()

	if err != nil {
		slog.Error("failed to start TUI", "error", err)
		return err
	}
	defer closeStore()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}
