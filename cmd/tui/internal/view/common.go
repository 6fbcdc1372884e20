package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/export"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// Session is shared by every screen. Me is the acting profile.
type Session struct {
	Me          uuid.UUID
	Ledger      *ledger.Service
	Profiles    *profile.Service
	Importer    *importer.Service
	Export      *export.Service
	Netting     bool
	RecentLimit int
}

// counterparties returns every profile except the acting one.
func (s *Session) counterparties() ([]*profile.Profile, error) {
	ctx, cancel := DbCtx()
	defer cancel()

	all, err := s.Profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	others := make([]*profile.Profile, 0, len(all))
	for _, p := range all {
		if p.ID != s.Me {
			others = append(others, p)
		}
	}

	return others, nil
}
