package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/profile"
)

var (
	ErrUnknownDebtor   = errors.New("unknown debtor")
	ErrAmbiguousDebtor = errors.New("ambiguous debtor")
)

// ProfileLister is the slice of the profile directory the importer needs.
type ProfileLister interface {
	List(ctx context.Context) ([]*profile.Profile, error)
}

type Service struct {
	profiles ProfileLister
}

func NewService(profiles ProfileLister) *Service {
	return &Service{profiles: profiles}
}

// Result holds the entries ready for the expense workflow and the lines
// skipped because their amount could not be read or the entry is not
// recordable (blank item, zero or negative amount).
type Result struct {
	Entries []ledger.Entry
	Skipped []int
}

// Import parses a sheet and resolves each debtor cell to a profile, either by
// id or by case-insensitive display name.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	rows, skipped, err := Parse(r)
	if err != nil {
		return nil, err
	}

	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	resolve := newResolver(profiles)
	entries := make([]ledger.Entry, 0, len(rows))

	for _, row := range rows {
		id, err := resolve(row.Debtor)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.Line, err)
		}

		entry := ledger.Entry{
			DebtorID:        id,
			ItemDescription: row.Item,
			Amount:          row.Amount,
		}

		valid := ledger.ValidEntries([]ledger.Entry{entry})
		if len(valid) == 0 {
			skipped = append(skipped, row.Line)
			continue
		}

		entries = append(entries, valid[0])
	}

	slices.Sort(skipped)

	return &Result{Entries: entries, Skipped: skipped}, nil
}

func newResolver(profiles []*profile.Profile) func(string) (uuid.UUID, error) {
	byID := make(map[uuid.UUID]struct{}, len(profiles))
	byName := make(map[string][]uuid.UUID, len(profiles))

	for _, p := range profiles {
		byID[p.ID] = struct{}{}
		key := strings.ToLower(strings.TrimSpace(p.DisplayName))
		byName[key] = append(byName[key], p.ID)
	}

	return func(ref string) (uuid.UUID, error) {
		if id, err := uuid.Parse(ref); err == nil {
			if _, ok := byID[id]; ok {
				return id, nil
			}

			return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownDebtor, ref)
		}

		switch ids := byName[strings.ToLower(ref)]; len(ids) {
		case 0:
			return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownDebtor, ref)
		case 1:
			return ids[0], nil
		default:
			return uuid.Nil, fmt.Errorf("%w: %q matches %d profiles", ErrAmbiguousDebtor, ref, len(ids))
		}
	}
}
