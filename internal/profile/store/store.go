package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/profile"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, display_name, avatar_url, bank_code, account_number, account_holder, created_at, updated_at
func scanProfile(s scanner) (*profile.Profile, error) {
	var p profile.Profile

	var avatar, bankCode, accountNumber, accountHolder sql.NullString

	if err := s.Scan(
		&p.ID, &p.DisplayName, &avatar,
		&bankCode, &accountNumber, &accountHolder,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}

	if bankCode.Valid || accountNumber.Valid {
		p.Bank = &profile.BankInfo{
			BankCode:      bankCode.String,
			AccountNumber: accountNumber.String,
			AccountHolder: accountHolder.String,
		}
	}

	return &p, nil
}

const selectProfileColumns = `
	id, display_name, avatar_url, bank_code, account_number, account_holder, created_at, updated_at
`

func (s *Store) CreateProfile(ctx context.Context, p *profile.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO profiles (id, display_name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING created_at
	`

	if err := s.db.QueryRowContext(ctx, query, p.ID, p.DisplayName).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}

	return nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	query := `SELECT ` + selectProfileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.ErrNotFound
		}

		return nil, fmt.Errorf("getting profile: %w", err)
	}

	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]*profile.Profile, error) {
	query := `SELECT ` + selectProfileColumns + ` FROM profiles ORDER BY display_name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*profile.Profile

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}

		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, update profile.Update) error {
	var sets []string

	var args []any

	argIdx := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.DisplayName != nil {
		set("display_name", *update.DisplayName)
	}

	if update.AvatarURL != nil {
		set("avatar_url", *update.AvatarURL)
	}

	if update.Bank != nil {
		set("bank_code", update.Bank.BankCode)
		set("account_number", update.Bank.AccountNumber)
		set("account_holder", update.Bank.AccountHolder)
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"UPDATE profiles SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(sets, ", "), argIdx,
	)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}

	if n == 0 {
		return profile.ErrNotFound
	}

	return nil
}
