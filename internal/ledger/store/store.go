package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

// Store is the Postgres ledger adapter. Every method runs a single statement
// per row, so multi-step ledger operations are not atomic across rows.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectSplitColumns = `
	s.id, s.transaction_id, s.debtor_id, s.item_description, s.amount, s.image_url,
	s.settlement_status, s.is_settled, s.settled_at, s.created_at,
	COALESCE(d.display_name, ''), d.avatar_url,
	t.payer_id, t.description, t.total_amount, t.created_at,
	COALESCE(p.display_name, ''), p.avatar_url
`

const fromSplits = `
	FROM transaction_splits s
	JOIN transactions t ON t.id = s.transaction_id
	LEFT JOIN profiles d ON d.id = s.debtor_id
	LEFT JOIN profiles p ON p.id = t.payer_id
`

// scanSplit reads a split row joined with its transaction and both profiles.
// Expected column order: selectSplitColumns.
func scanSplit(s scanner) (*ledger.Split, error) {
	var (
		split  ledger.Split
		tx     ledger.Transaction
		debtor ledger.Party
		payer  ledger.Party
		image  sql.NullString
		status sql.NullString
	)

	if err := s.Scan(
		&split.ID, &split.TransactionID, &split.DebtorID, &split.ItemDescription, &split.Amount, &image,
		&status, &split.IsSettled, &split.SettledAt, &split.CreatedAt,
		&debtor.DisplayName, &debtor.AvatarURL,
		&tx.PayerID, &tx.Description, &tx.TotalAmount, &tx.CreatedAt,
		&payer.DisplayName, &payer.AvatarURL,
	); err != nil {
		return nil, err
	}

	if image.Valid {
		split.ImageURL = &image.String
	}

	split.Status = ledger.SettlementStatus(status.String)

	tx.ID = split.TransactionID
	debtor.ID = split.DebtorID
	payer.ID = tx.PayerID
	tx.Payer = &payer
	split.Debtor = &debtor
	split.Transaction = &tx

	return &split, nil
}

func (s *Store) QuerySplits(ctx context.Context, filter ledger.SplitFilter) ([]*ledger.Split, error) {
	query := `SELECT ` + selectSplitColumns + fromSplits + ` WHERE TRUE`

	var args []any

	argIdx := 1

	if len(filter.IDs) > 0 {
		query += fmt.Sprintf(" AND s.id = ANY($%d::uuid[])", argIdx)

		args = append(args, uuidStrings(filter.IDs))
		argIdx++
	}

	if filter.DebtorID != nil {
		query += fmt.Sprintf(" AND s.debtor_id = $%d", argIdx)

		args = append(args, *filter.DebtorID)
		argIdx++
	}

	if filter.PayerID != nil {
		query += fmt.Sprintf(" AND t.payer_id = $%d", argIdx)

		args = append(args, *filter.PayerID)
		argIdx++
	}

	if filter.Status != nil {
		if *filter.Status == ledger.StatusOpen {
			query += " AND s.settlement_status IS NULL"
		} else {
			query += fmt.Sprintf(" AND s.settlement_status = $%d", argIdx)

			args = append(args, string(*filter.Status))
			argIdx++
		}
	}

	if filter.IsSettled != nil {
		query += fmt.Sprintf(" AND s.is_settled = $%d", argIdx)

		args = append(args, *filter.IsSettled)
	}

	if filter.Order == ledger.OrderCreatedDesc {
		query += " ORDER BY s.created_at DESC, s.id DESC"
	} else {
		query += " ORDER BY s.created_at ASC, s.id ASC"
	}

	return s.querySplits(ctx, query, args...)
}

func (s *Store) querySplits(ctx context.Context, query string, args ...any) ([]*ledger.Split, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying splits: %w", err)
	}
	defer rows.Close()

	var splits []*ledger.Split

	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning split: %w", err)
		}

		splits = append(splits, split)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating split rows: %w", err)
	}

	return splits, nil
}

func (s *Store) GetSplit(ctx context.Context, id uuid.UUID) (*ledger.Split, error) {
	query := `SELECT ` + selectSplitColumns + fromSplits + ` WHERE s.id = $1`

	split, err := scanSplit(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting split: %w", err)
	}

	return split, nil
}

// UpdateSplit changes only the fields set on update. Open status is written as NULL.
func (s *Store) UpdateSplit(ctx context.Context, id uuid.UUID, update ledger.SplitUpdate) error {
	var sets []string

	var args []any

	argIdx := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.Amount != nil {
		set("amount", *update.Amount)
	}

	if update.Status != nil {
		var status sql.NullString
		if *update.Status != ledger.StatusOpen {
			status = sql.NullString{String: string(*update.Status), Valid: true}
		}

		set("settlement_status", status)
	}

	if update.IsSettled != nil {
		set("is_settled", *update.IsSettled)
	}

	if update.SettledAt != nil {
		set("settled_at", *update.SettledAt)
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE transaction_splits SET %s WHERE id = $%d", strings.Join(sets, ", "), argIdx)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating split: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating split: %w", err)
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (payer_id, description, total_amount, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.PayerID,
		tx.Description,
		tx.TotalAmount,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

// InsertSplits inserts each split with its own statement. A failure leaves
// the splits before it committed.
func (s *Store) InsertSplits(ctx context.Context, splits []*ledger.Split) error {
	query := `
		INSERT INTO transaction_splits
			(transaction_id, debtor_id, item_description, amount, image_url, settlement_status, is_settled, settled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	for _, split := range splits {
		var status sql.NullString
		if split.Status != ledger.StatusOpen {
			status = sql.NullString{String: string(split.Status), Valid: true}
		}

		err := s.db.QueryRowContext(ctx, query,
			split.TransactionID,
			split.DebtorID,
			split.ItemDescription,
			split.Amount,
			split.ImageURL,
			status,
			split.IsSettled,
			split.SettledAt,
		).Scan(&split.ID, &split.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating split: %w", err)
		}
	}

	return nil
}

// ListTransactions returns transactions newest first, each with its splits.
func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	query := `
		SELECT t.id, t.payer_id, t.description, t.total_amount, t.created_at,
			COALESCE(p.display_name, ''), p.avatar_url
		FROM transactions t
		LEFT JOIN profiles p ON p.id = t.payer_id
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.PayerID != nil {
		query += fmt.Sprintf(" AND t.payer_id = $%d", argIdx)

		args = append(args, *filter.PayerID)
		argIdx++
	}

	query += " ORDER BY t.created_at DESC, t.id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	byID := make(map[uuid.UUID]*ledger.Transaction)

	for rows.Next() {
		var (
			tx    ledger.Transaction
			payer ledger.Party
		)

		if err := rows.Scan(
			&tx.ID, &tx.PayerID, &tx.Description, &tx.TotalAmount, &tx.CreatedAt,
			&payer.DisplayName, &payer.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		payer.ID = tx.PayerID
		tx.Payer = &payer

		txs = append(txs, &tx)
		byID[tx.ID] = &tx
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	if len(txs) == 0 {
		return txs, nil
	}

	ids := make([]uuid.UUID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}

	splitQuery := `SELECT ` + selectSplitColumns + fromSplits + `
		WHERE s.transaction_id = ANY($1::uuid[])
		ORDER BY s.created_at ASC, s.id ASC`

	splits, err := s.querySplits(ctx, splitQuery, uuidStrings(ids))
	if err != nil {
		return nil, err
	}

	for _, split := range splits {
		if tx, ok := byID[split.TransactionID]; ok {
			tx.Splits = append(tx.Splits, split)
		}
	}

	return txs, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
