package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

// SaveIllness upserts an illness record.
func (s *SQLiteStorage) SaveIllness(ctx context.Context, illness *model.Illness) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if illness == nil {
		return fmt.Errorf("illness cannot be nil")
	}
	if err := validateString(illness.ID, "illness id"); err != nil {
		return err
	}
	if err := validateString(illness.Name, "illness name"); err != nil {
		return err
	}

	accountsJSON, err := marshalNullable(illness.Accounts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO illnesses (id, name, accounts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			accounts = excluded.accounts,
			updated_at = excluded.updated_at`,
		illness.ID, illness.Name, accountsJSON, illness.CreatedAt, illness.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save illness: %w", err)
	}

	slog.Debug("saved illness", "illness_id", illness.ID, "name", illness.Name)
	return nil
}

// GetIllnessByID returns one illness or common.ErrNotFound.
func (s *SQLiteStorage) GetIllnessByID(ctx context.Context, id string) (*model.Illness, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, accounts, created_at, updated_at FROM illnesses WHERE id = ?`, id)
	illness, err := scanIllness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("illness %s: %w", id, common.ErrNotFound)
	}
	return illness, err
}

// MergeIllnessAccounts appends new provider accounts to an illness inside a
// transaction so concurrent confirmations cannot drop each other's contacts.
func (s *SQLiteStorage) MergeIllnessAccounts(ctx context.Context, id string, accounts []model.ProviderAccount) (*model.Illness, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "illness id"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, accounts, created_at, updated_at FROM illnesses WHERE id = ?`, id)
	illness, err := scanIllness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("illness %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	illness.Accounts = model.MergeAccounts(illness.Accounts, accounts)
	illness.UpdatedAt = time.Now().UTC()

	accountsJSON, err := marshalNullable(illness.Accounts)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE illnesses SET accounts = ?, updated_at = ? WHERE id = ?`,
		accountsJSON, illness.UpdatedAt, illness.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to update illness accounts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit illness merge: %w", err)
	}

	slog.Debug("merged illness accounts",
		"illness_id", illness.ID,
		"account_count", len(illness.Accounts))
	return illness, nil
}

func scanIllness(row rowScanner) (*model.Illness, error) {
	var illness model.Illness
	var accountsJSON sql.NullString

	if err := row.Scan(
		&illness.ID, &illness.Name, &accountsJSON,
		&illness.CreatedAt, &illness.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan illness: %w", err)
	}

	if err := unmarshalNullable(accountsJSON, &illness.Accounts); err != nil {
		return nil, err
	}
	return &illness, nil
}
