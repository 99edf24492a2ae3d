package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/store"
)

// AccountRepository handles database operations for finance accounts
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Upsert creates the account or refreshes every non-key column when the name already exists.
func (r *AccountRepository) Upsert(ctx context.Context, q DBTX, a *models.Account) error {
	if err := a.Provenance.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO finance_account (name, institution, account_type, source_system, source_ref, as_of, confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE
		SET institution = EXCLUDED.institution,
		    account_type = EXCLUDED.account_type,
		    source_system = EXCLUDED.source_system,
		    source_ref = EXCLUDED.source_ref,
		    as_of = EXCLUDED.as_of,
		    confidence = EXCLUDED.confidence,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		a.Name, a.Institution, a.AccountType,
		string(a.SourceSystem), a.SourceRef, a.AsOf, string(a.Confidence),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account %q: %w", a.Name, err)
	}
	return nil
}

// GetByName retrieves an account by its unique name
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	query := `
		SELECT id, name, institution, account_type, source_system, source_ref, as_of, confidence, created_at, updated_at
		FROM finance_account
		WHERE name = $1
	`
	a := &models.Account{}
	var system, confidence string
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&a.ID, &a.Name, &a.Institution, &a.AccountType,
		&system, &a.SourceRef, &a.AsOf, &confidence, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.SourceSystem = models.SourceSystem(system)
	a.Confidence = models.Confidence(confidence)
	return a, nil
}
