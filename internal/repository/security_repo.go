package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/models"
)

var ErrSecurityNotFound = errors.New("security not found")

// SecurityRepository handles database operations for securities
type SecurityRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityRepository creates a new SecurityRepository
func NewSecurityRepository(pool *pgxpool.Pool) *SecurityRepository {
	return &SecurityRepository{pool: pool}
}

// Upsert creates the security or refreshes name, type, currency and provenance
// when the ticker already exists. Concurrent runs resolve as last writer wins.
func (r *SecurityRepository) Upsert(ctx context.Context, q DBTX, s *models.Security) error {
	if err := s.Provenance.Validate(); err != nil {
		return err
	}
	if s.Currency == "" {
		s.Currency = models.DefaultCurrency
	}
	query := `
		INSERT INTO finance_security (ticker, name, security_type, currency, source_system, source_ref, as_of, confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (ticker) DO UPDATE
		SET name = EXCLUDED.name,
		    security_type = EXCLUDED.security_type,
		    currency = EXCLUDED.currency,
		    source_system = EXCLUDED.source_system,
		    source_ref = EXCLUDED.source_ref,
		    as_of = EXCLUDED.as_of,
		    confidence = EXCLUDED.confidence,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		s.Ticker, s.Name, string(s.SecurityType), s.Currency,
		string(s.SourceSystem), s.SourceRef, s.AsOf, string(s.Confidence),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", s.Ticker, err)
	}
	return nil
}

// GetByTicker retrieves a security by its unique ticker
func (r *SecurityRepository) GetByTicker(ctx context.Context, ticker string) (*models.Security, error) {
	query := `
		SELECT id, ticker, name, security_type, currency, source_system, source_ref, as_of, confidence, created_at, updated_at
		FROM finance_security
		WHERE ticker = $1
	`
	s := &models.Security{}
	var secType, system, confidence string
	err := r.pool.QueryRow(ctx, query, ticker).Scan(
		&s.ID, &s.Ticker, &s.Name, &secType, &s.Currency,
		&system, &s.SourceRef, &s.AsOf, &confidence, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSecurityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	s.SecurityType = models.SecurityType(secType)
	s.SourceSystem = models.SourceSystem(system)
	s.Confidence = models.Confidence(confidence)
	return s, nil
}
