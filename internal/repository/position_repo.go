package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/shopspring/decimal"
)

var ErrZeroQuantity = errors.New("position quantity must be non-zero")

// PositionRepository handles database operations for position snapshots
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

// DeleteSnapshot removes every position for the (account, source system, source ref) triple
func (r *PositionRepository) DeleteSnapshot(ctx context.Context, q DBTX, accountID int64, system models.SourceSystem, sourceRef string) (int64, error) {
	query := `
		DELETE FROM finance_position
		WHERE account_id = $1 AND source_system = $2 AND source_ref = $3
	`
	result, err := q.Exec(ctx, query, accountID, string(system), sourceRef)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	return result.RowsAffected(), nil
}

// Create inserts a position
func (r *PositionRepository) Create(ctx context.Context, q DBTX, p *models.Position) error {
	if p.Quantity.IsZero() {
		return ErrZeroQuantity
	}
	if err := p.Provenance.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO finance_position (security_id, account_id, quantity, avg_cost, market_value,
		                              source_system, source_ref, as_of, confidence, ingested_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		p.SecurityID, p.AccountID,
		decimalArg(p.Quantity), nullDecimalArg(p.AvgCost), nullDecimalArg(p.MarketValue),
		string(p.SourceSystem), p.SourceRef, p.AsOf, string(p.Confidence), p.IngestedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// ListSnapshot retrieves the positions for one snapshot, joined with their tickers
func (r *PositionRepository) ListSnapshot(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) ([]models.Position, error) {
	query := `
		SELECT fp.id, fp.security_id, fp.account_id, fs.ticker,
		       fp.quantity::text, fp.avg_cost::text, fp.market_value::text,
		       fp.source_system, fp.source_ref, fp.as_of, fp.confidence, fp.ingested_at
		FROM finance_position fp
		JOIN finance_security fs ON fs.id = fp.security_id
		WHERE fp.account_id = $1 AND fp.source_system = $2 AND fp.source_ref = $3
		ORDER BY fp.id
	`
	rows, err := r.pool.Query(ctx, query, accountID, string(system), sourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		var qty string
		var avgCost, marketValue *string
		var sys, confidence string
		if err := rows.Scan(&p.ID, &p.SecurityID, &p.AccountID, &p.Ticker,
			&qty, &avgCost, &marketValue,
			&sys, &p.SourceRef, &p.AsOf, &confidence, &p.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if p.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("failed to parse quantity %q: %w", qty, err)
		}
		if p.AvgCost, err = parseNullDecimal(avgCost); err != nil {
			return nil, fmt.Errorf("failed to parse avg cost: %w", err)
		}
		if p.MarketValue, err = parseNullDecimal(marketValue); err != nil {
			return nil, fmt.Errorf("failed to parse market value: %w", err)
		}
		p.SourceSystem = models.SourceSystem(sys)
		p.Confidence = models.Confidence(confidence)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
