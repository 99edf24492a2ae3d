package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/models"
)

// ManifestRepository handles the append-only source_manifest table
type ManifestRepository struct {
	pool *pgxpool.Pool
}

// NewManifestRepository creates a new ManifestRepository
func NewManifestRepository(pool *pgxpool.Pool) *ManifestRepository {
	return &ManifestRepository{pool: pool}
}

// Append inserts a manifest. A nil IngestedAt is stamped with the current time.
func (r *ManifestRepository) Append(ctx context.Context, q DBTX, m *models.SourceManifest) error {
	if m.IngestedAt == nil {
		now := time.Now().UTC()
		m.IngestedAt = &now
	}
	query := `
		INSERT INTO source_manifest (domain, source_ref, status, as_of, ingested_at, row_count, message, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, updated_at
	`
	err := q.QueryRow(ctx, query,
		string(m.Domain), m.SourceRef, string(m.Status), m.AsOf, *m.IngestedAt, m.RowCount, m.Message,
	).Scan(&m.ID, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to append manifest: %w", err)
	}
	return nil
}

// List returns manifests ordered by domain, newest ingestion first within a domain
func (r *ManifestRepository) List(ctx context.Context, limit int) ([]models.SourceManifest, error) {
	query := `
		SELECT id, domain, source_ref, status, as_of, ingested_at, row_count, message, updated_at
		FROM source_manifest
		ORDER BY domain ASC, ingested_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query manifests: %w", err)
	}
	defer rows.Close()

	var manifests []models.SourceManifest
	for rows.Next() {
		var m models.SourceManifest
		var domain, status string
		if err := rows.Scan(&m.ID, &domain, &m.SourceRef, &status, &m.AsOf, &m.IngestedAt, &m.RowCount, &m.Message, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manifest: %w", err)
		}
		m.Domain = models.Domain(domain)
		m.Status = models.ManifestStatus(status)
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}
