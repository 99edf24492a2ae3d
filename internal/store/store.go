// Package store defines the persistence surface used by finance ingestion and
// the system health view. internal/repository implements it on Postgres and
// internal/repository/sqlite on an embedded SQLite file.
package store

import (
	"context"
	"errors"

	"github.com/oldfield/dashboard/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// ManifestListLimit bounds how many manifests the health view reads.
const ManifestListLimit = 200

// Writer holds the mutating operations. Inside WithTx every call joins the
// same transaction.
type Writer interface {
	// UpsertAccount creates or updates the account with a.Name and fills a.ID and timestamps.
	UpsertAccount(ctx context.Context, a *models.Account) error
	// UpsertSecurity creates or updates the security with s.Ticker and fills s.ID and timestamps.
	UpsertSecurity(ctx context.Context, s *models.Security) error
	// DeletePositions removes the snapshot for (accountID, system, sourceRef) and
	// reports how many rows were removed.
	DeletePositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) (int64, error)
	CreatePosition(ctx context.Context, p *models.Position) error
	// AppendManifest inserts m; manifests are never updated afterwards.
	AppendManifest(ctx context.Context, m *models.SourceManifest) error
}

// Store is a Writer that can also open transactions and serve the read paths.
type Store interface {
	Writer

	// WithTx runs fn in a single transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(w Writer) error) error

	// ListManifests returns manifests ordered by domain ascending, then
	// ingestion time descending, capped at limit rows.
	ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error)

	// ListPositions returns the current snapshot for (accountID, system, sourceRef),
	// ordered by position ID.
	ListPositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) ([]models.Position, error)

	// GetAccountByName returns ErrAccountNotFound when no account has that name.
	GetAccountByName(ctx context.Context, name string) (*models.Account, error)

	Close()
}
