package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/store"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repository
// method can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements store.Store on PostgreSQL
type Store struct {
	pool      *pgxpool.Pool
	accounts  *AccountRepository
	secs      *SecurityRepository
	positions *PositionRepository
	manifests *ManifestRepository
}

var _ store.Store = (*Store)(nil)

// NewStore creates a new Store backed by pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		accounts:  NewAccountRepository(pool),
		secs:      NewSecurityRepository(pool),
		positions: NewPositionRepository(pool),
		manifests: NewManifestRepository(pool),
	}
}

// txWriter binds the repositories to one querier (pool or tx)
type txWriter struct {
	q DBTX
	s *Store
}

func (w txWriter) UpsertAccount(ctx context.Context, a *models.Account) error {
	return w.s.accounts.Upsert(ctx, w.q, a)
}

func (w txWriter) UpsertSecurity(ctx context.Context, sec *models.Security) error {
	return w.s.secs.Upsert(ctx, w.q, sec)
}

func (w txWriter) DeletePositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) (int64, error) {
	return w.s.positions.DeleteSnapshot(ctx, w.q, accountID, system, sourceRef)
}

func (w txWriter) CreatePosition(ctx context.Context, p *models.Position) error {
	return w.s.positions.Create(ctx, w.q, p)
}

func (w txWriter) AppendManifest(ctx context.Context, m *models.SourceManifest) error {
	return w.s.manifests.Append(ctx, w.q, m)
}

func (s *Store) UpsertAccount(ctx context.Context, a *models.Account) error {
	return txWriter{q: s.pool, s: s}.UpsertAccount(ctx, a)
}

func (s *Store) UpsertSecurity(ctx context.Context, sec *models.Security) error {
	return txWriter{q: s.pool, s: s}.UpsertSecurity(ctx, sec)
}

func (s *Store) DeletePositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) (int64, error) {
	return txWriter{q: s.pool, s: s}.DeletePositions(ctx, accountID, system, sourceRef)
}

func (s *Store) CreatePosition(ctx context.Context, p *models.Position) error {
	return txWriter{q: s.pool, s: s}.CreatePosition(ctx, p)
}

func (s *Store) AppendManifest(ctx context.Context, m *models.SourceManifest) error {
	return txWriter{q: s.pool, s: s}.AppendManifest(ctx, m)
}

// WithTx runs fn inside a single transaction
func (s *Store) WithTx(ctx context.Context, fn func(w store.Writer) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txWriter{q: tx, s: s}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error) {
	return s.manifests.List(ctx, limit)
}

func (s *Store) ListPositions(ctx context.Context, accountID int64, system models.SourceSystem, sourceRef string) ([]models.Position, error) {
	return s.positions.ListSnapshot(ctx, accountID, system, sourceRef)
}

func (s *Store) GetAccountByName(ctx context.Context, name string) (*models.Account, error) {
	return s.accounts.GetByName(ctx, name)
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

// decimalArg renders d as text; pgx sends string arguments in text format, so
// NUMERIC columns receive the exact digits.
func decimalArg(d decimal.Decimal) string {
	return d.String()
}

func nullDecimalArg(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
