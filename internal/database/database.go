package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oldfield/dashboard/internal/repository"
	"github.com/oldfield/dashboard/internal/repository/sqlite"
	"github.com/oldfield/dashboard/internal/store"
	log "github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the Postgres connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to Postgres, verifies the connection and ensures the tables exist.
func New(ctx context.Context, pgURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool
func (db *DB) Close() {
	db.Pool.Close()
}

// Open returns the store named by databaseURL: a SQLite file for
// "sqlite:"/"file:" URLs and *.db paths, Postgres otherwise.
func Open(ctx context.Context, databaseURL string) (store.Store, error) {
	if sqlite.IsPath(databaseURL) {
		path := sqlite.PathFromURL(databaseURL)
		st, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		log.Infof("Using SQLite store at %s", path)
		return st, nil
	}

	db, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("Using Postgres store")
	return repository.NewStore(db.Pool), nil
}
