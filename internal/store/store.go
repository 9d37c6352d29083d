// Package store provides storage backends for the Baseer gateway.
//
// It persists users, the shared contact directory, and the append-only chat
// history, with PostgreSQL and SQLite implementations sharing one contract.
package store

import (
	"context"
	"strings"

	"github.com/baseer-ai/baseer/internal/models"
)

// Store is the persistence contract shared by all backends.
//
// CreateUser must enforce username/phone uniqueness in a single round trip
// against the database so two concurrent registrations cannot both succeed;
// it returns models.ErrDuplicateUser on conflict. AuthenticateUser returns
// models.ErrInvalidCredentials when no exact match exists, and GetUser
// returns models.ErrUserNotFound for unknown ids.
type Store interface {
	CreateUser(ctx context.Context, u models.User) (int64, error)
	AuthenticateUser(ctx context.Context, username, password string) (int64, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
	AddHistory(ctx context.Context, rec models.HistoryRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style connection strings
// and "sqlite" for anything else (treated as a file path).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
