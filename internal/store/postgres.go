// Package store provides storage backends for the Baseer gateway.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/lib/pq"

	"github.com/baseer-ai/baseer/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

// uniqueViolation is the PostgreSQL SQLSTATE code for unique constraint violations.
const uniqueViolation = "23505"

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// CreateUser inserts a new user in a single round trip. The unique
// constraints on username and phone close the race between two concurrent
// registrations; a violation surfaces as models.ErrDuplicateUser.
func (s *PostgresStore) CreateUser(ctx context.Context, u models.User) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, fullname, password, phone, address, illness, gender, age, imergency_contact)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		u.Username, u.Fullname, u.Password, u.Phone, u.Address, u.Illness, u.Gender, u.Age, u.EmergencyContact,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			slog.Warn("PostgresStore.CreateUser: duplicate user", "username", u.Username)
			return 0, models.ErrDuplicateUser
		}
		slog.Error("PostgresStore.CreateUser failed", "error", err, "username", u.Username)
		return 0, fmt.Errorf("failed to insert user %s: %w", u.Username, err)
	}
	slog.Debug("PostgresStore.CreateUser succeeded", "id", id, "username", u.Username)
	return id, nil
}

// AuthenticateUser returns the id of the user matching the exact credential
// pair, or models.ErrInvalidCredentials when there is no match.
func (s *PostgresStore) AuthenticateUser(ctx context.Context, username, password string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = $1 AND password = $2`,
		username, password,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrInvalidCredentials
	}
	if err != nil {
		slog.Error("PostgresStore.AuthenticateUser failed", "error", err, "username", username)
		return 0, fmt.Errorf("failed to authenticate user %s: %w", username, err)
	}
	return id, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, fullname, password, phone, address, illness, gender, age, imergency_contact
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.Phone, &u.Address, &u.Illness, &u.Gender, &u.Age, &u.EmergencyContact)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		slog.Error("PostgresStore.GetUser failed", "error", err, "id", id)
		return models.User{}, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return u, nil
}

// ListContacts returns the contact directory in insertion order, which is
// the deterministic scan order used for phone resolution.
func (s *PostgresStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, phone FROM contacts ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore.ListContacts query failed", "error", err)
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()
	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.Name, &c.Phone); err != nil {
			slog.Error("PostgresStore.ListContacts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore.ListContacts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	slog.Debug("PostgresStore.ListContacts succeeded", "count", len(contacts))
	return contacts, nil
}

func (s *PostgresStore) AddHistory(ctx context.Context, rec models.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (user_id, message, response) VALUES ($1, $2, $3)`,
		rec.UserID, rec.Message, rec.Response,
	)
	if err != nil {
		slog.Error("PostgresStore.AddHistory failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert history record for user %d: %w", rec.UserID, err)
	}
	slog.Debug("PostgresStore.AddHistory succeeded", "user_id", rec.UserID)
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
