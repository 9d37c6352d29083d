// Package store provides storage backends for the Baseer gateway.
//
// This file implements the SQLite-backed store for single-node deployments.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/baseer-ai/baseer/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN. The DSN is a
// file path; the containing directory is created when missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")
	return &SQLiteStore{db: db}, nil
}

// CreateUser inserts a new user in a single round trip, relying on the
// unique constraints to reject concurrent duplicates.
func (s *SQLiteStore) CreateUser(ctx context.Context, u models.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, fullname, password, phone, address, illness, gender, age, imergency_contact)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Fullname, u.Password, u.Phone, u.Address, u.Illness, u.Gender, u.Age, u.EmergencyContact,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			slog.Warn("SQLiteStore.CreateUser: duplicate user", "username", u.Username)
			return 0, models.ErrDuplicateUser
		}
		slog.Error("SQLiteStore.CreateUser failed", "error", err, "username", u.Username)
		return 0, fmt.Errorf("failed to insert user %s: %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new user id: %w", err)
	}
	slog.Debug("SQLiteStore.CreateUser succeeded", "id", id, "username", u.Username)
	return id, nil
}

func (s *SQLiteStore) AuthenticateUser(ctx context.Context, username, password string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ? AND password = ?`,
		username, password,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrInvalidCredentials
	}
	if err != nil {
		slog.Error("SQLiteStore.AuthenticateUser failed", "error", err, "username", username)
		return 0, fmt.Errorf("failed to authenticate user %s: %w", username, err)
	}
	return id, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, fullname, password, phone, address, illness, gender, age, imergency_contact
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.Phone, &u.Address, &u.Illness, &u.Gender, &u.Age, &u.EmergencyContact)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore.GetUser failed", "error", err, "id", id)
		return models.User{}, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return u, nil
}

// ListContacts returns the contact directory in insertion order.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, phone FROM contacts ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore.ListContacts query failed", "error", err)
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()
	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.Name, &c.Phone); err != nil {
			slog.Error("SQLiteStore.ListContacts scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore.ListContacts rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate contact rows: %w", err)
	}
	return contacts, nil
}

func (s *SQLiteStore) AddHistory(ctx context.Context, rec models.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (user_id, message, response) VALUES (?, ?, ?)`,
		rec.UserID, rec.Message, rec.Response,
	)
	if err != nil {
		slog.Error("SQLiteStore.AddHistory failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert history record for user %d: %w", rec.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
