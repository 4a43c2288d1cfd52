package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/errors"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresStore persists documents as rows in a single "documents" table,
// keyed by a generated uuid with the collection path stored alongside.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing database handle. Used directly by tests;
// production code goes through OpenPostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgresStore opens a PostgreSQL-backed document store.
func OpenPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// CreateDocument inserts the fields as a JSONB row and returns the generated
// document id.
func (s *PostgresStore) CreateDocument(ctx context.Context, path CollectionPath, fields map[string]interface{}) (string, error) {
	if err := path.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return "", errors.NewDocumentWriteError(fmt.Errorf("failed to serialize document: %w", err))
	}

	docID := uuid.New().String()
	query := `
		INSERT INTO documents (id, path, fields, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err = s.db.ExecContext(ctx, query,
		docID,
		path.String(),
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return "", errors.NewDocumentWriteError(fmt.Errorf("postgres insert failed: %w", err))
	}

	return docID, nil
}

// Ping tests the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStoreConnectionError(err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
