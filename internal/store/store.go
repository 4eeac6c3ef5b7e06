package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/logger"
	"github.com/eleven-am/coach/internal/mailer"
	"github.com/eleven-am/coach/internal/media"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, letting every query
// helper run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store is the storage core behind the API layer. All operations take the
// caller's owner id explicitly; there is no ambient connection state.
type Store struct {
	db    *sqlx.DB
	media media.Store
	mail  mailer.Mailer
	log   logger.Logger
}

// Option configures optional collaborators.
type Option func(*Store)

// WithMedia wires the media store used for photo uploads.
func WithMedia(m media.Store) Option {
	return func(s *Store) { s.media = m }
}

// WithMailer wires the mailer used for registration emails.
func WithMailer(m mailer.Mailer) Option {
	return func(s *Store) { s.mail = m }
}

// New creates a Store on the given database handle. Without options the media
// store is in-memory and emails are logged only.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		media: media.NewMemoryStore(),
		mail:  mailer.LogMailer{},
		log:   logger.Store(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTransaction executes fn within a transaction, rolling back on error or
// panic and committing otherwise.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// builder returns a select builder with the Postgres placeholder format
// applied, the starting point of every query in this package.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// requireOwner rejects calls without a caller identity.
func requireOwner(op string, ownerID int64) error {
	if ownerID <= 0 {
		return domain.NewError(op, "", domain.ErrUnauthenticated)
	}
	return nil
}
