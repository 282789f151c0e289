package pg

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"paddock.events/internal/auth"
)

// Store implements the auth, registration and audit persistence interfaces
// on PostgreSQL. The pool is constructed explicitly and owned by the caller;
// there is no process-wide lazily created handle.
type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)

// Open dials PostgreSQL with tuned pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle (tests use sqlmock here).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Users() auth.UserStore       { return &userStore{db: s.db} }
func (s *Store) Sessions() auth.SessionStore { return &sessionStore{db: s.db} }
func (s *Store) Staff() auth.StaffStore      { return &staffStore{db: s.db} }

// Registrations returns the registration store view.
func (s *Store) Registrations() *RegistrationStore { return &RegistrationStore{db: s.db} }

// Audit returns the append-only audit store view.
func (s *Store) Audit() *AuditStore { return &AuditStore{db: s.db} }
