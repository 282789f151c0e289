package pg

import (
	"context"
	"database/sql"
	"errors"

	"paddock.events/internal/auth"
)

type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, admin_user_id, token_hash, expires_at, created_at, revoked)
		 values($1,$2,$3,$4,$5,$6)`,
		sess.ID, sess.AdminUserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt, sess.Revoked,
	)
	return err
}

func (s *sessionStore) Find(ctx context.Context, id string) (*auth.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, admin_user_id, token_hash, expires_at, created_at, revoked from sessions where id=$1`, id)
	var sess auth.Session
	err := row.Scan(&sess.ID, &sess.AdminUserID, &sess.TokenHash, &sess.ExpiresAt, &sess.CreatedAt, &sess.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *sessionStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update sessions set revoked=true where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *sessionStore) RevokeByUser(ctx context.Context, adminUserID string) error {
	_, err := s.db.ExecContext(ctx, `update sessions set revoked=true where admin_user_id=$1`, adminUserID)
	return err
}
