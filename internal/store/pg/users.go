package pg

import (
	"context"
	"database/sql"
	"errors"

	"paddock.events/internal/auth"
	"paddock.events/internal/ids"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, email, name, role, password_hash, active, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *auth.AdminUser) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into admin_users(id, email, name, role, password_hash, active) values($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.Active,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.AdminUser, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from admin_users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.AdminUser, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from admin_users where email=$1`, email)
	return scanUser(row)
}

func (s *userStore) Deactivate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update admin_users set active=false, updated_at=now() where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*auth.AdminUser, error) {
	var (
		u    auth.AdminUser
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = auth.GlobalRole(role)
	return &u, nil
}
