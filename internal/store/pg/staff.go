package pg

import (
	"context"
	"database/sql"
	"errors"

	"paddock.events/internal/auth"
)

type staffStore struct{ db *sql.DB }

func (s *staffStore) Assign(ctx context.Context, a auth.StaffAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`insert into event_staff(event_id, admin_user_id, role)
		 values($1,$2,$3)
		 on conflict (event_id, admin_user_id) do update set role = excluded.role`,
		a.EventID, a.AdminUserID, string(a.Role),
	)
	return err
}

func (s *staffStore) Remove(ctx context.Context, eventID, adminUserID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from event_staff where event_id=$1 and admin_user_id=$2`, eventID, adminUserID)
	return err
}

func (s *staffStore) Find(ctx context.Context, eventID, adminUserID string) (*auth.StaffAssignment, error) {
	row := s.db.QueryRowContext(ctx,
		`select event_id, admin_user_id, role, created_at from event_staff
		 where event_id=$1 and admin_user_id=$2`, eventID, adminUserID)
	var (
		a    auth.StaffAssignment
		role string
	)
	err := row.Scan(&a.EventID, &a.AdminUserID, &role, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = auth.EventRole(role)
	return &a, nil
}

func (s *staffStore) ListByEvent(ctx context.Context, eventID string) ([]auth.StaffAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select event_id, admin_user_id, role, created_at from event_staff
		 where event_id=$1 order by created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.StaffAssignment
	for rows.Next() {
		var (
			a    auth.StaffAssignment
			role string
		)
		if err := rows.Scan(&a.EventID, &a.AdminUserID, &role, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = auth.EventRole(role)
		out = append(out, a)
	}
	return out, rows.Err()
}
