package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"paddock.events/internal/auth"
)

func TestUserFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("select .* from admin_users where email").WithArgs("ops@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "password_hash", "active", "created_at", "updated_at"}).
			AddRow("u1", "ops@example.com", "Ops", "staff", "hash", true, now, now))

	user, err := New(db).Users().FindByEmail(context.Background(), "ops@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user.ID != "u1" || user.Role != auth.GlobalStaff || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserFindMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from admin_users where id").WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	if _, err := New(db).Users().Find(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeactivateMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update admin_users set active=false").WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := New(db).Users().Deactivate(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestStaffAssignUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into event_staff").WithArgs("evt-1", "u1", "gate").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = New(db).Staff().Assign(context.Background(), auth.StaffAssignment{
		EventID: "evt-1", AdminUserID: "u1", Role: auth.RoleGate,
	})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRevokeMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update sessions set revoked=true").WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := New(db).Sessions().Revoke(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
