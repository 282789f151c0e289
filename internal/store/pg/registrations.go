package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paddock.events/internal/ids"
	"paddock.events/internal/registration"
)

// RegistrationStore implements registration.Store on PostgreSQL.
type RegistrationStore struct{ db *sql.DB }

var _ registration.Store = (*RegistrationStore)(nil)

const regColumns = `id, event_id, owner_name, owner_email, coalesce(owner_phone,''),
	vehicle_make, vehicle_model, coalesce(vehicle_year,0), coalesce(plate_number,''),
	status, check_in_status, inspection_status,
	coalesce(registration_number,''), coalesce(rejection_reason,''), coalesce(inspection_reason,''),
	created_at, approved_at, rejected_at, checked_in_at`

func (s *RegistrationStore) CreateEvent(ctx context.Context, ev *registration.Event) error {
	if ev.ID == "" {
		ev.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into events(id, name, code, starts_at, active) values($1,$2,$3,$4,$5)`,
		ev.ID, ev.Name, ev.Code, ev.StartsAt, ev.Active,
	)
	return err
}

func (s *RegistrationStore) FindEvent(ctx context.Context, id string) (*registration.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, code, starts_at, active, created_at from events where id=$1`, id)
	var ev registration.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.Code, &ev.StartsAt, &ev.Active, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registration.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *RegistrationStore) Create(ctx context.Context, r *registration.Registration) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into registrations(id, event_id, owner_name, owner_email, owner_phone,
			vehicle_make, vehicle_model, vehicle_year, plate_number,
			status, check_in_status, inspection_status)
		 values($1,$2,$3,$4,nullif($5,''),$6,$7,nullif($8,0),nullif($9,''),$10,$11,$12)`,
		r.ID, r.EventID, r.OwnerName, r.OwnerEmail, r.OwnerPhone,
		r.VehicleMake, r.VehicleModel, r.VehicleYear, r.PlateNumber,
		string(r.Status), string(r.CheckInStatus), string(r.InspectionStatus),
	)
	return err
}

func (s *RegistrationStore) Find(ctx context.Context, id string) (*registration.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+regColumns+` from registrations where id=$1`, id)
	return scanRegistration(row)
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string, f registration.ListFilter) ([]registration.Registration, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	query := `select ` + regColumns + ` from registrations where event_id=$1`
	args := []any{eventID}
	if f.Status != "" {
		query += ` and status=$2`
		args = append(args, string(f.Status))
	}
	query += fmt.Sprintf(` order by created_at asc limit %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []registration.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *RegistrationStore) CountByStatus(ctx context.Context, eventID string) (registration.Stats, error) {
	row := s.db.QueryRowContext(ctx, `
		select count(*),
			count(*) filter (where status='pending'),
			count(*) filter (where status='approved'),
			count(*) filter (where status='rejected'),
			count(*) filter (where check_in_status='checked_in')
		from registrations where event_id=$1`, eventID)
	var st registration.Stats
	if err := row.Scan(&st.Total, &st.Pending, &st.Approved, &st.Rejected, &st.CheckedIn); err != nil {
		return registration.Stats{}, err
	}
	return st, nil
}

// Approve locks the row, mints the next per-event entry number for first-time
// approvals and applies the status change in one transaction. The number
// column is only ever written through coalesce, so the loser of a concurrent
// approval observes the winner's number instead of overwriting it.
func (s *RegistrationStore) Approve(ctx context.Context, id string) (*registration.Registration, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		eventID string
		number  string
	)
	err = tx.QueryRowContext(ctx,
		`select event_id, coalesce(registration_number,'') from registrations where id=$1 for update`,
		id).Scan(&eventID, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registration.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if number == "" {
		var (
			code string
			seq  int
		)
		err = tx.QueryRowContext(ctx,
			`update events set next_entry_number = next_entry_number + 1 where id=$1
			 returning code, next_entry_number`, eventID).Scan(&code, &seq)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registration.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		number = fmt.Sprintf("%s-%03d", code, seq)
	}

	row := tx.QueryRowContext(ctx,
		`update registrations
		 set status='approved',
		     approved_at=coalesce(approved_at, now()),
		     registration_number=coalesce(registration_number, $2)
		 where id=$1
		 returning `+regColumns, id, number)
	out, err := scanRegistration(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RegistrationStore) Reject(ctx context.Context, id, reason string) (*registration.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`update registrations
		 set status='rejected', rejection_reason=nullif($2,''), rejected_at=now()
		 where id=$1 and status in ('pending','approved')
		 returning `+regColumns, id, reason)
	return s.guarded(ctx, id, row)
}

func (s *RegistrationStore) CheckIn(ctx context.Context, id string) (*registration.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`update registrations
		 set check_in_status='checked_in', inspection_status='passed',
		     inspection_reason=null, checked_in_at=coalesce(checked_in_at, now())
		 where id=$1 and status='approved'
		 returning `+regColumns, id)
	return s.guarded(ctx, id, row)
}

func (s *RegistrationStore) GateReject(ctx context.Context, id, reason string) (*registration.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`update registrations
		 set inspection_status='rejected', inspection_reason=nullif($2,'')
		 where id=$1 and status='approved'
		 returning `+regColumns, id, reason)
	return s.guarded(ctx, id, row)
}

// guarded distinguishes a missed transition guard from a missing row.
func (s *RegistrationStore) guarded(ctx context.Context, id string, row *sql.Row) (*registration.Registration, error) {
	out, err := scanRegistration(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, registration.ErrNotFound) {
		return nil, err
	}
	var one int
	probe := s.db.QueryRowContext(ctx, `select 1 from registrations where id=$1`, id).Scan(&one)
	if errors.Is(probe, sql.ErrNoRows) {
		return nil, registration.ErrNotFound
	}
	if probe != nil {
		return nil, probe
	}
	return nil, registration.ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*registration.Registration, error) {
	var (
		r                               registration.Registration
		status, checkIn, inspection     string
		approvedAt, rejectedAt, checked sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.EventID, &r.OwnerName, &r.OwnerEmail, &r.OwnerPhone,
		&r.VehicleMake, &r.VehicleModel, &r.VehicleYear, &r.PlateNumber,
		&status, &checkIn, &inspection,
		&r.RegistrationNumber, &r.RejectionReason, &r.InspectionReason,
		&r.CreatedAt, &approvedAt, &rejectedAt, &checked,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registration.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = registration.Status(status)
	r.CheckInStatus = registration.CheckInStatus(checkIn)
	r.InspectionStatus = registration.InspectionStatus(inspection)
	if approvedAt.Valid {
		t := approvedAt.Time
		r.ApprovedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		r.RejectedAt = &t
	}
	if checked.Valid {
		t := checked.Time
		r.CheckedInAt = &t
	}
	return &r, nil
}
