package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const appointmentColumns = `
	id, patient_id, patient_name, patient_location, date, clock_time, mode,
	symptoms, status, doctor_id, doctor_name, doctor_specialization,
	assignment_type, assigned_by, assigned_at, assignment_warning,
	prev_doctor_id, prev_doctor_name, reassign_reason, reassigned_at,
	created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.PatientLocation,
		&a.Date,
		&a.ClockTime,
		&a.Mode,
		&a.Symptoms,
		&a.Status,
		&a.DoctorID,
		&a.DoctorName,
		&a.DoctorSpecialization,
		&a.AssignmentType,
		&a.AssignedBy,
		&a.AssignedAt,
		&a.AssignmentWarning,
		&a.PrevDoctorID,
		&a.PrevDoctorName,
		&a.ReassignReason,
		&a.ReassignedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDoctor(row pgx.Row) (*Practitioner, error) {
	var p Practitioner

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialization,
		&p.Status,
		&p.Location.Area,
		&p.Location.City,
		&p.Location.State,
		&p.Location.Pincode,
		&p.Location.FullAddress,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if p.Specialization == "" {
		p.Specialization = SpecGeneral
	}
	return &p, nil
}

func scanSchedule(row pgx.Row) (*WorkingSchedule, error) {
	var s WorkingSchedule

	err := row.Scan(
		&s.DoctorID,
		&s.Days[time.Sunday],
		&s.Days[time.Monday],
		&s.Days[time.Tuesday],
		&s.Days[time.Wednesday],
		&s.Days[time.Thursday],
		&s.Days[time.Friday],
		&s.Days[time.Saturday],
		&s.StartTime,
		&s.EndTime,
		&s.BreakStart,
		&s.BreakEnd,
		&s.SlotMinutes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	return &s, nil
}

// Interface methods

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND date = $2
		  AND status <> 'cancelled'
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListUnassignedPending(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND doctor_id IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialization, status, area, city, state, pincode, full_address, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListApprovedDoctors(ctx context.Context) ([]Practitioner, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, specialization, status, area, city, state, pincode, full_address, created_at, updated_at
		FROM practitioners
		WHERE status = 'approved'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Practitioner
	for rows.Next() {
		p, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

const scheduleColumns = `
	doctor_id, sunday, monday, tuesday, wednesday, thursday, friday, saturday,
	start_time, end_time, break_start, break_end, slot_minutes, created_at, updated_at`

func (r *PgRepository) GetScheduleByDoctor(ctx context.Context, doctorID uuid.UUID) (*WorkingSchedule, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM working_schedules
		WHERE doctor_id = $1
	`, doctorID)
	return scanSchedule(row)
}

func (r *PgRepository) ListSchedules(ctx context.Context) (map[uuid.UUID]*WorkingSchedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM working_schedules
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*WorkingSchedule)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result[s.DoctorID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// AssignDoctor is the compare-and-set commit: the UPDATE only matches while
// the appointment is still pending and unassigned, so two concurrent
// assigners cannot both win.
func (r *PgRepository) AssignDoctor(ctx context.Context, apptID uuid.UUID, rec AssignmentRecord) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    doctor_name = $3,
		    doctor_specialization = $4,
		    assignment_type = $5,
		    assigned_by = $6,
		    assigned_at = $7,
		    assignment_warning = $8,
		    status = 'confirmed',
		    updated_at = now()
		WHERE id = $1
		  AND doctor_id IS NULL
		  AND status = 'pending'
		RETURNING `+appointmentColumns+`
	`, apptID, rec.DoctorID, rec.DoctorName, rec.DoctorSpecialization,
		rec.Type, rec.AssignedBy, rec.AssignedAt, rec.Warning)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrAssignConflict
	}
	return appt, err
}

// ReassignDoctor conditions the swap on the previous practitioner still
// holding the appointment, keeping the audit fields in the same write.
func (r *PgRepository) ReassignDoctor(ctx context.Context, apptID uuid.UUID, rec ReassignmentRecord) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    doctor_name = $3,
		    doctor_specialization = $4,
		    assignment_type = $5,
		    assigned_by = $6,
		    assigned_at = $7,
		    assignment_warning = $8,
		    prev_doctor_id = $9,
		    prev_doctor_name = $10,
		    reassign_reason = $11,
		    reassigned_at = $12,
		    updated_at = now()
		WHERE id = $1
		  AND doctor_id = $9
		  AND status IN ('pending', 'confirmed')
		RETURNING `+appointmentColumns+`
	`, apptID, rec.DoctorID, rec.DoctorName, rec.DoctorSpecialization,
		rec.Type, rec.AssignedBy, rec.AssignedAt, rec.Warning,
		rec.PrevDoctorID, rec.PrevDoctorName, rec.Reason, rec.ReassignedAt)

	appt, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		return nil, ErrAssignConflict
	}
	return appt, err
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
