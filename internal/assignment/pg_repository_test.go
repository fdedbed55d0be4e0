package assignment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentCols = []string{
	"id", "patient_id", "patient_name", "patient_location", "date", "clock_time", "mode",
	"symptoms", "status", "doctor_id", "doctor_name", "doctor_specialization",
	"assignment_type", "assigned_by", "assigned_at", "assignment_warning",
	"prev_doctor_id", "prev_doctor_name", "reassign_reason", "reassigned_at",
	"created_at", "updated_at",
}

func appointmentRow(id uuid.UUID, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(appointmentCols).AddRow(
		id, uuid.New(), "Anita", "Koramangala, Bengaluru", now, "10:00", ModeVirtual,
		"crooked teeth", StatusPending, (*uuid.UUID)(nil), "", Specialization(""),
		AssignmentType(""), "", (*time.Time)(nil), "",
		(*uuid.UUID)(nil), "", "", (*time.Time)(nil),
		now, now,
	)
}

func TestGetAppointmentByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments")).
		WithArgs(id).
		WillReturnRows(appointmentRow(id, now))

	appt, err := repo.GetAppointmentByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, appt.ID)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Nil(t, appt.DoctorID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err = repo.GetAppointmentByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestAssignDoctorCAS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	apptID := uuid.New()
	now := time.Now()
	rec := AssignmentRecord{
		DoctorID:             uuid.New(),
		DoctorName:           "Dr. A",
		DoctorSpecialization: SpecOrthodontist,
		Type:                 AssignmentAuto,
		AssignedBy:           "system",
		AssignedAt:           now,
	}

	assigned := pgxmock.NewRows(appointmentCols).AddRow(
		apptID, uuid.New(), "Anita", "Koramangala, Bengaluru", now, "10:00", ModeVirtual,
		"crooked teeth", StatusConfirmed, &rec.DoctorID, rec.DoctorName, rec.DoctorSpecialization,
		rec.Type, rec.AssignedBy, &now, "",
		(*uuid.UUID)(nil), "", "", (*time.Time)(nil),
		now, now,
	)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE appointments")).
		WithArgs(apptID, rec.DoctorID, rec.DoctorName, rec.DoctorSpecialization,
			rec.Type, rec.AssignedBy, rec.AssignedAt, rec.Warning).
		WillReturnRows(assigned)

	appt, err := repo.AssignDoctor(context.Background(), apptID, rec)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
	require.NotNil(t, appt.DoctorID)
	assert.Equal(t, rec.DoctorID, *appt.DoctorID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignDoctorCASMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	apptID := uuid.New()
	rec := AssignmentRecord{DoctorID: uuid.New(), Type: AssignmentAuto, AssignedAt: time.Now()}

	// Zero rows back: the precondition (unassigned, pending) no longer holds.
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE appointments")).
		WithArgs(apptID, rec.DoctorID, rec.DoctorName, rec.DoctorSpecialization,
			rec.Type, rec.AssignedBy, rec.AssignedAt, rec.Warning).
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err = repo.AssignDoctor(context.Background(), apptID, rec)
	assert.ErrorIs(t, err, ErrAssignConflict)
}

func TestInsertEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgRepository(mock)
	apptID := uuid.New()
	ev := EventLog{
		EventType:     EventDoctorAssigned,
		AppointmentID: &apptID,
		Payload:       []byte(`{"doctor_id":"x"}`),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_logs")).
		WithArgs(ev.EventType, ev.AppointmentID, ev.Payload, (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.InsertEvent(context.Background(), ev))
	require.NoError(t, mock.ExpectationsWereMet())
}
