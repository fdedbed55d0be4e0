package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrScheduleNotFound    = errors.New("schedule not found")

	// ErrAssignConflict means the conditional assignment write matched zero
	// rows: another request took the appointment first, or its status moved.
	ErrAssignConflict = errors.New("appointment was assigned concurrently")
)

// AssignmentRecord carries the fields written when a doctor is committed to
// an appointment.
type AssignmentRecord struct {
	DoctorID             uuid.UUID
	DoctorName           string
	DoctorSpecialization Specialization
	Type                 AssignmentType
	AssignedBy           string
	Warning              string
	AssignedAt           time.Time
}

// ReassignmentRecord extends an assignment with the audit trail of the
// practitioner being replaced.
type ReassignmentRecord struct {
	AssignmentRecord
	PrevDoctorID   uuid.UUID
	PrevDoctorName string
	Reason         string
	ReassignedAt   time.Time
}

// Repository contains all store interactions needed by the orchestrator.
type Repository interface {
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListByDoctorAndDate returns a practitioner's non-cancelled
	// appointments on a calendar date, for conflict checking.
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// ListUnassignedPending feeds the batch assigner.
	ListUnassignedPending(ctx context.Context) ([]Appointment, error)

	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	ListApprovedDoctors(ctx context.Context) ([]Practitioner, error)

	GetScheduleByDoctor(ctx context.Context, doctorID uuid.UUID) (*WorkingSchedule, error)
	ListSchedules(ctx context.Context) (map[uuid.UUID]*WorkingSchedule, error)

	// AssignDoctor commits an assignment with a compare-and-set predicate:
	// the row must still be pending and unassigned. A zero-row update is
	// reported as ErrAssignConflict.
	AssignDoctor(ctx context.Context, apptID uuid.UUID, rec AssignmentRecord) (*Appointment, error)

	// ReassignDoctor swaps the assigned practitioner, conditioned on the
	// previous assignment still being in place.
	ReassignDoctor(ctx context.Context, apptID uuid.UUID, rec ReassignmentRecord) (*Appointment, error)

	// InsertEvent records an audit event; callers treat failure as
	// non-fatal.
	InsertEvent(ctx context.Context, ev EventLog) error
}
