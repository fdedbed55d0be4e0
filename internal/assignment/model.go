package assignment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type VisitMode string

const (
	ModeVirtual VisitMode = "virtual"
	ModeHome    VisitMode = "home"
	ModeClinic  VisitMode = "clinic"
)

// ValidVisitMode reports whether m is one of the supported modes.
func ValidVisitMode(m VisitMode) bool {
	switch m {
	case ModeVirtual, ModeHome, ModeClinic:
		return true
	}
	return false
}

type AssignmentType string

const (
	AssignmentAuto   AssignmentType = "auto"
	AssignmentManual AssignmentType = "manual"
)

type DoctorStatus string

const (
	DoctorApproved DoctorStatus = "approved"
	DoctorPending  DoctorStatus = "pending"
	DoctorRejected DoctorStatus = "rejected"
)

// Location is a free-text location descriptor; any subset of fields may be
// present (empty string means absent).
type Location struct {
	Area        string
	City        string
	State       string
	Pincode     string
	FullAddress string
}

// Empty reports whether no location information is present at all.
func (l Location) Empty() bool {
	return l.Area == "" && l.City == "" && l.State == "" && l.Pincode == "" && l.FullAddress == ""
}

type Practitioner struct {
	ID             uuid.UUID
	Name           string
	Specialization Specialization
	Status         DoctorStatus
	Location       Location
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkingSchedule is a practitioner's declared weekly availability. Days is
// indexed by time.Weekday (Sunday = 0). A practitioner may have no schedule
// at all, which the availability filter treats as a last-resort bucket.
type WorkingSchedule struct {
	DoctorID    uuid.UUID
	Days        [7]bool
	StartTime   string // "09:00"
	EndTime     string // "17:00"
	BreakStart  string // optional, "" when no break
	BreakEnd    string
	SlotMinutes int // informational slot granularity
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	PatientName     string
	PatientLocation string
	Date            time.Time // calendar date, time-of-day ignored
	ClockTime       string    // requested clock time, e.g. "10:00"
	Mode            VisitMode
	Symptoms        string
	Status          AppointmentStatus

	DoctorID             *uuid.UUID
	DoctorName           string
	DoctorSpecialization Specialization
	AssignmentType       AssignmentType
	AssignedBy           string
	AssignedAt           *time.Time
	AssignmentWarning    string

	PrevDoctorID   *uuid.UUID
	PrevDoctorName string
	ReassignReason string
	ReassignedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assigned reports whether a doctor is currently attached.
func (a *Appointment) Assigned() bool {
	return a.DoctorID != nil
}

// Closed reports whether the appointment can no longer accept assignment.
func (a *Appointment) Closed() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

// ConflictRule holds the exclusivity buffers applied around an appointment
// of a given visit mode, in minutes.
type ConflictRule struct {
	BlockBefore int
	BlockAfter  int
}

// Home visits reserve two hours of travel either side; virtual and clinic
// visits only collide on the exact slot.
var conflictRules = map[VisitMode]ConflictRule{
	ModeHome:    {BlockBefore: 120, BlockAfter: 120},
	ModeVirtual: {BlockBefore: 0, BlockAfter: 0},
	ModeClinic:  {BlockBefore: 0, BlockAfter: 0},
}

// RuleFor returns the buffer rule for a visit mode. Unknown modes get the
// zero rule (exact-time collision only).
func RuleFor(mode VisitMode) ConflictRule {
	return conflictRules[mode]
}

// MatchResult pairs a candidate practitioner with its scoring breakdown.
// It is ephemeral ranking output, never persisted.
type MatchResult struct {
	Doctor               Practitioner
	SpecializationScore  int
	MatchedKeywords      []string
	AreaScore            int
	AreaReason           string
	DistanceKm           *float64
	DistanceScore        int
	Composite            float64
}

// EventLog is a best-effort audit record of assignment activity.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
