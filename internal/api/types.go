package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentalbook/doctor-assignment/internal/assignment"
)

type ManualAssignRequest struct {
	DoctorID string `json:"doctor_id"`
	ActorID  string `json:"actor_id"`
}

type ReassignRequest struct {
	DoctorID string `json:"doctor_id"`
	ActorID  string `json:"actor_id"`
	Reason   string `json:"reason"`
}

type AppointmentResponse struct {
	ID                string     `json:"id"`
	PatientID         string     `json:"patient_id"`
	PatientName       string     `json:"patient_name"`
	Date              string     `json:"date"`
	ClockTime         string     `json:"clock_time"`
	Mode              string     `json:"mode"`
	Status            string     `json:"status"`
	DoctorID          *string    `json:"doctor_id,omitempty"`
	DoctorName        string     `json:"doctor_name,omitempty"`
	Specialization    string     `json:"specialization,omitempty"`
	AssignmentType    string     `json:"assignment_type,omitempty"`
	AssignedBy        string     `json:"assigned_by,omitempty"`
	AssignedAt        *time.Time `json:"assigned_at,omitempty"`
	AssignmentWarning string     `json:"assignment_warning,omitempty"`
	PrevDoctorID      *string    `json:"prev_doctor_id,omitempty"`
	PrevDoctorName    string     `json:"prev_doctor_name,omitempty"`
	ReassignReason    string     `json:"reassign_reason,omitempty"`
}

type CandidateResponse struct {
	DoctorID            string   `json:"doctor_id"`
	DoctorName          string   `json:"doctor_name"`
	Specialization      string   `json:"specialization"`
	SpecializationScore int      `json:"specialization_score"`
	MatchedKeywords     []string `json:"matched_keywords,omitempty"`
	AreaScore           int      `json:"area_score"`
	AreaReason          string   `json:"area_reason"`
	DistanceKm          *float64 `json:"distance_km,omitempty"`
	DistanceScore       int      `json:"distance_score"`
	CompositeScore      float64  `json:"composite_score"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *assignment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                a.ID.String(),
		PatientID:         a.PatientID.String(),
		PatientName:       a.PatientName,
		Date:              a.Date.Format("2006-01-02"),
		ClockTime:         a.ClockTime,
		Mode:              string(a.Mode),
		Status:            string(a.Status),
		DoctorName:        a.DoctorName,
		Specialization:    string(a.DoctorSpecialization),
		AssignmentType:    string(a.AssignmentType),
		AssignedBy:        a.AssignedBy,
		AssignedAt:        a.AssignedAt,
		AssignmentWarning: a.AssignmentWarning,
		PrevDoctorName:    a.PrevDoctorName,
		ReassignReason:    a.ReassignReason,
	}
	if a.DoctorID != nil {
		id := a.DoctorID.String()
		resp.DoctorID = &id
	}
	if a.PrevDoctorID != nil {
		id := a.PrevDoctorID.String()
		resp.PrevDoctorID = &id
	}
	return resp
}

func toCandidateResponse(m assignment.MatchResult) CandidateResponse {
	return CandidateResponse{
		DoctorID:            m.Doctor.ID.String(),
		DoctorName:          m.Doctor.Name,
		Specialization:      string(m.Doctor.Specialization),
		SpecializationScore: m.SpecializationScore,
		MatchedKeywords:     m.MatchedKeywords,
		AreaScore:           m.AreaScore,
		AreaReason:          m.AreaReason,
		DistanceKm:          m.DistanceKm,
		DistanceScore:       m.DistanceScore,
		CompositeScore:      m.Composite,
	}
}

func toUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	return id, err == nil
}
