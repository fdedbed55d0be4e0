package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dentalbook/doctor-assignment/internal/assignment"
	redisclient "github.com/dentalbook/doctor-assignment/internal/redis"
	"github.com/dentalbook/doctor-assignment/internal/timeutil"
)

// AssignmentService is the orchestrator surface the handlers need.
type AssignmentService interface {
	AutoAssign(ctx context.Context, apptID uuid.UUID) (*assignment.Appointment, error)
	ManualAssign(ctx context.Context, apptID, doctorID uuid.UUID, actorID string) (*assignment.Appointment, error)
	Reassign(ctx context.Context, apptID, newDoctorID uuid.UUID, actorID, reason string) (*assignment.Appointment, error)
	BatchAssign(ctx context.Context) (assignment.BatchSummary, error)
	Candidates(ctx context.Context, apptID uuid.UUID) ([]assignment.MatchResult, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*assignment.Appointment, error)
}

func autoAssignHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := toUUID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.AutoAssign(r.Context(), id)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func manualAssignHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := toUUID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req ManualAssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, ok := toUUID(req.DoctorID)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		if req.ActorID == "" {
			writeError(w, http.StatusBadRequest, "missing_actor_id", "actor_id is required")
			return
		}

		appt, err := svc.ManualAssign(r.Context(), id, doctorID, req.ActorID)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func reassignHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := toUUID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req ReassignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, ok := toUUID(req.DoctorID)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		if req.ActorID == "" {
			writeError(w, http.StatusBadRequest, "missing_actor_id", "actor_id is required")
			return
		}

		appt, err := svc.Reassign(r.Context(), id, doctorID, req.ActorID, req.Reason)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func batchAssignHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.BatchAssign(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "batch_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func candidatesHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := toUUID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		matches, err := svc.Candidates(r.Context(), id)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		out := make([]CandidateResponse, 0, len(matches))
		for _, m := range matches {
			out = append(out, toCandidateResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc AssignmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := toUUID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func handleAssignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assignment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, assignment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, timeutil.ErrInvalidClockTime):
		writeError(w, http.StatusBadRequest, "invalid_clock_time", err.Error())
	case errors.Is(err, assignment.ErrNoDoctorsAvailable):
		writeError(w, http.StatusConflict, "no_doctors_available", err.Error())
	case errors.Is(err, assignment.ErrDoctorNotApproved):
		writeError(w, http.StatusConflict, "doctor_not_approved", err.Error())
	case errors.Is(err, assignment.ErrScheduleConflict):
		writeError(w, http.StatusConflict, "schedule_conflict", err.Error())
	case errors.Is(err, assignment.ErrOutsideHours):
		writeError(w, http.StatusConflict, "outside_working_hours", err.Error())
	case errors.Is(err, assignment.ErrAlreadyAssigned):
		writeError(w, http.StatusConflict, "already_assigned", err.Error())
	case errors.Is(err, assignment.ErrNotAssigned):
		writeError(w, http.StatusConflict, "not_assigned", err.Error())
	case errors.Is(err, assignment.ErrAppointmentClosed):
		writeError(w, http.StatusConflict, "appointment_closed", err.Error())
	case errors.Is(err, assignment.ErrSlotJustTaken),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_just_taken", "slot was just taken, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
