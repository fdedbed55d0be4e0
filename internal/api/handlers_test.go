package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalbook/doctor-assignment/internal/assignment"
)

type stubService struct {
	autoAssign   func(ctx context.Context, apptID uuid.UUID) (*assignment.Appointment, error)
	manualAssign func(ctx context.Context, apptID, doctorID uuid.UUID, actorID string) (*assignment.Appointment, error)
	reassign     func(ctx context.Context, apptID, newDoctorID uuid.UUID, actorID, reason string) (*assignment.Appointment, error)
	batchAssign  func(ctx context.Context) (assignment.BatchSummary, error)
	candidates   func(ctx context.Context, apptID uuid.UUID) ([]assignment.MatchResult, error)
	get          func(ctx context.Context, id uuid.UUID) (*assignment.Appointment, error)
}

func (s *stubService) AutoAssign(ctx context.Context, apptID uuid.UUID) (*assignment.Appointment, error) {
	return s.autoAssign(ctx, apptID)
}

func (s *stubService) ManualAssign(ctx context.Context, apptID, doctorID uuid.UUID, actorID string) (*assignment.Appointment, error) {
	return s.manualAssign(ctx, apptID, doctorID, actorID)
}

func (s *stubService) Reassign(ctx context.Context, apptID, newDoctorID uuid.UUID, actorID, reason string) (*assignment.Appointment, error) {
	return s.reassign(ctx, apptID, newDoctorID, actorID, reason)
}

func (s *stubService) BatchAssign(ctx context.Context) (assignment.BatchSummary, error) {
	return s.batchAssign(ctx)
}

func (s *stubService) Candidates(ctx context.Context, apptID uuid.UUID) ([]assignment.MatchResult, error) {
	return s.candidates(ctx, apptID)
}

func (s *stubService) GetAppointment(ctx context.Context, id uuid.UUID) (*assignment.Appointment, error) {
	return s.get(ctx, id)
}

func confirmedAppointment(doctorID uuid.UUID) *assignment.Appointment {
	now := time.Now()
	return &assignment.Appointment{
		ID:             uuid.New(),
		PatientID:      uuid.New(),
		PatientName:    "Anita",
		Date:           time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		ClockTime:      "10:00",
		Mode:           assignment.ModeVirtual,
		Status:         assignment.StatusConfirmed,
		DoctorID:       &doctorID,
		DoctorName:     "Dr. A",
		AssignmentType: assignment.AssignmentAuto,
		AssignedAt:     &now,
	}
}

func TestAutoAssignHandler(t *testing.T) {
	doctorID := uuid.New()
	svc := &stubService{
		autoAssign: func(_ context.Context, apptID uuid.UUID) (*assignment.Appointment, error) {
			return confirmedAppointment(doctorID), nil
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/assign", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, "Dr. A", resp.DoctorName)
	require.NotNil(t, resp.DoctorID)
	assert.Equal(t, doctorID.String(), *resp.DoctorID)
}

func TestAutoAssignHandlerInvalidID(t *testing.T) {
	svc := &stubService{}
	r := httptest.NewRequest(http.MethodPost, "/appointments/not-a-uuid/assign", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutoAssignHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", assignment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
		{"no doctors", assignment.ErrNoDoctorsAvailable, http.StatusConflict, "no_doctors_available"},
		{"slot taken", assignment.ErrSlotJustTaken, http.StatusConflict, "slot_just_taken"},
		{"closed", assignment.ErrAppointmentClosed, http.StatusConflict, "appointment_closed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				autoAssign: func(_ context.Context, _ uuid.UUID) (*assignment.Appointment, error) {
					return nil, tt.err
				},
			}
			r := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/assign", nil)
			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestManualAssignHandler(t *testing.T) {
	doctorID := uuid.New()
	var gotActor string
	svc := &stubService{
		manualAssign: func(_ context.Context, _, docID uuid.UUID, actorID string) (*assignment.Appointment, error) {
			gotActor = actorID
			return confirmedAppointment(docID), nil
		},
	}

	body, _ := json.Marshal(ManualAssignRequest{DoctorID: doctorID.String(), ActorID: "admin-7"})
	r := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/assign/manual", bytes.NewReader(body))
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-7", gotActor)
}

func TestManualAssignHandlerValidation(t *testing.T) {
	svc := &stubService{}

	body, _ := json.Marshal(ManualAssignRequest{DoctorID: "nope", ActorID: "admin"})
	r := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/assign/manual", bytes.NewReader(body))
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, _ = json.Marshal(ManualAssignRequest{DoctorID: uuid.NewString()})
	r = httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/assign/manual", bytes.NewReader(body))
	w = httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing actor_id")
}

func TestBatchAssignHandler(t *testing.T) {
	svc := &stubService{
		batchAssign: func(_ context.Context) (assignment.BatchSummary, error) {
			return assignment.BatchSummary{Total: 2, Assigned: 1, Failed: 1}, nil
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/assignments/batch", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp assignment.BatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Assigned)
	assert.Equal(t, 1, resp.Failed)
}

func TestCandidatesHandler(t *testing.T) {
	svc := &stubService{
		candidates: func(_ context.Context, _ uuid.UUID) ([]assignment.MatchResult, error) {
			return []assignment.MatchResult{{
				Doctor:              assignment.Practitioner{ID: uuid.New(), Name: "Dr. A", Specialization: assignment.SpecOrthodontist},
				SpecializationScore: 5,
				AreaScore:           10,
				DistanceScore:       1,
				Composite:           5.3,
			}}, nil
		},
	}

	r := httptest.NewRequest(http.MethodGet, "/appointments/"+uuid.NewString()+"/candidates", nil)
	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []CandidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Dr. A", resp[0].DoctorName)
	assert.InDelta(t, 5.3, resp[0].CompositeScore, 1e-9)
}

// newTestRouter builds the assignment routes around a stub service without
// the health endpoints (no live Postgres/Redis in unit tests).
func newTestRouter(svc AssignmentService) http.Handler {
	r := chi.NewRouter()
	r.Get("/appointments/{id}", getAppointmentHandler(svc))
	r.Get("/appointments/{id}/candidates", candidatesHandler(svc))
	r.Post("/appointments/{id}/assign", autoAssignHandler(svc))
	r.Post("/appointments/{id}/assign/manual", manualAssignHandler(svc))
	r.Post("/appointments/{id}/reassign", reassignHandler(svc))
	r.Post("/assignments/batch", batchAssignHandler(svc))
	return r
}
