package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dentalbook/doctor-assignment/internal/config"
	"github.com/dentalbook/doctor-assignment/internal/notify"
	redisclient "github.com/dentalbook/doctor-assignment/internal/redis"
	"github.com/dentalbook/doctor-assignment/internal/timeutil"
)

const (
	EventDoctorAssigned   = "DOCTOR_ASSIGNED"
	EventDoctorReassigned = "DOCTOR_REASSIGNED"
	EventAssignmentFailed = "ASSIGNMENT_FAILED"
	EventBatchRun         = "BATCH_RUN"

	noScheduleWarning = "assigned to practitioner without a declared schedule"
)

var (
	ErrNoDoctorsAvailable = errors.New("no doctors available for the requested slot")
	ErrDoctorNotApproved  = errors.New("doctor is not approved")
	ErrScheduleConflict   = errors.New("doctor has a conflicting appointment")
	ErrOutsideHours       = errors.New("requested time is outside the doctor's working hours")
	ErrAlreadyAssigned    = errors.New("appointment already has an assigned doctor")
	ErrNotAssigned        = errors.New("appointment has no assigned doctor to replace")
	ErrAppointmentClosed  = errors.New("appointment is cancelled or completed")
	ErrSlotJustTaken      = errors.New("slot was just taken, please retry")
)

// Service orchestrates doctor assignment: automatic, manual, reassignment
// and batch. One assignment request is handled synchronously end to end;
// concurrent requests racing for the same practitioner are serialized by the
// per doctor day lock and finally arbitrated by the repository's
// compare-and-set write.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	ranker   *Ranker
	notifier notify.Notifier
	cfg      config.Config
}

func NewService(repo Repository, locker redisclient.Locker, ranker *Ranker, notifier notify.Notifier, cfg config.Config) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		ranker:   ranker,
		notifier: notifier,
		cfg:      cfg,
	}
}

// BatchItem is one appointment's outcome inside a batch run.
type BatchItem struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Assigned      bool      `json:"assigned"`
	DoctorName    string    `json:"doctor_name,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// BatchSummary aggregates a batch run; individual failures never abort it.
type BatchSummary struct {
	Total    int         `json:"total"`
	Assigned int         `json:"assigned"`
	Failed   int         `json:"failed"`
	Items    []BatchItem `json:"items"`
}

// AutoAssign picks the best available practitioner for a pending
// appointment and commits the assignment. Calling it on an already assigned
// appointment is an idempotent success.
func (s *Service) AutoAssign(ctx context.Context, apptID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, apptID)
	if err != nil {
		return nil, err
	}

	if appt.Assigned() {
		return appt, nil
	}
	if appt.Closed() {
		return nil, fmt.Errorf("%w: status=%s", ErrAppointmentClosed, appt.Status)
	}
	if _, err := timeutil.ToMinutes(appt.ClockTime); err != nil {
		return nil, err
	}

	doctors, err := s.repo.ListApprovedDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	if len(doctors) == 0 {
		return nil, ErrNoDoctorsAvailable
	}

	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	patientLoc := ParseLocation(appt.PatientLocation)

	// Bounded retry: a lost race re-runs the availability check with fresh
	// appointment state and the losing doctor excluded.
	excluded := make(map[uuid.UUID]bool)
	for attempt := 0; attempt <= s.cfg.AssignMaxRetries; attempt++ {
		candidates := make([]Practitioner, 0, len(doctors))
		for _, d := range doctors {
			if !excluded[d.ID] {
				candidates = append(candidates, d)
			}
		}

		apptsByDoctor, err := s.loadDayAppointments(ctx, candidates, appt.Date)
		if err != nil {
			return nil, err
		}

		buckets := FilterAvailable(appt.Date, appt.ClockTime, appt.Mode, candidates, schedules, apptsByDoctor)

		var pick *Practitioner
		warning := ""
		switch {
		case len(buckets.Available) > 0:
			ranked := s.ranker.Rank(ctx, buckets.Available, patientLoc, appt.Symptoms)
			pick = &ranked[0].Doctor
		case len(buckets.NoSchedule) > 0:
			// Degraded path: no schedule-satisfying candidate exists, fall
			// back to the first conflict-free practitioner without a
			// declared schedule.
			for i := range buckets.NoSchedule {
				d := buckets.NoSchedule[i]
				if _, blocked := CheckConflict(apptsByDoctor[d.ID], appt.ClockTime, appt.Mode); !blocked {
					pick = &d
					warning = noScheduleWarning
					break
				}
			}
		}
		if pick == nil {
			s.logFailure(ctx, appt.ID, "no doctors available")
			return nil, ErrNoDoctorsAvailable
		}

		rec := AssignmentRecord{
			DoctorID:             pick.ID,
			DoctorName:           pick.Name,
			DoctorSpecialization: pick.Specialization,
			Type:                 AssignmentAuto,
			AssignedBy:           "system",
			Warning:              warning,
			AssignedAt:           time.Now(),
		}

		updated, err := s.commit(ctx, appt, *pick, rec)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, ErrAlreadyAssigned) {
			// The appointment itself was taken by a concurrent request;
			// report the stored state as an idempotent success.
			cur, gerr := s.repo.GetAppointmentByID(ctx, apptID)
			if gerr != nil {
				return nil, gerr
			}
			if cur.Assigned() {
				return cur, nil
			}
			// CAS miss without an assignment means the status moved under
			// us (e.g. cancelled mid-flight).
			return nil, ErrSlotJustTaken
		}
		if errors.Is(err, ErrScheduleConflict) || errors.Is(err, redisclient.ErrLockNotAcquired) {
			excluded[pick.ID] = true
			continue
		}
		return nil, err
	}

	s.logFailure(ctx, appt.ID, "retries exhausted")
	return nil, ErrSlotJustTaken
}

// ManualAssign attaches a chosen practitioner picked by a human actor. The
// practitioner must be approved and conflict-free; a declared schedule is
// honored when present but its absence does not block a manual choice.
func (s *Service) ManualAssign(ctx context.Context, apptID, doctorID uuid.UUID, actorID string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.Closed() {
		return nil, fmt.Errorf("%w: status=%s", ErrAppointmentClosed, appt.Status)
	}
	if appt.Assigned() {
		if *appt.DoctorID == doctorID {
			return appt, nil
		}
		return nil, ErrAlreadyAssigned
	}
	if _, err := timeutil.ToMinutes(appt.ClockTime); err != nil {
		return nil, err
	}

	doctor, err := s.validateDoctor(ctx, doctorID, appt)
	if err != nil {
		return nil, err
	}

	rec := AssignmentRecord{
		DoctorID:             doctor.ID,
		DoctorName:           doctor.Name,
		DoctorSpecialization: doctor.Specialization,
		Type:                 AssignmentManual,
		AssignedBy:           actorID,
		AssignedAt:           time.Now(),
	}

	updated, err := s.commit(ctx, appt, *doctor, rec)
	if errors.Is(err, ErrAlreadyAssigned) {
		return nil, ErrSlotJustTaken
	}
	return updated, err
}

// Reassign replaces the assigned practitioner, keeping the previous one on
// record for audit.
func (s *Service) Reassign(ctx context.Context, apptID, newDoctorID uuid.UUID, actorID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.Closed() {
		return nil, fmt.Errorf("%w: status=%s", ErrAppointmentClosed, appt.Status)
	}
	if !appt.Assigned() {
		return nil, ErrNotAssigned
	}
	if *appt.DoctorID == newDoctorID {
		return appt, nil
	}

	doctor, err := s.validateDoctor(ctx, newDoctorID, appt)
	if err != nil {
		return nil, err
	}

	rec := ReassignmentRecord{
		AssignmentRecord: AssignmentRecord{
			DoctorID:             doctor.ID,
			DoctorName:           doctor.Name,
			DoctorSpecialization: doctor.Specialization,
			Type:                 AssignmentManual,
			AssignedBy:           actorID,
			AssignedAt:           time.Now(),
		},
		PrevDoctorID:   *appt.DoctorID,
		PrevDoctorName: appt.DoctorName,
		Reason:         reason,
		ReassignedAt:   time.Now(),
	}

	var updated *Appointment
	err = s.locker.WithDoctorDayLock(ctx, doctor.ID, appt.Date, func(lockCtx context.Context) error {
		existing, err := s.repo.ListByDoctorAndDate(lockCtx, doctor.ID, appt.Date)
		if err != nil {
			return fmt.Errorf("load doctor appointments: %w", err)
		}
		if conflict, blocked := CheckConflict(existing, appt.ClockTime, appt.Mode); blocked {
			return fmt.Errorf("%w: %s", ErrScheduleConflict, conflict.Reason)
		}

		updated, err = s.repo.ReassignDoctor(lockCtx, appt.ID, rec)
		if errors.Is(err, ErrAssignConflict) {
			return ErrSlotJustTaken
		}
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotJustTaken
		}
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventDoctorReassigned, map[string]any{
		"doctor_id":      doctor.ID.String(),
		"prev_doctor_id": rec.PrevDoctorID.String(),
		"reason":         reason,
		"assigned_by":    actorID,
	})
	s.dispatchNotifications(updated)

	return updated, nil
}

// BatchAssign auto-assigns every pending unassigned appointment
// sequentially. Sequential on purpose: it bounds geocoder load and keeps
// each conflict check against a coherent snapshot.
func (s *Service) BatchAssign(ctx context.Context) (BatchSummary, error) {
	pending, err := s.repo.ListUnassignedPending(ctx)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("list pending appointments: %w", err)
	}

	summary := BatchSummary{Total: len(pending)}
	for _, appt := range pending {
		item := BatchItem{AppointmentID: appt.ID}

		updated, err := s.AutoAssign(ctx, appt.ID)
		if err != nil {
			item.Error = err.Error()
			summary.Failed++
		} else {
			item.Assigned = true
			item.DoctorName = updated.DoctorName
			summary.Assigned++
		}
		summary.Items = append(summary.Items, item)

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}

	s.logEvent(ctx, uuid.Nil, EventBatchRun, map[string]any{
		"total":    summary.Total,
		"assigned": summary.Assigned,
		"failed":   summary.Failed,
	})

	return summary, nil
}

// Candidates returns the ranked matches for an appointment without
// committing anything, for preview and admin tooling.
func (s *Service) Candidates(ctx context.Context, apptID uuid.UUID) ([]MatchResult, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if _, err := timeutil.ToMinutes(appt.ClockTime); err != nil {
		return nil, err
	}

	doctors, err := s.repo.ListApprovedDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	apptsByDoctor, err := s.loadDayAppointments(ctx, doctors, appt.Date)
	if err != nil {
		return nil, err
	}

	buckets := FilterAvailable(appt.Date, appt.ClockTime, appt.Mode, doctors, schedules, apptsByDoctor)
	return s.ranker.Rank(ctx, buckets.Available, ParseLocation(appt.PatientLocation), appt.Symptoms), nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// validateDoctor runs the manual-path eligibility checks: the practitioner
// must exist, be approved, and, when a schedule exists, the requested time
// must fall inside it.
func (s *Service) validateDoctor(ctx context.Context, doctorID uuid.UUID, appt *Appointment) (*Practitioner, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Status != DoctorApproved {
		return nil, fmt.Errorf("%w: %s", ErrDoctorNotApproved, doctor.Name)
	}

	sched, err := s.repo.GetScheduleByDoctor(ctx, doctorID)
	switch {
	case errors.Is(err, ErrScheduleNotFound):
		// No declared schedule; allowed on the manual path.
	case err != nil:
		return nil, fmt.Errorf("load schedule: %w", err)
	default:
		if !scheduleAllows(sched, appt.Date.Weekday(), timeutil.MinutesOrZero(appt.ClockTime)) {
			return nil, fmt.Errorf("%w: %s %s", ErrOutsideHours, appt.Date.Format("2006-01-02"), appt.ClockTime)
		}
	}

	return doctor, nil
}

// commit performs the final conflict check and the conditional assignment
// write inside the practitioner's day lock. The lock narrows the race
// window; the repository's compare-and-set predicate is the authoritative
// guard.
func (s *Service) commit(ctx context.Context, appt *Appointment, doctor Practitioner, rec AssignmentRecord) (*Appointment, error) {
	var updated *Appointment

	err := s.locker.WithDoctorDayLock(ctx, doctor.ID, appt.Date, func(lockCtx context.Context) error {
		existing, err := s.repo.ListByDoctorAndDate(lockCtx, doctor.ID, appt.Date)
		if err != nil {
			return fmt.Errorf("load doctor appointments: %w", err)
		}
		if conflict, blocked := CheckConflict(existing, appt.ClockTime, appt.Mode); blocked {
			return fmt.Errorf("%w: %s", ErrScheduleConflict, conflict.Reason)
		}

		updated, err = s.repo.AssignDoctor(lockCtx, appt.ID, rec)
		if errors.Is(err, ErrAssignConflict) {
			return ErrAlreadyAssigned
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, updated.ID, EventDoctorAssigned, map[string]any{
		"doctor_id":       rec.DoctorID.String(),
		"doctor_name":     rec.DoctorName,
		"assignment_type": string(rec.Type),
		"assigned_by":     rec.AssignedBy,
		"warning":         rec.Warning,
	})
	s.dispatchNotifications(updated)

	return updated, nil
}

func (s *Service) loadDayAppointments(ctx context.Context, doctors []Practitioner, date time.Time) (map[uuid.UUID][]Appointment, error) {
	out := make(map[uuid.UUID][]Appointment, len(doctors))
	for _, d := range doctors {
		appts, err := s.repo.ListByDoctorAndDate(ctx, d.ID, date)
		if err != nil {
			return nil, fmt.Errorf("load appointments for doctor %s: %w", d.ID, err)
		}
		out[d.ID] = appts
	}
	return out, nil
}

// dispatchNotifications fires the outbound events after a committed
// assignment. Delivery failures are logged inside the dispatcher and never
// roll anything back.
func (s *Service) dispatchNotifications(appt *Appointment) {
	if s.notifier == nil || appt.DoctorID == nil {
		return
	}

	date := appt.Date.Format("2006-01-02")
	notify.Dispatch(s.notifier, s.cfg.NotifyTimeout,
		notify.DoctorAssignedEvent{
			DoctorID:      *appt.DoctorID,
			DoctorName:    appt.DoctorName,
			AppointmentID: appt.ID,
			PatientName:   appt.PatientName,
			Date:          date,
			ClockTime:     appt.ClockTime,
		},
		notify.PatientConfirmedEvent{
			PatientID:     appt.PatientID,
			AppointmentID: appt.ID,
			DoctorName:    appt.DoctorName,
			Date:          date,
			ClockTime:     appt.ClockTime,
		},
	)
}

func (s *Service) logFailure(ctx context.Context, apptID uuid.UUID, reason string) {
	s.logEvent(ctx, apptID, EventAssignmentFailed, map[string]any{"reason": reason})
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	}
	if appointmentID != uuid.Nil {
		apptID := appointmentID
		ev.AppointmentID = &apptID
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
