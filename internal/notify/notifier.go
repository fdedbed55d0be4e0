package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// DoctorAssignedEvent tells a practitioner they received an appointment.
type DoctorAssignedEvent struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	DoctorName    string    `json:"doctor_name"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	Date          string    `json:"date"`
	ClockTime     string    `json:"clock_time"`
}

// PatientConfirmedEvent tells a patient their appointment is confirmed.
type PatientConfirmedEvent struct {
	PatientID     uuid.UUID `json:"patient_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorName    string    `json:"doctor_name"`
	Date          string    `json:"date"`
	ClockTime     string    `json:"clock_time"`
}

// Notifier hands assignment outcomes to the delivery layer. Implementations
// only enqueue; actual email/WhatsApp/push delivery lives outside this
// service. Failures are the caller's to log and swallow, never to unwind a
// committed assignment.
type Notifier interface {
	DoctorAssigned(ctx context.Context, ev DoctorAssignedEvent) error
	PatientConfirmed(ctx context.Context, ev PatientConfirmedEvent) error
}

// Dispatch fires both notifications for a completed assignment in the
// background. The goroutine gets its own timeout so an abandoned request
// context cannot cancel delivery of an already-committed assignment.
func Dispatch(n Notifier, timeout time.Duration, doctor DoctorAssignedEvent, patient PatientConfirmedEvent) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := n.DoctorAssigned(ctx, doctor); err != nil {
			log.Printf("notify: doctor-assigned for appointment %s failed: %v", doctor.AppointmentID, err)
		}
		if err := n.PatientConfirmed(ctx, patient); err != nil {
			log.Printf("notify: patient-confirmed for appointment %s failed: %v", patient.AppointmentID, err)
		}
	}()
}

// LogNotifier is the fallback used when no delivery backend is configured:
// it just logs what would have been sent.
type LogNotifier struct{}

func (LogNotifier) DoctorAssigned(_ context.Context, ev DoctorAssignedEvent) error {
	log.Printf("notify: doctor_assigned doctor=%s appointment=%s date=%s time=%s",
		ev.DoctorID, ev.AppointmentID, ev.Date, ev.ClockTime)
	return nil
}

func (LogNotifier) PatientConfirmed(_ context.Context, ev PatientConfirmedEvent) error {
	log.Printf("notify: patient_confirmed patient=%s appointment=%s doctor=%s date=%s time=%s",
		ev.PatientID, ev.AppointmentID, ev.DoctorName, ev.Date, ev.ClockTime)
	return nil
}
