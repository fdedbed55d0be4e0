package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	StreamDoctor  = "notifications:doctor"
	StreamPatient = "notifications:patient"

	// maxStreamLen caps each stream so an absent consumer cannot grow
	// Redis without bound.
	maxStreamLen = 10000
)

// StreamDispatcher publishes notification events onto Redis Streams.
// Delivery workers (email, WhatsApp, push) consume them elsewhere.
type StreamDispatcher struct {
	client *redis.Client
}

func NewStreamDispatcher(client *redis.Client) *StreamDispatcher {
	return &StreamDispatcher{client: client}
}

func (d *StreamDispatcher) DoctorAssigned(ctx context.Context, ev DoctorAssignedEvent) error {
	return d.publish(ctx, StreamDoctor, "doctor_assigned", ev)
}

func (d *StreamDispatcher) PatientConfirmed(ctx context.Context, ev PatientConfirmedEvent) error {
	return d.publish(ctx, StreamPatient, "patient_confirmed", ev)
}

func (d *StreamDispatcher) publish(ctx context.Context, stream, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	err = d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"type":    eventType,
			"payload": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}

	return nil
}
