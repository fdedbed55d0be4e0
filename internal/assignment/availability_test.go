package assignment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdaySchedule(doctorID uuid.UUID) *WorkingSchedule {
	s := &WorkingSchedule{
		DoctorID:    doctorID,
		StartTime:   "09:00",
		EndTime:     "17:00",
		BreakStart:  "13:00",
		BreakEnd:    "14:00",
		SlotMinutes: 30,
	}
	for d := time.Monday; d <= time.Friday; d++ {
		s.Days[d] = true
	}
	return s
}

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

func TestFilterAvailableBuckets(t *testing.T) {
	scheduled := Practitioner{ID: uuid.New(), Name: "Dr. Scheduled", Status: DoctorApproved}
	unscheduled := Practitioner{ID: uuid.New(), Name: "Dr. Unscheduled", Status: DoctorApproved}

	schedules := map[uuid.UUID]*WorkingSchedule{
		scheduled.ID: weekdaySchedule(scheduled.ID),
	}

	buckets := FilterAvailable(wednesday, "10:00", ModeClinic,
		[]Practitioner{scheduled, unscheduled}, schedules, nil)

	require.Len(t, buckets.Available, 1)
	assert.Equal(t, scheduled.ID, buckets.Available[0].ID)
	require.Len(t, buckets.NoSchedule, 1)
	assert.Equal(t, unscheduled.ID, buckets.NoSchedule[0].ID)
}

func TestFilterAvailableDayDisabled(t *testing.T) {
	doc := Practitioner{ID: uuid.New()}
	schedules := map[uuid.UUID]*WorkingSchedule{doc.ID: weekdaySchedule(doc.ID)}

	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := FilterAvailable(sunday, "10:00", ModeClinic, []Practitioner{doc}, schedules, nil)

	assert.Empty(t, buckets.Available)
	assert.Empty(t, buckets.NoSchedule)
}

func TestFilterAvailableOutsideHours(t *testing.T) {
	doc := Practitioner{ID: uuid.New()}
	schedules := map[uuid.UUID]*WorkingSchedule{doc.ID: weekdaySchedule(doc.ID)}

	for _, clock := range []string{"08:59", "17:01", "22:00"} {
		buckets := FilterAvailable(wednesday, clock, ModeClinic, []Practitioner{doc}, schedules, nil)
		assert.Empty(t, buckets.Available, "time %s is outside working hours", clock)
	}

	buckets := FilterAvailable(wednesday, "17:00", ModeClinic, []Practitioner{doc}, schedules, nil)
	assert.Len(t, buckets.Available, 1, "end of window is inclusive")
}

func TestFilterAvailableBreakWindow(t *testing.T) {
	doc := Practitioner{ID: uuid.New()}
	schedules := map[uuid.UUID]*WorkingSchedule{doc.ID: weekdaySchedule(doc.ID)}

	buckets := FilterAvailable(wednesday, "13:30", ModeClinic, []Practitioner{doc}, schedules, nil)
	assert.Empty(t, buckets.Available, "13:30 falls inside the 13:00-14:00 break")

	buckets = FilterAvailable(wednesday, "14:00", ModeClinic, []Practitioner{doc}, schedules, nil)
	assert.Len(t, buckets.Available, 1, "break end is exclusive")
}

func TestFilterAvailableConflictExcludes(t *testing.T) {
	doc := Practitioner{ID: uuid.New()}
	schedules := map[uuid.UUID]*WorkingSchedule{doc.ID: weekdaySchedule(doc.ID)}
	appts := map[uuid.UUID][]Appointment{
		doc.ID: {appt("10:00", ModeClinic, StatusConfirmed)},
	}

	buckets := FilterAvailable(wednesday, "10:00", ModeClinic, []Practitioner{doc}, schedules, appts)
	assert.Empty(t, buckets.Available)

	buckets = FilterAvailable(wednesday, "10:30", ModeClinic, []Practitioner{doc}, schedules, appts)
	assert.Len(t, buckets.Available, 1, "back-to-back clinic visits are fine")
}
