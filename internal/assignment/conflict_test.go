package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appt(clock string, mode VisitMode, status AppointmentStatus) Appointment {
	return Appointment{ClockTime: clock, Mode: mode, Status: status}
}

func TestCheckConflictNoAppointments(t *testing.T) {
	_, blocked := CheckConflict(nil, "10:00", ModeClinic)
	assert.False(t, blocked)
}

func TestCheckConflictExactTimeAnyModes(t *testing.T) {
	modes := []VisitMode{ModeVirtual, ModeHome, ModeClinic}
	for _, existing := range modes {
		for _, requested := range modes {
			existingList := []Appointment{appt("10:00", existing, StatusConfirmed)}
			conflict, blocked := CheckConflict(existingList, "10:00", requested)
			require.True(t, blocked, "existing=%s requested=%s", existing, requested)
			assert.Contains(t, conflict.Reason, "10:00")
		}
	}
}

func TestCheckConflictExactTimeNormalizesFormat(t *testing.T) {
	existing := []Appointment{appt("2:30 PM", ModeClinic, StatusConfirmed)}
	_, blocked := CheckConflict(existing, "14:30", ModeVirtual)
	assert.True(t, blocked, "2:30 PM and 14:30 are the same minute")
}

func TestCheckConflictBackToBackZeroBuffer(t *testing.T) {
	zeroModes := []VisitMode{ModeVirtual, ModeClinic}
	for _, existing := range zeroModes {
		for _, requested := range zeroModes {
			existingList := []Appointment{appt("10:00", existing, StatusConfirmed)}
			_, blocked := CheckConflict(existingList, "10:30", requested)
			assert.False(t, blocked, "existing=%s requested=%s must allow back-to-back", existing, requested)
		}
	}
}

func TestCheckConflictHomeVisitBuffer(t *testing.T) {
	// Home visit at 12:00 blocks [10:00, 14:00].
	existing := []Appointment{appt("12:00", ModeHome, StatusConfirmed)}

	tests := []struct {
		reqClock string
		blocked  bool
	}{
		{"10:00", true},  // exactly T-120
		{"9:59", false},  // T-121
		{"14:00", true},  // exactly T+120
		{"14:01", false}, // T+121
		{"11:30", true},
		{"12:30", true},
	}
	for _, tt := range tests {
		t.Run(tt.reqClock, func(t *testing.T) {
			_, blocked := CheckConflict(existing, tt.reqClock, ModeClinic)
			assert.Equal(t, tt.blocked, blocked)
		})
	}
}

func TestCheckConflictRequestedHomeBufferCoversExisting(t *testing.T) {
	// Existing clinic visit at 09:00; requesting a home visit at 10:00 whose
	// [08:00, 12:00] window covers it.
	existing := []Appointment{appt("09:00", ModeClinic, StatusConfirmed)}
	conflict, blocked := CheckConflict(existing, "10:00", ModeHome)
	require.True(t, blocked)
	assert.Contains(t, conflict.Reason, "09:00")
}

func TestCheckConflictHomeThenHome(t *testing.T) {
	// Existing home visit at 09:00 blocks until 11:00, so 10:00 conflicts.
	existing := []Appointment{appt("09:00", ModeHome, StatusConfirmed)}
	_, blocked := CheckConflict(existing, "10:00", ModeHome)
	assert.True(t, blocked)

	// 13:30 is outside both buffers (09:00+120=11:00, 13:30-120=11:30).
	_, blocked = CheckConflict(existing, "13:30", ModeHome)
	assert.False(t, blocked)
}

func TestCheckConflictSkipsCancelled(t *testing.T) {
	existing := []Appointment{appt("10:00", ModeHome, StatusCancelled)}
	_, blocked := CheckConflict(existing, "10:00", ModeClinic)
	assert.False(t, blocked)
}

func TestCheckConflictBufferClampsAtDayBounds(t *testing.T) {
	// Home visit at 01:00: blocked window clamps to [00:00, 03:00].
	existing := []Appointment{appt("01:00", ModeHome, StatusConfirmed)}
	_, blocked := CheckConflict(existing, "0:30", ModeClinic)
	assert.True(t, blocked)
	_, blocked = CheckConflict(existing, "3:30", ModeClinic)
	assert.False(t, blocked)
}
