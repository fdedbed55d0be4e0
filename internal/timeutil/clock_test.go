package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0:00", 0, false},
		{"9:30", 570, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"12:00", 720, false},
		{"12:00 AM", 0, false},
		{"12:30 am", 30, false},
		{"12:00 PM", 720, false},
		{"1:15 PM", 795, false},
		{"11:45 pm", 1425, false},
		{" 10:00 ", 600, false},
		{"", 0, true},
		{"24:00", 0, true},
		{"10:60", 0, true},
		{"13:00 PM", 0, true},
		{"0:00 AM", 0, true},
		{"ten o'clock", 0, true},
		{"10", 0, true},
		{"10:0a", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMinutes(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClockTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinutesOrZero(t *testing.T) {
	assert.Equal(t, 600, MinutesOrZero("10:00"))
	assert.Equal(t, 0, MinutesOrZero("not a time"))
}

func TestOverlap(t *testing.T) {
	assert.True(t, Overlap(0, 10, 5, 15))
	assert.True(t, Overlap(5, 15, 0, 10))
	assert.True(t, Overlap(0, 10, 0, 10))
	assert.False(t, Overlap(0, 10, 10, 20)) // touching endpoints do not overlap
	assert.False(t, Overlap(10, 20, 0, 10))
	assert.False(t, Overlap(0, 5, 6, 10))
}

func TestClampToDay(t *testing.T) {
	assert.Equal(t, 0, ClampToDay(-30))
	assert.Equal(t, 600, ClampToDay(600))
	assert.Equal(t, MinutesPerDay-1, ClampToDay(1500))
}
