package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentalbook/doctor-assignment/internal/timeutil"
)

// Buckets is the availability filter output. Available practitioners passed
// both the declared-schedule check and the conflict check. NoSchedule holds
// practitioners with no declared working schedule at all; they are kept as
// a last-resort fallback instead of being excluded outright.
type Buckets struct {
	Available  []Practitioner
	NoSchedule []Practitioner
}

// scheduleAllows checks the declared weekly window: day enabled, requested
// minute inside [start, end], and outside the break window if one exists.
func scheduleAllows(sched *WorkingSchedule, day time.Weekday, reqMin int) bool {
	if !sched.Days[day] {
		return false
	}

	start := timeutil.MinutesOrZero(sched.StartTime)
	end := timeutil.MinutesOrZero(sched.EndTime)
	if reqMin < start || reqMin > end {
		return false
	}

	if sched.BreakStart != "" && sched.BreakEnd != "" {
		bStart := timeutil.MinutesOrZero(sched.BreakStart)
		bEnd := timeutil.MinutesOrZero(sched.BreakEnd)
		if reqMin >= bStart && reqMin < bEnd {
			return false
		}
	}

	return true
}

// FilterAvailable splits candidate practitioners into the free and
// no-schedule buckets for a given date, clock time and visit mode.
// schedules is keyed by practitioner id; apptsByDoctor carries each
// practitioner's same-date appointments.
func FilterAvailable(
	date time.Time,
	reqClock string,
	reqMode VisitMode,
	doctors []Practitioner,
	schedules map[uuid.UUID]*WorkingSchedule,
	apptsByDoctor map[uuid.UUID][]Appointment,
) Buckets {
	reqMin := timeutil.MinutesOrZero(reqClock)
	day := date.Weekday()

	var out Buckets
	for _, doc := range doctors {
		sched, hasSched := schedules[doc.ID]
		if !hasSched || sched == nil {
			out.NoSchedule = append(out.NoSchedule, doc)
			continue
		}

		if !scheduleAllows(sched, day, reqMin) {
			continue
		}

		if _, blocked := CheckConflict(apptsByDoctor[doc.ID], reqClock, reqMode); blocked {
			continue
		}

		out.Available = append(out.Available, doc)
	}

	return out
}
