package assignment

import (
	"fmt"

	"github.com/dentalbook/doctor-assignment/internal/timeutil"
)

// Conflict describes why a requested slot is blocked.
type Conflict struct {
	Blocking Appointment
	Reason   string
}

// CheckConflict decides whether any of a practitioner's existing
// appointments blocks a new request at reqClock with visit mode reqMode.
// Callers pass only same-practitioner, same-date appointments; cancelled
// ones are skipped here. Rules, in priority order:
//
//  1. Exact-time collision: same normalized minute is always a conflict,
//     whatever the modes.
//  2. Buffer collision: skipped entirely when both modes carry zero
//     buffers (virtual/clinic back-to-back is allowed). Otherwise each
//     appointment projects its own mode's blocked window and a conflict is
//     reported if either time falls inside the other's window.
//
// A practitioner with no matching appointments is trivially free.
func CheckConflict(existing []Appointment, reqClock string, reqMode VisitMode) (*Conflict, bool) {
	reqMin := timeutil.MinutesOrZero(reqClock)
	reqRule := RuleFor(reqMode)

	for _, appt := range existing {
		if appt.Status == StatusCancelled {
			continue
		}

		exMin := timeutil.MinutesOrZero(appt.ClockTime)

		if exMin == reqMin {
			return &Conflict{
				Blocking: appt,
				Reason:   fmt.Sprintf("existing %s appointment at %s", appt.Mode, appt.ClockTime),
			}, true
		}

		exRule := RuleFor(appt.Mode)
		if exRule.BlockBefore == 0 && exRule.BlockAfter == 0 &&
			reqRule.BlockBefore == 0 && reqRule.BlockAfter == 0 {
			continue
		}

		exStart := timeutil.ClampToDay(exMin - exRule.BlockBefore)
		exEnd := timeutil.ClampToDay(exMin + exRule.BlockAfter)
		if reqMin >= exStart && reqMin <= exEnd {
			return &Conflict{
				Blocking: appt,
				Reason: fmt.Sprintf("within %d/%d minute buffer of existing %s appointment at %s",
					exRule.BlockBefore, exRule.BlockAfter, appt.Mode, appt.ClockTime),
			}, true
		}

		reqStart := timeutil.ClampToDay(reqMin - reqRule.BlockBefore)
		reqEnd := timeutil.ClampToDay(reqMin + reqRule.BlockAfter)
		if exMin >= reqStart && exMin <= reqEnd {
			return &Conflict{
				Blocking: appt,
				Reason: fmt.Sprintf("requested %s visit buffer covers existing appointment at %s",
					reqMode, appt.ClockTime),
			}, true
		}
	}

	return nil, false
}
