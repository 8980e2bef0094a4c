// Package export renders a standup's upcoming occurrences as an iCalendar
// feed that calendar clients can subscribe to.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/standupdoc/standupdoc/internal/schedule"
	"github.com/standupdoc/standupdoc/internal/standup"
)

const defaultEventCount = 10

// rruleWeekdays maps time.Weekday onto the RFC 5545 BYDAY values,
// Sunday-first to match the mask's bit order.
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// ICS serializes the next count occurrences of st as a VCALENDAR. The
// first event also carries the weekly BYDAY rule so subscribing clients
// can extend the series themselves.
func ICS(st *standup.Standup, now time.Time, count int) (string, error) {
	sched, err := st.Schedule()
	if err != nil {
		return "", err
	}
	if count <= 0 {
		count = defaultEventCount
	}

	var byday []rrule.Weekday
	for _, d := range sched.Mask().Days() {
		byday = append(byday, rruleWeekdays[int(d)])
	}
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byday,
		Dtstart:   sched.Next(now),
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("export: build recurrence rule: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//standupdoc//calendar//EN")

	cursor := now
	for i := 0; i < count; i++ {
		occ := sched.Next(cursor)
		if occ.IsZero() {
			break
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-%s@standupdoc", st.ID, occ.UTC().Format("20060102T150405Z")))
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(occ.UTC())
		ev.SetEndAt(occ.UTC().Add(15 * time.Minute))
		ev.SetSummary(st.Name)
		ev.SetDescription(fmt.Sprintf("Standup at %s %s (%s)", st.MeetingTime, st.Timezone, schedule.Mask(st.Weekdays)))
		if i == 0 {
			ev.AddRrule(opt.RRuleString())
		}
		cursor = occ.Add(time.Second)
	}

	return cal.Serialize(), nil
}
