// Command occurrences prints upcoming meeting instants for a schedule
// given on the command line, either as a plain list or as an iCalendar
// feed. Useful for eyeballing timezone and DST behavior without running
// the service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/standupdoc/standupdoc/internal/export"
	"github.com/standupdoc/standupdoc/internal/schedule"
	"github.com/standupdoc/standupdoc/internal/standup"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseDays(s string) (schedule.Mask, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	return schedule.MaskOf(days...), nil
}

func main() {
	days := flag.String("days", "mon,tue,wed,thu,fri", "comma-separated weekdays")
	at := flag.String("at", "09:30", "meeting time, HH:MM 24-hour")
	tz := flag.String("tz", "UTC", "IANA timezone name")
	count := flag.Int("count", 10, "number of occurrences to print")
	from := flag.String("from", "", "reference instant, RFC 3339 (default: now)")
	ics := flag.Bool("ics", false, "emit an iCalendar feed instead of a list")
	flag.Parse()

	mask, err := parseDays(*days)
	if err != nil {
		log.Fatal(err)
	}
	sched, err := schedule.New(mask, *at, *tz, time.Time{})
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	if *from != "" {
		now, err = time.Parse(time.RFC3339, *from)
		if err != nil {
			log.Fatalf("bad -from value: %v", err)
		}
	}

	if *ics {
		st := &standup.Standup{
			ID:          "preview",
			Name:        fmt.Sprintf("Standup %s %s", *at, *tz),
			Weekdays:    int(mask),
			MeetingTime: *at,
			Timezone:    *tz,
		}
		feed, err := export.ICS(st, now, *count)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(feed)
		return
	}

	loc := sched.Location()
	cursor := now
	for i := 0; i < *count; i++ {
		occ := sched.Next(cursor)
		fmt.Fprintf(os.Stdout, "%s  (%s local)\n",
			occ.UTC().Format(time.RFC3339), occ.In(loc).Format("Mon 2006-01-02 15:04 MST"))
		cursor = occ.Add(time.Second)
	}
}
