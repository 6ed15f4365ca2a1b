// internal/calendar/ics.go
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"notification-dispatcher/internal/common/errors"
)

const icsTimestampLayout = "20060102T150405Z"

// escapeText applies RFC 5545 TEXT escaping.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
		"\r", "",
	)
	return r.Replace(s)
}

// EncodeICS serializes event descriptors into a single iCalendar
// document. Lines end with CRLF as the format requires.
func EncodeICS(events []EventDescriptor) ([]byte, error) {
	if len(events) == 0 {
		return nil, errors.NewCalendarBuildFailedError(fmt.Errorf("no events to encode"))
	}

	var b strings.Builder
	writeLine := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	now := time.Now().UTC().Format(icsTimestampLayout)

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:-//tutorify//notification-dispatcher//EN")
	writeLine("CALSCALE:GREGORIAN")
	writeLine("METHOD:REQUEST")

	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() {
			return nil, errors.NewCalendarBuildFailedError(fmt.Errorf("event is missing start or end time"))
		}

		uid := ev.UID
		if uid == "" {
			uid = uuid.New().String()
		}

		writeLine("BEGIN:VEVENT")
		writeLine("UID:%s", uid)
		writeLine("DTSTAMP:%s", now)
		writeLine("DTSTART:%s", ev.Start.UTC().Format(icsTimestampLayout))
		writeLine("DTEND:%s", ev.End.UTC().Format(icsTimestampLayout))
		writeLine("SUMMARY:%s", escapeText(ev.Title))
		if ev.Description != "" {
			writeLine("DESCRIPTION:%s", escapeText(ev.Description))
		}
		if ev.Status != "" {
			writeLine("STATUS:%s", ev.Status)
		}
		if ev.RecurrenceRule != "" {
			writeLine("RRULE:%s", ev.RecurrenceRule)
		}
		if ev.Organizer.Email != "" {
			writeLine("ORGANIZER;CN=%s:mailto:%s", escapeText(ev.Organizer.Name), ev.Organizer.Email)
		}
		for _, a := range ev.Attendees {
			writeLine("ATTENDEE;CN=%s;ROLE=REQ-PARTICIPANT:mailto:%s", escapeText(a.Name), a.Email)
		}
		writeLine("END:VEVENT")
	}

	writeLine("END:VCALENDAR")

	return []byte(b.String()), nil
}
