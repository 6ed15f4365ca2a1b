// internal/calendar/builder.go
package calendar

import (
	"fmt"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// byDayCodes maps Go weekdays onto iCalendar BYDAY codes.
var byDayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Attendee is a participant listed on a calendar event.
type Attendee struct {
	Name  string
	Email string
}

// EventDescriptor is one fully resolved VEVENT ready for encoding.
type EventDescriptor struct {
	UID            string
	Start          time.Time
	End            time.Time
	Title          string
	Description    string
	Status         string
	RecurrenceRule string
	Attendees      []Attendee
	Organizer      Attendee
}

// Builder turns session batches into calendar events, compensating for
// the producer's local clock so that wall times land on Indochina time
// (UTC+7) regardless of where the event was scheduled.
type Builder struct {
	location *time.Location
}

// NewBuilder creates a builder that adjusts timestamps relative to the
// given producer location.
func NewBuilder(loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{location: loc}
}

// AdjustToLocal shifts a timestamp so that its wall-clock reading in
// UTC+7 matches what the producer intended. A producer on UTC gets the
// full 420 minute shift; a producer already on UTC+7 gets none.
func (b *Builder) AdjustToLocal(t time.Time) time.Time {
	_, offsetSeconds := t.In(b.location).Zone()
	eastOffsetMinutes := offsetSeconds / 60
	return t.Add(time.Duration(420-eastOffsetMinutes) * time.Minute)
}

// WeeklyRule renders a weekly recurrence as an RRULE value. The
// interval is fixed at one week; the schedule producer only emits
// weekly batches.
func WeeklyRule(weekday time.Weekday, until time.Time) string {
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;INTERVAL=1;UNTIL=%sT235959Z",
		byDayCodes[weekday], until.UTC().Format("20060102"))
}

// Build converts a session batch into VEVENT descriptors. Each session
// becomes one event; when a recurrence is present every event carries
// the same weekly rule.
func (b *Builder) Build(classTitle string, sessions []models.SessionWindow, rec *models.RecurrenceSpec, attendees []Attendee) ([]EventDescriptor, error) {
	if len(sessions) == 0 {
		return nil, errors.NewCalendarBuildFailedError(fmt.Errorf("session batch is empty"))
	}

	rule := ""
	if rec != nil {
		rule = WeeklyRule(rec.Weekday, rec.EndDate)
	}

	events := make([]EventDescriptor, 0, len(sessions))
	for _, s := range sessions {
		if !s.EndDatetime.After(s.StartDatetime) {
			return nil, errors.NewCalendarBuildFailedError(
				fmt.Errorf("session %s ends before it starts", s.ClassSessionID))
		}

		events = append(events, EventDescriptor{
			Start:          b.AdjustToLocal(s.StartDatetime),
			End:            b.AdjustToLocal(s.EndDatetime),
			Title:          s.Title,
			Description:    fmt.Sprintf("Session of class %s", classTitle),
			Status:         "TENTATIVE",
			RecurrenceRule: rule,
			Attendees:      attendees,
		})
	}

	return events, nil
}
