// internal/calendar/calendar_test.go
package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-dispatcher/internal/models"
)

func TestAdjustToLocal(t *testing.T) {
	start := time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)

	t.Run("utc producer gets the full shift", func(t *testing.T) {
		b := NewBuilder(time.UTC)
		adjusted := b.AdjustToLocal(start)
		assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), adjusted)
	})

	t.Run("utc+7 producer is left alone", func(t *testing.T) {
		b := NewBuilder(time.FixedZone("ICT", 7*3600))
		adjusted := b.AdjustToLocal(start)
		assert.True(t, adjusted.Equal(start))
	})

	t.Run("utc+2 producer gets the remainder", func(t *testing.T) {
		b := NewBuilder(time.FixedZone("EET", 2*3600))
		adjusted := b.AdjustToLocal(start)
		assert.Equal(t, start.Add(300*time.Minute), adjusted)
	})
}

func TestWeeklyRule(t *testing.T) {
	until := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	rule := WeeklyRule(time.Monday, until)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;INTERVAL=1;UNTIL=20240122T235959Z", rule)
}

func TestBuild(t *testing.T) {
	sessions := []models.SessionWindow{
		{
			ClassSessionID: "s-1",
			Title:          "Algebra week 1",
			StartDatetime:  time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC),
			EndDatetime:    time.Date(2024, 1, 8, 3, 30, 0, 0, time.UTC),
		},
		{
			ClassSessionID: "s-2",
			Title:          "Algebra week 2",
			StartDatetime:  time.Date(2024, 1, 15, 2, 0, 0, 0, time.UTC),
			EndDatetime:    time.Date(2024, 1, 15, 3, 30, 0, 0, time.UTC),
		},
		{
			ClassSessionID: "s-3",
			Title:          "Algebra week 3",
			StartDatetime:  time.Date(2024, 1, 22, 2, 0, 0, 0, time.UTC),
			EndDatetime:    time.Date(2024, 1, 22, 3, 30, 0, 0, time.UTC),
		},
	}
	rec := &models.RecurrenceSpec{
		Weekday:       time.Monday,
		IntervalWeeks: 1,
		EndDate:       time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
	}

	t.Run("weekly batch from a utc producer", func(t *testing.T) {
		b := NewBuilder(time.UTC)

		events, err := b.Build("Algebra", sessions, rec, []Attendee{
			{Name: "A Student", Email: "student@example.com"},
		})
		require.NoError(t, err)
		require.Len(t, events, 3)

		assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), events[0].Start)
		assert.Equal(t, time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC), events[0].End)
		assert.Equal(t, "TENTATIVE", events[0].Status)
		for _, event := range events {
			assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;INTERVAL=1;UNTIL=20240122T235959Z", event.RecurrenceRule)
		}
	})

	t.Run("one-off batch carries no rule", func(t *testing.T) {
		b := NewBuilder(time.UTC)

		events, err := b.Build("Algebra", sessions[:1], nil, nil)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Empty(t, events[0].RecurrenceRule)
	})

	t.Run("empty batch fails", func(t *testing.T) {
		b := NewBuilder(time.UTC)
		_, err := b.Build("Algebra", nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("inverted window fails", func(t *testing.T) {
		b := NewBuilder(time.UTC)
		_, err := b.Build("Algebra", []models.SessionWindow{
			{
				ClassSessionID: "s-bad",
				StartDatetime:  time.Date(2024, 1, 8, 3, 0, 0, 0, time.UTC),
				EndDatetime:    time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC),
			},
		}, nil, nil)
		assert.Error(t, err)
	})
}

func TestEncodeICS(t *testing.T) {
	t.Run("well formed document", func(t *testing.T) {
		events := []EventDescriptor{
			{
				UID:            "uid-1",
				Start:          time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
				End:            time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
				Title:          "Algebra week 1",
				Description:    "Session of class Algebra",
				Status:         "TENTATIVE",
				RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO;INTERVAL=1;UNTIL=20240122T235959Z",
				Attendees:      []Attendee{{Name: "A Student", Email: "student@example.com"}},
			},
		}

		data, err := EncodeICS(events)
		require.NoError(t, err)

		doc := string(data)
		assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
		assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR\r\n"))
		assert.Contains(t, doc, "UID:uid-1\r\n")
		assert.Contains(t, doc, "DTSTART:20240108T090000Z\r\n")
		assert.Contains(t, doc, "DTEND:20240108T103000Z\r\n")
		assert.Contains(t, doc, "STATUS:TENTATIVE\r\n")
		assert.Contains(t, doc, "RRULE:FREQ=WEEKLY;BYDAY=MO;INTERVAL=1;UNTIL=20240122T235959Z\r\n")
		assert.Contains(t, doc, "ATTENDEE;CN=A Student;ROLE=REQ-PARTICIPANT:mailto:student@example.com\r\n")
	})

	t.Run("text escaping", func(t *testing.T) {
		events := []EventDescriptor{
			{
				Start: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
				Title: "Math; Physics, and\nmore",
			},
		}

		data, err := EncodeICS(events)
		require.NoError(t, err)
		assert.Contains(t, string(data), "SUMMARY:Math\\; Physics\\, and\\nmore\r\n")
	})

	t.Run("missing start time fails", func(t *testing.T) {
		_, err := EncodeICS([]EventDescriptor{{End: time.Now()}})
		assert.Error(t, err)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, err := EncodeICS(nil)
		assert.Error(t, err)
	})
}
