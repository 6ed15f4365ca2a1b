// internal/resolver/resolver_test.go
package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

type mockDirectory struct {
	fetchClassAndStudentFunc func(ctx context.Context, classID string) (*models.ClassWithStudent, error)
	fetchClassAndTutorFunc   func(ctx context.Context, classID, tutorID string) (*models.ClassWithTutor, error)
	studentCalls             int
	tutorCalls               int
}

func (m *mockDirectory) FetchClassAndStudent(ctx context.Context, classID string) (*models.ClassWithStudent, error) {
	m.studentCalls++
	if m.fetchClassAndStudentFunc != nil {
		return m.fetchClassAndStudentFunc(ctx, classID)
	}
	return &models.ClassWithStudent{
		Class: models.ClassRecord{ID: classID, Title: "Algebra"},
		Student: models.PersonRecord{
			ID: "u-1", Email: "student@example.com",
			FirstName: "Anna", MiddleName: "", LastName: "Tran",
		},
	}, nil
}

func (m *mockDirectory) FetchClassAndTutor(ctx context.Context, classID, tutorID string) (*models.ClassWithTutor, error) {
	m.tutorCalls++
	if m.fetchClassAndTutorFunc != nil {
		return m.fetchClassAndTutorFunc(ctx, classID, tutorID)
	}
	return &models.ClassWithTutor{
		Class: models.ClassRecord{ID: classID, Title: "Algebra"},
		Tutor: models.PersonRecord{
			ID: tutorID, Email: "tutor@example.com",
			FirstName: "Minh", MiddleName: "Quang", LastName: "Nguyen",
		},
	}, nil
}

func newTestResolver(dir *mockDirectory) *Resolver {
	return New(dir, Links{BaseURL: "https://www.tutorify.site"}, logger.NewNoOpLogger())
}

type unroutedEvent struct{}

func (unroutedEvent) Type() models.EventType { return models.EventType("SOMETHING_ELSE") }

func TestResolveUnroutedEvent(t *testing.T) {
	dir := &mockDirectory{}
	r := newTestResolver(dir)

	instrs, err := r.Resolve(context.Background(), unroutedEvent{})
	require.NoError(t, err)
	assert.Empty(t, instrs)
	assert.Equal(t, 0, dir.studentCalls+dir.tutorCalls)
}

func TestResolveUserCreated(t *testing.T) {
	t.Run("tutor signup is acknowledged", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), models.UserCreatedPayload{
			UserID: "u-1", Email: "new-tutor@example.com",
			FirstName: "Minh", MiddleName: "Quang", LastName: "Nguyen",
			Role: models.RoleTutor,
		})
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "tutor-application-received", instrs[0].TemplateID)
		assert.Equal(t, "new-tutor@example.com", instrs[0].Recipient.Email)
		assert.Equal(t, "Minh Quang Nguyen", instrs[0].Context["name"])
		assert.Equal(t, 0, dir.studentCalls+dir.tutorCalls)
	})

	t.Run("student signup notifies nobody", func(t *testing.T) {
		r := newTestResolver(&mockDirectory{})

		instrs, err := r.Resolve(context.Background(), models.UserCreatedPayload{
			Email: "student@example.com", Role: models.RoleStudent,
		})
		require.NoError(t, err)
		assert.Empty(t, instrs)
	})
}

func TestResolveTutorDecisions(t *testing.T) {
	r := newTestResolver(&mockDirectory{})

	approved, err := r.Resolve(context.Background(), models.TutorApprovedPayload{
		Email: "t@example.com", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "tutor-approved", approved[0].TemplateID)

	rejected, err := r.Resolve(context.Background(), models.TutorRejectedPayload{
		Email: "t@example.com", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "tutor-rejected", rejected[0].TemplateID)
}

func TestResolveSessionCreated(t *testing.T) {
	payload := models.ClassSessionCreatedPayload{
		ClassID:                     "c-1",
		ClassSessionID:              "s-1",
		Title:                       "Algebra week 1",
		StartDatetime:               time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		EndDatetime:                 time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
		CreatedAt:                   time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC),
		IsFirstSessionInBatch:       true,
		NumOfSessionsCreatedInBatch: 4,
	}

	t.Run("first session of a batch", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), payload)
		require.NoError(t, err)
		require.Len(t, instrs, 1)

		instr := instrs[0]
		assert.Equal(t, "session-created", instr.TemplateID)
		assert.Equal(t, "student@example.com", instr.Recipient.Email)
		assert.Equal(t, "Anna  Tran", instr.Context["name"])
		assert.Equal(t, "Algebra", instr.Context["classTitle"])
		assert.Equal(t, "3", instr.Context["numOfOtherSessions"])
		assert.Equal(t, "Mon, 08 Jan 2024 09:00:00 GMT", instr.Context["startTime"])
		assert.Equal(t, "Sun, 07 Jan 2024 12:00:00 GMT", instr.Context["createdAt"])
		assert.Equal(t, "https://www.tutorify.site/courses/c-1/mysessions/s-1", instr.Context["url"])
	})

	t.Run("later sessions stay silent without a gateway call", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		later := payload
		later.IsFirstSessionInBatch = false

		instrs, err := r.Resolve(context.Background(), later)
		require.NoError(t, err)
		assert.Empty(t, instrs)
		assert.Equal(t, 0, dir.studentCalls)
	})

	t.Run("gateway failure aborts the event", func(t *testing.T) {
		dir := &mockDirectory{
			fetchClassAndStudentFunc: func(ctx context.Context, classID string) (*models.ClassWithStudent, error) {
				return nil, stderrors.NewGatewayUnavailableError(context.DeadlineExceeded)
			},
		}
		r := newTestResolver(dir)

		_, err := r.Resolve(context.Background(), payload)
		require.Error(t, err)

		code, ok := stderrors.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, stderrors.ErrCodeEnrichmentFailed, code)
	})

	t.Run("missing record makes the failure final", func(t *testing.T) {
		dir := &mockDirectory{
			fetchClassAndStudentFunc: func(ctx context.Context, classID string) (*models.ClassWithStudent, error) {
				return nil, stderrors.NewGatewayNotFoundError("class c-1")
			},
		}
		r := newTestResolver(dir)

		_, err := r.Resolve(context.Background(), payload)
		require.Error(t, err)

		var stdErr *stderrors.StandardError
		require.ErrorAs(t, err, &stdErr)
		assert.Equal(t, stderrors.ErrCodeEnrichmentFailed, stdErr.Code)
		assert.False(t, stdErr.Retryable)
	})
}

func TestResolveMultiSessionsCreated(t *testing.T) {
	payload := models.MultiSessionsCreatedPayload{
		ClassID:    "c-1",
		TutorID:    "t-9",
		ClassTitle: "Algebra",
		Sessions: []models.SessionWindow{
			{
				ClassSessionID: "s-1",
				Title:          "Algebra week 1",
				StartDatetime:  time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC),
				EndDatetime:    time.Date(2024, 1, 8, 3, 30, 0, 0, time.UTC),
			},
		},
		Recurrence: &models.RecurrenceSpec{
			Weekday:       time.Monday,
			IntervalWeeks: 1,
			EndDate:       time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC),
		},
		LocalOffsetMinutes: 0,
	}

	t.Run("both parties get the calendar", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), payload)
		require.NoError(t, err)
		require.Len(t, instrs, 2)

		student, tutor := instrs[0], instrs[1]
		assert.Equal(t, "student@example.com", student.Recipient.Email)
		assert.Equal(t, "tutor@example.com", tutor.Recipient.Email)
		assert.Equal(t, "sessions-created-batch", student.TemplateID)
		assert.Equal(t, "sessions-created-batch", tutor.TemplateID)
		assert.Equal(t, "https://www.tutorify.site/courses/c-1", student.Context["url"])
		assert.Equal(t, "https://www.tutorify.site/classes/c-1", tutor.Context["url"])

		// Both mails talk about the first occurrence.
		for _, instr := range instrs {
			assert.Equal(t, "Algebra week 1", instr.Context["sessionTitle"])
			assert.Equal(t, "Mon, 08 Jan 2024 02:00:00 GMT", instr.Context["startTime"])
			assert.Equal(t, "Mon, 08 Jan 2024 03:30:00 GMT", instr.Context["endTime"])
		}

		require.Len(t, student.Attachments, 1)
		require.Len(t, tutor.Attachments, 1)
		assert.Equal(t, student.Attachments[0].Content, tutor.Attachments[0].Content)

		// Producer on UTC, so the occurrence shifts the full 7 hours.
		ics := string(student.Attachments[0].Content)
		assert.Contains(t, ics, "DTSTART:20240108T090000Z")
		assert.Contains(t, ics, "RRULE:FREQ=WEEKLY;BYDAY=MO;INTERVAL=1;UNTIL=20240122T235959Z")
		assert.Contains(t, ics, "STATUS:TENTATIVE")
	})

	t.Run("producer already on utc+7 shifts nothing", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		local := payload
		local.LocalOffsetMinutes = -420

		instrs, err := r.Resolve(context.Background(), local)
		require.NoError(t, err)
		require.Len(t, instrs, 2)
		assert.Contains(t, string(instrs[0].Attachments[0].Content), "DTSTART:20240108T020000Z")
	})

	t.Run("calendar failure aborts every instruction", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		empty := payload
		empty.Sessions = nil

		instrs, err := r.Resolve(context.Background(), empty)
		require.Error(t, err)
		assert.Empty(t, instrs)

		code, ok := stderrors.CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, stderrors.ErrCodeCalendarBuildFailed, code)
	})
}

func TestResolveSessionUpdated(t *testing.T) {
	now := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	base := models.ClassSessionUpdatedPayload{
		ClassID:        "c-1",
		ClassSessionID: "s-1",
		Title:          "Algebra week 1",
		StartDatetime:  time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		EndDatetime:    time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
	}

	t.Run("cancellation wins over feedback", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		p := base
		p.IsCancelled = true
		p.UpdatedAt = &now
		p.FeedbackUpdatedAt = &now
		p.TutorFeedback = "great work"

		instrs, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "session-cancelled", instrs[0].TemplateID)
	})

	t.Run("feedback only update", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		p := base
		p.UpdatedAt = &now
		p.FeedbackUpdatedAt = &now
		p.TutorFeedback = "great work"

		instrs, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "session-feedback-updated", instrs[0].TemplateID)
		assert.Equal(t, "great work", instrs[0].Context["feedback"])
	})

	t.Run("mixed update notifies nobody", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		p := base
		p.UpdatedAt = &now
		p.FeedbackUpdatedAt = &earlier

		instrs, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		assert.Empty(t, instrs)
		assert.Equal(t, 0, dir.studentCalls)
	})

	t.Run("missing timestamps notify nobody", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		p := base
		p.IsCancelled = true

		instrs, err := r.Resolve(context.Background(), p)
		require.NoError(t, err)
		assert.Empty(t, instrs)
	})
}

func TestResolveApplicationCreated(t *testing.T) {
	t.Run("designated request goes to the tutor", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), models.ClassApplicationCreatedPayload{
			ClassID: "c-1", TutorID: "t-9", IsDesignated: true,
		})
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "tutoring-request-created", instrs[0].TemplateID)
		assert.Equal(t, "tutor@example.com", instrs[0].Recipient.Email)
		assert.Equal(t, "https://www.tutorify.site/classes/c-1", instrs[0].Context["url"])
		assert.Equal(t, 1, dir.tutorCalls)
		assert.Equal(t, 0, dir.studentCalls)
	})

	t.Run("open application goes to the student", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), models.ClassApplicationCreatedPayload{
			ClassID: "c-1", TutorID: "t-9", IsDesignated: false,
		})
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "class-application-created", instrs[0].TemplateID)
		assert.Equal(t, "student@example.com", instrs[0].Recipient.Email)
		assert.Equal(t, "Minh Quang Nguyen", instrs[0].Context["tutorName"])
		assert.Equal(t, "https://www.tutorify.site/tutors/t-9", instrs[0].Context["tutorUrl"])
		assert.Equal(t, 1, dir.studentCalls)
		assert.Equal(t, 1, dir.tutorCalls)
	})
}

func TestResolveApplicationUpdated(t *testing.T) {
	t.Run("non approval costs no gateway call", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		for _, status := range []models.ApplicationStatus{
			models.ApplicationPending,
			models.ApplicationRejected,
			models.ApplicationCancelled,
		} {
			instrs, err := r.Resolve(context.Background(), models.ClassApplicationUpdatedPayload{
				ClassID: "c-1", TutorID: "t-9", NewStatus: status,
			})
			require.NoError(t, err)
			assert.Empty(t, instrs)
		}
		assert.Equal(t, 0, dir.studentCalls+dir.tutorCalls)
	})

	t.Run("approved designated request notifies the student", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), models.ClassApplicationUpdatedPayload{
			ClassID: "c-1", TutorID: "t-9", IsDesignated: true,
			NewStatus: models.ApplicationApproved,
		})
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "tutoring-request-accepted", instrs[0].TemplateID)
		assert.Equal(t, "student@example.com", instrs[0].Recipient.Email)
		assert.Equal(t, "https://www.tutorify.site/courses/c-1", instrs[0].Context["url"])
		assert.Equal(t, "Minh Quang Nguyen", instrs[0].Context["tutorName"])
		assert.Equal(t, "https://www.tutorify.site/myclasses", instrs[0].Context["myClassesUrl"])
		assert.Equal(t, 1, dir.tutorCalls)
	})

	t.Run("approved open application notifies the tutor", func(t *testing.T) {
		dir := &mockDirectory{}
		r := newTestResolver(dir)

		instrs, err := r.Resolve(context.Background(), models.ClassApplicationUpdatedPayload{
			ClassID: "c-1", TutorID: "t-9", IsDesignated: false,
			NewStatus: models.ApplicationApproved,
		})
		require.NoError(t, err)
		require.Len(t, instrs, 1)
		assert.Equal(t, "class-application-accepted", instrs[0].TemplateID)
		assert.Equal(t, "tutor@example.com", instrs[0].Recipient.Email)
		assert.Equal(t, "https://www.tutorify.site/myclasses", instrs[0].Context["url"])
	})
}
