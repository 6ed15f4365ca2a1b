// internal/resolver/resolver.go
package resolver

import (
	"context"
	"strconv"
	"time"

	"notification-dispatcher/internal/calendar"
	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

// Times in mail bodies are rendered the way the web client shows them.
const mailTimeLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// Directory is the slice of the gateway client the resolver needs.
type Directory interface {
	FetchClassAndStudent(ctx context.Context, classID string) (*models.ClassWithStudent, error)
	FetchClassAndTutor(ctx context.Context, classID, tutorID string) (*models.ClassWithTutor, error)
}

// Resolver maps domain events onto dispatch instructions. It decides
// who gets notified with which template; it never sends anything.
type Resolver struct {
	directory Directory
	links     Links
	logger    logger.Logger
}

// New creates a resolver.
func New(directory Directory, links Links, log logger.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		links:     links,
		logger:    log,
	}
}

// RequiredTemplates lists every template ID the resolver can emit.
// The catalog is validated against this set at startup.
func RequiredTemplates() []string {
	return []string{
		"tutor-application-received",
		"tutor-approved",
		"tutor-rejected",
		"session-created",
		"sessions-created-batch",
		"session-cancelled",
		"session-feedback-updated",
		"tutoring-request-created",
		"class-application-created",
		"tutoring-request-accepted",
		"class-application-accepted",
	}
}

// Resolve produces the instructions for one event. An empty slice with
// a nil error means the event legitimately notifies nobody.
func (r *Resolver) Resolve(ctx context.Context, event models.Event) ([]models.DispatchInstruction, error) {
	switch e := event.(type) {
	case models.UserCreatedPayload:
		return r.resolveUserCreated(e), nil
	case models.TutorApprovedPayload:
		return r.resolveTutorDecision(e.Email, e.FirstName, e.MiddleName, e.LastName, "tutor-approved"), nil
	case models.TutorRejectedPayload:
		return r.resolveTutorDecision(e.Email, e.FirstName, e.MiddleName, e.LastName, "tutor-rejected"), nil
	case models.ClassSessionCreatedPayload:
		return r.resolveSessionCreated(ctx, e)
	case models.MultiSessionsCreatedPayload:
		return r.resolveMultiSessionsCreated(ctx, e)
	case models.ClassSessionUpdatedPayload:
		return r.resolveSessionUpdated(ctx, e)
	case models.ClassApplicationCreatedPayload:
		return r.resolveApplicationCreated(ctx, e)
	case models.ClassApplicationUpdatedPayload:
		return r.resolveApplicationUpdated(ctx, e)
	default:
		r.logger.Warn("No resolution rule for event type, nobody notified", map[string]interface{}{
			"eventType": string(event.Type()),
		})
		return nil, nil
	}
}

// Only tutor signups are acknowledged; students and managers sign up
// without a welcome mail.
func (r *Resolver) resolveUserCreated(e models.UserCreatedPayload) []models.DispatchInstruction {
	if e.Role != models.RoleTutor {
		return nil
	}

	name := models.FormatDisplayName(e.FirstName, e.MiddleName, e.LastName)
	return []models.DispatchInstruction{{
		Recipient:  models.Recipient{Email: e.Email, Name: name},
		TemplateID: "tutor-application-received",
		Context:    map[string]string{"name": name},
	}}
}

func (r *Resolver) resolveTutorDecision(email, first, middle, last, templateID string) []models.DispatchInstruction {
	name := models.FormatDisplayName(first, middle, last)
	return []models.DispatchInstruction{{
		Recipient:  models.Recipient{Email: email, Name: name},
		TemplateID: templateID,
		Context:    map[string]string{"name": name},
	}}
}

// A batch of individually created sessions produces one mail, sent for
// the first session and mentioning how many siblings came with it.
func (r *Resolver) resolveSessionCreated(ctx context.Context, e models.ClassSessionCreatedPayload) ([]models.DispatchInstruction, error) {
	if !e.IsFirstSessionInBatch {
		return nil, nil
	}

	cs, err := r.directory.FetchClassAndStudent(ctx, e.ClassID)
	if err != nil {
		return nil, r.enrichmentError(models.EventClassSessionCreated, err)
	}

	name := cs.Student.DisplayName()
	return []models.DispatchInstruction{{
		Recipient:  models.Recipient{Email: cs.Student.Email, Name: name},
		TemplateID: "session-created",
		Context: map[string]string{
			"name":               name,
			"classTitle":         cs.Class.Title,
			"sessionTitle":       e.Title,
			"startTime":          e.StartDatetime.UTC().Format(mailTimeLayout),
			"endTime":            e.EndDatetime.UTC().Format(mailTimeLayout),
			"createdAt":          e.CreatedAt.UTC().Format(mailTimeLayout),
			"numOfOtherSessions": strconv.Itoa(e.NumOfSessionsCreatedInBatch - 1),
			"url":                r.links.Session(e.ClassID, e.ClassSessionID),
		},
	}}, nil
}

// A multi-session batch notifies both student and tutor and carries a
// calendar file. If the calendar cannot be built nothing is sent.
func (r *Resolver) resolveMultiSessionsCreated(ctx context.Context, e models.MultiSessionsCreatedPayload) ([]models.DispatchInstruction, error) {
	cs, err := r.directory.FetchClassAndStudent(ctx, e.ClassID)
	if err != nil {
		return nil, r.enrichmentError(models.EventMultiClassSessionsCreated, err)
	}

	ct, err := r.directory.FetchClassAndTutor(ctx, e.ClassID, e.TutorID)
	if err != nil {
		return nil, r.enrichmentError(models.EventMultiClassSessionsCreated, err)
	}

	studentName := cs.Student.DisplayName()
	tutorName := ct.Tutor.DisplayName()

	// The producer reports its clock offset the way browsers do, in
	// minutes west of UTC, so the sign flips here.
	producerZone := time.FixedZone("producer", -e.LocalOffsetMinutes*60)
	builder := calendar.NewBuilder(producerZone)

	events, err := builder.Build(cs.Class.Title, e.Sessions, e.Recurrence, []calendar.Attendee{
		{Name: studentName, Email: cs.Student.Email},
		{Name: tutorName, Email: ct.Tutor.Email},
	})
	if err != nil {
		return nil, err
	}

	icsData, err := calendar.EncodeICS(events)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		Filename:    "sessions.ics",
		ContentType: "text/calendar",
		Content:     icsData,
	}

	// The mail body speaks about the first occurrence; the attachment
	// carries the rest.
	first := e.Sessions[0]

	return []models.DispatchInstruction{
		{
			Recipient:  models.Recipient{Email: cs.Student.Email, Name: studentName},
			TemplateID: "sessions-created-batch",
			Context: map[string]string{
				"name":         studentName,
				"classTitle":   cs.Class.Title,
				"sessionTitle": first.Title,
				"startTime":    first.StartDatetime.UTC().Format(mailTimeLayout),
				"endTime":      first.EndDatetime.UTC().Format(mailTimeLayout),
				"url":          r.links.Course(e.ClassID),
			},
			Attachments: []models.Attachment{attachment},
		},
		{
			Recipient:  models.Recipient{Email: ct.Tutor.Email, Name: tutorName},
			TemplateID: "sessions-created-batch",
			Context: map[string]string{
				"name":         tutorName,
				"classTitle":   cs.Class.Title,
				"sessionTitle": first.Title,
				"startTime":    first.StartDatetime.UTC().Format(mailTimeLayout),
				"endTime":      first.EndDatetime.UTC().Format(mailTimeLayout),
				"url":          r.links.Class(e.ClassID),
			},
			Attachments: []models.Attachment{attachment},
		},
	}, nil
}

// Cancellation takes precedence over feedback. A feedback mail goes out
// only when the update touched nothing but the feedback field, which
// the producer signals by stamping both timestamps identically.
func (r *Resolver) resolveSessionUpdated(ctx context.Context, e models.ClassSessionUpdatedPayload) ([]models.DispatchInstruction, error) {
	cancelled := e.IsCancelled && e.UpdatedAt != nil
	feedbackOnly := !e.IsCancelled &&
		e.UpdatedAt != nil && e.FeedbackUpdatedAt != nil &&
		e.UpdatedAt.Equal(*e.FeedbackUpdatedAt)

	if !cancelled && !feedbackOnly {
		return nil, nil
	}

	cs, err := r.directory.FetchClassAndStudent(ctx, e.ClassID)
	if err != nil {
		return nil, r.enrichmentError(models.EventClassSessionUpdated, err)
	}

	name := cs.Student.DisplayName()
	recipient := models.Recipient{Email: cs.Student.Email, Name: name}
	url := r.links.Session(e.ClassID, e.ClassSessionID)

	if cancelled {
		return []models.DispatchInstruction{{
			Recipient:  recipient,
			TemplateID: "session-cancelled",
			Context: map[string]string{
				"name":         name,
				"sessionTitle": e.Title,
				"startTime":    e.StartDatetime.UTC().Format(mailTimeLayout),
				"url":          url,
			},
		}}, nil
	}

	return []models.DispatchInstruction{{
		Recipient:  recipient,
		TemplateID: "session-feedback-updated",
		Context: map[string]string{
			"name":         name,
			"sessionTitle": e.Title,
			"feedback":     e.TutorFeedback,
			"url":          url,
		},
	}}, nil
}

// A designated application is a tutoring request aimed at one tutor;
// an open one is a tutor applying to a student's class.
func (r *Resolver) resolveApplicationCreated(ctx context.Context, e models.ClassApplicationCreatedPayload) ([]models.DispatchInstruction, error) {
	if e.IsDesignated {
		ct, err := r.directory.FetchClassAndTutor(ctx, e.ClassID, e.TutorID)
		if err != nil {
			return nil, r.enrichmentError(models.EventClassApplicationCreated, err)
		}

		name := ct.Tutor.DisplayName()
		return []models.DispatchInstruction{{
			Recipient:  models.Recipient{Email: ct.Tutor.Email, Name: name},
			TemplateID: "tutoring-request-created",
			Context: map[string]string{
				"name":       name,
				"classTitle": ct.Class.Title,
				"url":        r.links.Class(e.ClassID),
			},
		}}, nil
	}

	cs, err := r.directory.FetchClassAndStudent(ctx, e.ClassID)
	if err != nil {
		return nil, r.enrichmentError(models.EventClassApplicationCreated, err)
	}

	ct, err := r.directory.FetchClassAndTutor(ctx, e.ClassID, e.TutorID)
	if err != nil {
		return nil, r.enrichmentError(models.EventClassApplicationCreated, err)
	}

	name := cs.Student.DisplayName()
	return []models.DispatchInstruction{{
		Recipient:  models.Recipient{Email: cs.Student.Email, Name: name},
		TemplateID: "class-application-created",
		Context: map[string]string{
			"name":       name,
			"classTitle": cs.Class.Title,
			"tutorName":  ct.Tutor.DisplayName(),
			"tutorUrl":   r.links.Tutor(e.TutorID),
			"url":        r.links.Class(e.ClassID),
		},
	}}, nil
}

// Only approvals notify anyone. The status check runs before any
// gateway call so rejected and cancelled updates cost nothing.
func (r *Resolver) resolveApplicationUpdated(ctx context.Context, e models.ClassApplicationUpdatedPayload) ([]models.DispatchInstruction, error) {
	if e.NewStatus != models.ApplicationApproved {
		return nil, nil
	}

	if e.IsDesignated {
		cs, err := r.directory.FetchClassAndStudent(ctx, e.ClassID)
		if err != nil {
			return nil, r.enrichmentError(models.EventClassApplicationUpdated, err)
		}

		ct, err := r.directory.FetchClassAndTutor(ctx, e.ClassID, e.TutorID)
		if err != nil {
			return nil, r.enrichmentError(models.EventClassApplicationUpdated, err)
		}

		name := cs.Student.DisplayName()
		return []models.DispatchInstruction{{
			Recipient:  models.Recipient{Email: cs.Student.Email, Name: name},
			TemplateID: "tutoring-request-accepted",
			Context: map[string]string{
				"name":         name,
				"classTitle":   cs.Class.Title,
				"tutorName":    ct.Tutor.DisplayName(),
				"myClassesUrl": r.links.MyClasses(),
				"url":          r.links.Course(e.ClassID),
			},
		}}, nil
	}

	ct, err := r.directory.FetchClassAndTutor(ctx, e.ClassID, e.TutorID)
	if err != nil {
		return nil, r.enrichmentError(models.EventClassApplicationUpdated, err)
	}

	name := ct.Tutor.DisplayName()
	return []models.DispatchInstruction{{
		Recipient:  models.Recipient{Email: ct.Tutor.Email, Name: name},
		TemplateID: "class-application-accepted",
		Context: map[string]string{
			"name":       name,
			"classTitle": ct.Class.Title,
			"url":        r.links.MyClasses(),
		},
	}}, nil
}

// enrichmentError wraps a directory failure while keeping the
// underlying retryability. A record that does not exist will not start
// existing on retry.
func (r *Resolver) enrichmentError(eventType models.EventType, err error) error {
	wrapped := errors.NewEnrichmentFailedError(string(eventType), err)
	if code, ok := errors.CodeOf(err); ok && code == errors.ErrCodeGatewayNotFound {
		wrapped.Retryable = false
	}
	return wrapped
}
