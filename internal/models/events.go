// internal/models/events.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies the kind of domain event carried by an envelope.
type EventType string

const (
	EventUserCreated             EventType = "USER_CREATED"
	EventTutorApproved           EventType = "TUTOR_APPROVED"
	EventTutorRejected           EventType = "TUTOR_REJECTED"
	EventClassSessionCreated     EventType = "CLASS_SESSION_CREATED"
	EventMultiClassSessionsCreated EventType = "MULTI_CLASS_SESSIONS_CREATED"
	EventClassSessionUpdated     EventType = "CLASS_SESSION_UPDATED"
	EventClassApplicationCreated EventType = "CLASS_APPLICATION_CREATED"
	EventClassApplicationUpdated EventType = "CLASS_APPLICATION_UPDATED"
)

// UserRole distinguishes the audiences that signup events target.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleTutor   UserRole = "TUTOR"
	RoleManager UserRole = "MANAGER"
)

// ApplicationStatus is the lifecycle state of a class application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "PENDING"
	ApplicationApproved  ApplicationStatus = "APPROVED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationCancelled ApplicationStatus = "CANCELLED"
)

// Envelope is the queue-level wrapper around a domain event. The payload
// stays raw until the event type is known.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType EventType       `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

// Event is implemented by every decoded payload type.
type Event interface {
	Type() EventType
}

// UserCreatedPayload announces a new account. Only tutor signups
// produce a notification.
type UserCreatedPayload struct {
	UserID     string   `json:"userId"`
	Email      string   `json:"email"`
	FirstName  string   `json:"firstName"`
	MiddleName string   `json:"middleName"`
	LastName   string   `json:"lastName"`
	Role       UserRole `json:"role"`
}

func (UserCreatedPayload) Type() EventType { return EventUserCreated }

// TutorApprovedPayload carries the subject of an approval decision.
type TutorApprovedPayload struct {
	TutorID    string `json:"tutorId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

func (TutorApprovedPayload) Type() EventType { return EventTutorApproved }

// TutorRejectedPayload carries the subject of a rejection decision.
type TutorRejectedPayload struct {
	TutorID    string `json:"tutorId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

func (TutorRejectedPayload) Type() EventType { return EventTutorRejected }

// ClassSessionCreatedPayload describes a single newly scheduled session.
type ClassSessionCreatedPayload struct {
	ClassID                     string    `json:"classId"`
	ClassSessionID              string    `json:"classSessionId"`
	Title                       string    `json:"title"`
	StartDatetime               time.Time `json:"startDatetime"`
	EndDatetime                 time.Time `json:"endDatetime"`
	CreatedAt                   time.Time `json:"createdAt"`
	IsFirstSessionInBatch       bool      `json:"isFirstSessionInBatch"`
	NumOfSessionsCreatedInBatch int       `json:"numOfSessionsCreatedInBatch"`
}

func (ClassSessionCreatedPayload) Type() EventType { return EventClassSessionCreated }

// SessionWindow is one occurrence inside a multi-session batch.
type SessionWindow struct {
	ClassSessionID string    `json:"classSessionId"`
	Title          string    `json:"title"`
	StartDatetime  time.Time `json:"startDatetime"`
	EndDatetime    time.Time `json:"endDatetime"`
}

// RecurrenceSpec describes the weekly repetition of a session batch.
type RecurrenceSpec struct {
	Weekday       time.Weekday `json:"weekday"`
	IntervalWeeks int          `json:"intervalWeeks"`
	EndDate       time.Time    `json:"endDate"`
}

// MultiSessionsCreatedPayload describes a batch of sessions created at
// once, typically from a recurring schedule.
type MultiSessionsCreatedPayload struct {
	ClassID            string          `json:"classId"`
	TutorID            string          `json:"tutorId"`
	ClassTitle         string          `json:"classTitle"`
	Sessions           []SessionWindow `json:"sessions"`
	Recurrence         *RecurrenceSpec `json:"recurrence,omitempty"`
	LocalOffsetMinutes int             `json:"localOffsetMinutes"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func (MultiSessionsCreatedPayload) Type() EventType { return EventMultiClassSessionsCreated }

// ClassSessionUpdatedPayload covers both cancellations and feedback
// updates. Which branch fires depends on which timestamps are set.
type ClassSessionUpdatedPayload struct {
	ClassID           string     `json:"classId"`
	ClassSessionID    string     `json:"classSessionId"`
	Title             string     `json:"title"`
	StartDatetime     time.Time  `json:"startDatetime"`
	EndDatetime       time.Time  `json:"endDatetime"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	FeedbackUpdatedAt *time.Time `json:"feedbackUpdatedAt,omitempty"`
	TutorFeedback     string     `json:"tutorFeedback"`
	IsCancelled       bool       `json:"isCancelled"`
}

func (ClassSessionUpdatedPayload) Type() EventType { return EventClassSessionUpdated }

// ClassApplicationCreatedPayload is emitted when a student applies to a
// class or a student designates a tutor for a tutoring request.
type ClassApplicationCreatedPayload struct {
	ClassID       string `json:"classId"`
	ApplicationID string `json:"applicationId"`
	TutorID       string `json:"tutorId"`
	IsDesignated  bool   `json:"isDesignated"`
}

func (ClassApplicationCreatedPayload) Type() EventType { return EventClassApplicationCreated }

// ClassApplicationUpdatedPayload is emitted when an application changes
// status. Only approvals produce a notification.
type ClassApplicationUpdatedPayload struct {
	ClassID       string            `json:"classId"`
	ApplicationID string            `json:"applicationId"`
	TutorID       string            `json:"tutorId"`
	IsDesignated  bool              `json:"isDesignated"`
	NewStatus     ApplicationStatus `json:"newStatus"`
}

func (ClassApplicationUpdatedPayload) Type() EventType { return EventClassApplicationUpdated }

// DecodeEvent parses an envelope's payload into the concrete event type
// named by the envelope header.
func DecodeEvent(env Envelope) (Event, error) {
	var (
		event Event
		err   error
	)

	switch env.EventType {
	case EventUserCreated:
		var p UserCreatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventTutorApproved:
		var p TutorApprovedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventTutorRejected:
		var p TutorRejectedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventClassSessionCreated:
		var p ClassSessionCreatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventMultiClassSessionsCreated:
		var p MultiSessionsCreatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventClassSessionUpdated:
		var p ClassSessionUpdatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventClassApplicationCreated:
		var p ClassApplicationCreatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	case EventClassApplicationUpdated:
		var p ClassApplicationUpdatedPayload
		err = json.Unmarshal(env.Payload, &p)
		event = p
	default:
		return nil, fmt.Errorf("unknown event type %q", env.EventType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", env.EventType, err)
	}

	return event, nil
}
