// internal/workers/notification/dispatch-event/models.go
package dispatchevent

import "notification-dispatcher/internal/models"

type Input struct {
	Event models.Envelope `json:"event"`
}

type Output struct {
	EventID     string `json:"eventId"`
	EventType   string `json:"eventType"`
	Status      string `json:"status"`
	Sent        int    `json:"sent"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	ProcessedAt string `json:"processedAt"` // ISO 8601
}

// Statuses
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusNoOp      = "no_op"
)

// envelopeSchema guards the minimum shape of an inbound event before
// any decoding happens.
const envelopeSchema = `{
	"type": "object",
	"required": ["eventId", "eventType", "payload"],
	"properties": {
		"eventId": {"type": "string", "minLength": 1},
		"eventType": {"type": "string", "minLength": 1},
		"payload": {"type": "object"}
	}
}`
