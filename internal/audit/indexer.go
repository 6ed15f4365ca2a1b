// internal/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

// Indexer mirrors dispatch outcomes into Elasticsearch so support can
// search notification history. Index failures are logged, never fatal;
// the Postgres audit row is the source of truth.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewIndexer creates an indexer writing to the given index.
func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log,
	}
}

type historyDocument struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	Recipient  string    `json:"recipient"`
	TemplateID string    `json:"templateId"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	IndexedAt  time.Time `json:"indexedAt"`
}

// Index writes one history document per dispatch result.
func (i *Indexer) Index(ctx context.Context, eventID string, eventType models.EventType, results []models.DispatchResult) {
	for _, r := range results {
		doc := historyDocument{
			EventID:    eventID,
			EventType:  string(eventType),
			Recipient:  r.Recipient,
			TemplateID: r.TemplateID,
			Status:     string(r.Status),
			Reason:     r.Reason,
			IndexedAt:  time.Now().UTC(),
		}

		body, err := json.Marshal(doc)
		if err != nil {
			i.logger.Warn("Failed to marshal history document", map[string]interface{}{
				"eventId": eventID,
				"error":   err.Error(),
			})
			continue
		}

		res, err := i.client.Index(i.index, bytes.NewReader(body),
			i.client.Index.WithContext(ctx),
			i.client.Index.WithDocumentID(uuid.New().String()),
		)
		if err != nil {
			i.logger.Warn("Failed to index history document", map[string]interface{}{
				"eventId": eventID,
				"error":   err.Error(),
			})
			continue
		}
		if res.IsError() {
			i.logger.Warn("History index request rejected", map[string]interface{}{
				"eventId": eventID,
				"status":  fmt.Sprintf("%d", res.StatusCode),
			})
		}
		res.Body.Close()
	}
}
