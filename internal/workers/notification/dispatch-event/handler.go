// internal/workers/notification/dispatch-event/handler.go
package dispatchevent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"

	stderrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"
)

const (
	TaskType = "dispatch-notification-event"
)

// Resolver maps an event onto dispatch instructions.
type Resolver interface {
	Resolve(ctx context.Context, event models.Event) ([]models.DispatchInstruction, error)
}

// Dispatcher fans instructions out to the notifier.
type Dispatcher interface {
	Execute(ctx context.Context, instructions []models.DispatchInstruction) []models.DispatchResult
}

// DedupStore tracks already processed event IDs.
type DedupStore interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

// AuditStore persists dispatch outcomes.
type AuditStore interface {
	Write(ctx context.Context, eventID string, eventType models.EventType, results []models.DispatchResult) error
}

// HistoryIndexer mirrors outcomes into the search index.
type HistoryIndexer interface {
	Index(ctx context.Context, eventID string, eventType models.EventType, results []models.DispatchResult)
}

// SNSService publishes replay alerts.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	resolver     Resolver
	dispatcher   Dispatcher
	dedup        DedupStore
	audit        AuditStore
	history      HistoryIndexer
	snsClient    SNSService
	errorHandler *stderrors.ErrorHandler
	schema       *gojsonschema.Schema
}

// NewHandler wires the worker. History and SNS are optional; passing
// nil disables that side channel.
func NewHandler(
	config *Config,
	resolver Resolver,
	dispatcher Dispatcher,
	dedup DedupStore,
	audit AuditStore,
	history HistoryIndexer,
	snsClient SNSService,
	log logger.Logger,
) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}

	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       config,
		logger:       workerLog,
		resolver:     resolver,
		dispatcher:   dispatcher,
		dedup:        dedup,
		audit:        audit,
		history:      history,
		snsClient:    snsClient,
		errorHandler: stderrors.NewErrorHandler(workerLog),
		schema:       schema,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey": job.Key,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	started := time.Now()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, stderrors.NewEventParseFailedError(err.Error()))
		return nil
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.alertOnEnrichmentFailure(ctx, input.Event, err)
		metrics.EventsProcessed.WithLabelValues(string(input.Event.EventType), "failed").Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	metrics.EventsProcessed.WithLabelValues(output.EventType, output.Status).Inc()
	metrics.EventProcessingDuration.WithLabelValues(output.EventType).Observe(time.Since(started).Seconds())

	h.completeJob(ctx, client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	env := input.Event

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, stderrors.NewEventParseFailedError(err.Error())
	}
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, stderrors.NewEventParseFailedError(err.Error())
	}
	if !result.Valid() {
		return nil, stderrors.NewEventParseFailedError(fmt.Sprintf("envelope rejected: %v", result.Errors()))
	}

	output := &Output{
		EventID:     env.EventID,
		EventType:   string(env.EventType),
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}

	first, err := h.dedup.FirstSeen(ctx, env.EventID)
	if err != nil {
		// Redis being down should not stop notifications; worst case a
		// redelivered event sends twice.
		h.logger.Warn("dedup check failed, continuing", map[string]interface{}{
			"eventId": env.EventID,
			"error":   err.Error(),
		})
	} else if !first {
		h.logger.Info("duplicate event dropped", map[string]interface{}{
			"eventId":   env.EventID,
			"eventType": env.EventType,
		})
		output.Status = StatusDuplicate
		return output, nil
	}

	event, err := models.DecodeEvent(env)
	if err != nil {
		return nil, stderrors.NewEventParseFailedError(err.Error())
	}

	instructions, err := h.resolver.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}

	if len(instructions) == 0 {
		output.Status = StatusNoOp
		return output, nil
	}

	results := h.dispatcher.Execute(ctx, instructions)
	for _, r := range results {
		switch r.Status {
		case models.StatusSent:
			output.Sent++
			metrics.NotificationsSent.WithLabelValues(r.TemplateID).Inc()
		case models.StatusFailed:
			output.Failed++
			metrics.NotificationsFailed.WithLabelValues(r.TemplateID).Inc()
		case models.StatusSkipped:
			output.Skipped++
			metrics.NotificationsSkipped.WithLabelValues(r.TemplateID).Inc()
		}
	}

	// Mails are already out, so an audit failure is logged rather than
	// failing the job and sending everything again on retry.
	if err := h.audit.Write(ctx, env.EventID, env.EventType, results); err != nil {
		h.logger.Error("audit write failed", map[string]interface{}{
			"eventId": env.EventID,
			"error":   err.Error(),
		})
	}

	if h.history != nil {
		h.history.Index(ctx, env.EventID, env.EventType, results)
	}

	output.Status = StatusProcessed
	return output, nil
}

// alertOnEnrichmentFailure publishes a replay alert so operators can
// requeue the event once the directory gateway recovers.
func (h *Handler) alertOnEnrichmentFailure(ctx context.Context, env models.Envelope, err error) {
	if h.snsClient == nil || !h.config.AlertsEnabled {
		return
	}
	code, ok := stderrors.CodeOf(err)
	if !ok || code != stderrors.ErrCodeEnrichmentFailed {
		return
	}

	message := fmt.Sprintf("enrichment failed for event %s (%s): %s", env.EventID, env.EventType, err.Error())
	_, pubErr := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.AlertTopicARN),
		Subject:  aws.String("notification-dispatcher enrichment failure"),
		Message:  aws.String(message),
	})
	if pubErr != nil {
		h.logger.Error("failed to publish replay alert", map[string]interface{}{
			"eventId": env.EventID,
			"error":   pubErr.Error(),
		})
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
