// internal/workers/notification/send-account-email/handler.go
package sendaccountemail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	stderrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/metrics"
	"notification-dispatcher/internal/models"
)

const (
	TaskType = "send-account-email"
)

// Dispatcher fans instructions out to the notifier, applying the
// blocklist on the way.
type Dispatcher interface {
	Execute(ctx context.Context, instructions []models.DispatchInstruction) []models.DispatchResult
}

// Handler sends account lifecycle mails requested by the auth service
// through the workflow engine.
type Handler struct {
	config       *Config
	logger       logger.Logger
	dispatcher   Dispatcher
	errorHandler *stderrors.ErrorHandler
}

func NewHandler(config *Config, dispatcher Dispatcher, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       workerLog,
		dispatcher:   dispatcher,
		errorHandler: stderrors.NewErrorHandler(workerLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, stderrors.NewEventParseFailedError(err.Error()))
		return nil
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return nil
	}

	h.completeJob(ctx, client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	instr, err := h.buildInstruction(input)
	if err != nil {
		return nil, err
	}

	results := h.dispatcher.Execute(ctx, []models.DispatchInstruction{instr})

	result := results[0]
	switch result.Status {
	case models.StatusFailed:
		metrics.NotificationsFailed.WithLabelValues(instr.TemplateID).Inc()
		return nil, stderrors.NewNotificationSendFailedError(instr.TemplateID, fmt.Errorf("%s", result.Reason))
	case models.StatusSkipped:
		metrics.NotificationsSkipped.WithLabelValues(instr.TemplateID).Inc()
	default:
		metrics.NotificationsSent.WithLabelValues(instr.TemplateID).Inc()
	}

	return &Output{
		Status:     string(result.Status),
		TemplateID: instr.TemplateID,
		SentAt:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) buildInstruction(input *Input) (models.DispatchInstruction, error) {
	name := models.FormatDisplayName(input.FirstName, input.MiddleName, input.LastName)
	recipient := models.Recipient{Email: input.Email, Name: name}

	switch input.Command {
	case CommandSendUserConfirmation:
		return models.DispatchInstruction{
			Recipient:  recipient,
			TemplateID: "email-confirmation",
			Context: map[string]string{
				"name": name,
				"url":  fmt.Sprintf("%s?token=%s", h.config.ConfirmationURL, input.Token),
			},
		}, nil
	case CommandSendResetPassword:
		return models.DispatchInstruction{
			Recipient:  recipient,
			TemplateID: "reset-password",
			Context: map[string]string{
				"name": name,
				"url":  fmt.Sprintf("%s?token=%s", h.config.ResetURL, input.Token),
			},
		}, nil
	case CommandSendNewPassword:
		return models.DispatchInstruction{
			Recipient:  recipient,
			TemplateID: "send-new-password",
			Context: map[string]string{
				"name":        name,
				"newPassword": input.NewPassword,
			},
		}, nil
	default:
		return models.DispatchInstruction{}, stderrors.NewEventParseFailedError(
			fmt.Sprintf("unknown account mail command %q", input.Command))
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
