// internal/dispatch/executor.go
package dispatch

import (
	"context"
	"sync"

	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"
)

// Notifier delivers a single rendered notification.
type Notifier interface {
	Send(ctx context.Context, instr models.DispatchInstruction) error
}

// Executor fans a batch of instructions out to the notifier. Each
// instruction succeeds or fails on its own; a sibling's failure never
// cancels the rest of the batch.
type Executor struct {
	notifier Notifier
	filter   *DomainFilter
	logger   logger.Logger
}

// NewExecutor creates an executor.
func NewExecutor(notifier Notifier, filter *DomainFilter, log logger.Logger) *Executor {
	return &Executor{
		notifier: notifier,
		filter:   filter,
		logger:   log,
	}
}

// Execute sends all instructions concurrently and returns one result
// per instruction, in input order. Blocked recipients are skipped
// without touching the notifier.
func (e *Executor) Execute(ctx context.Context, instructions []models.DispatchInstruction) []models.DispatchResult {
	results := make([]models.DispatchResult, len(instructions))

	var wg sync.WaitGroup
	for i, instr := range instructions {
		results[i] = models.DispatchResult{
			Recipient:  instr.Recipient.Email,
			TemplateID: instr.TemplateID,
		}

		if e.filter != nil && e.filter.IsBlocked(instr.Recipient.Email) {
			results[i].Status = models.StatusSkipped
			results[i].Reason = "recipient domain is blocked"
			e.logger.Info("Skipping blocked recipient", map[string]interface{}{
				"recipient": instr.Recipient.Email,
				"template":  instr.TemplateID,
			})
			continue
		}

		wg.Add(1)
		go func(i int, instr models.DispatchInstruction) {
			defer wg.Done()

			if err := e.notifier.Send(ctx, instr); err != nil {
				results[i].Status = models.StatusFailed
				results[i].Reason = err.Error()
				return
			}
			results[i].Status = models.StatusSent
		}(i, instr)
	}
	wg.Wait()

	return results
}
