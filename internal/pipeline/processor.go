// Package pipeline drives a classified envelope to its stored state. It owns
// the clarification state machine: every classification result maps onto
// exactly one of {no row, confirmed row, pending row}.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/model"
	"github.com/mfierro/gastos/internal/service"
)

// Processor runs one envelope through classification, persistence, and
// confirmation. It is driven by a single consumer, so writes for the same
// WID are naturally serialized.
type Processor struct {
	store      service.Storage
	classifier service.Classifier
	publisher  service.Publisher
	logger     *slog.Logger
}

// New creates a processor.
func New(store service.Storage, classifier service.Classifier, publisher service.Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
	}
}

// Decide maps a classification result onto the workflow status for a freshly
// classified envelope.
func Decide(result model.ClassificationResult) model.Status {
	if !result.IsExpense() {
		return model.StatusNotAnExpense
	}
	if result.ExpenseData.Category.IsKnown() {
		return model.StatusConfirmed
	}
	return model.StatusPending
}

// Process classifies the envelope, persists it into the table its status
// demands, and publishes a confirmation. Persistence failure is the only
// error path: the caller must leave the envelope unacknowledged so it is
// redelivered. Classification failures degrade inside the classifier and
// publish failures are swallowed by the publisher, so neither surfaces here.
func (p *Processor) Process(ctx context.Context, env model.Envelope) error {
	result := p.classifier.Classify(ctx, env.Body)
	status := Decide(result)

	switch status {
	case model.StatusConfirmed:
		if err := p.store.UpsertConfirmed(ctx, newRecord(env, result)); err != nil {
			return fmt.Errorf("failed to store confirmed expense %s: %w", env.WID, err)
		}
	case model.StatusPending:
		if err := p.store.UpsertPending(ctx, newRecord(env, result)); err != nil {
			return fmt.Errorf("failed to store pending expense %s: %w", env.WID, err)
		}
	case model.StatusNotAnExpense:
		// Nothing to persist.
	}

	p.logger.Info("message processed",
		"wid", env.WID,
		"status", string(status))

	p.publisher.Publish(ctx, model.ConfirmationEvent{
		ChatID:       env.ChatID,
		OriginalWID:  env.WID,
		ReplyMessage: result.ReplyMessage,
	})

	return nil
}

// Clarify promotes a pending expense to confirmed with an operator-supplied
// category. Promotion is only valid while the row remains pending; once
// confirmed, a later clarification on the same WID fails with not-found.
func Clarify(ctx context.Context, store service.Storage, wid, category string) error {
	cat, ok := model.ParseCategory(category)
	if !ok {
		return fmt.Errorf("%w: %q is not in the category enumeration", common.ErrInvalidCategory, category)
	}
	if err := store.Promote(ctx, wid, cat); err != nil {
		return fmt.Errorf("failed to promote %s: %w", wid, err)
	}
	return nil
}

func newRecord(env model.Envelope, result model.ClassificationResult) *model.ExpenseRecord {
	data := result.ExpenseData
	return &model.ExpenseRecord{
		Envelope: env,
		Amount:   *data.Amount,
		Currency: data.Currency,
		Category: data.Category,
		MetaJSON: data.MetaJSON,
	}
}
