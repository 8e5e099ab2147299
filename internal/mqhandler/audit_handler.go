package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	contractsmq "gramchain/contracts/mq"
	"gramchain/internal/repository"
	"gramchain/pkg/metrics"
	"gramchain/pkg/util"
)

const (
	dedupHandlerName = "audit"
	maxRetries       = 5
)

// DeadLetterer receives events the handler can never process, such as
// payloads that do not decode.
type DeadLetterer interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// AuditHandler consumes every ledger.# event and appends it to the
// durable audit trail.
type AuditHandler struct {
	auditRepo    *repository.AuditRepository
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	dlq          DeadLetterer
	logger       *zap.Logger
}

func NewAuditHandler(
	auditRepo *repository.AuditRepository,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	dlq DeadLetterer,
	logger *zap.Logger,
) *AuditHandler {
	return &AuditHandler{
		auditRepo:    auditRepo,
		deduper:      deduper,
		retryCounter: retryCounter,
		dlq:          dlq,
		logger:       logger,
	}
}

// HandleEvent processes one ledger event. It is idempotent twice over:
// the redis deduper short-circuits recent duplicates, and the insert
// itself ignores conflicts on event_id.
func (h *AuditHandler) HandleEvent(ctx context.Context, routingKey string, raw json.RawMessage) error {
	eventID, entityID, occurredAt, err := describeEvent(routingKey, raw)
	if err != nil {
		// An undecodable payload will never succeed on redelivery.
		// Park it on the DLQ and ack.
		h.logger.Error("Undecodable ledger event, dead-lettering",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		metrics.IncrementAuditEvent(routingKey, "dead_lettered")
		if dlqErr := h.dlq.PublishToDLQ(routingKey, raw, err.Error()); dlqErr != nil {
			h.logger.Error("Failed to dead-letter event", zap.Error(dlqErr))
			return dlqErr
		}
		return nil
	}

	if !h.deduper.AcquireOnce(ctx, dedupHandlerName, eventID) {
		metrics.IncrementAuditEvent(routingKey, "duplicate")
		return nil
	}

	if err := h.auditRepo.Insert(ctx, eventID, routingKey, entityID, occurredAt, raw); err != nil {
		return h.handleInsertFailure(ctx, routingKey, eventID, raw, err)
	}

	h.retryCounter.Reset(ctx, util.FormatRetryKey(dedupHandlerName, eventID))
	metrics.IncrementAuditEvent(routingKey, "recorded")
	return nil
}

// handleInsertFailure decides between redelivery and the DLQ: transient
// errors nack and requeue up to maxRetries, everything else is parked.
func (h *AuditHandler) handleInsertFailure(ctx context.Context, routingKey, eventID string, raw json.RawMessage, err error) error {
	retryable, errType := util.IsRetryableError(err)
	retryKey := util.FormatRetryKey(dedupHandlerName, eventID)

	count, cntErr := h.retryCounter.IncrementAndGet(ctx, retryKey)
	if cntErr != nil {
		h.logger.Warn("Retry counter unavailable, treating as first attempt", zap.Error(cntErr))
		count = 1
	}

	h.logger.Error("Failed to record audit event",
		zap.String("event_id", eventID),
		zap.String("routing_key", routingKey),
		zap.String("error_type", errType),
		zap.Bool("retryable", retryable),
		zap.Int64("retry_count", count),
		zap.Error(err),
	)

	if util.ShouldRetry(count, maxRetries, retryable) {
		metrics.IncrementAuditEvent(routingKey, "error")
		return err
	}

	metrics.IncrementAuditEvent(routingKey, "dead_lettered")
	if dlqErr := h.dlq.PublishToDLQ(routingKey, raw, err.Error()); dlqErr != nil {
		h.logger.Error("Failed to dead-letter event", zap.Error(dlqErr))
		return dlqErr
	}
	h.retryCounter.Reset(ctx, retryKey)
	return nil
}

// describeEvent extracts the identifying fields of a payload based on
// its routing key.
func describeEvent(routingKey string, raw json.RawMessage) (eventID, entityID string, occurredAt int64, err error) {
	switch routingKey {
	case contractsmq.RoutingKeyTransactionRecorded:
		var p contractsmq.TransactionRecordedPayload
		if err = json.Unmarshal(raw, &p); err != nil {
			return
		}
		eventID, entityID, occurredAt = p.EventID, p.Transaction.ID, p.OccurredAt
	case contractsmq.RoutingKeyProjectCreated, contractsmq.RoutingKeyProjectAttested:
		var p contractsmq.ProjectCreatedPayload
		if err = json.Unmarshal(raw, &p); err != nil {
			return
		}
		eventID, entityID, occurredAt = p.EventID, p.Project.ID, p.OccurredAt
	case contractsmq.RoutingKeyProjectUpdated:
		var p contractsmq.ProjectUpdatedPayload
		if err = json.Unmarshal(raw, &p); err != nil {
			return
		}
		eventID, entityID, occurredAt = p.EventID, p.ProjectID, p.OccurredAt
	case contractsmq.RoutingKeyLedgerCleared:
		var p contractsmq.LedgerClearedPayload
		if err = json.Unmarshal(raw, &p); err != nil {
			return
		}
		eventID, occurredAt = p.EventID, p.OccurredAt
	default:
		err = fmt.Errorf("unknown routing key %q", routingKey)
		return
	}

	if eventID == "" {
		err = fmt.Errorf("event on %s has no event_id", routingKey)
	}
	return
}
