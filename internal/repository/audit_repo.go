package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditRepository persists the durable audit trail of ledger events
// consumed off the queue.
type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert records one audit event. Payload is the raw event JSON.
func (r *AuditRepository) Insert(ctx context.Context, eventID, routingKey, entityID string, occurredAt int64, payload []byte) error {
	r.logger.Debug("Inserting audit event",
		zap.String("event_id", eventID),
		zap.String("routing_key", routingKey),
	)

	query := `
        INSERT INTO audit_events (event_id, routing_key, entity_id, occurred_at, payload, recorded_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (event_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, eventID, routingKey, entityID, occurredAt, payload)
	if err != nil {
		r.logger.Error("Failed to insert audit event", zap.Error(err))
		return err
	}

	r.logger.Info("Audit event recorded",
		zap.String("event_id", eventID),
		zap.String("routing_key", routingKey),
		zap.String("entity_id", entityID),
	)
	return nil
}
