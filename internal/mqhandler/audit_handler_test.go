package mqhandler

import (
	"encoding/json"
	"testing"

	contractsmq "gramchain/contracts/mq"
	"gramchain/internal/model"
)

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDescribeEvent(t *testing.T) {
	t.Run("transaction recorded", func(t *testing.T) {
		raw := mustJSON(t, contractsmq.TransactionRecordedPayload{
			EventID:     "evt-1",
			OccurredAt:  1700000000000,
			Transaction: model.Transaction{ID: "tx9abc1234"},
		})
		eventID, entityID, occurredAt, err := describeEvent(contractsmq.RoutingKeyTransactionRecorded, raw)
		if err != nil {
			t.Fatalf("describeEvent: %v", err)
		}
		if eventID != "evt-1" || entityID != "tx9abc1234" || occurredAt != 1700000000000 {
			t.Errorf("got (%q, %q, %d)", eventID, entityID, occurredAt)
		}
	})

	t.Run("project created and attested share a shape", func(t *testing.T) {
		raw := mustJSON(t, contractsmq.ProjectCreatedPayload{
			EventID:    "evt-2",
			OccurredAt: 1700000000001,
			Attested:   true,
			Project:    model.Project{ID: "proj_k3x9q2"},
		})
		for _, key := range []string{contractsmq.RoutingKeyProjectCreated, contractsmq.RoutingKeyProjectAttested} {
			eventID, entityID, _, err := describeEvent(key, raw)
			if err != nil {
				t.Fatalf("describeEvent(%s): %v", key, err)
			}
			if eventID != "evt-2" || entityID != "proj_k3x9q2" {
				t.Errorf("%s: got (%q, %q)", key, eventID, entityID)
			}
		}
	})

	t.Run("project updated carries the project id", func(t *testing.T) {
		raw := mustJSON(t, contractsmq.ProjectUpdatedPayload{
			EventID:    "evt-3",
			OccurredAt: 1700000000002,
			ProjectID:  "proj_a1b2c3",
			Patch:      map[string]interface{}{"status": "active"},
		})
		eventID, entityID, _, err := describeEvent(contractsmq.RoutingKeyProjectUpdated, raw)
		if err != nil {
			t.Fatalf("describeEvent: %v", err)
		}
		if eventID != "evt-3" || entityID != "proj_a1b2c3" {
			t.Errorf("got (%q, %q)", eventID, entityID)
		}
	})

	t.Run("ledger cleared has no entity", func(t *testing.T) {
		raw := mustJSON(t, contractsmq.LedgerClearedPayload{
			EventID:    "evt-4",
			OccurredAt: 1700000000003,
		})
		eventID, entityID, _, err := describeEvent(contractsmq.RoutingKeyLedgerCleared, raw)
		if err != nil {
			t.Fatalf("describeEvent: %v", err)
		}
		if eventID != "evt-4" || entityID != "" {
			t.Errorf("got (%q, %q)", eventID, entityID)
		}
	})

	t.Run("unknown routing key", func(t *testing.T) {
		if _, _, _, err := describeEvent("ledger.something.else", []byte(`{}`)); err == nil {
			t.Error("expected error for unknown routing key")
		}
	})

	t.Run("missing event id", func(t *testing.T) {
		raw := mustJSON(t, contractsmq.LedgerClearedPayload{OccurredAt: 1})
		if _, _, _, err := describeEvent(contractsmq.RoutingKeyLedgerCleared, raw); err == nil {
			t.Error("expected error for empty event_id")
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		if _, _, _, err := describeEvent(contractsmq.RoutingKeyTransactionRecorded, []byte(`{not json`)); err == nil {
			t.Error("expected error for malformed payload")
		}
	})
}
