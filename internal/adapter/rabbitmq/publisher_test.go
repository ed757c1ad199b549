package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"healthmate/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestPublishing(t *testing.T) {
	at := time.Date(2025, 10, 20, 8, 0, 0, 0, time.UTC)
	e := domain.Event{
		Type:    domain.EventHealthAlert,
		UserID:  7,
		Kind:    "spo2",
		Day:     "2025-10-20",
		Message: "low",
		At:      at,
	}

	msg, err := publishing(e)
	if err != nil {
		t.Fatal(err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("headers = %q %d", msg.ContentType, msg.DeliveryMode)
	}
	if msg.Type != domain.EventHealthAlert || !msg.Timestamp.Equal(at) {
		t.Errorf("type %q timestamp %v", msg.Type, msg.Timestamp)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatal(err)
	}
	if body["date"] != "2025-10-20" || body["userId"] != float64(7) || body["kind"] != "spo2" {
		t.Errorf("body = %v", body)
	}
}
