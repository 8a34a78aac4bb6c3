package realtime

import (
	"encoding/json"
	"testing"
)

type testPayload struct {
	ReportID string `json:"reportId"`
	Severity string `json:"severity"`
}

func receiveOne(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	default:
		t.Fatalf("expected a message for client %s, got none", c.UserID)
		return Message{}
	}
}

func TestBroadcastReachesAllConnected(t *testing.T) {
	hub := NewHub()

	a := NewClient("u1", "Asha")
	b := NewClient("u2", "Binta")
	hub.Register(a)
	hub.Register(b)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("ClientCount = %d, want 2", got)
	}

	payload := testPayload{ReportID: "r1", Severity: "High"}
	if err := hub.Broadcast(EventNewAlert, payload); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	for _, c := range []*Client{a, b} {
		msg := receiveOne(t, c)
		if msg.Event != EventNewAlert {
			t.Errorf("event = %q, want %q", msg.Event, EventNewAlert)
		}
		var got testPayload
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if got != payload {
			t.Errorf("payload = %+v, want %+v", got, payload)
		}
	}
}

func TestDisconnectedSubscriberReceivesNothing(t *testing.T) {
	hub := NewHub()

	stays := NewClient("u1", "Asha")
	leaves := NewClient("u2", "Binta")
	hub.Register(stays)
	hub.Register(leaves)

	hub.Unregister(leaves)

	if err := hub.Broadcast(EventNewAlert, testPayload{ReportID: "r2", Severity: "Low"}); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	receiveOne(t, stays)

	// The departed client's channel is closed and must hold no event.
	if msg, ok := <-leaves.Send; ok {
		t.Errorf("disconnected subscriber received %+v", msg)
	}
}

func TestBroadcastWithNoSubscribers(t *testing.T) {
	hub := NewHub()
	if err := hub.Broadcast(EventNewAlert, testPayload{ReportID: "r3"}); err != nil {
		t.Fatalf("Broadcast with empty set failed: %v", err)
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	c := NewClient("u1", "Asha")
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("ClientCount = %d, want 0", got)
	}
}

func TestSlowSubscriberIsSkippedNotBlocked(t *testing.T) {
	hub := NewHub()
	c := NewClient("u1", "Asha")
	hub.Register(c)

	// Fill the buffer past capacity; Broadcast must not block.
	for i := 0; i < cap(c.Send)+5; i++ {
		if err := hub.Broadcast(EventNewAlert, testPayload{ReportID: "rx"}); err != nil {
			t.Fatalf("Broadcast failed: %v", err)
		}
	}

	if got := len(c.Send); got != cap(c.Send) {
		t.Errorf("buffered = %d, want full buffer %d", got, cap(c.Send))
	}
}
