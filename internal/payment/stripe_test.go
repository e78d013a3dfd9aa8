package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func signPayload(key string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	key := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Unix(1700000000, 0)
	ts := now.Unix()
	good := signPayload(key, ts, payload)

	t.Run("valid header", func(t *testing.T) {
		header := fmt.Sprintf("t=%d,v1=%s", ts, good)
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload("whsec_other", ts, payload))
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != ErrBadSignature {
			t.Fatalf("err = %v, want ErrBadSignature", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := fmt.Sprintf("t=%d,v1=%s", ts, good)
		if err := verifySignature([]byte(`{"id":"evt_2"}`), header, key, now, webhookTolerance); err != ErrBadSignature {
			t.Fatalf("err = %v, want ErrBadSignature", err)
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := ts - int64((webhookTolerance + time.Minute).Seconds())
		header := fmt.Sprintf("t=%d,v1=%s", old, signPayload(key, old, payload))
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != ErrStaleEvent {
			t.Fatalf("err = %v, want ErrStaleEvent", err)
		}
	})

	t.Run("missing timestamp", func(t *testing.T) {
		header := "v1=" + good
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != ErrBadSignature {
			t.Fatalf("err = %v, want ErrBadSignature", err)
		}
	})

	t.Run("missing signatures", func(t *testing.T) {
		header := fmt.Sprintf("t=%d", ts)
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != ErrBadSignature {
			t.Fatalf("err = %v, want ErrBadSignature", err)
		}
	})

	t.Run("one of several signatures matches", func(t *testing.T) {
		header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts, "deadbeef", good)
		if err := verifySignature(payload, header, key, now, webhookTolerance); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("garbage header", func(t *testing.T) {
		if err := verifySignature(payload, "not a signature header", key, now, webhookTolerance); err != ErrBadSignature {
			t.Fatalf("err = %v, want ErrBadSignature", err)
		}
	})
}

func TestParseWebhookEvent(t *testing.T) {
	payload := []byte(`{
        "id": "evt_123",
        "type": "checkout.session.completed",
        "data": {
            "object": {
                "id": "cs_test_abc",
                "client_reference_id": "17",
                "payment_intent": "pi_test_def",
                "payment_status": "paid"
            }
        }
    }`)

	ev, err := ParseWebhookEvent(payload)
	if err != nil {
		t.Fatalf("ParseWebhookEvent: %v", err)
	}
	if ev.ID != "evt_123" {
		t.Errorf("ID = %q", ev.ID)
	}
	if ev.Type != "checkout.session.completed" {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Data.Object.ID != "cs_test_abc" {
		t.Errorf("session id = %q", ev.Data.Object.ID)
	}
	if ev.Data.Object.ClientReferenceID != "17" {
		t.Errorf("client_reference_id = %q", ev.Data.Object.ClientReferenceID)
	}
	if ev.Data.Object.PaymentIntent != "pi_test_def" {
		t.Errorf("payment_intent = %q", ev.Data.Object.PaymentIntent)
	}

	if _, err := ParseWebhookEvent([]byte("{broken")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
