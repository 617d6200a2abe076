package lifecycle

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewVerifier("whsec_test")
	body := []byte(`{"id":"evt_1"}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := v.Sign("msg_1", timestamp, body)

	if err := v.Verify("msg_1", timestamp, signature, body); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := NewVerifier("whsec_other").Sign("msg_1", timestamp, body)

	err := NewVerifier("whsec_test").Verify("msg_1", timestamp, signature, body)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	v := NewVerifier("whsec_test")
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := v.Sign("msg_1", timestamp, []byte(`{"id":"evt_1"}`))

	err := v.Verify("msg_1", timestamp, signature, []byte(`{"id":"evt_2"}`))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	v := NewVerifier("whsec_test")
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	signature := v.Sign("msg_1", timestamp, body)

	err := v.Verify("msg_1", timestamp, signature, body)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for stale timestamp, got %v", err)
	}
}

func TestVerifyRejectsMissingHeaders(t *testing.T) {
	v := NewVerifier("whsec_test")
	if err := v.Verify("", "", "", []byte(`{}`)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifyAcceptsAnyMatchingSignatureInList(t *testing.T) {
	v := NewVerifier("whsec_test")
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	good := v.Sign("msg_1", timestamp, body)
	list := fmt.Sprintf("v1,notavalidsignature %s", good)

	if err := v.Verify("msg_1", timestamp, list, body); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
}

func TestVerifyIgnoresUnknownVersions(t *testing.T) {
	v := NewVerifier("whsec_test")
	body := []byte(`{}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	good := v.Sign("msg_1", timestamp, body)
	// Re-tag the valid signature with an unknown version.
	unknown := "v2" + good[len("v1"):]

	err := v.Verify("msg_1", timestamp, unknown, body)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for unknown version, got %v", err)
	}
}
