package processor

import (
	"strings"
	"testing"
	"time"
)

func TestVerifyAcceptsSignedPayload(t *testing.T) {
	t.Parallel()

	v, err := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	now := time.Now()
	payload := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	header := Sign("whsec_abc", payload, now)
	if err := v.Verify(payload, header, now); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	v, _ := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	now := time.Now()
	header := Sign("whsec_abc", []byte(`{"amount":1000}`), now)
	if err := v.Verify([]byte(`{"amount":9000}`), header, now); err == nil {
		t.Fatalf("expected tampered payload to fail verification")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	v, _ := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	now := time.Now()
	payload := []byte(`{}`)
	header := Sign("whsec_other", payload, now)
	if err := v.Verify(payload, header, now); err == nil {
		t.Fatalf("expected wrong-secret signature to fail verification")
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	t.Parallel()

	v, _ := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	now := time.Now()
	payload := []byte(`{}`)
	header := Sign("whsec_abc", payload, now.Add(-6*time.Minute))
	err := v.Verify(payload, header, now)
	if err == nil || !strings.Contains(err.Error(), "tolerance") {
		t.Fatalf("expected tolerance error, got %v", err)
	}
}

func TestVerifyRejectsMalformedHeader(t *testing.T) {
	t.Parallel()

	v, _ := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	payload := []byte(`{}`)
	for _, header := range []string{
		"",
		"t=abc,v1=deadbeef",
		"v1=deadbeef",
		"t=1712345678",
	} {
		if err := v.Verify(payload, header, time.Now()); err == nil {
			t.Fatalf("header %q should fail verification", header)
		}
	}
}

func TestVerifyAcceptsAnyMatchingV1(t *testing.T) {
	t.Parallel()

	v, _ := NewSignatureVerifier("whsec_abc", 5*time.Minute)
	now := time.Now()
	payload := []byte(`{"id":"evt_2"}`)
	good := Sign("whsec_abc", payload, now)
	// Header carries a rotated-out signature first, then the valid one.
	header := strings.Replace(good, "v1=", "v1=0000,v1=", 1)
	if err := v.Verify(payload, header, now); err != nil {
		t.Fatalf("verify with multiple v1 entries: %v", err)
	}
}
