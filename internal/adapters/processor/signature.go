package processor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureVerifier checks the processor's webhook signature header:
//
//	Processor-Signature: t=1712345678,v1=<hex hmac-sha256>
//
// where the HMAC is computed over "<t>.<raw body>" with the shared
// endpoint secret. The timestamp check bounds replay of captured
// deliveries.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
}

func NewSignatureVerifier(secret string, tolerance time.Duration) (*SignatureVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook signing secret is required")
	}
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}
	return &SignatureVerifier{secret: []byte(secret), tolerance: tolerance}, nil
}

func (v *SignatureVerifier) Verify(payload []byte, signatureHeader string, now time.Time) error {
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}
	sent := time.Unix(timestamp, 0)
	drift := now.Sub(sent)
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return fmt.Errorf("signature timestamp outside tolerance: %s", drift)
	}

	expected := computeSignature(v.secret, timestamp, payload)
	for _, candidate := range signatures {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}
	return errors.New("no matching v1 signature")
}

// Sign produces a valid header for the given payload; used by tests and
// local tooling that replays deliveries.
func Sign(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature([]byte(secret), ts, payload))
}

func computeSignature(secret []byte, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, errors.New("missing signature header")
	}
	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			parsed, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad signature timestamp: %w", err)
			}
			timestamp = parsed
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp < 0 {
		return 0, nil, errors.New("signature header missing timestamp")
	}
	if len(signatures) == 0 {
		return 0, nil, errors.New("signature header missing v1 signature")
	}
	return timestamp, signatures, nil
}
