package lifecycle

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook deliveries carry three headers: a message id, a unix timestamp,
// and a space-separated list of versioned signatures ("v1,<base64>").
// The signed content is "id.timestamp.body" under HMAC-SHA256 with the
// shared secret.
const (
	HeaderMessageID = "Webhook-Id"
	HeaderTimestamp = "Webhook-Timestamp"
	HeaderSignature = "Webhook-Signature"

	signatureVersion = "v1"
)

// Tolerated clock skew between us and the provider. Older deliveries are
// rejected to keep captured requests from being replayed.
const timestampTolerance = 5 * time.Minute

// ErrInvalidSignature is returned for any verification failure. The
// cause is deliberately not distinguished to callers.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Verifier checks webhook delivery signatures.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify checks the signature headers against the raw body.
func (v *Verifier) Verify(messageID, timestamp, signatures string, body []byte) error {
	if messageID == "" || timestamp == "" || signatures == "" {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	sent := time.Unix(unix, 0)
	if diff := v.now().Sub(sent); diff > timestampTolerance || diff < -timestampTolerance {
		return ErrInvalidSignature
	}

	expected := v.sign(messageID, timestamp, body)

	// The provider may rotate secrets and send several signatures; any
	// one match accepts the delivery.
	for _, candidate := range strings.Fields(signatures) {
		version, value, found := strings.Cut(candidate, ",")
		if !found || version != signatureVersion {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(value), []byte(expected)) == 1 {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign computes the signature header value for a delivery. Used by tests
// and local tooling to fabricate valid deliveries.
func (v *Verifier) Sign(messageID, timestamp string, body []byte) string {
	return fmt.Sprintf("%s,%s", signatureVersion, v.sign(messageID, timestamp, body))
}

func (v *Verifier) sign(messageID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(messageID))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
