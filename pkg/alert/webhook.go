package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Headers set on every webhook delivery.
const (
	SignatureHeader = "X-Signature-256"
	EventHeader     = "X-Roomivo-Event"
	DeliveryHeader  = "X-Roomivo-Delivery"
)

// EventApplicantFlagged is the only event roomivo emits today.
const EventApplicantFlagged = "applicant.flagged"

const signaturePrefix = "sha256="

// Webhook posts the Notification as JSON to an arbitrary endpoint. With a
// secret configured, receivers check the body against SignatureHeader.
type Webhook struct {
	client *http.Client
	url    string
	secret string
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		secret: secret,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	req, err := w.newRequest(ctx, n)
	if err != nil {
		return err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s to webhook: %w", req.Header.Get(DeliveryHeader), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) newRequest(ctx context.Context, n *Notification) (*http.Request, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", n.ApplicationID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	h := req.Header
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", "roomivo/1.0")
	h.Set(EventHeader, EventApplicantFlagged)
	h.Set(DeliveryHeader, uuid.NewString())
	if w.secret != "" {
		h.Set(SignatureHeader, Sign(w.secret, body))
	}
	return req, nil
}

// Sign returns the SignatureHeader value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	got, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return false
	}
	sum, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sum, mac.Sum(nil))
}
