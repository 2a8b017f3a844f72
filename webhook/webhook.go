// Package webhook notifies an HTTP endpoint when a scrape has finished.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// EventScrapeCompleted is sent once per run, after export.
const EventScrapeCompleted = "scrape.completed"

// SignatureHeader carries "sha256=<hex HMAC of the body>" when a secret is set.
const SignatureHeader = "X-Pagesweep-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string  `json:"type"`
	RunID     string  `json:"run_id"`
	Timestamp int64   `json:"timestamp"`
	Data      Summary `json:"data"`
}

// Summary describes the outcome of a run.
type Summary struct {
	TargetURL string   `json:"target_url"`
	Records   int      `json:"records"`
	Pages     []string `json:"pages"`
	Files     []string `json:"files"`
	Complete  bool     `json:"complete"`
	Error     string   `json:"error,omitempty"`
}

// NewCompleted builds a scrape.completed event stamped with the current time.
func NewCompleted(runID string, s Summary) *Event {
	return &Event{
		Type:      EventScrapeCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data:      s,
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver posts event to url once. The request body is signed when secret
// is non-empty. A non-positive timeout means no limit beyond ctx.
func Deliver(ctx context.Context, url, secret string, timeout time.Duration, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	if timeout < 0 {
		timeout = 0
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Pagesweep-Webhook/1.0")

	req := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if secret != "" {
		req.SetHeader(SignatureHeader, "sha256="+Sign(secret, body))
	}

	res, err := req.Post(url)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook: endpoint returned status %d", res.StatusCode())
	}
	return nil
}
