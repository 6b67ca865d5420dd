// Package callback delivers the final sourcing result to the caller's
// callback URL with bounded retry.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"talentgraph.app/sourcer/internal/model"
)

const PayloadVersion = "1"

// maxAttempts bounds total delivery attempts; baseDelays are the gaps
// between them. Retry is never unbounded anywhere in this pipeline.
const maxAttempts = 5

var baseDelays = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	9 * time.Second,
	30 * time.Second,
}

// Deliverer posts callback payloads over HTTP.
type Deliverer struct {
	client *http.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewDeliverer(client *http.Client) *Deliverer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Deliverer{client: client, sleep: sleepCtx}
}

// Deliver posts the payload to url, retrying transient failures with
// jittered backoff. A non-2xx response counts as a failed attempt. The
// returned error is the last attempt's failure once all attempts are spent;
// the caller transitions the request to callback_failed.
func (d *Deliverer) Deliver(ctx context.Context, url string, payload model.CallbackPayload) error {
	if payload.DeliveryID == "" {
		payload.DeliveryID = uuid.NewString()
	}
	if payload.Version == "" {
		payload.Version = PayloadVersion
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = d.post(ctx, url, body)
		if lastErr == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "callback delivered after retry", "attempt", attempt)
			}
			return nil
		}

		if attempt == maxAttempts {
			break
		}
		delay := jitteredDelay(baseDelays[attempt-1])
		slog.WarnContext(ctx, "callback attempt failed",
			"attempt", attempt,
			"retry_in", delay.String(),
			"error", lastErr,
		)
		if err := d.sleep(ctx, delay); err != nil {
			return fmt.Errorf("callback delivery aborted: %w", err)
		}
	}

	return fmt.Errorf("callback delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func (d *Deliverer) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// jitteredDelay spreads a base delay uniformly across ±20% so retry storms
// from many requests do not synchronize.
func jitteredDelay(base time.Duration) time.Duration {
	factor := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(base) * factor)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
