// Package notify delivers completion callbacks to the evaluator endpoint.
// Delivery is best effort: the caller logs failures but never fails the
// round over them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"appforge/internal/foundation/errors"
	"appforge/internal/logfields"
)

// Notifier posts JSON payloads to evaluation endpoints.
type Notifier struct {
	client *http.Client
}

// New creates a notifier whose requests time out after the given duration.
func New(timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{client: &http.Client{Timeout: timeout}}
}

// Notify POSTs payload as JSON to url and treats any non-2xx status as an
// error.
func (n *Notifier) Notify(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to encode notification payload").Warning().Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to build notification request").Warning().Build()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to deliver notification").
			Warning().
			WithContext("url", url).
			Build()
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NotifyError(fmt.Sprintf("notification rejected with status %d", resp.StatusCode)).
			WithContext("url", url).
			Build()
	}

	slog.Debug("notification delivered", logfields.URL(url), logfields.Status(resp.StatusCode))
	return nil
}
