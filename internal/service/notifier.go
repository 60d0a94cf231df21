package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cms_syncer/internal/domain"
)

const maxResponseBody = 500

// envelope is the outbound webhook body.
type envelope struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Notifier delivers one outbound callback per invocation: no retries, no
// queuing. Every attempt is logged before Deliver returns, with the actual
// response code or 0 for transport-level failures.
type Notifier struct {
	destinations map[string]string
	httpClient   *http.Client
	log          DeliveryLog
	logger       *slog.Logger
}

func NewNotifier(destinations map[string]string, timeout time.Duration, log DeliveryLog, logger *slog.Logger) *Notifier {
	return &Notifier{
		destinations: destinations,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:    log,
		logger: logger.With("component", "notifier"),
	}
}

// Deliver posts the record to the destination configured for eventType. An
// unconfigured event type is a no-op, not an error: nothing is sent and
// nothing is logged.
func (n *Notifier) Deliver(ctx context.Context, eventType string, record any) domain.DeliveryResult {
	destination, ok := n.destinations[eventType]
	if !ok || destination == "" {
		n.logger.Debug("no destination configured", "event_type", eventType)
		return domain.DeliveryResult{Unconfigured: true}
	}

	payload, err := json.Marshal(envelope{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Data:      record,
	})
	if err != nil {
		n.logger.Error("failed to marshal envelope", "event_type", eventType, "error", err)
		return domain.DeliveryResult{}
	}

	result := n.post(ctx, destination, payload)

	n.record(ctx, eventType, destination, payload, result)

	if result.Success {
		n.logger.Debug("delivered webhook", "event_type", eventType, "code", result.ResponseCode)
	} else {
		n.logger.Warn("webhook delivery failed",
			"event_type", eventType,
			"destination", destination,
			"code", result.ResponseCode,
		)
	}

	return result
}

func (n *Notifier) post(ctx context.Context, destination string, payload []byte) domain.DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(payload))
	if err != nil {
		return domain.DeliveryResult{Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// Transport failure: no HTTP status, logged as code 0.
		return domain.DeliveryResult{Body: truncate(err.Error())}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	return domain.DeliveryResult{
		Success:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		ResponseCode: resp.StatusCode,
		Body:         string(body),
	}
}

func (n *Notifier) record(ctx context.Context, eventType, destination string, payload []byte, result domain.DeliveryResult) {
	entry := &domain.DeliveryLogEntry{
		EventType:    eventType,
		Destination:  destination,
		Payload:      payload,
		ResponseCode: result.ResponseCode,
		ResponseBody: truncate(result.Body),
		Success:      result.Success,
		Timestamp:    time.Now().UTC(),
	}
	if _, err := n.log.Append(ctx, entry); err != nil {
		n.logger.Error("failed to log delivery", "event_type", eventType, "error", err)
	}
}

func truncate(s string) string {
	if len(s) > maxResponseBody {
		return s[:maxResponseBody]
	}
	return s
}
