package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"funding-ledger/internal/core/domain"

	"github.com/rs/zerolog"
)

// notifyRetryIntervals bounds redelivery attempts for a single event.
var notifyRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	5 * time.Minute,
}

// EventWithdrawalUpdate is the event type sent on withdrawal transitions.
const EventWithdrawalUpdate = "WITHDRAWAL_UPDATE"

// NotifyPayload is the JSON structure posted to the dispatcher endpoint.
type NotifyPayload struct {
	EventType    string  `json:"event_type"`
	WithdrawalID string  `json:"withdrawal_id"`
	InvestorID   string  `json:"investor_id"`
	RoundID      string  `json:"round_id"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookNotifier implements ports.Notifier by posting withdrawal status
// transitions to the notification dispatcher. Delivery is asynchronous and
// best-effort: the ledger core never blocks or fails on it.
type WebhookNotifier struct {
	endpoint   string // empty disables delivery
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(endpoint string, httpClient HTTPClient, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        log,
	}
}

// NotifyWithdrawal dispatches a withdrawal transition event.
func (n *WebhookNotifier) NotifyWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) {
	if n.endpoint == "" {
		n.log.Debug().Str("withdrawal_id", w.ID.String()).Msg("notify: no endpoint configured, skipping")
		return
	}

	payload := NotifyPayload{
		EventType:    EventWithdrawalUpdate,
		WithdrawalID: w.ID.String(),
		InvestorID:   w.InvestorID.String(),
		RoundID:      w.RoundID.String(),
		Status:       string(w.Status),
		Amount:       w.Amount,
		Timestamp:    time.Now().Unix(),
	}
	if w.RejectionReason != nil {
		payload.Reason = *w.RejectionReason
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Error().Err(err).Str("withdrawal_id", w.ID.String()).Msg("notify: marshal payload failed")
		return
	}

	// The caller's request must not wait on delivery.
	go n.deliver(w.ID.String(), body)
}

func (n *WebhookNotifier) deliver(withdrawalID string, body []byte) {
	for attempt := 0; ; attempt++ {
		if n.send(body) {
			n.log.Debug().
				Str("withdrawal_id", withdrawalID).
				Int("attempt", attempt+1).
				Msg("notify: delivered")
			return
		}
		if attempt >= len(notifyRetryIntervals) {
			n.log.Warn().
				Str("withdrawal_id", withdrawalID).
				Int("attempts", attempt+1).
				Msg("notify: giving up after retries")
			return
		}
		time.Sleep(notifyRetryIntervals[attempt])
	}
}

func (n *WebhookNotifier) send(body []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		n.log.Error().Err(err).Msg("notify: build request failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Msg("notify: delivery attempt failed")
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
