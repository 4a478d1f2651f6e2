package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"funding-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingClient records the delivered request and signals completion.
type capturingClient struct {
	status   int
	received chan NotifyPayload
}

func newCapturingClient(status int) *capturingClient {
	return &capturingClient{status: status, received: make(chan NotifyPayload, 1)}
}

func (c *capturingClient) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	var payload NotifyPayload
	_ = json.Unmarshal(body, &payload)
	c.received <- payload
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestWebhookNotifier_NotifyWithdrawal_Delivers(t *testing.T) {
	client := newCapturingClient(http.StatusOK)
	notifier := NewWebhookNotifier("https://dispatcher.example.com/events", client, zerolog.Nop())

	reason := "verification failed"
	resolvedAt := time.Now()
	w := &domain.WithdrawalRequest{
		ID:              uuid.New(),
		InvestorID:      uuid.New(),
		RoundID:         uuid.New(),
		Amount:          300,
		Status:          domain.WithdrawalStatusRejected,
		RejectionReason: &reason,
		RequestedAt:     time.Now().Add(-time.Hour),
		ResolvedAt:      &resolvedAt,
	}

	notifier.NotifyWithdrawal(context.Background(), w)

	select {
	case payload := <-client.received:
		assert.Equal(t, EventWithdrawalUpdate, payload.EventType)
		assert.Equal(t, w.ID.String(), payload.WithdrawalID)
		assert.Equal(t, string(domain.WithdrawalStatusRejected), payload.Status)
		assert.Equal(t, reason, payload.Reason)
		assert.Equal(t, float64(300), payload.Amount)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never delivered")
	}
}

type nopClient struct{ calls int }

func (c *nopClient) Do(*http.Request) (*http.Response, error) {
	c.calls++
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
}

// Without an endpoint configured the notifier is a no-op.
func TestWebhookNotifier_NotifyWithdrawal_NoEndpoint(t *testing.T) {
	client := &nopClient{}
	notifier := NewWebhookNotifier("", client, zerolog.Nop())

	notifier.NotifyWithdrawal(context.Background(), &domain.WithdrawalRequest{
		ID:     uuid.New(),
		Status: domain.WithdrawalStatusCompleted,
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, client.calls)
}

func TestWebhookNotifier_Send_NonSuccessStatus(t *testing.T) {
	client := newCapturingClient(http.StatusBadGateway)
	notifier := NewWebhookNotifier("https://dispatcher.example.com/events", client, zerolog.Nop())

	ok := notifier.send([]byte(`{}`))
	require.False(t, ok)
	<-client.received
}
