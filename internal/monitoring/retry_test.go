package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-scorer/internal/config"
)

func fastRetry() retryPolicy {
	return retryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"503", &webhookStatusError{StatusCode: http.StatusServiceUnavailable}, true},
		{"429", &webhookStatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"400", &webhookStatusError{StatusCode: http.StatusBadRequest}, false},
		{"404", &webhookStatusError{StatusCode: http.StatusNotFound}, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := retryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 300*time.Millisecond, p.backoff(5))
}

func TestRetryPolicy_Deliver(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{"first try", nil, 1, false},
		{"recovers", []error{&webhookStatusError{StatusCode: 502}}, 2, false},
		{"permanent", []error{&webhookStatusError{StatusCode: 401}}, 1, true},
		{"exhausted", []error{syscall.ECONNRESET, syscall.ECONNRESET, syscall.ECONNRESET}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastRetry().deliver(context.Background(), AlertDeadline, func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicy_DeliverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry().deliver(ctx, AlertDeadline, func(context.Context) error {
		calls++
		return &webhookStatusError{StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAlerter_SendAlerts_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})
	a.retry = fastRetry()

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertHighProbability, Message: "test"}})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), hits.Load())
}
