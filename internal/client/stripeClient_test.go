package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"course-marketplace/internal/model"

	"github.com/stripe/stripe-go/v82"
)

func newTestStripeClient(t *testing.T, handler http.HandlerFunc) *stripeClientImpl {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	return newStripeClient("sk_test_123", &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

func TestStripeCreateIntent(t *testing.T) {
	var form url.Values
	c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_123","object":"payment_intent","amount":5000,"currency":"usd","status":"requires_payment_method","client_secret":"pi_123_secret_abc"}`)
	})

	intent, err := c.CreateIntent(context.Background(), 5000, "usd", model.PaymentOwner{LearnerID: "l-1", CourseID: "c-1"})
	if err != nil {
		t.Fatalf("CreateIntent() error = %v", err)
	}

	if intent.ProcessorIntentID != "pi_123" || intent.ClientSecret != "pi_123_secret_abc" {
		t.Errorf("unexpected intent: %+v", intent)
	}
	if intent.Amount != 5000 || intent.Currency != "usd" {
		t.Errorf("unexpected amount/currency: %+v", intent)
	}
	if form.Get("amount") != "5000" || form.Get("currency") != "usd" {
		t.Errorf("unexpected form sent: %v", form)
	}
	if form.Get("metadata[learner_id]") != "l-1" || form.Get("metadata[course_id]") != "c-1" {
		t.Errorf("owner metadata not sent: %v", form)
	}
}

func TestStripeGetPayment(t *testing.T) {
	c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payment_intents/pi_123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"pi_123","object":"payment_intent","amount":5000,"currency":"usd","status":"succeeded","metadata":{"learner_id":"l-1","course_id":"c-1"}}`)
	})

	payment, err := c.GetPayment(context.Background(), "pi_123")
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	if payment.Status != "succeeded" || payment.Amount != 5000 || payment.Currency != "usd" {
		t.Errorf("unexpected payment: %+v", payment)
	}
	if payment.Owner != (model.PaymentOwner{LearnerID: "l-1", CourseID: "c-1"}) {
		t.Errorf("owner = %+v", payment.Owner)
	}
}

func TestStripeErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "missing payment",
			status: http.StatusNotFound,
			body:   `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`,
			want:   ErrPaymentNotFound,
		},
		{
			name:   "server error is transient",
			status: http.StatusInternalServerError,
			body:   `{"error":{"type":"api_error","message":"boom"}}`,
			want:   ErrProcessorTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.GetPayment(context.Background(), "pi_missing")
			if !errors.Is(err, tt.want) {
				t.Fatalf("GetPayment() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStripeBadRequestIsNotTransient(t *testing.T) {
	c := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"invalid_request_error","code":"amount_too_small","message":"too small"}}`)
	})

	_, err := c.CreateIntent(context.Background(), 1, "usd", model.PaymentOwner{LearnerID: "l-1", CourseID: "c-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrProcessorTransient) {
		t.Errorf("validation errors must not be retried: %v", err)
	}
}
