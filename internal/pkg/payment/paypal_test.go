package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(serverURL string) *PayPalClient {
	return &PayPalClient{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		APIBaseURL:   serverURL,
		HTTPClient:   http.DefaultClient,
	}
}

func paypalStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["intent"] != "CAPTURE" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "ORDER-1", "status": "CREATED"})
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER-1/capture", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-1",
			"status": "COMPLETED",
			"payer":  map[string]string{"email_address": "buyer@example.com"},
			"purchase_units": []map[string]any{
				{"payments": map[string]any{"captures": []map[string]any{
					{"amount": map[string]string{"currency_code": "USD", "value": "9.99"}},
				}}},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestCreateAndCaptureOrder(t *testing.T) {
	server := paypalStub(t)
	defer server.Close()

	client := newTestClient(server.URL)

	order, err := client.CreateOrder(context.Background(), "", "")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "ORDER-1" || order.Status != "CREATED" {
		t.Fatalf("unexpected order: %+v", order)
	}

	capture, err := client.CaptureOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("CaptureOrder: %v", err)
	}
	if capture.Status != "COMPLETED" {
		t.Fatalf("expected COMPLETED, got %q", capture.Status)
	}
	if capture.PayerEmail != "buyer@example.com" {
		t.Fatalf("expected payer email, got %q", capture.PayerEmail)
	}
	if capture.Amount != "9.99" || capture.Currency != "USD" {
		t.Fatalf("unexpected amount: %s %s", capture.Amount, capture.Currency)
	}
}

func TestBearerTokenIsCached(t *testing.T) {
	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": 3600})
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "X", "status": "CREATED"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.CreateOrder(context.Background(), "9.99", "USD"); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}
	if tokenCalls != 1 {
		t.Fatalf("expected a single token request, got %d", tokenCalls)
	}
}

func TestUnconfiguredClientFails(t *testing.T) {
	client := &PayPalClient{HTTPClient: http.DefaultClient}
	_, err := client.CreateOrder(context.Background(), "", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCaptureRequiresOrderID(t *testing.T) {
	client := newTestClient("http://localhost:0")
	if _, err := client.CaptureOrder(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty order id")
	}
}
