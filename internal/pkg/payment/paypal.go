// Package payment talks to the PayPal Orders v2 API. Orders are created
// server side and captured after the buyer approves, the capture result
// feeds the premium allow-list.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pictotext/pictotext/internal/pkg/env"
)

const (
	defaultPayPalAPIBaseURL = "https://api-m.sandbox.paypal.com"

	// PremiumPrice is the one-time premium charge in USD.
	PremiumPrice    = "9.99"
	PremiumCurrency = "USD"
)

// ErrNotConfigured is returned when the PayPal credentials are missing.
var ErrNotConfigured = errors.New("PAYPAL_CLIENT_ID/PAYPAL_CLIENT_SECRET are not configured")

type PayPalClient struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string

	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type clientTokenResponse struct {
	ClientToken string `json:"client_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Order is the subset of the order resource the app cares about.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Capture is the outcome of capturing an approved order.
type Capture struct {
	OrderID    string
	Status     string
	PayerEmail string
	Amount     string
	Currency   string
}

func NewPayPalClientFromEnv() *PayPalClient {
	return &PayPalClient{
		ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
		APIBaseURL:   strings.TrimRight(env.GetEnv("PAYPAL_API_BASE_URL", defaultPayPalAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// IsConfigured reports whether credentials are present.
func (c *PayPalClient) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// bearer returns a cached client-credentials token, refreshing it shortly
// before it expires.
func (c *PayPalClient) bearer(ctx context.Context) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}

	c.accessToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// ClientToken fetches a browser SDK token for the payment form.
func (c *PayPalClient) ClientToken(ctx context.Context) (string, error) {
	var out clientTokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/identity/generate-token", nil, &out); err != nil {
		return "", err
	}
	return out.ClientToken, nil
}

// CreateOrder opens an order for the premium charge and returns its ID for
// the browser approval flow.
func (c *PayPalClient) CreateOrder(ctx context.Context, amount, currency string) (*Order, error) {
	if amount == "" {
		amount = PremiumPrice
	}
	if currency == "" {
		currency = PremiumCurrency
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": currency,
					"value":         amount,
				},
			},
		},
	}

	var out Order
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type captureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CaptureOrder captures an approved order and returns the payment details.
func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id is required")
	}

	var out captureResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := c.doJSON(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}

	capture := &Capture{
		OrderID:    out.ID,
		Status:     out.Status,
		PayerEmail: out.Payer.EmailAddress,
	}
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		amount := out.PurchaseUnits[0].Payments.Captures[0].Amount
		capture.Amount = amount.Value
		capture.Currency = amount.CurrencyCode
	}
	return capture, nil
}

func (c *PayPalClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
