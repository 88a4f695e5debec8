package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultNotchPayURL = "https://api.notchpay.co"

// NotchPayClient wraps the mobile-money payment gateway used for plan
// subscriptions (XAF).
type NotchPayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type PaymentLink struct {
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
}

type PaymentStatus struct {
	Status string `json:"status"` // pending, complete, failed
	Amount int    `json:"amount"`
}

func NewNotchPayClient(apiKey string) *NotchPayClient {
	return &NotchPayClient{
		baseURL:    defaultNotchPayURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreatePayment creates a hosted payment link for the given amount in FCFA.
func (c *NotchPayClient) CreatePayment(ctx context.Context, amountFCFA int, email, phone, reference, description string) (*PaymentLink, error) {
	payload := map[string]any{
		"amount":      amountFCFA,
		"currency":    "XAF",
		"email":       email,
		"phone":       phone,
		"reference":   reference,
		"description": description,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment gateway rejected request (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &PaymentLink{PaymentURL: parsed.AuthorizationURL, Reference: parsed.Reference}, nil
}

// VerifyPayment fetches the current status of a payment by reference.
func (c *NotchPayClient) VerifyPayment(ctx context.Context, reference string) (*PaymentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment verification failed (%d): %s", resp.StatusCode, string(body))
	}

	var status PaymentStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode payment status: %w", err)
	}
	return &status, nil
}
