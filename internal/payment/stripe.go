package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultAPIBase = "https://api.stripe.com"

// Signature verification failures are distinguishable so the webhook
// handler can answer 400 instead of 500.
var (
	ErrBadSignature = errors.New("payment: webhook signature mismatch")
	ErrStaleEvent   = errors.New("payment: webhook timestamp outside tolerance")
)

// StripeClient talks to the Stripe REST API with form-encoded requests.
type StripeClient struct {
	apiBase    string
	secretKey  string
	webhookKey string
	httpClient *http.Client
}

func NewStripeClient(secretKey, webhookKey string) *StripeClient {
	return &StripeClient{
		apiBase:    defaultAPIBase,
		secretKey:  secretKey,
		webhookKey: webhookKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CheckoutItem is one line of a checkout session.
type CheckoutItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// CheckoutSession is the subset of the session object the store needs.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession opens a hosted checkout page for an order.
// Prices are converted to the smallest currency unit.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, orderID uint64, items []CheckoutItem, successURL, cancelURL string) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("client_reference_id", strconv.FormatUint(orderID, 10))
	for i, it := range items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(it.Quantity))
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][product_data][name]", it.Name)
		form.Set(prefix+"[price_data][unit_amount]", it.Price.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}

	var sess CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &sess); err != nil {
		return CheckoutSession{}, err
	}
	return sess, nil
}

// Refund is the subset of the refund object the store needs.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateRefund refunds the payment behind a checkout session in full.
func (c *StripeClient) CreateRefund(ctx context.Context, paymentIntentID string) (Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var ref Refund
	if err := c.post(ctx, "/v1/refunds", form, &ref); err != nil {
		return Refund{}, err
	}
	return ref, nil
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gateway error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// webhookTolerance bounds how old a signed event may be.
const webhookTolerance = 5 * time.Minute

// VerifyWebhookSignature checks the Stripe-Signature header against the
// raw payload.  The header carries a timestamp and one or more v1 HMAC
// signatures over "<timestamp>.<payload>".
func (c *StripeClient) VerifyWebhookSignature(payload []byte, header string, now time.Time) error {
	return verifySignature(payload, header, c.webhookKey, now, webhookTolerance)
}

func verifySignature(payload []byte, header, key string, now time.Time, tolerance time.Duration) error {
	var ts int64
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			n, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = n
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrBadSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return ErrStaleEvent
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return ErrBadSignature
}

// WebhookEvent is the envelope of a gateway event notification.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			PaymentIntent     string `json:"payment_intent"`
			PaymentStatus     string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhookEvent decodes a verified webhook payload.
func ParseWebhookEvent(payload []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}
