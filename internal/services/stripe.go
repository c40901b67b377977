package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeConfig represents Stripe payment service configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// Tolerance bounds the accepted age of a signed webhook payload.
	Tolerance time.Duration
}

// StripeService talks to the Stripe API over plain HTTP. Only the three
// endpoints the storefront needs are implemented: session creation,
// line-item listing and customer retrieval.
type StripeService struct {
	config  StripeConfig
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(config StripeConfig) *StripeService {
	if config.Tolerance == 0 {
		config.Tolerance = 5 * time.Minute
	}

	return &StripeService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.stripe.com",
		now:     time.Now,
	}
}

// stripeError is the error envelope Stripe returns on non-2xx responses.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeSession struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	AmountTotal     int               `json:"amount_total"`
	Customer        string            `json:"customer"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerDetails struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

type stripeLineItem struct {
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	AmountTotal    int    `json:"amount_total"`
	AmountSubtotal int    `json:"amount_subtotal"`
	Price          struct {
		Product struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"product"`
	} `json:"price"`
}

type stripeList struct {
	Data []json.RawMessage `json:"data"`
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CreateCheckoutSession creates a hosted checkout session and returns its
// redirect URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("checkout session needs at least one line item")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("customer_creation", "always")

	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "eur")
		form.Set(prefix+"[price_data][unit_amount]", strconv.Itoa(item.UnitAmount))
		form.Set(prefix+"[price_data][product_data][name]", item.DisplayName)
		if item.OfferID != "" {
			form.Set(prefix+"[price_data][product_data][metadata][offer_id]", item.OfferID)
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	for key, value := range req.Metadata {
		form.Set("metadata["+key+"]", value)
	}

	body, err := s.post(ctx, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var session stripeSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ListLineItems retrieves the itemized purchase lines of a session, with the
// product expanded so structured offer metadata comes back with each line.
func (s *StripeService) ListLineItems(ctx context.Context, sessionID string) ([]SessionLineItem, error) {
	path := fmt.Sprintf("/v1/checkout/sessions/%s/line_items?limit=100&expand[]=data.price.product", url.PathEscape(sessionID))
	body, err := s.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var list stripeList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	items := make([]SessionLineItem, 0, len(list.Data))
	for _, raw := range list.Data {
		var li stripeLineItem
		if err := json.Unmarshal(raw, &li); err != nil {
			return nil, fmt.Errorf("failed to decode line item: %w", err)
		}
		if li.Quantity == 0 {
			li.Quantity = 1
		}
		items = append(items, SessionLineItem{
			Description:    li.Description,
			Quantity:       li.Quantity,
			AmountTotal:    li.AmountTotal,
			AmountSubtotal: li.AmountSubtotal,
			OfferID:        li.Price.Product.Metadata["offer_id"],
		})
	}

	return items, nil
}

// CustomerEmail retrieves the email of a provider customer record.
func (s *StripeService) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	body, err := s.get(ctx, "/v1/customers/"+url.PathEscape(customerID))
	if err != nil {
		return "", err
	}

	var customer struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &customer); err != nil {
		return "", fmt.Errorf("failed to decode customer: %w", err)
	}

	return customer.Email, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// payload: hex HMAC-SHA256 of "<timestamp>.<payload>" with the webhook
// secret, compared in constant time, with the timestamp inside the
// configured tolerance.
func (s *StripeService) VerifyWebhookSignature(payload []byte, signatureHeader string) error {
	if signatureHeader == "" {
		return fmt.Errorf("missing webhook signature header")
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signatureHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}

	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("malformed webhook signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed webhook signature timestamp")
	}

	age := s.now().Sub(time.Unix(ts, 0))
	if age > s.config.Tolerance || age < -s.config.Tolerance {
		return fmt.Errorf("webhook signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("webhook signature mismatch")
}

// ParseEvent decodes a webhook payload into the event envelope. The session
// object is only decoded for checkout completion events.
func (s *StripeService) ParseEvent(payload []byte) (*WebhookEvent, error) {
	var raw stripeEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}

	event := &WebhookEvent{ID: raw.ID, Type: raw.Type}

	if raw.Type == "checkout.session.completed" {
		var session stripeSession
		if err := json.Unmarshal(raw.Data.Object, &session); err != nil {
			return nil, fmt.Errorf("failed to decode completed session: %w", err)
		}
		email := session.CustomerEmail
		if email == "" {
			email = session.CustomerDetails.Email
		}
		event.Session = &CompletedSession{
			ID:            session.ID,
			AmountTotal:   session.AmountTotal,
			CustomerID:    session.Customer,
			CustomerEmail: email,
			CustomerName:  session.CustomerDetails.Name,
			Metadata:      session.Metadata,
		}
	}

	return event, nil
}

// Helper methods

func (s *StripeService) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *StripeService) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req)
}

func (s *StripeService) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, s.handleAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func (s *StripeService) handleAPIError(statusCode int, body []byte) error {
	var apiErr stripeError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("API error (status %d): %s", statusCode, string(body))
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: check API keys - %s", apiErr.Error.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s", apiErr.Error.Message)
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s", apiErr.Error.Message)
	default:
		return fmt.Errorf("%s: %s", apiErr.Error.Type, apiErr.Error.Message)
	}
}
