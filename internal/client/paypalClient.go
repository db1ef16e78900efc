package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"course-marketplace/internal/config"
	"course-marketplace/internal/model"

	"github.com/shopspring/decimal"
)

const paypalIssueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

// PayPal maps onto the intent model through the Orders API: the created order
// id is the client secret, the buyer approves it in the browser, and Finalize
// captures it.
type paypalClientImpl struct {
	httpClient   *http.Client
	baseApiURL   string
	clientID     string
	clientSecret string
	scale        int

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type paypalAPIError struct {
	StatusCode int
	model.PaypalError
}

func (e *paypalAPIError) Error() string {
	return fmt.Sprintf("paypal error %d: %s %s", e.StatusCode, e.Name, e.Message)
}

func NewPaypalClient(cfg *config.Paypal, minorUnitMultiplier int64) PaymentProcessor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL:   strings.TrimRight(cfg.BaseApiURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scale:        scaleOf(minorUnitMultiplier),
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.clientID + ":" + c.clientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Join(ErrProcessorTransient, fmt.Errorf("http client do: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", classifyPaypalStatus(resp.StatusCode, b)
	}

	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode paypal token: %w", err)
	}

	c.accessToken = res.AccessToken
	// refresh a minute early so a token never expires mid-request
	c.tokenExpiry = time.Now().Add(time.Duration(res.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

// The course goes in reference_id and the learner in custom_id; PayPal echoes
// both back on the order and custom_id on each capture.
func (c *paypalClientImpl) CreateIntent(ctx context.Context, amount int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error) {
	payload := model.PaypalOrder{
		Intent: "CAPTURE",
		PurchaseUnits: []model.PurchaseUnit{
			{
				ReferenceID: owner.CourseID,
				CustomID:    owner.LearnerID,
				Amount: &model.Amount{
					Currency: strings.ToUpper(currency),
					Value:    decimal.New(amount, -int32(c.scale)).StringFixed(int32(c.scale)),
				},
			},
		},
	}

	var order model.PaypalOrder
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, nil, &order); err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}

	return &model.PaymentIntent{
		ProcessorIntentID: order.ID,
		ClientSecret:      order.ID,
		Amount:            amount,
		Currency:          currency,
	}, nil
}

// GetPayment takes a PayPal order id.
func (c *paypalClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.ProcessorPayment, error) {
	var order model.PaypalOrder
	if err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(paymentID), nil, nil, &order); err != nil {
		return nil, fmt.Errorf("paypal get order %s: %w", paymentID, err)
	}
	return c.toProcessorPayment(&order, ""), nil
}

// Finalize captures the approved order named by receipt.PaymentID. An order
// captured by an earlier attempt is looked up instead of failing.
func (c *paypalClientImpl) Finalize(ctx context.Context, receipt *model.PaymentReceipt, amount int64, currency string) (*model.ProcessorPayment, error) {
	headers := map[string]string{
		"PayPal-Request-Id": receipt.LearnerID + ":" + receipt.CourseID + ":" + receipt.PaymentID,
	}

	var order model.PaypalOrder
	path := "/v2/checkout/orders/" + url.PathEscape(receipt.PaymentID) + "/capture"
	err := c.do(ctx, http.MethodPost, path, struct{}{}, headers, &order)
	if err != nil {
		var apiErr *paypalAPIError
		if errors.As(err, &apiErr) && apiErr.HasIssue(paypalIssueAlreadyCaptured) {
			return c.GetPayment(ctx, receipt.PaymentID)
		}
		return nil, fmt.Errorf("paypal capture order %s: %w", receipt.PaymentID, err)
	}

	return c.toProcessorPayment(&order, currency), nil
}

func (c *paypalClientImpl) do(ctx context.Context, method, path string, payload any, headers map[string]string, out any) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrProcessorTransient, fmt.Errorf("http client do: %w", err))
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(ErrProcessorTransient, fmt.Errorf("read paypal response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyPaypalStatus(resp.StatusCode, b)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func classifyPaypalStatus(code int, body []byte) error {
	apiErr := &paypalAPIError{StatusCode: code}
	_ = json.Unmarshal(body, &apiErr.PaypalError)

	switch {
	case code == http.StatusNotFound:
		return errors.Join(ErrPaymentNotFound, apiErr)
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return errors.Join(ErrProcessorTransient, apiErr)
	}
	return apiErr
}

// toProcessorPayment reports the order as succeeded only once a capture has
// completed; the amount comes from that capture.
func (c *paypalClientImpl) toProcessorPayment(order *model.PaypalOrder, fallbackCurrency string) *model.ProcessorPayment {
	payment := &model.ProcessorPayment{
		ID:       order.ID,
		Currency: strings.ToLower(fallbackCurrency),
		Status:   strings.ToLower(order.Status),
	}

	for _, unit := range order.PurchaseUnits {
		if unit.ReferenceID != "" {
			payment.Owner.CourseID = unit.ReferenceID
		}
		if unit.CustomID != "" {
			payment.Owner.LearnerID = unit.CustomID
		}
		if unit.Amount != nil && payment.Amount == 0 {
			payment.Amount = c.minorUnits(unit.Amount.Value)
			payment.Currency = strings.ToLower(unit.Amount.Currency)
		}
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.Status != model.PaypalCaptureDone {
				continue
			}
			payment.Amount = c.minorUnits(capture.Amount.Value)
			payment.Currency = strings.ToLower(capture.Amount.Currency)
			if capture.CustomID != "" {
				payment.Owner.LearnerID = capture.CustomID
			}
			if order.Status == model.PaypalOrderCompleted {
				payment.Status = model.PaymentStatusSucceeded
			}
			return payment
		}
	}

	return payment
}

func (c *paypalClientImpl) minorUnits(value string) int64 {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0
	}
	return d.Shift(int32(c.scale)).Round(0).IntPart()
}
