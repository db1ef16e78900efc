package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"course-marketplace/internal/config"
	"course-marketplace/internal/model"

	"github.com/braintree-go/braintree-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Braintree has no server-created intent: the client token plays the role of the
// client secret, and the nonce the client returns is charged in Finalize.
type braintreeClientImpl struct {
	gateway *braintree.Braintree
	scale   int
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree, minorUnitMultiplier int64) PaymentProcessor {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
		scale:   scaleOf(minorUnitMultiplier),
	}
}

// The owner is attached at sale time in Finalize, where the order id is set.
func (c *braintreeClientImpl) CreateIntent(ctx context.Context, amount int64, currency string, _ model.PaymentOwner) (*model.PaymentIntent, error) {
	token, err := c.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("braintree generate client token: %w", classifyBraintreeError(err))
	}

	return &model.PaymentIntent{
		ProcessorIntentID: uuid.NewString(),
		ClientSecret:      token,
		Amount:            amount,
		Currency:          currency,
	}, nil
}

func (c *braintreeClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.ProcessorPayment, error) {
	tx, err := c.gateway.Transaction().Find(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("braintree find transaction %s: %w", paymentID, classifyBraintreeError(err))
	}
	return c.toProcessorPayment(tx), nil
}

// Finalize charges the payment method nonce carried in receipt.PaymentID and
// submits it for settlement in one call.
func (c *braintreeClientImpl) Finalize(ctx context.Context, receipt *model.PaymentReceipt, amount int64, currency string) (*model.ProcessorPayment, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(amount, c.scale),
		PaymentMethodNonce: receipt.PaymentID,
		OrderId:            braintreeOrderID(receipt.Owner()),
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("braintree sale: %w", classifyBraintreeError(err))
	}

	payment := c.toProcessorPayment(tx)
	if payment.Currency == "" {
		payment.Currency = currency
	}
	return payment, nil
}

func (c *braintreeClientImpl) toProcessorPayment(tx *braintree.Transaction) *model.ProcessorPayment {
	return &model.ProcessorPayment{
		ID:       tx.Id,
		Amount:   minorUnits(tx.Amount, c.scale),
		Currency: strings.ToLower(tx.CurrencyISOCode),
		Status:   braintreeStatus(tx.Status),
		Owner:    braintreeOwner(tx.OrderId),
	}
}

func braintreeOrderID(owner model.PaymentOwner) string {
	return owner.LearnerID + ":" + owner.CourseID
}

func braintreeOwner(orderID string) model.PaymentOwner {
	learnerID, courseID, _ := strings.Cut(orderID, ":")
	return model.PaymentOwner{LearnerID: learnerID, CourseID: courseID}
}

// braintreeStatus maps settlement states onto the receipt vocabulary.
func braintreeStatus(status braintree.TransactionStatus) string {
	switch status {
	case braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettled:
		return model.PaymentStatusSucceeded
	default:
		return string(status)
	}
}

func minorUnits(amount *braintree.Decimal, scale int) int64 {
	if amount == nil {
		return 0
	}
	return decimal.New(amount.Unscaled, -int32(amount.Scale)).Shift(int32(scale)).Round(0).IntPart()
}

// scaleOf turns a minor unit multiplier (1, 100, 1000) into a decimal scale.
func scaleOf(multiplier int64) int {
	scale := 0
	for multiplier >= 10 {
		multiplier /= 10
		scale++
	}
	return scale
}

func classifyBraintreeError(err error) error {
	var statusErr interface{ StatusCode() int }
	if !errors.As(err, &statusErr) {
		return errors.Join(ErrProcessorTransient, err)
	}

	switch code := statusErr.StatusCode(); {
	case code == http.StatusNotFound:
		return errors.Join(ErrPaymentNotFound, err)
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return errors.Join(ErrProcessorTransient, err)
	}
	return err
}
