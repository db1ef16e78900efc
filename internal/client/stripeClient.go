package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"course-marketplace/internal/config"
	"course-marketplace/internal/model"

	"github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
)

type stripeClientImpl struct {
	api *stripeclient.API
}

func NewStripeClient(cfg *config.Stripe) PaymentProcessor {
	return newStripeClient(cfg.SecretKey, nil)
}

// newStripeClient accepts custom backends so tests can point the SDK at a fake server.
func newStripeClient(secretKey string, backends *stripe.Backends) *stripeClientImpl {
	api := &stripeclient.API{}
	api.Init(secretKey, backends)
	return &stripeClientImpl{api: api}
}

const (
	stripeMetaLearner = "learner_id"
	stripeMetaCourse  = "course_id"
)

func (c *stripeClientImpl) CreateIntent(ctx context.Context, amount int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(stripeMetaLearner, owner.LearnerID)
	params.AddMetadata(stripeMetaCourse, owner.CourseID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", classifyStripeError(err))
	}

	return &model.PaymentIntent{
		ProcessorIntentID: pi.ID,
		ClientSecret:      pi.ClientSecret,
		Amount:            pi.Amount,
		Currency:          string(pi.Currency),
	}, nil
}

func (c *stripeClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.ProcessorPayment, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(paymentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent %s: %w", paymentID, classifyStripeError(err))
	}

	return &model.ProcessorPayment{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Status:   string(pi.Status),
		Owner: model.PaymentOwner{
			LearnerID: pi.Metadata[stripeMetaLearner],
			CourseID:  pi.Metadata[stripeMetaCourse],
		},
	}, nil
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// no API error body means we never got a response
		return errors.Join(ErrProcessorTransient, err)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound:
		return errors.Join(ErrPaymentNotFound, err)
	case stripeErr.HTTPStatusCode == http.StatusTooManyRequests,
		stripeErr.HTTPStatusCode >= http.StatusInternalServerError,
		stripeErr.Type == stripe.ErrorTypeAPI:
		return errors.Join(ErrProcessorTransient, err)
	}
	return err
}
