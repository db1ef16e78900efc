package client

import (
	"context"
	"errors"

	"course-marketplace/internal/model"
)

var (
	// ErrProcessorTransient marks failures worth retrying (network, 5xx, rate limits).
	ErrProcessorTransient = errors.New("transient payment processor error")
	ErrPaymentNotFound    = errors.New("payment not found at processor")
)

type PaymentProcessor interface {
	// CreateIntent reserves amount (minor units) for owner and returns a secret
	// the client uses to complete payment directly with the processor.
	CreateIntent(ctx context.Context, amount int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error)

	// GetPayment fetches the processor's own record of a payment, including
	// the owner it was opened for.
	GetPayment(ctx context.Context, paymentID string) (*model.ProcessorPayment, error)
}

// PaymentFinalizer is implemented by processors whose client step only yields a
// payment token and the charge itself has to be submitted by the server.
type PaymentFinalizer interface {
	Finalize(ctx context.Context, receipt *model.PaymentReceipt, amount int64, currency string) (*model.ProcessorPayment, error)
}
