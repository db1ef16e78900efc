package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"course-marketplace/internal/client"
	"course-marketplace/internal/config"
	"course-marketplace/internal/metrics"
	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"github.com/avast/retry-go/v4"
	"github.com/shopspring/decimal"
)

// PaymentService coordinates payment intents with the configured processor.
// It keeps no local state: an abandoned intent simply expires at the processor.
type PaymentService interface {
	OpenIntent(ctx context.Context, amountMinor int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error)
	ValidateReceipt(receipt *model.PaymentReceipt, expectedAmount int64) error
	// VerifyWithProcessor confirms the receipt against the processor's own record.
	// It returns a nil payment when verification is disabled and the processor
	// needs no server-side finalization.
	VerifyWithProcessor(ctx context.Context, receipt *model.PaymentReceipt, expectedAmount int64) (*model.ProcessorPayment, error)
	MinorUnits(price decimal.Decimal) int64
	Currency() string
}

type paymentServiceImpl struct {
	processor client.PaymentProcessor
	cfg       config.Payment
	log       *slog.Logger
}

func NewPaymentService(processor client.PaymentProcessor, cfg config.Payment, log *slog.Logger) PaymentService {
	// retry-go treats zero attempts as "retry forever"
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.MinorUnitMultiplier <= 0 {
		cfg.MinorUnitMultiplier = 100
	}
	cfg.Currency = strings.ToLower(cfg.Currency)

	return &paymentServiceImpl{
		processor: processor,
		cfg:       cfg,
		log:       log.With(slog.String("component", "payment")),
	}
}

func (s *paymentServiceImpl) Currency() string {
	return s.cfg.Currency
}

func (s *paymentServiceImpl) MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(s.cfg.MinorUnitMultiplier)).Round(0).IntPart()
}

func (s *paymentServiceImpl) OpenIntent(ctx context.Context, amountMinor int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: %d", serverrors.ErrInvalidAmount, amountMinor)
	}

	var intent *model.PaymentIntent
	err := s.withRetry(ctx, "create_intent", func() error {
		var err error
		intent, err = s.processor.CreateIntent(ctx, amountMinor, currency, owner)
		return err
	})
	if err != nil {
		s.log.ErrorContext(ctx, "open payment intent failed",
			slog.Int64("amount", amountMinor),
			slog.String("currency", currency),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: create intent", serverrors.ErrProcessorUnavailable)
	}

	metrics.IntentsOpened.Inc()
	return intent, nil
}

func (s *paymentServiceImpl) ValidateReceipt(receipt *model.PaymentReceipt, expectedAmount int64) error {
	if receipt == nil {
		return fmt.Errorf("%w: empty receipt", serverrors.ErrInvalidReceipt)
	}
	if receipt.Status != model.PaymentStatusSucceeded {
		return fmt.Errorf("%w: status %q", serverrors.ErrInvalidReceipt, receipt.Status)
	}
	if receipt.Amount != expectedAmount {
		return fmt.Errorf("%w: amount %d, expected %d", serverrors.ErrInvalidReceipt, receipt.Amount, expectedAmount)
	}
	return nil
}

func (s *paymentServiceImpl) VerifyWithProcessor(ctx context.Context, receipt *model.PaymentReceipt, expectedAmount int64) (*model.ProcessorPayment, error) {
	var (
		payment *model.ProcessorPayment
		err     error
	)

	// A finalizing processor has not charged anything yet, so it runs even with
	// verification turned off. The charge is never retried.
	if finalizer, ok := s.processor.(client.PaymentFinalizer); ok {
		start := time.Now()
		payment, err = finalizer.Finalize(ctx, receipt, expectedAmount, s.cfg.Currency)
		metrics.ProcessorCallTime.WithLabelValues("finalize").Observe(time.Since(start).Seconds())
	} else {
		if !s.cfg.VerifyWithProcessor {
			return nil, nil
		}
		err = s.withRetry(ctx, "get_payment", func() error {
			var err error
			payment, err = s.processor.GetPayment(ctx, receipt.PaymentID)
			return err
		})
	}

	if err != nil {
		if errors.Is(err, client.ErrProcessorTransient) || ctx.Err() != nil {
			s.log.ErrorContext(ctx, "processor verification unavailable",
				slog.String("payment_id", receipt.PaymentID),
				slog.Any("error", err))
			return nil, fmt.Errorf("%w: verify payment", serverrors.ErrProcessorUnavailable)
		}
		s.log.WarnContext(ctx, "processor rejected payment",
			slog.String("payment_id", receipt.PaymentID),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: payment %s not accepted by processor", serverrors.ErrInvalidReceipt, receipt.PaymentID)
	}

	switch {
	case payment.Status != model.PaymentStatusSucceeded:
		return nil, fmt.Errorf("%w: processor status %q", serverrors.ErrInvalidReceipt, payment.Status)
	case payment.Amount != expectedAmount:
		return nil, fmt.Errorf("%w: processor amount %d, expected %d", serverrors.ErrInvalidReceipt, payment.Amount, expectedAmount)
	case !strings.EqualFold(payment.Currency, s.cfg.Currency):
		return nil, fmt.Errorf("%w: processor currency %q, expected %q", serverrors.ErrInvalidReceipt, payment.Currency, s.cfg.Currency)
	case payment.Owner != receipt.Owner():
		// a payment opened for another learner or course cannot be redeemed here
		return nil, fmt.Errorf("%w: payment %s was opened for learner %q course %q", serverrors.ErrInvalidReceipt,
			payment.ID, payment.Owner.LearnerID, payment.Owner.CourseID)
	}

	return payment, nil
}

// withRetry retries op only while the processor reports a transient failure.
func (s *paymentServiceImpl) withRetry(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	defer func() {
		metrics.ProcessorCallTime.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.cfg.RetryAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.MaxDelay(s.cfg.RetryMaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, client.ErrProcessorTransient)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.log.WarnContext(ctx, "processor call failed, retrying",
				slog.String("op", op),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err))
		}),
	)
}
