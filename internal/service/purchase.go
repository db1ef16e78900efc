package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/dto"
	"course-marketplace/internal/metrics"
	"course-marketplace/internal/model"
	"course-marketplace/internal/repository"
	"course-marketplace/internal/serverrors"
)

// Purchase states, logged on every transition.
const (
	stateRequested       = "requested"
	statePriced          = "priced"
	stateIntentOpened    = "intent_opened"
	stateAwaitingReceipt = "awaiting_receipt"
	stateEntitled        = "entitled"
	stateRejected        = "rejected"
)

// PurchaseService drives a purchase from request to entitlement. It holds no
// state between BuyCourse and ConfirmOrder; the only coordination point is
// the entitlement store's uniqueness.
type PurchaseService interface {
	BuyCourse(ctx context.Context, principal *auth.Principal, courseID string) (*dto.BuyCourseResponse, error)
	ConfirmOrder(ctx context.Context, principal *auth.Principal, receipt *model.PaymentReceipt) (*model.Purchase, error)
	ListPurchases(ctx context.Context, principal *auth.Principal) (*dto.PurchasesResponse, error)
}

type purchaseServiceImpl struct {
	courseRepo   repository.CourseRepository
	purchaseRepo repository.PurchaseRepository
	payments     PaymentService
	log          *slog.Logger
}

func NewPurchaseService(
	courseRepo repository.CourseRepository,
	purchaseRepo repository.PurchaseRepository,
	payments PaymentService,
	log *slog.Logger,
) PurchaseService {
	return &purchaseServiceImpl{
		courseRepo:   courseRepo,
		purchaseRepo: purchaseRepo,
		payments:     payments,
		log:          log.With(slog.String("component", "purchase")),
	}
}

func (s *purchaseServiceImpl) BuyCourse(ctx context.Context, principal *auth.Principal, courseID string) (*dto.BuyCourseResponse, error) {
	if principal == nil || principal.Kind != auth.KindLearner {
		return nil, serverrors.ErrUnauthorized
	}
	log := s.log.With(slog.String("learner_id", principal.ID), slog.String("course_id", courseID))
	log.DebugContext(ctx, "purchase transition", slog.String("state", stateRequested))

	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, s.reject(ctx, log, "course lookup", fmt.Errorf("find course: %w", err))
	}

	owned, err := s.purchaseRepo.HasEntitlement(ctx, principal.ID, course.ID)
	if err != nil {
		return nil, s.reject(ctx, log, "entitlement check", fmt.Errorf("check entitlement: %w", err))
	}
	if owned {
		return nil, s.reject(ctx, log, "already purchased", serverrors.ErrAlreadyPurchased)
	}

	amount := s.payments.MinorUnits(course.Price)
	log.DebugContext(ctx, "purchase transition",
		slog.String("state", statePriced),
		slog.Int64("amount", amount),
		slog.String("currency", s.payments.Currency()))

	owner := model.PaymentOwner{LearnerID: principal.ID, CourseID: course.ID}
	intent, err := s.payments.OpenIntent(ctx, amount, s.payments.Currency(), owner)
	if err != nil {
		if errors.Is(err, serverrors.ErrProcessorUnavailable) {
			metrics.GatewayErrors.Inc()
			err = fmt.Errorf("%w: %v", serverrors.ErrPaymentGateway, err)
		}
		return nil, s.reject(ctx, log, "open intent", err)
	}
	log.DebugContext(ctx, "purchase transition",
		slog.String("state", stateIntentOpened),
		slog.String("intent_id", intent.ProcessorIntentID))

	log.DebugContext(ctx, "purchase transition", slog.String("state", stateAwaitingReceipt))
	return &dto.BuyCourseResponse{
		Message:      "Payment intent created",
		Course:       course,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *purchaseServiceImpl) ConfirmOrder(ctx context.Context, principal *auth.Principal, receipt *model.PaymentReceipt) (*model.Purchase, error) {
	if principal == nil || principal.Kind != auth.KindLearner || receipt == nil {
		return nil, serverrors.ErrUnauthorized
	}
	log := s.log.With(slog.String("learner_id", principal.ID), slog.String("course_id", receipt.CourseID))

	// the receipt is untrusted; it may only confirm a purchase for its bearer
	if receipt.LearnerID != principal.ID {
		metrics.ReceiptsRejected.WithLabelValues("principal_mismatch").Inc()
		return nil, s.reject(ctx, log, "receipt for another learner", serverrors.ErrUnauthorized)
	}

	course, err := s.courseRepo.FindByID(ctx, receipt.CourseID)
	if err != nil {
		return nil, s.reject(ctx, log, "course lookup", fmt.Errorf("find course: %w", err))
	}

	expected := s.payments.MinorUnits(course.Price)
	if err := s.payments.ValidateReceipt(receipt, expected); err != nil {
		metrics.ReceiptsRejected.WithLabelValues("receipt").Inc()
		return nil, s.reject(ctx, log, "receipt validation", err)
	}

	// a repeated confirmation must not reach the processor again
	owned, err := s.purchaseRepo.HasEntitlement(ctx, principal.ID, course.ID)
	if err != nil {
		return nil, s.reject(ctx, log, "entitlement check", fmt.Errorf("check entitlement: %w", err))
	}
	if owned {
		return s.existing(ctx, log, principal.ID, course.ID)
	}

	payment, err := s.payments.VerifyWithProcessor(ctx, receipt, expected)
	if err != nil {
		// A concurrent duplicate may have redeemed this receipt between the
		// shortcut above and the processor call; the processor then refuses
		// the spent payment, but the learner owns the course.
		if errors.Is(err, serverrors.ErrInvalidReceipt) {
			if purchase, findErr := s.purchaseRepo.FindEntitlement(ctx, principal.ID, course.ID); findErr == nil {
				return s.reconciled(ctx, log, purchase), nil
			}
			metrics.ReceiptsRejected.WithLabelValues("processor").Inc()
		} else {
			metrics.GatewayErrors.Inc()
		}
		return nil, s.reject(ctx, log, "processor verification", err)
	}

	purchase := &model.Purchase{
		LearnerID: principal.ID,
		CourseID:  course.ID,
		PaymentID: receipt.PaymentID,
		Amount:    expected,
		Currency:  s.payments.Currency(),
	}
	if payment != nil {
		purchase.PaymentID = payment.ID
	}

	err = s.purchaseRepo.CreateEntitlement(ctx, purchase)
	if errors.Is(err, serverrors.ErrAlreadyExists) {
		return s.existing(ctx, log, principal.ID, course.ID)
	}
	if errors.Is(err, serverrors.ErrPaymentRedeemed) {
		metrics.ReceiptsRejected.WithLabelValues("payment_reused").Inc()
		return nil, s.reject(ctx, log, "payment already redeemed", err)
	}
	if err != nil {
		return nil, s.reject(ctx, log, "create entitlement", fmt.Errorf("create entitlement: %w", err))
	}

	metrics.EntitlementsGranted.Inc()
	log.InfoContext(ctx, "course purchased",
		slog.String("state", stateEntitled),
		slog.String("payment_id", purchase.PaymentID),
		slog.Int64("amount", purchase.Amount))
	return purchase, nil
}

func (s *purchaseServiceImpl) ListPurchases(ctx context.Context, principal *auth.Principal) (*dto.PurchasesResponse, error) {
	if principal == nil || principal.Kind != auth.KindLearner {
		return nil, serverrors.ErrUnauthorized
	}

	purchases, err := s.purchaseRepo.ListByLearner(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	courseIDs := make([]string, len(purchases))
	for i, p := range purchases {
		courseIDs[i] = p.CourseID
	}
	courses, err := s.courseRepo.FindMany(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("find purchased courses: %w", err)
	}

	byID := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	// courseData follows purchase order; deleted courses are skipped
	resp := &dto.PurchasesResponse{
		Purchased:  make([]*model.Purchase, 0, len(purchases)),
		CourseData: make([]*model.Course, 0, len(purchases)),
	}
	resp.Purchased = append(resp.Purchased, purchases...)
	for _, p := range purchases {
		if c, ok := byID[p.CourseID]; ok {
			resp.CourseData = append(resp.CourseData, c)
		}
	}
	return resp, nil
}

// existing resolves a duplicate confirmation to the stored entitlement.
func (s *purchaseServiceImpl) existing(ctx context.Context, log *slog.Logger, learnerID, courseID string) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindEntitlement(ctx, learnerID, courseID)
	if err != nil {
		return nil, s.reject(ctx, log, "load existing entitlement", fmt.Errorf("find entitlement: %w", err))
	}
	return s.reconciled(ctx, log, purchase), nil
}

func (s *purchaseServiceImpl) reconciled(ctx context.Context, log *slog.Logger, purchase *model.Purchase) *model.Purchase {
	metrics.DuplicatesReconciled.Inc()
	log.InfoContext(ctx, "purchase already confirmed", slog.String("state", stateEntitled))
	return purchase
}

func (s *purchaseServiceImpl) reject(ctx context.Context, log *slog.Logger, reason string, err error) error {
	level := slog.LevelInfo
	if errors.Is(err, serverrors.ErrStoreUnavailable) ||
		errors.Is(err, serverrors.ErrPaymentGateway) ||
		errors.Is(err, serverrors.ErrProcessorUnavailable) {
		level = slog.LevelWarn
	}
	log.Log(ctx, level, "purchase rejected",
		slog.String("state", stateRejected),
		slog.String("reason", reason),
		slog.Any("error", err))
	return err
}
