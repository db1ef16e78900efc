package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sync"

	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"
)

// MockProcessor implements client.PaymentProcessor for testing
type MockProcessor struct {
	mu sync.Mutex

	CreateIntentFunc func(ctx context.Context, amount int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error)
	GetPaymentFunc   func(ctx context.Context, paymentID string) (*model.ProcessorPayment, error)

	CreateIntentCalls int
	GetPaymentCalls   int
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amount int64, currency string, owner model.PaymentOwner) (*model.PaymentIntent, error) {
	m.mu.Lock()
	m.CreateIntentCalls++
	m.mu.Unlock()
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, amount, currency, owner)
	}
	return &model.PaymentIntent{
		ProcessorIntentID: "pi_test",
		ClientSecret:      "pi_test_secret",
		Amount:            amount,
		Currency:          currency,
	}, nil
}

func (m *MockProcessor) GetPayment(ctx context.Context, paymentID string) (*model.ProcessorPayment, error) {
	m.mu.Lock()
	m.GetPaymentCalls++
	m.mu.Unlock()
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, errors.New("GetPayment not configured")
}

// MockFinalizingProcessor adds client.PaymentFinalizer on top of MockProcessor
type MockFinalizingProcessor struct {
	MockProcessor
	FinalizeFunc  func(ctx context.Context, receipt *model.PaymentReceipt, amount int64, currency string) (*model.ProcessorPayment, error)
	FinalizeCalls int
}

func (m *MockFinalizingProcessor) Finalize(ctx context.Context, receipt *model.PaymentReceipt, amount int64, currency string) (*model.ProcessorPayment, error) {
	m.mu.Lock()
	m.FinalizeCalls++
	m.mu.Unlock()
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, receipt, amount, currency)
	}
	return &model.ProcessorPayment{
		ID:       "tx_" + receipt.PaymentID,
		Amount:   amount,
		Currency: currency,
		Status:   model.PaymentStatusSucceeded,
		Owner:    receipt.Owner(),
	}, nil
}

// MockCourseRepository implements repository.CourseRepository for testing
type MockCourseRepository struct {
	CreateFunc      func(ctx context.Context, course *model.Course) error
	FindByIDFunc    func(ctx context.Context, courseID string) (*model.Course, error)
	FindManyFunc    func(ctx context.Context, courseIDs []string) ([]*model.Course, error)
	ListFunc        func(ctx context.Context) ([]*model.Course, error)
	FindOwnedFunc   func(ctx context.Context, courseID, creatorID string) (*model.Course, error)
	UpdateOwnedFunc func(ctx context.Context, course *model.Course) error
	DeleteOwnedFunc func(ctx context.Context, courseID, creatorID string) (*model.Course, error)
}

func (m *MockCourseRepository) Create(ctx context.Context, course *model.Course) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, course)
	}
	return nil
}

func (m *MockCourseRepository) FindByID(ctx context.Context, courseID string) (*model.Course, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, courseID)
	}
	return nil, serverrors.ErrNotFound
}

func (m *MockCourseRepository) FindMany(ctx context.Context, courseIDs []string) ([]*model.Course, error) {
	if m.FindManyFunc != nil {
		return m.FindManyFunc(ctx, courseIDs)
	}
	return nil, nil
}

func (m *MockCourseRepository) List(ctx context.Context) ([]*model.Course, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockCourseRepository) FindOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error) {
	if m.FindOwnedFunc != nil {
		return m.FindOwnedFunc(ctx, courseID, creatorID)
	}
	return nil, serverrors.ErrNotFound
}

func (m *MockCourseRepository) UpdateOwned(ctx context.Context, course *model.Course) error {
	if m.UpdateOwnedFunc != nil {
		return m.UpdateOwnedFunc(ctx, course)
	}
	return nil
}

func (m *MockCourseRepository) DeleteOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error) {
	if m.DeleteOwnedFunc != nil {
		return m.DeleteOwnedFunc(ctx, courseID, creatorID)
	}
	return nil, serverrors.ErrNotFound
}

// memPurchaseRepository is an in-memory entitlement store with the same
// uniqueness contract as the database one.
type memPurchaseRepository struct {
	mu        sync.Mutex
	rows      []*model.Purchase
	createErr error
	creates   int
}

func (r *memPurchaseRepository) HasEntitlement(_ context.Context, learnerID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(learnerID, courseID) != nil, nil
}

func (r *memPurchaseRepository) CreateEntitlement(_ context.Context, purchase *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if r.find(purchase.LearnerID, purchase.CourseID) != nil {
		return serverrors.ErrAlreadyExists
	}
	for _, p := range r.rows {
		if p.PaymentID == purchase.PaymentID {
			return fmt.Errorf("%w: %s", serverrors.ErrPaymentRedeemed, purchase.PaymentID)
		}
	}
	purchase.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, purchase)
	return nil
}

func (r *memPurchaseRepository) FindEntitlement(_ context.Context, learnerID, courseID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.find(learnerID, courseID); p != nil {
		return p, nil
	}
	return nil, serverrors.ErrNotFound
}

func (r *memPurchaseRepository) ListByLearner(_ context.Context, learnerID string) ([]*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Purchase
	for _, p := range r.rows {
		if p.LearnerID == learnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPurchaseRepository) find(learnerID, courseID string) *model.Purchase {
	for _, p := range r.rows {
		if p.LearnerID == learnerID && p.CourseID == courseID {
			return p
		}
	}
	return nil
}

// MockImageStore implements storage.ImageStore for testing
type MockImageStore struct {
	SaveFunc   func(ctx context.Context, file *multipart.FileHeader) (model.Image, error)
	DeleteFunc func(ctx context.Context, publicID string) error

	Saved   int
	Deleted []string
}

func (m *MockImageStore) Save(ctx context.Context, file *multipart.FileHeader) (model.Image, error) {
	m.Saved++
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, file)
	}
	return model.Image{PublicID: "new.png", URL: "/uploads/new.png"}, nil
}

func (m *MockImageStore) Delete(ctx context.Context, publicID string) error {
	m.Deleted = append(m.Deleted, publicID)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, publicID)
	}
	return nil
}

// MockLimiter implements client.LoginLimiter for testing
type MockLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, error)
	Resets    []string
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	return true, nil
}

func (m *MockLimiter) Reset(_ context.Context, key string) error {
	m.Resets = append(m.Resets, key)
	return nil
}
