package repository

import (
	"context"
	"errors"
	"fmt"

	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseRepository is the entitlement store. Uniqueness of (learner, course)
// is enforced by the idx_purchase_learner_course index, not by callers.
type PurchaseRepository interface {
	HasEntitlement(ctx context.Context, learnerID, courseID string) (bool, error)
	CreateEntitlement(ctx context.Context, purchase *model.Purchase) error
	FindEntitlement(ctx context.Context, learnerID, courseID string) (*model.Purchase, error)
	ListByLearner(ctx context.Context, learnerID string) ([]*model.Purchase, error)
}

type purchaseRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepoImpl{
		db: db,
	}
}

func (r *purchaseRepoImpl) HasEntitlement(ctx context.Context, learnerID, courseID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: count purchases: %v", serverrors.ErrStoreUnavailable, err)
	}

	return count > 0, nil
}

// CreateEntitlement inserts the row or reports ErrAlreadyExists. Concurrent
// callers for the same pair race on the unique index; exactly one wins. A
// payment id already stored for another pair yields ErrPaymentRedeemed.
func (r *purchaseRepoImpl) CreateEntitlement(ctx context.Context, purchase *model.Purchase) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(purchase)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return r.conflict(ctx, purchase)
		}
		return fmt.Errorf("%w: insert purchase: %v", serverrors.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		// mysql turns DO NOTHING into a no-op update on any unique key
		return r.conflict(ctx, purchase)
	}

	return nil
}

// conflict tells which unique index refused the insert.
func (r *purchaseRepoImpl) conflict(ctx context.Context, purchase *model.Purchase) error {
	owned, err := r.HasEntitlement(ctx, purchase.LearnerID, purchase.CourseID)
	if err != nil {
		return err
	}
	if owned {
		return serverrors.ErrAlreadyExists
	}
	return fmt.Errorf("%w: %s", serverrors.ErrPaymentRedeemed, purchase.PaymentID)
}

func (r *purchaseRepoImpl) FindEntitlement(ctx context.Context, learnerID, courseID string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, serverrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find purchase: %v", serverrors.ErrStoreUnavailable, err)
	}

	return &purchase, nil
}

func (r *purchaseRepoImpl) ListByLearner(ctx context.Context, learnerID string) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("id ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list purchases: %v", serverrors.ErrStoreUnavailable, err)
	}

	return purchases, nil
}
