package repository

import (
	"context"
	"errors"
	"fmt"

	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"gorm.io/gorm"
)

type LearnerRepository interface {
	Create(ctx context.Context, learner *model.Learner) error
	FindByEmail(ctx context.Context, email string) (*model.Learner, error)
	FindByID(ctx context.Context, learnerID string) (*model.Learner, error)
}

type learnerRepoImpl struct {
	db *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) LearnerRepository {
	return &learnerRepoImpl{
		db: db,
	}
}

func (r *learnerRepoImpl) Create(ctx context.Context, learner *model.Learner) error {
	err := r.db.WithContext(ctx).Create(learner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return serverrors.ErrEmailTaken
		}
		return fmt.Errorf("%w: create learner: %v", serverrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *learnerRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Learner, error) {
	var learner model.Learner
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&learner).Error
	if err != nil {
		return nil, notFoundOrStore(err, "find learner")
	}

	return &learner, nil
}

func (r *learnerRepoImpl) FindByID(ctx context.Context, learnerID string) (*model.Learner, error) {
	var learner model.Learner
	err := r.db.WithContext(ctx).
		Where("id = ?", learnerID).
		First(&learner).Error
	if err != nil {
		return nil, notFoundOrStore(err, "find learner")
	}

	return &learner, nil
}
