package repository

import (
	"context"
	"errors"
	"fmt"

	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"gorm.io/gorm"
)

type AdminRepository interface {
	Create(ctx context.Context, admin *model.Administrator) error
	FindByEmail(ctx context.Context, email string) (*model.Administrator, error)
}

type adminRepoImpl struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepoImpl{
		db: db,
	}
}

func (r *adminRepoImpl) Create(ctx context.Context, admin *model.Administrator) error {
	err := r.db.WithContext(ctx).Create(admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return serverrors.ErrEmailTaken
		}
		return fmt.Errorf("%w: create administrator: %v", serverrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *adminRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Administrator, error) {
	var admin model.Administrator
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&admin).Error
	if err != nil {
		return nil, notFoundOrStore(err, "find administrator")
	}

	return &admin, nil
}
