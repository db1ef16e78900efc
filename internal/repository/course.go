package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"course-marketplace/internal/model"
	"course-marketplace/internal/serverrors"

	"gorm.io/gorm"
)

// CourseRepository backs the catalog. Writes are always scoped to the creator.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, courseID string) (*model.Course, error)
	FindMany(ctx context.Context, courseIDs []string) ([]*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
	FindOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error)
	UpdateOwned(ctx context.Context, course *model.Course) error
	DeleteOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error)
}

type courseRepoImpl struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepoImpl{
		db: db,
	}
}

func (r *courseRepoImpl) Create(ctx context.Context, course *model.Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("%w: create course: %v", serverrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *courseRepoImpl) FindByID(ctx context.Context, courseID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ?", courseID).
		First(&course).Error
	if err != nil {
		return nil, notFoundOrStore(err, "find course")
	}

	return &course, nil
}

func (r *courseRepoImpl) FindMany(ctx context.Context, courseIDs []string) ([]*model.Course, error) {
	var courses []*model.Course
	if len(courseIDs) == 0 {
		return courses, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", courseIDs).
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find courses: %v", serverrors.ErrStoreUnavailable, err)
	}

	return courses, nil
}

func (r *courseRepoImpl) List(ctx context.Context) ([]*model.Course, error) {
	var courses []*model.Course
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list courses: %v", serverrors.ErrStoreUnavailable, err)
	}

	return courses, nil
}

func (r *courseRepoImpl) FindOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", courseID, creatorID).
		First(&course).Error
	if err != nil {
		return nil, notFoundOrStore(err, "find owned course")
	}

	return &course, nil
}

func (r *courseRepoImpl) UpdateOwned(ctx context.Context, course *model.Course) error {
	result := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ? AND creator_id = ?", course.ID, course.CreatorID).
		Updates(map[string]interface{}{
			"title":           course.Title,
			"description":     course.Description,
			"price":           course.Price,
			"image_public_id": course.Image.PublicID,
			"image_url":       course.Image.URL,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("%w: update course: %v", serverrors.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return serverrors.ErrNotFound
	}

	return nil
}

func (r *courseRepoImpl) DeleteOwned(ctx context.Context, courseID, creatorID string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND creator_id = ?", courseID, creatorID).First(&course).Error; err != nil {
			return err
		}
		return tx.Delete(&course).Error
	})
	if err != nil {
		return nil, notFoundOrStore(err, "delete course")
	}

	return &course, nil
}

func notFoundOrStore(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return serverrors.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", serverrors.ErrStoreUnavailable, op, err)
}
