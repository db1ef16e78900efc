package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/dto"
	"course-marketplace/internal/model"
	"course-marketplace/internal/repository"
	"course-marketplace/internal/serverrors"
	"course-marketplace/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CourseService interface {
	ListCourses(ctx context.Context) ([]*model.Course, error)
	GetCourse(ctx context.Context, courseID string) (*model.Course, error)
	CreateCourse(ctx context.Context, principal *auth.Principal, form *dto.CourseForm, image *multipart.FileHeader) (*model.Course, error)
	UpdateCourse(ctx context.Context, principal *auth.Principal, courseID string, form *dto.CourseUpdateForm, image *multipart.FileHeader) (*model.Course, error)
	DeleteCourse(ctx context.Context, principal *auth.Principal, courseID string) (*model.Course, error)
}

type courseServiceImpl struct {
	courseRepo repository.CourseRepository
	images     storage.ImageStore
	log        *slog.Logger
}

func NewCourseService(courseRepo repository.CourseRepository, images storage.ImageStore, log *slog.Logger) CourseService {
	return &courseServiceImpl{
		courseRepo: courseRepo,
		images:     images,
		log:        log.With(slog.String("component", "course")),
	}
}

// ParsePrice accepts a positive amount in major units with at most two decimals.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", serverrors.ErrInvalidInput, raw)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", serverrors.ErrInvalidInput)
	}
	if !price.Equal(price.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%w: price has more than two decimals", serverrors.ErrInvalidInput)
	}
	return price, nil
}

func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*model.Course, error) {
	return s.courseRepo.List(ctx)
}

func (s *courseServiceImpl) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	return s.courseRepo.FindByID(ctx, courseID)
}

func (s *courseServiceImpl) CreateCourse(ctx context.Context, principal *auth.Principal, form *dto.CourseForm, image *multipart.FileHeader) (*model.Course, error) {
	if principal == nil || principal.Kind != auth.KindAdmin {
		return nil, serverrors.ErrUnauthorized
	}

	price, err := ParsePrice(form.Price)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Save(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("save course image: %w", err)
	}

	course := &model.Course{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		Price:       price,
		Image:       img,
		CreatorID:   principal.ID,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		s.dropImage(ctx, img.PublicID)
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.log.Info("course created",
		slog.String("course_id", course.ID),
		slog.String("admin_id", principal.ID))
	return course, nil
}

func (s *courseServiceImpl) UpdateCourse(ctx context.Context, principal *auth.Principal, courseID string, form *dto.CourseUpdateForm, image *multipart.FileHeader) (*model.Course, error) {
	if principal == nil || principal.Kind != auth.KindAdmin {
		return nil, serverrors.ErrUnauthorized
	}

	course, err := s.courseRepo.FindOwned(ctx, courseID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("find course: %w", err)
	}

	if title := strings.TrimSpace(form.Title); title != "" {
		course.Title = title
	}
	if description := strings.TrimSpace(form.Description); description != "" {
		course.Description = description
	}
	if form.Price != "" {
		price, err := ParsePrice(form.Price)
		if err != nil {
			return nil, err
		}
		course.Price = price
	}

	oldImage := course.Image
	if image != nil {
		img, err := s.images.Save(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("save course image: %w", err)
		}
		course.Image = img
	}

	if err := s.courseRepo.UpdateOwned(ctx, course); err != nil {
		if image != nil {
			s.dropImage(ctx, course.Image.PublicID)
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	if image != nil {
		s.dropImage(ctx, oldImage.PublicID)
	}

	s.log.Info("course updated",
		slog.String("course_id", course.ID),
		slog.String("admin_id", principal.ID))
	return course, nil
}

func (s *courseServiceImpl) DeleteCourse(ctx context.Context, principal *auth.Principal, courseID string) (*model.Course, error) {
	if principal == nil || principal.Kind != auth.KindAdmin {
		return nil, serverrors.ErrUnauthorized
	}

	course, err := s.courseRepo.DeleteOwned(ctx, courseID, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("delete course: %w", err)
	}
	s.dropImage(ctx, course.Image.PublicID)

	s.log.Info("course deleted",
		slog.String("course_id", course.ID),
		slog.String("admin_id", principal.ID))
	return course, nil
}

// dropImage removes a stored image; failures only leave an orphaned file.
func (s *courseServiceImpl) dropImage(ctx context.Context, publicID string) {
	if err := s.images.Delete(ctx, publicID); err != nil {
		s.log.Warn("remove course image",
			slog.String("public_id", publicID),
			slog.Any("error", err))
	}
}
