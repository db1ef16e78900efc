package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"course-marketplace/internal/auth"
	"course-marketplace/internal/client"
	"course-marketplace/internal/dto"
	"course-marketplace/internal/model"
	"course-marketplace/internal/repository"
	"course-marketplace/internal/serverrors"

	"github.com/google/uuid"
)

type AdminService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*model.Administrator, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*model.Administrator, *Session, error)
}

type adminServiceImpl struct {
	adminRepo repository.AdminRepository
	creds     *credentials
	log       *slog.Logger
}

func NewAdminService(
	adminRepo repository.AdminRepository,
	tokens *auth.TokenManager,
	limiter client.LoginLimiter,
	log *slog.Logger,
) AdminService {
	log = log.With(slog.String("component", "admin"))
	return &adminServiceImpl{
		adminRepo: adminRepo,
		creds: &credentials{
			kind:    auth.KindAdmin,
			tokens:  tokens,
			limiter: limiter,
			log:     log,
		},
		log: log,
	}
}

func (s *adminServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*model.Administrator, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.Administrator{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create administrator: %w", err)
	}

	s.log.Info("administrator signed up", slog.String("admin_id", admin.ID))
	return admin, nil
}

func (s *adminServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*model.Administrator, *Session, error) {
	email := normalizeEmail(req.Email)
	if err := s.creds.checkLimit(ctx, email); err != nil {
		return nil, nil, err
	}

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serverrors.ErrNotFound) {
			return nil, nil, serverrors.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find administrator: %w", err)
	}
	if err := s.creds.checkPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, nil, err
	}

	session, err := s.creds.startSession(ctx, auth.Principal{
		ID:    admin.ID,
		Email: admin.Email,
		Name:  admin.FirstName + " " + admin.LastName,
		Kind:  auth.KindAdmin,
	})
	if err != nil {
		return nil, nil, err
	}
	return admin, session, nil
}
