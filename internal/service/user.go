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

type UserService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*model.Learner, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*model.Learner, *Session, error)
}

type userServiceImpl struct {
	learnerRepo repository.LearnerRepository
	creds       *credentials
	log         *slog.Logger
}

func NewUserService(
	learnerRepo repository.LearnerRepository,
	tokens *auth.TokenManager,
	limiter client.LoginLimiter,
	log *slog.Logger,
) UserService {
	log = log.With(slog.String("component", "user"))
	return &userServiceImpl{
		learnerRepo: learnerRepo,
		creds: &credentials{
			kind:    auth.KindLearner,
			tokens:  tokens,
			limiter: limiter,
			log:     log,
		},
		log: log,
	}
}

func (s *userServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*model.Learner, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	learner := &model.Learner{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
	}
	if err := s.learnerRepo.Create(ctx, learner); err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}

	s.log.Info("learner signed up", slog.String("learner_id", learner.ID))
	return learner, nil
}

func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*model.Learner, *Session, error) {
	email := normalizeEmail(req.Email)
	if err := s.creds.checkLimit(ctx, email); err != nil {
		return nil, nil, err
	}

	learner, err := s.learnerRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serverrors.ErrNotFound) {
			return nil, nil, serverrors.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find learner: %w", err)
	}
	if err := s.creds.checkPassword(learner.PasswordHash, req.Password); err != nil {
		return nil, nil, err
	}

	session, err := s.creds.startSession(ctx, auth.Principal{
		ID:    learner.ID,
		Email: learner.Email,
		Name:  learner.FirstName + " " + learner.LastName,
		Kind:  auth.KindLearner,
	})
	if err != nil {
		return nil, nil, err
	}
	return learner, session, nil
}
