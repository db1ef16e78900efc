package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"course-marketplace/internal/client"
	"course-marketplace/internal/config"
	"course-marketplace/internal/dto"
	"course-marketplace/internal/logger"
	"course-marketplace/internal/model"
	"course-marketplace/internal/repository"
	"course-marketplace/internal/serverrors"
	"course-marketplace/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type sampleCourse struct {
	Title       string
	Description string
	Price       string
}

var sampleCourses = []sampleCourse{
	{"Go Fundamentals", "Types, interfaces, goroutines and the standard library.", "49.99"},
	{"Building HTTP APIs in Go", "Routing, middleware, validation and graceful shutdown.", "59.00"},
	{"SQL for Application Developers", "Schema design, indexes and transactions.", "39.50"},
}

// openDB needs only DATABASE_URL; seeding works without the server's secrets.
func openDB() (*gorm.DB, error) {
	var cfg config.Database
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	return client.InitDBClient(cfg)
}

func adminCmd() *cobra.Command {
	var req dto.SignupRequest

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), db, logger.Discard(), &req, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Administrator password (min 6 characters)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "Admin", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "User", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func coursesCmd() *cobra.Command {
	var adminEmail string

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Create sample courses owned by an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return seedCourses(cmd.Context(), db, adminEmail, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "Email of the owning administrator")
	_ = cmd.MarkFlagRequired("admin-email")

	return cmd
}

func seedAdmin(ctx context.Context, db *gorm.DB, log *slog.Logger, req *dto.SignupRequest, out io.Writer) error {
	if len(req.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	// tokens and rate limiting are only used at login
	admins := service.NewAdminService(repository.NewAdminRepository(db), nil, client.NewLoginLimiter(nil, 0, 0), log)
	admin, err := admins.Signup(ctx, req)
	if errors.Is(err, serverrors.ErrEmailTaken) {
		fmt.Fprintf(out, "administrator %s already exists\n", req.Email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create administrator: %w", err)
	}

	fmt.Fprintf(out, "created administrator %s (%s)\n", admin.Email, admin.ID)
	return nil
}

func seedCourses(ctx context.Context, db *gorm.DB, adminEmail string, out io.Writer) error {
	admin, err := repository.NewAdminRepository(db).FindByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("find administrator %s: %w", adminEmail, err)
	}

	courses := repository.NewCourseRepository(db)
	existing, err := courses.List(ctx)
	if err != nil {
		return err
	}
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		if c.CreatorID == admin.ID {
			taken[c.Title] = true
		}
	}

	created := 0
	for _, sample := range sampleCourses {
		if taken[sample.Title] {
			continue
		}
		price, err := service.ParsePrice(sample.Price)
		if err != nil {
			return err
		}
		course := &model.Course{
			ID:          uuid.NewString(),
			Title:       sample.Title,
			Description: sample.Description,
			Price:       price,
			CreatorID:   admin.ID,
		}
		if err := courses.Create(ctx, course); err != nil {
			return fmt.Errorf("create course %q: %w", sample.Title, err)
		}
		created++
	}

	fmt.Fprintf(out, "created %d courses for %s\n", created, admin.Email)
	return nil
}
