package handler

import (
	"net/http"

	"course-marketplace/internal/dto"
	"course-marketplace/internal/middleware"
	"course-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService     service.UserService
	purchaseService service.PurchaseService
	secureCookies   bool
}

func NewUserHandler(userService service.UserService, purchaseService service.PurchaseService, secureCookies bool) *UserHandler {
	return &UserHandler{
		userService:     userService,
		purchaseService: purchaseService,
		secureCookies:   secureCookies,
	}
}

func (h *UserHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	learner, err := h.userService.Signup(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    learner,
	})
}

func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	learner, session, err := h.userService.Login(ctx, &req)
	if err != nil {
		return err
	}

	setSessionCookie(c, middleware.LearnerCookie, session.Token, session.ExpiresAt, h.secureCookies)
	return c.JSON(http.StatusCreated, dto.LoginResponse{
		Message: "Login successful",
		User:    learner,
		Token:   session.Token,
	})
}

func (h *UserHandler) Logout(c echo.Context) error {
	clearSessionCookie(c, middleware.LearnerCookie, h.secureCookies)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *UserHandler) Purchases(c echo.Context) error {
	ctx := c.Request().Context()

	learner, err := principal(c)
	if err != nil {
		return err
	}

	resp, err := h.purchaseService.ListPurchases(ctx, learner)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
