package handler

import (
	"net/http"

	"course-marketplace/internal/dto"
	"course-marketplace/internal/middleware"
	"course-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService  service.AdminService
	secureCookies bool
}

func NewAdminHandler(adminService service.AdminService, secureCookies bool) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		secureCookies: secureCookies,
	}
}

func (h *AdminHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin, err := h.adminService.Signup(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Admin created successfully",
		"user":    admin,
	})
}

func (h *AdminHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	admin, session, err := h.adminService.Login(ctx, &req)
	if err != nil {
		return err
	}

	setSessionCookie(c, middleware.AdminCookie, session.Token, session.ExpiresAt, h.secureCookies)
	return c.JSON(http.StatusCreated, dto.LoginResponse{
		Message: "Login successful",
		User:    admin,
		Token:   session.Token,
	})
}

func (h *AdminHandler) Logout(c echo.Context) error {
	clearSessionCookie(c, middleware.AdminCookie, h.secureCookies)
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
