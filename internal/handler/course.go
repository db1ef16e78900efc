package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"course-marketplace/internal/dto"
	"course-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type CourseHandler struct {
	courseService   service.CourseService
	purchaseService service.PurchaseService
}

func NewCourseHandler(courseService service.CourseService, purchaseService service.PurchaseService) *CourseHandler {
	return &CourseHandler{
		courseService:   courseService,
		purchaseService: purchaseService,
	}
}

func (h *CourseHandler) ListCourses(c echo.Context) error {
	ctx := c.Request().Context()

	courses, err := h.courseService.ListCourses(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"courses": courses})
}

func (h *CourseHandler) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()

	course, err := h.courseService.GetCourse(ctx, c.Param("courseId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"course": course})
}

func (h *CourseHandler) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()

	admin, err := principal(c)
	if err != nil {
		return err
	}

	var form dto.CourseForm
	if err := bindAndValidate(c, &form); err != nil {
		return err
	}

	image, err := formImage(c)
	if err != nil {
		return err
	}
	if image == nil {
		return invalidInput("image is required")
	}

	course, err := h.courseService.CreateCourse(ctx, admin, &form, image)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Course created successfully",
		"course":  course,
	})
}

func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	ctx := c.Request().Context()

	admin, err := principal(c)
	if err != nil {
		return err
	}

	var form dto.CourseUpdateForm
	if err := c.Bind(&form); err != nil {
		return invalidInput("invalid request body")
	}

	image, err := formImage(c)
	if err != nil {
		return err
	}

	course, err := h.courseService.UpdateCourse(ctx, admin, c.Param("courseId"), &form, image)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Course updated successfully",
		"course":  course,
	})
}

func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()

	admin, err := principal(c)
	if err != nil {
		return err
	}

	course, err := h.courseService.DeleteCourse(ctx, admin, c.Param("courseId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Course deleted successfully",
		"course":  course,
	})
}

func (h *CourseHandler) BuyCourse(c echo.Context) error {
	ctx := c.Request().Context()

	learner, err := principal(c)
	if err != nil {
		return err
	}

	resp, err := h.purchaseService.BuyCourse(ctx, learner, c.Param("courseId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

// formImage returns the optional "image" upload; nil when none was sent.
func formImage(c echo.Context) (*multipart.FileHeader, error) {
	image, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, invalidInput("invalid image upload")
	}
	return image, nil
}
