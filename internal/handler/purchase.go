package handler

import (
	"fmt"
	"net/http"

	"course-marketplace/internal/dto"
	"course-marketplace/internal/serverrors"
	"course-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// ConfirmOrder accepts the payment receipt the client got from the processor.
func (h *PurchaseHandler) ConfirmOrder(c echo.Context) error {
	ctx := c.Request().Context()

	learner, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.OrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fmt.Errorf("%w: %v", serverrors.ErrInvalidReceipt, err)
	}

	purchase, err := h.purchaseService.ConfirmOrder(ctx, learner, req.Receipt())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.OrderResponse{
		Message:  "Order confirmed",
		Purchase: purchase,
	})
}
