package serverrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyPurchased     = errors.New("course already purchased")
	ErrAlreadyExists        = errors.New("entitlement already exists")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidReceipt       = errors.New("invalid payment receipt")
	ErrProcessorUnavailable = errors.New("payment processor unavailable")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrStoreUnavailable     = errors.New("store unavailable")

	// ErrPaymentRedeemed is an invalid receipt whose payment already backs
	// another entitlement.
	ErrPaymentRedeemed = fmt.Errorf("%w: payment already redeemed", ErrInvalidReceipt)

	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user already exists")
	ErrTooManyAttempts    = errors.New("too many attempts")
)

type mapping struct {
	err     error
	status  int
	message string
}

// ordered: the first sentinel found in the chain wins
var mappings = []mapping{
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{ErrInvalidCredentials, http.StatusForbidden, "Invalid credentials"},
	{ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts, try again later"},
	{ErrNotFound, http.StatusNotFound, "Course not found"},
	{ErrAlreadyPurchased, http.StatusBadRequest, "You have already purchased this course"},
	// normally resolved to the stored row before it reaches a handler
	{ErrAlreadyExists, http.StatusConflict, "You have already purchased this course"},
	{ErrInvalidReceipt, http.StatusBadRequest, "Invalid payment receipt"},
	{ErrInvalidAmount, http.StatusBadRequest, "Invalid amount"},
	{ErrEmailTaken, http.StatusBadRequest, "User already exists"},
	{ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
	{ErrPaymentGateway, http.StatusInternalServerError, "Payment gateway error"},
	{ErrProcessorUnavailable, http.StatusInternalServerError, "Payment gateway error"},
	{ErrStoreUnavailable, http.StatusInternalServerError, "Internal server error"},
}

// HTTPStatus maps an error chain to a status code and a stable public message.
// Wrapped details never leak into the message.
func HTTPStatus(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}
