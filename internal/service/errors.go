package service

import (
	"fmt"

	"github.com/carcraze/marketplace-api/internal/apperror"
)

var (
	ErrCarNotFound      = apperror.New(apperror.CodeNotFound, "car not found")
	ErrCarNotAvailable  = apperror.New(apperror.CodeInvalidState, "car is not available")
	ErrCarAlreadyInCart = apperror.New(apperror.CodeConflict, "car is already in the cart")

	ErrCartNotFound     = apperror.New(apperror.CodeNotFound, "cart not found")
	ErrCartItemNotFound = apperror.New(apperror.CodeNotFound, "car is not in the cart")
	ErrEmptyCart        = apperror.New(apperror.CodeInvalidState, "cart is empty")

	ErrOrderNotFound        = apperror.New(apperror.CodeNotFound, "order not found")
	ErrOrderAccessDenied    = apperror.New(apperror.CodeForbidden, "order belongs to another user")
	ErrInvalidPaymentMethod = apperror.New(apperror.CodeValidation, "payment method must be one of cod, online, upi")
	ErrDuplicateCheckout    = apperror.New(apperror.CodeConflict, "checkout already in progress for this idempotency key")

	ErrUserAlreadyExists  = apperror.New(apperror.CodeConflict, "user already exists")
	ErrInvalidCredentials = apperror.New(apperror.CodeUnauthorized, "invalid credentials")
	ErrInvalidAdminCode   = apperror.New(apperror.CodeForbidden, "invalid admin signup code")
	ErrInvalidRole        = apperror.New(apperror.CodeValidation, "role must be one of customer, seller, admin")
	ErrUserNotFound       = apperror.New(apperror.CodeNotFound, "user not found")

	ErrRentalNotOffered          = apperror.New(apperror.CodeInvalidState, "car is not offered for rent")
	ErrInvalidRentalDates        = apperror.New(apperror.CodeValidation, "end date must be after start date")
	ErrRentalOutsideAvailability = apperror.New(apperror.CodeInvalidState, "requested dates are outside the car's availability")
)

func validationError(message string) error {
	return apperror.New(apperror.CodeValidation, message)
}

// wrapTxErr keeps domain errors returned from a transaction callback intact
// and adds op context to everything else.
func wrapTxErr(op string, err error) error {
	if apperror.As(err) != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
