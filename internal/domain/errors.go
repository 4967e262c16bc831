package domain

import "errors"

var (
	// ErrInvalidBirthDate indicates the year/month/day triple is not a real calendar date
	ErrInvalidBirthDate = errors.New("invalid birth date")

	// ErrInvalidHour indicates the birth hour is outside 0-23
	ErrInvalidHour = errors.New("birth hour must be between 0 and 23")

	// ErrInvalidSituation indicates an unknown life situation value
	ErrInvalidSituation = errors.New("unknown situation")

	// ErrInvalidAmount indicates a non-positive order amount
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidEmail indicates the recipient address cannot be parsed
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrEmptyReading indicates there is no reading text to deliver
	ErrEmptyReading = errors.New("reading text is empty")

	// ErrInvalidPaymentMethod indicates a wallet we do not accept
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")

	// ErrMissingOrderID indicates a capture or delivery without an order id
	ErrMissingOrderID = errors.New("order id is required")

	// ErrInvalidValidationURL indicates an Apple Pay validation URL we refuse to call
	ErrInvalidValidationURL = errors.New("invalid merchant validation URL")

	// ErrOrderNotFound indicates requested order doesn't exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition indicates an order status change that is not allowed
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidBirthDate,
		ErrInvalidHour,
		ErrInvalidSituation,
		ErrInvalidAmount,
		ErrInvalidEmail,
		ErrEmptyReading,
		ErrInvalidPaymentMethod,
		ErrMissingOrderID,
		ErrInvalidValidationURL,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
