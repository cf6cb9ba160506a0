package payments

import "errors"

var (
	ErrBookingIDRequired     = errors.New("bookingId is required")
	ErrTransactionIDRequired = errors.New("transactionId is required")
	ErrInvalidAmount         = errors.New("amount must not be negative")
	ErrInvalidPrice          = errors.New("price must be greater than zero")

	// ErrGatewayNotConfigured is returned when no Stripe key is set and dry run is off.
	ErrGatewayNotConfigured = errors.New("payments: payment gateway not configured")
	// ErrGateway wraps non-2xx and transport failures from Stripe.
	ErrGateway = errors.New("payments: payment gateway failure")
)

// IsInvalid reports whether err is a request validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrBookingIDRequired) ||
		errors.Is(err, ErrTransactionIDRequired) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidPrice)
}
