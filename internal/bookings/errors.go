package bookings

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("bookings: duplicate booking for service, date and email")
	ErrSlotTaken       = errors.New("bookings: slot already booked")
	ErrLockBusy        = errors.New("another booking for this service and date is in progress, retry shortly")

	ErrEmailRequired   = errors.New("a valid email is required")
	ErrServiceRequired = errors.New("serviceName is required")
	ErrDateRequired    = errors.New("appointmentDate is required")
	ErrSlotRequired    = errors.New("slot is required")
	ErrUnknownService  = errors.New("unknown service")
	ErrUnknownSlot     = errors.New("slot is not offered by this service")
)

// IsInvalid reports whether err is a request validation failure.
func IsInvalid(err error) bool {
	for _, target := range []error{
		ErrEmailRequired, ErrServiceRequired, ErrDateRequired, ErrSlotRequired,
		ErrUnknownService, ErrUnknownSlot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
