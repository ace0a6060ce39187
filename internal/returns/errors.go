package returns

import "errors"

var (
	// ErrAccessDenied is returned when a guest's email does not match the
	// order's stored email. The message deliberately does not reveal
	// whether the order exists.
	ErrAccessDenied = errors.New("Order not found. Please check your order ID and email address.")

	// ErrNoReturnableItems is returned when every item of the order has
	// already been returned, requested or written off.
	ErrNoReturnableItems = errors.New("This order has no items available for return.")

	// ErrSubmissionInFlight is returned when Submit is called while a
	// previous submission has not resolved yet.
	ErrSubmissionInFlight = errors.New("a return submission is already in flight")
)
