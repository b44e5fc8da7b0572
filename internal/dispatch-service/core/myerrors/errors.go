package myerrors

import "errors"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDriverNotFound = errors.New("driver not found")

	// acceptance / lifecycle conflicts
	ErrNotYourOrder      = errors.New("not your active order")
	ErrInvalidTransition = errors.New("order is not in a state allowing this action")
	ErrDriverBusy        = errors.New("driver already has an active order")

	// inbound validation
	ErrInvalidOrder     = errors.New("order message is missing mandatory fields")
	ErrDriverNotAllowed = errors.New("driver is not approved or outside working hours")
	ErrInvalidSettings  = errors.New("invalid driver settings")

	// auth
	ErrBadCredentials = errors.New("unknown driver id or access code")
)
