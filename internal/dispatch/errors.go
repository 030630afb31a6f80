package dispatch

import "errors"

// Precondition failures abort the whole batch before any send is attempted.
// Per-guest failures never surface as errors; they fold into Results.
var (
	ErrEmptyGuestList       = errors.New("dispatch: empty guest list")
	ErrNoInstance           = errors.New("dispatch: no whatsapp instance provisioned")
	ErrInstanceNotConnected = errors.New("dispatch: whatsapp instance not connected")
	ErrNoProvider           = errors.New("dispatch: whatsapp provider not configured")
)
