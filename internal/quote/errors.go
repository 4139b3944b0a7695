package quote

import (
	"errors"
	"fmt"

	sessions "dumpster-quote/internal/storage/redis"
)

var (
	ErrSessionNotFound     = sessions.ErrSessionNotFound
	ErrInvalidDeliveryDate = errors.New("delivery date is not one of the offered business days")
	ErrNotQuoted           = errors.New("no estimate has been calculated yet")
	ErrTextFailed          = errors.New("text message could not be sent")
	ErrTextRateLimited     = errors.New("too many text messages for this quote")
)

// TextError is returned when the contact was logged but the text itself did
// not go out. The user is pointed at FallbackPhone instead.
type TextError struct {
	Err           error
	FallbackPhone string
	Cause         error
}

func (e *TextError) Error() string {
	msg := fmt.Sprintf("%v, please call %s", e.Err, e.FallbackPhone)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TextError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}
