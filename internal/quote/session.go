package quote

import (
	"time"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/render"
)

type SMSStatus string

const (
	SMSNone   SMSStatus = "none"
	SMSSent   SMSStatus = "sent"
	SMSFailed SMSStatus = "failed"
)

// Session is one page view of the quote widget. It lives in Redis until the
// TTL runs out and is never written anywhere else.
type Session struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	DeliveryDate *time.Time              `json:"delivery_date,omitempty"`
	Request      *pricing.QuoteRequest   `json:"request,omitempty"`
	Breakdown    *pricing.PriceBreakdown `json:"breakdown,omitempty"`
	Estimate     *render.Estimate        `json:"estimate,omitempty"`
	Booking      booking.Machine         `json:"booking"`
	SMSStatus    SMSStatus               `json:"sms_status"`
}

func (s *Session) Step() booking.Step {
	return s.Booking.CurrentStep()
}

// Quoted reports whether an estimate is on screen.
func (s *Session) Quoted() bool {
	return s.Breakdown != nil && s.Request != nil
}
