package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrMissingZip          = errors.New("zip code is required")
	ErrInvalidZip          = errors.New("zip code must be 5 digits")
	ErrMissingSize         = errors.New("dumpster size is required")
	ErrUnsupportedSize     = errors.New("unsupported dumpster size")
	ErrMissingDuration     = errors.New("rental duration is required")
	ErrUnsupportedDuration = errors.New("unsupported rental duration")
)

// QuoteRequest is what the quote form submits.
type QuoteRequest struct {
	ZipCode      string    `json:"zip_code"`
	Size         Size      `json:"size"`
	DurationDays int       `json:"duration_days"`
	IsVeteran    bool      `json:"is_veteran"`
	DeliveryDate time.Time `json:"delivery_date"`
}

// ValidationError collects every field problem of a request so the form can
// show them at once.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Fields[k]))
	}
	return "invalid quote request: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match any of the field errors.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, err := range e.Fields {
		errs = append(errs, err)
	}
	return errs
}

// ValidateRequest rejects requests the engine must never see.
func ValidateRequest(req QuoteRequest) error {
	fields := map[string]error{}

	zip := strings.TrimSpace(req.ZipCode)
	switch {
	case zip == "":
		fields["zip_code"] = ErrMissingZip
	case !isZip(zip):
		fields["zip_code"] = ErrInvalidZip
	}

	switch {
	case req.Size == 0:
		fields["size"] = ErrMissingSize
	case !ValidSize(req.Size):
		fields["size"] = ErrUnsupportedSize
	}

	switch {
	case req.DurationDays == 0:
		fields["duration_days"] = ErrMissingDuration
	case !ValidDuration(req.DurationDays):
		fields["duration_days"] = ErrUnsupportedDuration
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
