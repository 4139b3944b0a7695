package httpapi

import (
	"errors"
	"net/http"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/quote"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeStateConflict = "STATE_CONFLICT"
	CodeNotFound      = "NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeTextFailed    = "TEXT_FAILED"
	CodeRateLimited   = "RATE_LIMITED"
	CodeInternal      = "INTERNAL_ERROR"
)

type successEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	// Phone is the number the user can always fall back to.
	Phone string `json:"phone,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// requestError is an error the handlers raise themselves, before the
// service is involved.
type requestError struct {
	status  int
	code    string
	message string
	details any
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string, details any) error {
	return &requestError{status: http.StatusBadRequest, code: CodeValidation, message: message, details: details}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := h.classify(err)
	apiErr.Phone = h.businessPhone

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
	} else {
		h.logger.Debug("Request rejected",
			zap.String("path", r.URL.Path),
			zap.String("code", apiErr.Code),
			zap.Error(err))
	}

	writeJSON(w, status, errorEnvelope{Error: apiErr})
}

func (h *Handler) classify(err error) (int, APIError) {
	var (
		reqErr  *requestError
		valErr  *pricing.ValidationError
		textErr *quote.TextError
	)

	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, APIError{Code: reqErr.code, Message: reqErr.message, Details: reqErr.details}

	case errors.As(err, &valErr):
		details := make(map[string]string, len(valErr.Fields))
		for field, ferr := range valErr.Fields {
			details[field] = ferr.Error()
		}
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: "please check the highlighted fields", Details: details}

	case errors.Is(err, booking.ErrContactRequired):
		return http.StatusBadRequest, APIError{
			Code:    CodeValidation,
			Message: booking.ContactRequiredMessage,
			Details: map[string]string{"contact": booking.ContactRequiredMessage},
		}

	case errors.Is(err, booking.ErrPhoneRequiredForText),
		errors.Is(err, booking.ErrInvalidPhone):
		msg := rootMessage(err, booking.ErrPhoneRequiredForText, booking.ErrInvalidPhone)
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: msg, Details: map[string]string{"contact": msg}}

	case errors.Is(err, quote.ErrInvalidDeliveryDate):
		msg := quote.ErrInvalidDeliveryDate.Error()
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: msg, Details: map[string]string{"delivery_date": msg}}

	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, quote.ErrNotQuoted):
		return http.StatusConflict, APIError{Code: CodeStateConflict, Message: "this step is not available right now, please recalculate your estimate"}

	case errors.Is(err, quote.ErrSessionNotFound):
		return http.StatusNotFound, APIError{Code: CodeNotFound, Message: "quote session not found or expired"}

	case errors.As(err, &textErr):
		status, code := http.StatusBadGateway, CodeTextFailed
		if errors.Is(err, quote.ErrTextRateLimited) {
			status, code = http.StatusTooManyRequests, CodeRateLimited
		}
		return status, APIError{
			Code:    code,
			Message: "we could not send the text, please call " + textErr.FallbackPhone,
			Details: map[string]any{"fallback_phone": textErr.FallbackPhone, "contact_logged": true},
		}

	default:
		return http.StatusInternalServerError, APIError{Code: CodeInternal, Message: "something went wrong, please call us"}
	}
}

func rootMessage(err error, candidates ...error) string {
	for _, c := range candidates {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
