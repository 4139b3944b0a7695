package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"dumpster-quote/internal/pricing"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 16 << 10
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// quoteBody leaves size and duration checks to pricing.ValidateRequest so the
// form gets the same messages from both endpoints.
type quoteBody struct {
	ZipCode      string `json:"zip_code" validate:"max=16"`
	Size         int    `json:"size" validate:"gte=0"`
	DurationDays int    `json:"duration_days" validate:"gte=0"`
	IsVeteran    bool   `json:"is_veteran"`
	DeliveryDate string `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
}

func (b quoteBody) toRequest(loc *time.Location) (pricing.QuoteRequest, error) {
	req := pricing.QuoteRequest{
		ZipCode:      strings.TrimSpace(b.ZipCode),
		Size:         pricing.Size(b.Size),
		DurationDays: b.DurationDays,
		IsVeteran:    b.IsVeteran,
	}
	if b.DeliveryDate != "" {
		date, err := parseDate(b.DeliveryDate, loc)
		if err != nil {
			return pricing.QuoteRequest{}, err
		}
		req.DeliveryDate = date
	}
	return req, nil
}

type deliveryDateBody struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type decisionBody struct {
	Book *bool `json:"book" validate:"required"`
}

type contactBody struct {
	Contact string `json:"contact" validate:"max=254"`
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, badRequest("invalid date", map[string]string{"delivery_date": "must be YYYY-MM-DD"})
	}
	return date, nil
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return badRequest("invalid request body", map[string]string{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return badRequest("validation failed", nil)
	}

	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return badRequest("validation failed", details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "datetime":
		return "must be YYYY-MM-DD"
	}
	return "is invalid"
}

func parseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("query parameter must be numeric", map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, badRequest("query parameter out of range", map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}
