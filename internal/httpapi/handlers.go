package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/delivery"
	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/quote"
	"dumpster-quote/internal/render"
	"dumpster-quote/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxDeliveryDates = 30

// QuoteService is the part of *quote.Service the handlers drive.
type QuoteService interface {
	Start(ctx context.Context) (*quote.Session, []delivery.DateOption, error)
	Get(ctx context.Context, id string) (*quote.Session, error)
	UpcomingDeliveryOptions(count int) []delivery.DateOption
	Location() *time.Location
	SelectDeliveryDate(ctx context.Context, id string, date time.Time) (*quote.Session, error)
	Estimate(req pricing.QuoteRequest) (pricing.PriceBreakdown, render.Estimate, error)
	Calculate(ctx context.Context, id string, req pricing.QuoteRequest) (*quote.Session, render.Estimate, error)
	Decide(ctx context.Context, id string, book bool) (*quote.Session, error)
	SubmitContact(ctx context.Context, id, contact string) (*quote.Session, error)
	TextMe(ctx context.Context, id, contact string) (*quote.Session, error)
}

type LeadLister interface {
	ListLeads(ctx context.Context, since time.Time) ([]storage.Lead, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	quotes        QuoteService
	leads         LeadLister
	checks        map[string]Pinger
	adminAPIKey   string
	businessPhone string
	logger        *zap.Logger
}

type sessionResponse struct {
	Session *quote.Session `json:"session"`
	Prompt  string         `json:"prompt,omitempty"`
}

type startResponse struct {
	Session       *quote.Session        `json:"session"`
	DeliveryDates []delivery.DateOption `json:"delivery_dates"`
}

type calculateResponse struct {
	Session  *quote.Session  `json:"session"`
	Estimate render.Estimate `json:"estimate"`
	Prompt   string          `json:"prompt,omitempty"`
}

type estimateResponse struct {
	Breakdown pricing.PriceBreakdown `json:"breakdown"`
	Estimate  render.Estimate        `json:"estimate"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeSuccess(w, status, results)
}

func (h *Handler) deliveryDates(w http.ResponseWriter, r *http.Request) {
	count, err := parseQueryInt(r, "count", 0, 1, maxDeliveryDates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, h.quotes.UpcomingDeliveryOptions(count))
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	var body quoteBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := body.toRequest(h.quotes.Location())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	b, est, err := h.quotes.Estimate(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, estimateResponse{Breakdown: b, Estimate: est})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	sess, dates, err := h.quotes.Start(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, startResponse{Session: sess, DeliveryDates: dates})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) selectDeliveryDate(w http.ResponseWriter, r *http.Request) {
	var body deliveryDateBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := parseDate(body.Date, h.quotes.Location())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.quotes.SelectDeliveryDate(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var body quoteBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := body.toRequest(h.quotes.Location())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, est, err := h.quotes.Calculate(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, calculateResponse{Session: sess, Estimate: est, Prompt: h.prompt(sess)})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.quotes.Decide(r.Context(), chi.URLParam(r, "id"), *body.Book)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.quotes.SubmitContact(r.Context(), chi.URLParam(r, "id"), body.Contact)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) textMe(w http.ResponseWriter, r *http.Request) {
	var body contactBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.quotes.TextMe(r.Context(), chi.URLParam(r, "id"), body.Contact)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, sess)
}

func (h *Handler) writeSession(w http.ResponseWriter, sess *quote.Session) {
	writeSuccess(w, http.StatusOK, sessionResponse{Session: sess, Prompt: h.prompt(sess)})
}

// prompt is the line the widget shows under the estimate for the current step.
func (h *Handler) prompt(sess *quote.Session) string {
	switch sess.Step() {
	case booking.StepAwaitingDecision:
		return quote.BookingQuestion
	case booking.StepDeclined:
		return fmt.Sprintf("No problem. Call %s whenever you are ready to book.", h.businessPhone)
	case booking.StepAwaitingContact:
		return booking.ContactRequiredMessage
	case booking.StepContactSubmitted:
		if sess.SMSStatus == quote.SMSSent {
			return "Text sent! Check your phone for your quote."
		}
		return fmt.Sprintf("Thanks! We will reach out shortly. Need it sooner? Call %s.", h.businessPhone)
	default:
		return ""
	}
}
