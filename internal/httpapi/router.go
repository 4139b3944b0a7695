package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Deps struct {
	Quotes         QuoteService
	// Leads backs the admin export; nil or an empty AdminAPIKey leaves it unmounted.
	Leads          LeadLister
	Checks         map[string]Pinger
	AdminAPIKey    string
	BusinessPhone  string
	AllowedOrigins []string
}

func NewRouter(deps Deps, logger *zap.Logger) http.Handler {
	h := &Handler{
		quotes:        deps.Quotes,
		leads:         deps.Leads,
		checks:        deps.Checks,
		adminAPIKey:   deps.AdminAPIKey,
		businessPhone: deps.BusinessPhone,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(
		h.recoverer,
		requestID,
		logging(logger),
		corsMiddleware(deps.AllowedOrigins),
	)

	r.Get("/healthz", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/delivery-dates", h.deliveryDates)
		r.Post("/estimates", h.estimate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.startSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Put("/delivery-date", h.selectDeliveryDate)
				r.Post("/calculate", h.calculate)
				r.Post("/decision", h.decide)
				r.Post("/contact", h.submitContact)
				r.Post("/text", h.textMe)
			})
		})

		if deps.Leads != nil && deps.AdminAPIKey != "" {
			r.With(h.requireAPIKey).Get("/admin/leads/export", h.exportLeads)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &requestError{status: http.StatusNotFound, code: CodeNotFound, message: "route not found"})
	})

	return r
}
