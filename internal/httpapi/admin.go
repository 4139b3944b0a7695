package httpapi

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"dumpster-quote/internal/storage"

	"go.uber.org/zap"
)

const (
	apiKeyHeader       = "X-API-Key"
	defaultExportRange = 30 * 24 * time.Hour
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminAPIKey)) != 1 {
			h.writeError(w, r, &requestError{
				status:  http.StatusUnauthorized,
				code:    CodeUnauthorized,
				message: "missing or invalid API key",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) exportLeads(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-defaultExportRange)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.writeError(w, r, badRequest("invalid since date", map[string]string{"since": "must be YYYY-MM-DD"}))
			return
		}
		since = parsed
	}

	leads, err := h.leads.ListLeads(r.Context(), since)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := storage.WriteLeadsWorkbook(&buf, leads); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Leads exported",
		zap.Int("count", len(leads)),
		zap.Time("since", since))

	filename := fmt.Sprintf("leads_%s.xlsx", time.Now().Format("20060102_1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
