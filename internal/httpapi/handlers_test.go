package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dumpster-quote/internal/pricing"
	"dumpster-quote/internal/quote"
	"dumpster-quote/internal/render"
	"dumpster-quote/internal/storage"
	"dumpster-quote/pkg/sms"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	testPhone  = "(801) 555-0134"
	testAPIKey = "s3cret"
)

// Thursday, 10:00.
var testNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type memorySessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memorySessions) SaveSession(_ context.Context, id string, v any, _ time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = data
	return nil
}

func (m *memorySessions) LoadSession(_ context.Context, id string, v any) error {
	m.mu.Lock()
	data, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return quote.ErrSessionNotFound
	}
	return json.Unmarshal(data, v)
}

type stubSender struct {
	err error
}

func (s *stubSender) Send(context.Context, sms.Message) error {
	return s.err
}

type stubLeads struct {
	leads []storage.Lead
	err   error
}

func (s *stubLeads) ListLeads(context.Context, time.Time) ([]storage.Lead, error) {
	return s.leads, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type apiEnv struct {
	server *httptest.Server
	sender *stubSender
	leads  *stubLeads
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	env := &apiEnv{
		sender: &stubSender{},
		leads:  &stubLeads{},
	}

	svc, err := quote.NewService(pricing.MustDefault(), quote.Options{
		Disclaimers: render.Disclaimers{
			TonnageRatePerTon: decimal.NewFromInt(65),
			ItemSurcharge:     decimal.NewFromInt(25),
		},
		BusinessPhone: testPhone,
		DeliveryDays:  10,
		Location:      time.UTC,
		Now:           func() time.Time { return testNow },
	}, quote.Deps{
		Sessions: &memorySessions{data: map[string][]byte{}},
		Sender:   env.sender,
	}, zap.NewNop())
	require.NoError(t, err)

	router := NewRouter(Deps{
		Quotes:        svc,
		Leads:         env.leads,
		Checks:        map[string]Pinger{"redis": stubPinger{}},
		AdminAPIKey:   testAPIKey,
		BusinessPhone: testPhone,
	}, zap.NewNop())

	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

type sessionPayload struct {
	Session struct {
		ID        string `json:"id"`
		SMSStatus string `json:"sms_status"`
		Booking   struct {
			Step   string `json:"step"`
			Intent struct {
				Contact string `json:"contact"`
			} `json:"intent"`
		} `json:"booking"`
	} `json:"session"`
	Estimate struct {
		Total       string   `json:"total"`
		Disclaimers []string `json:"disclaimers"`
	} `json:"estimate"`
	Prompt string `json:"prompt"`
}

func decodeData(t *testing.T, env envelope) sessionPayload {
	t.Helper()
	var p sessionPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func (e *apiEnv) startQuoted(t *testing.T) string {
	t.Helper()

	status, env := e.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	id := decodeData(t, env).Session.ID
	require.NotEmpty(t, id)

	status, env = e.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/calculate", map[string]any{
		"zip_code":      "84101",
		"size":          20,
		"duration_days": 7,
	})
	require.Equal(t, http.StatusOK, status)
	p := decodeData(t, env)
	require.Equal(t, "$375", p.Estimate.Total)
	require.Equal(t, quote.BookingQuestion, p.Prompt)
	return id
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"redis":"ok"}`, string(body.Data))
}

func TestDeliveryDates(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/delivery-dates?count=3", nil)
	require.Equal(t, http.StatusOK, status)

	var dates []struct {
		Date              time.Time `json:"date"`
		AvailabilityLabel string    `json:"availability_label"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &dates))
	require.Len(t, dates, 3)
	assert.Equal(t, 15, dates[0].Date.Day())
	assert.Equal(t, 16, dates[1].Date.Day())
	// Weekend skipped.
	assert.Equal(t, 19, dates[2].Date.Day())

	status, body = env.do(t, http.MethodGet, "/api/v1/delivery-dates?count=99", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body.Error.Code)
}

func TestStatelessEstimate(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/estimates", map[string]any{
		"zip_code":      "84101",
		"size":          10,
		"duration_days": 7,
	})
	require.Equal(t, http.StatusOK, status)

	p := decodeData(t, body)
	assert.Equal(t, "$450", p.Estimate.Total)
	require.NotEmpty(t, p.Estimate.Disclaimers)
	assert.Contains(t, p.Estimate.Disclaimers[0], "dirt/concrete")
}

func TestEstimateValidation(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/estimates", map[string]any{
		"size":          25,
		"duration_days": 7,
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, CodeValidation, body.Error.Code)
	assert.Equal(t, testPhone, body.Error.Phone)

	details, ok := body.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, pricing.ErrMissingZip.Error(), details["zip_code"])
	assert.Equal(t, pricing.ErrUnsupportedSize.Error(), details["size"])
}

func TestEstimateRejectsUnknownFields(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/estimates", map[string]any{
		"zip_code": "84101",
		"coupon":   "FREE",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body.Error.Code)
}

func TestSessionNotFound(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/v1/sessions/6f1d2c3b-4a59-4e8f-9a1b-2c3d4e5f6a7b", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, CodeNotFound, body.Error.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	id := env.startQuoted(t)
	base := "/api/v1/sessions/" + id

	status, body := env.do(t, http.MethodPost, base+"/contact", map[string]any{"contact": "jane@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, CodeStateConflict, body.Error.Code)

	status, body = env.do(t, http.MethodPost, base+"/decision", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "is required", body.Error.Details.(map[string]any)["book"])

	status, body = env.do(t, http.MethodPost, base+"/decision", map[string]any{"book": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "awaiting_contact", decodeData(t, body).Session.Booking.Step)

	status, body = env.do(t, http.MethodPost, base+"/contact", map[string]any{"contact": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter your email or phone number", body.Error.Message)

	status, body = env.do(t, http.MethodPost, base+"/contact", map[string]any{"contact": "jane@example.com"})
	require.Equal(t, http.StatusOK, status)
	p := decodeData(t, body)
	assert.Equal(t, "contact_submitted", p.Session.Booking.Step)
	assert.Contains(t, p.Prompt, testPhone)

	status, body = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane@example.com", decodeData(t, body).Session.Booking.Intent.Contact)
}

func TestTextMeOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	id := env.startQuoted(t)
	base := "/api/v1/sessions/" + id

	status, _ := env.do(t, http.MethodPost, base+"/decision", map[string]any{"book": true})
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPost, base+"/text", map[string]any{"contact": "jane@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "a phone number is required to send a text", body.Error.Message)

	env.sender.err = sms.ErrNotSent
	status, body = env.do(t, http.MethodPost, base+"/text", map[string]any{"contact": "801-555-0199"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, CodeTextFailed, body.Error.Code)
	assert.Contains(t, body.Error.Message, testPhone)
	assert.Equal(t, testPhone, body.Error.Details.(map[string]any)["fallback_phone"])

	status, body = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	p := decodeData(t, body)
	assert.Equal(t, "contact_submitted", p.Session.Booking.Step)
	assert.Equal(t, "failed", p.Session.SMSStatus)

	env.sender.err = nil
	status, body = env.do(t, http.MethodPost, base+"/text", map[string]any{"contact": "801-555-0199"})
	require.Equal(t, http.StatusOK, status)
	p = decodeData(t, body)
	assert.Equal(t, "sent", p.Session.SMSStatus)
	assert.True(t, strings.HasPrefix(p.Prompt, "Text sent"))
}

func TestSelectDeliveryDateOverHTTP(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	base := "/api/v1/sessions/" + decodeData(t, body).Session.ID

	status, body = env.do(t, http.MethodPut, base+"/delivery-date", map[string]any{"date": "2026-10-17"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error.Details.(map[string]any), "delivery_date")

	status, body = env.do(t, http.MethodPut, base+"/delivery-date", map[string]any{"date": "10/16/2026"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "must be YYYY-MM-DD", body.Error.Details.(map[string]any)["date"])

	status, _ = env.do(t, http.MethodPut, base+"/delivery-date", map[string]any{"date": "2026-10-16"})
	assert.Equal(t, http.StatusOK, status)
}

func TestAdminExport(t *testing.T) {
	env := newAPIEnv(t)
	env.leads.leads = []storage.Lead{{
		ID:           1,
		SessionID:    "3f1c2a9e-7b4d-4c1e-9a55-0c8f1e2d3b4a",
		Contact:      "8015550199",
		ContactKind:  "phone",
		Channel:      storage.ChannelSMS,
		ZipCode:      "84101",
		Size:         20,
		DurationDays: 7,
		FinalPrice:   decimal.NewFromInt(375),
		CreatedAt:    testNow,
	}}

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/admin/leads/export", nil)
	require.NoError(t, err)

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set(apiKeyHeader, testAPIKey)
	resp, err = env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAdminExportStoreError(t *testing.T) {
	env := newAPIEnv(t)
	env.leads.err = errors.New("connection refused")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/admin/leads/export", nil)
	require.NoError(t, err)
	req.Header.Set(apiKeyHeader, testAPIKey)

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRecovererBeforeResponse(t *testing.T) {
	h := &Handler{businessPhone: testPhone, logger: zap.NewNop()}
	handler := h.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/delivery-dates", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeInternal, env.Error.Code)
}

func TestRecovererAfterResponseStarted(t *testing.T) {
	h := &Handler{businessPhone: testPhone, logger: zap.NewNop()}
	handler := h.recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":"partial"}`))
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/delivery-dates", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"data":"partial"}`, rr.Body.String())
}

func TestRecovererImplicitHeader(t *testing.T) {
	h := &Handler{businessPhone: testPhone, logger: zap.NewNop()}
	handler := h.recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial", rr.Body.String())
}
