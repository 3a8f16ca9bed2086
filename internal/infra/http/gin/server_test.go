package ginserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
	paymentsapp "staybook/internal/app/handlers/payments"
	quoteapp "staybook/internal/app/handlers/quote"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	domainproperty "staybook/internal/domain/property"
	"staybook/internal/infra/config"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/storage/memory"
)

type testApp struct {
	server   *httptest.Server
	provider *memory.PaymentProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	uowFactory := memory.Factory{
		PropertyRepo: memory.NewPropertyRepository(),
		BookingRepo:  memory.NewBookingRepository(),
		PaymentRepo:  memory.NewPaymentRepository(),
		ScheduleRepo: memory.NewScheduleRepository(),
	}
	provider := memory.NewPaymentProvider()
	orchestrator := &paymentsapp.Orchestrator{Provider: provider}
	outboxStore := memory.NewOutbox()
	encoder := outbox.JSONEventEncoder{}

	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:               "prop-1",
		OwnerID:          "host-1",
		Title:            "Harbor Loft",
		Currency:         "USD",
		NightlyRateCents: 18000,
		CleaningFeeCents: 5000,
		MaxGuests:        4,
		AllowInstantBook: true,
		Now:              time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, uowFactory.PropertyRepo.Save(t.Context(), prop))

	commandBase := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBase, bookingapp.CreateDraftCommand{}.Key(), &bookingapp.CreateDraftHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBase, bookingapp.SubmitRequestCommand{}.Key(), &bookingapp.SubmitRequestHandler{
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBase, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Orch:    orchestrator,
		Outbox:  outboxStore,
		Encoder: encoder,
	})
	commands.RegisterHandler(commandBase, paymentsapp.CapturePaymentCommand{}.Key(), &paymentsapp.CapturePaymentHandler{
		Orchestrator: orchestrator,
	})
	commandBus := middleware.ChainCommands(commandBase,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.ComputeQuoteQuery{}.Key(), &quoteapp.ComputeQuoteHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, quoteapp.CheckAvailabilityQuery{}.Key(), &quoteapp.CheckAvailabilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsQuery{}.Key(), &bookingapp.ListGuestBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, paymentsapp.PaymentSessionQuery{}.Key(), &paymentsapp.PaymentSessionHandler{
		UoWFactory:   uowFactory,
		Orchestrator: orchestrator,
	})

	srv := ginserver.NewServer(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, ginserver.Handlers{
		Quote:          ginserver.QuoteHandler{Queries: queryBus},
		Booking:        ginserver.BookingHandler{Commands: commandBus, Queries: queryBus},
		Payment:        ginserver.PaymentHandler{Commands: commandBus, Queries: queryBus},
		AuthMiddleware: ginserver.AuthMiddleware{Resolver: ginserver.StaticResolver{}}.Handle,
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return &testApp{server: ts, provider: provider}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func stayRequest() map[string]any {
	return map[string]any{
		"property_id": "prop-1",
		"kind":        "stay",
		"start_at":    "2026-10-02T15:00:00Z",
		"end_at":      "2026-10-05T11:00:00Z",
		"guests":      2,
	}
}

func TestLivez(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.do(t, http.MethodGet, "/livez", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestQuoteEndpointIsPublic(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.do(t, http.MethodPost, "/api/v1/quotes", "", stayRequest(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(54000), body["subtotal_cents"])
	assert.Equal(t, float64(59000), body["total_cents"])
	assert.Equal(t, "instant", body["mode"])
}

func TestCreateBookingRejectsBadKind(t *testing.T) {
	app := newTestApp(t)
	body := stayRequest()
	body["kind"] = "hourly"
	resp, decoded := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-1", body, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "kind must be stay or event", decoded["error"])
}

func TestBookingEndpointsRequireAuth(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.do(t, http.MethodPost, "/api/v1/bookings", "", stayRequest(), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "auth required", body["error"])
}

func TestInstantBookingFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, created := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-1", stayRequest(), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bookingID, _ := created["booking_id"].(string)
	require.NotEmpty(t, bookingID)
	assert.Equal(t, "draft", created["status"])

	resp, submitted := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/submit", bookingID), "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "awaiting_payment", submitted["status"])

	resp, session := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%s/payment-session", bookingID), "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payments, _ := session["payments"].([]any)
	require.Len(t, payments, 1)
	total := payments[0].(map[string]any)
	intentID, _ := total["payment_intent_id"].(string)
	require.NotEmpty(t, intentID)
	assert.NotEmpty(t, total["client_secret"])

	require.NoError(t, app.provider.SettleIntent(intentID))

	resp, captured := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/capture", bookingID), "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", captured["status"])

	resp, list := app.do(t, http.MethodGet, "/api/v1/me/bookings?status=confirmed", "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := list["items"].([]any)
	require.Len(t, items, 1)
}

func TestOverlappingSubmitConflictsOverHTTP(t *testing.T) {
	app := newTestApp(t)

	_, first := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-1", stayRequest(), nil)
	firstID, _ := first["booking_id"].(string)
	require.NotEmpty(t, firstID)
	resp, _ := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/submit", firstID), "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second draft for the same window is rejected at creation pre-flight.
	resp, body := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-2", stayRequest(), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "window is no longer available", body["error"])
}

func TestIdempotencyKeyReplaysDraft(t *testing.T) {
	app := newTestApp(t)
	headers := map[string]string{"Idempotency-Key": "retry-123"}

	resp, first := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-1", stayRequest(), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, second := app.do(t, http.MethodPost, "/api/v1/bookings", "guest-1", stayRequest(), headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, first["booking_id"], second["booking_id"])

	resp, list := app.do(t, http.MethodGet, "/api/v1/me/bookings", "guest-1", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := list["items"].([]any)
	assert.Len(t, items, 1)
}
