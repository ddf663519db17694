package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacio/internal/app/services/auth"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
	"spacio/internal/infra/config"
	ginserver "spacio/internal/infra/http/gin"
	"spacio/internal/infra/obs"
	infraoutbox "spacio/internal/infra/outbox"
	"spacio/internal/infra/storage/memory"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		Currency:           "USD",
		FeePolicyVersion:   domainpricing.PolicyV2,
		HoldTTL:            24 * time.Hour,
		HoldSweepInterval:  time.Minute,
		OutboxPollInterval: 10 * time.Millisecond,
		IdempotencyTTL:     time.Hour,
		JWTSecret:          "test-secret",
	}
}

type harness struct {
	t      *testing.T
	app    *application
	be     *backends
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	logger := obs.Discard()
	be, err := openBackends(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { be.close(logger) })
	app, err := buildApplication(cfg, logger, be)
	require.NoError(t, err)
	return &harness{
		t:      t,
		app:    app,
		be:     be,
		router: ginserver.NewRouter(obs.Middleware{}, obs.HealthHandlers{Checks: be.checks}, app.handlers),
	}
}

func (h *harness) token(userID string, host bool) string {
	tok, err := h.app.tokens.Issue(auth.Principal{UserID: userID, IsHost: host}, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) call(method, path, token string, body any, headers ...string) (int, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestReservationFlow(t *testing.T) {
	h := newHarness(t)
	hostTok := h.token("host-1", true)
	renterTok := h.token("renter-1", false)

	status, listing := h.call(http.MethodPost, "/api/v1/listings", hostTok, map[string]any{
		"title":         "Dry basement corner",
		"size":          "M",
		"pricePerMonth": 100,
		"sizeSqft":      200,
		"zipCode":       "95112",
	})
	require.Equal(t, http.StatusCreated, status, listing)
	listingID := listing["id"].(string)
	assert.Equal(t, "v2", listing["policyVersion"])

	today := daterange.Date(time.Now().UTC())
	start := daterange.Format(today.AddDate(0, 0, 7))
	end := daterange.Format(today.AddDate(0, 0, 37))

	status, quote := h.call(http.MethodPost, "/api/v1/listings/"+listingID+"/quote", renterTok, map[string]any{
		"startDate": start, "endDate": end, "sqftRequested": 50,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", quote["status"])
	assert.InDelta(t, 30.0, quote["quote"].(map[string]any)["totalPrice"], 0.001)

	status, quote = h.call(http.MethodPost, "/api/v1/listings/"+listingID+"/quote", hostTok, map[string]any{
		"startDate": start, "endDate": end, "sqftRequested": 50,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rejected", quote["status"])

	reserve := map[string]any{"listingId": listingID, "startDate": start, "endDate": end, "sqftRequested": 50}
	status, first := h.call(http.MethodPost, "/api/v1/reservations", renterTok, reserve, "Idempotency-Key", "r-1")
	require.Equal(t, http.StatusCreated, status, first)
	assert.Equal(t, "pending_host_confirmation", first["status"])
	assert.InDelta(t, 30.0, first["totalPrice"], 0.001)

	status, replay := h.call(http.MethodPost, "/api/v1/reservations", renterTok, reserve, "Idempotency-Key", "r-1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, first["id"], replay["id"])

	_, got := h.call(http.MethodGet, "/api/v1/listings/"+listingID, "", nil)
	assert.EqualValues(t, 150, got["availableSqft"])

	reserve["sqftRequested"] = 500
	status, rejected := h.call(http.MethodPost, "/api/v1/reservations", renterTok, reserve)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "insufficient_capacity", rejected["code"])
	assert.EqualValues(t, 150, rejected["available"])

	bookingID := first["id"].(string)
	status, _ = h.call(http.MethodPost, "/api/v1/reservations/"+bookingID+"/approve", h.token("host-2", true), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, approved := h.call(http.MethodPost, "/api/v1/reservations/"+bookingID+"/approve", hostTok, nil)
	require.Equal(t, http.StatusOK, status, approved)
	assert.Equal(t, "confirmed", approved["status"])

	status, mine := h.call(http.MethodGet, "/api/v1/reservations", renterTok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, mine["items"], 1)

	status, cancelled := h.call(http.MethodPost, "/api/v1/reservations/"+bookingID+"/cancel", renterTok, map[string]any{"reason": "moved"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cancelled", cancelled["status"])
	_, got = h.call(http.MethodGet, "/api/v1/listings/"+listingID, "", nil)
	assert.EqualValues(t, 200, got["availableSqft"])

	require.NoError(t, h.app.worker.Drain(context.Background()))
	docs := h.be.outbox.(*memory.Outbox).Documents()
	require.NotEmpty(t, docs)
	names := map[string]bool{}
	for _, doc := range docs {
		assert.Equal(t, infraoutbox.StateSent, doc.State)
		names[doc.Name] = true
	}
	for _, name := range []string{"listing.created", "listing.capacity_held", "booking.requested", "booking.confirmed", "booking.cancelled", "listing.capacity_released"} {
		assert.True(t, names[name], name)
	}
}

func TestPriceSuggestionFallsBackToHeuristic(t *testing.T) {
	h := newHarness(t)
	status, body := h.call(http.MethodPost, "/api/v1/pricing/suggest", h.token("host-1", true), map[string]any{
		"size": "M", "zipCode": "95112", "indoor": true,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "heuristic", body["source"])
	assert.InDelta(t, 125.0, body["suggestedPrice"], 0.001)

	status, _ = h.call(http.MethodPost, "/api/v1/pricing/suggest", h.token("renter-1", false), map[string]any{"size": "M"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestLoadListingFixtures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "fx-1", "hostId": "host-1", "title": "Garage bay", "size": "L", "pricePerMonth": 140, "sizeSqft": 300, "zipCode": "95126", "availableFrom": "2026-01-01"},
		{"id": "fx-2", "hostId": "host-1", "title": "", "size": "S", "pricePerMonth": 60, "sizeSqft": 40},
		{"id": "fx-3", "hostId": "host-2", "title": "Closet", "size": "S", "pricePerMonth": 55, "sizeSqft": 30, "policyVersion": "v1"}
	]`), 0o600))

	store := memory.NewFactory()
	cfg := testConfig()
	cfg.ListingsFixtures = path
	policies := domainpricing.MustPolicyBook(domainpricing.PolicyV2)

	require.NoError(t, loadListingFixtures(context.Background(), store.ListingsRepo, policies, cfg, obs.Discard()))
	require.NoError(t, loadListingFixtures(context.Background(), store.ListingsRepo, policies, cfg, obs.Discard()))

	l1, err := store.ListingsRepo.ByID(context.Background(), "fx-1")
	require.NoError(t, err)
	assert.Equal(t, 300, l1.AvailableCapacity)
	assert.Equal(t, domainpricing.PolicyV2, l1.PolicyVersion)

	_, err = store.ListingsRepo.ByID(context.Background(), "fx-2")
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	l3, err := store.ListingsRepo.ByID(context.Background(), "fx-3")
	require.NoError(t, err)
	assert.Equal(t, domainpricing.PolicyV1, l3.PolicyVersion)

	cfg.ListingsFixtures = filepath.Join(dir, "missing.json")
	assert.NoError(t, loadListingFixtures(context.Background(), store.ListingsRepo, policies, cfg, obs.Discard()))
}
