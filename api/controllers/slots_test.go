package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

type fakeSlotsService struct {
	available []models.Slot
}

func (f *fakeSlotsService) Availability(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	return f.available, nil
}

func (f *fakeSlotsService) Reserve(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	return nil
}

func (f *fakeSlotsService) Release(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	return nil
}

func (f *fakeSlotsService) Generate(ctx context.Context, input slots.GenerateInput) (int, error) {
	return 0, nil
}

func slotAvailabilityRequest(t *testing.T, siteID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sites/"+siteID.String()+"/slots", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("siteID", siteID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestSlotAvailabilityFormatsClockTimesAndSkipsFullSlots(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC)
	open := models.Slot{
		ID:          uuid.New(),
		Date:        start.Truncate(24 * time.Hour),
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		MaxBookings: 2,
		IsAvailable: true,
	}
	full := open
	full.ID = uuid.New()
	full.CurrentBookings = 2

	svc := &fakeSlotsService{available: []models.Slot{open, full}}
	rec := httptest.NewRecorder()
	SlotAvailability(svc, nil)(rec, slotAvailabilityRequest(t, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []slotResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, open.ID, body.Data[0].ID)
	assert.Equal(t, "2026-09-14", body.Data[0].Date)
	assert.Equal(t, "10:30", body.Data[0].StartTime)
	assert.Equal(t, "11:30", body.Data[0].EndTime)
	assert.Equal(t, 2, body.Data[0].Available)
}
