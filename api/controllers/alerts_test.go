package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketwise/basketwise-backend/internal/alerts"
)

type stubAlertService struct {
	alerts.Service
	user  string
	input alerts.CreateAlertInput
}

func (s *stubAlertService) Create(_ context.Context, userID string, input alerts.CreateAlertInput) (*alerts.AlertDTO, error) {
	s.user = userID
	s.input = input
	return &alerts.AlertDTO{ID: uuid.New(), ProductName: input.ProductName, TargetPrice: input.TargetPrice}, nil
}

func TestCreatePriceAlert(t *testing.T) {
	svc := &stubAlertService{}
	rec := httptest.NewRecorder()
	CreatePriceAlert(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/alerts",
		`{"product_name":"Milk","target_price":"2.99","email_alert":false}`, "user-3"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user-3", svc.user)
	assert.True(t, svc.input.TargetPrice.Equal(decimal.RequireFromString("2.99")))
	require.NotNil(t, svc.input.EmailAlert)
	assert.False(t, *svc.input.EmailAlert)
	assert.Nil(t, svc.input.PushAlert)
}

func TestCreatePriceAlertRequiresProduct(t *testing.T) {
	svc := &stubAlertService{}
	rec := httptest.NewRecorder()
	CreatePriceAlert(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/alerts", `{"target_price":"2.99"}`, "user-3"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.user)
}

func TestDeletePriceAlertBadID(t *testing.T) {
	rec := httptest.NewRecorder()
	DeletePriceAlert(&stubAlertService{}, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/v1/alerts/1", "", "user-3", "alertId", "1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
