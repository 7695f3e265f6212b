package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketwise/basketwise-backend/internal/prices"
	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
)

type stubPriceService struct {
	prices.Service
	called  string
	bulk    []prices.NormalizedPrice
	since   *time.Time
	upsert  *prices.UpsertResult
	getErr  error
	listOut []prices.PriceDTO
}

func (s *stubPriceService) Get(_ context.Context, storeID uuid.UUID, name string) (*prices.PriceDTO, error) {
	s.called = "get"
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &prices.PriceDTO{StoreID: storeID, ProductName: name, Price: decimal.RequireFromString("3.99")}, nil
}

func (s *stubPriceService) ListByProduct(context.Context, string) ([]prices.PriceDTO, error) {
	s.called = "by_product"
	return s.listOut, nil
}

func (s *stubPriceService) ListByStore(context.Context, uuid.UUID) ([]prices.PriceDTO, error) {
	s.called = "by_store"
	return s.listOut, nil
}

func (s *stubPriceService) Search(context.Context, string) ([]prices.PriceDTO, error) {
	s.called = "search"
	return s.listOut, nil
}

func (s *stubPriceService) History(_ context.Context, _ uuid.UUID, _ string, since *time.Time) ([]prices.HistoryPointDTO, error) {
	s.called = "history"
	s.since = since
	return []prices.HistoryPointDTO{}, nil
}

func (s *stubPriceService) Upsert(context.Context, prices.UpsertPriceInput) (*prices.UpsertResult, error) {
	s.called = "upsert"
	return s.upsert, nil
}

func (s *stubPriceService) BulkUpsert(_ context.Context, records []prices.NormalizedPrice) (*prices.BulkResult, error) {
	s.called = "bulk"
	s.bulk = records
	return &prices.BulkResult{Created: len(records)}, nil
}

func TestListPricesDispatch(t *testing.T) {
	storeID := uuid.New().String()
	cases := []struct {
		query string
		want  string
	}{
		{"?store_id=" + storeID + "&product_name=Milk", "get"},
		{"?product_name=Milk", "by_product"},
		{"?store_id=" + storeID, "by_store"},
		{"?q=mil", "search"},
	}
	for _, tc := range cases {
		svc := &stubPriceService{listOut: []prices.PriceDTO{}}
		rec := httptest.NewRecorder()
		ListPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/prices"+tc.query, "", ""))
		assert.Equal(t, http.StatusOK, rec.Code, tc.query)
		assert.Equal(t, tc.want, svc.called, tc.query)
	}
}

func TestListPricesValidation(t *testing.T) {
	svc := &stubPriceService{}
	rec := httptest.NewRecorder()
	ListPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/prices", "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ListPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/prices?store_id=nope", "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.called)
}

func TestListPricesPointLookupNotFound(t *testing.T) {
	svc := &stubPriceService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "price not found")}
	rec := httptest.NewRecorder()
	ListPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/prices?store_id="+uuid.NewString()+"&product_name=Caviar", "", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceHistoryWindow(t *testing.T) {
	svc := &stubPriceService{}
	rec := httptest.NewRecorder()
	target := "/api/v1/prices/history?store_id=" + uuid.NewString() + "&product_name=Milk&days=30"
	PriceHistory(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, target, "", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.since)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), *svc.since, time.Minute)

	rec = httptest.NewRecorder()
	PriceHistory(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/prices/history?product_name=Milk", "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpsertPriceStatus(t *testing.T) {
	svc := &stubPriceService{upsert: &prices.UpsertResult{Created: true, Changed: true}}
	body := `{"store_id":"` + uuid.NewString() + `","product_name":"Milk","price":"3.99","is_on_sale":false}`
	rec := httptest.NewRecorder()
	AdminUpsertPrice(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPut, "/api/admin/v1/prices", body, ""))
	assert.Equal(t, http.StatusCreated, rec.Code)

	svc.upsert = &prices.UpsertResult{Changed: true}
	rec = httptest.NewRecorder()
	AdminUpsertPrice(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPut, "/api/admin/v1/prices", body, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminBulkUpsertAcceptsBothSpellings(t *testing.T) {
	storeID := uuid.NewString()
	body := `{"records":[
		{"store_id":"` + storeID + `","product_name":"Milk","price":3.99},
		{"storeId":"` + storeID + `","productName":"Eggs","price":"2.49","isOnSale":true}
	]}`
	svc := &stubPriceService{}
	rec := httptest.NewRecorder()
	AdminBulkUpsertPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/admin/v1/prices/bulk", body, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.bulk, 2)
	assert.False(t, svc.bulk[0].IsOnSale)
	assert.True(t, svc.bulk[1].IsOnSale)
	assert.True(t, svc.bulk[1].Price.Equal(decimal.RequireFromString("2.49")))
}

func TestAdminBulkUpsertRejectsWholeBatch(t *testing.T) {
	storeID := uuid.NewString()
	body := `{"records":[
		{"store_id":"` + storeID + `","product_name":"Milk","price":3.99},
		{"store_id":"` + storeID + `","product_name":"Eggs","price":"cheap"},
		{"store_id":"` + storeID + `","product_name":"Bread","price":2.5,"colour":"brown"}
	]}`
	svc := &stubPriceService{}
	rec := httptest.NewRecorder()
	AdminBulkUpsertPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/admin/v1/prices/bulk", body, ""))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, svc.called)

	resp := decode[any](t, rec)
	assert.Equal(t, string(pkgerrors.CodeMalformedRecord), resp.Error.Code)
	var details struct {
		Rejected []rejectedRecord `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(resp.Error.Details, &details))
	require.Len(t, details.Rejected, 2)
	assert.Equal(t, 1, details.Rejected[0].Index)
	assert.Equal(t, 2, details.Rejected[1].Index)
}

func TestAdminBulkUpsertRequiresRecords(t *testing.T) {
	svc := &stubPriceService{}
	rec := httptest.NewRecorder()
	AdminBulkUpsertPrices(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/admin/v1/prices/bulk", `{"records":[]}`, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
