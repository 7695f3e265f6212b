package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/basketwise/basketwise-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type itemBody struct {
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_name":"","quantity":0}`))
	var body itemBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["itemBody.product_name"] != "is required" || details["itemBody.quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_name":"Milk","quantity":1,"price":3}`))
	var body itemBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestParseQueryFloat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?maxDistance=2.5&bad=NaN", nil)
	v, err := ParseQueryFloat(req, "maxDistance")
	if err != nil || v == nil || *v != 2.5 {
		t.Fatalf("expected 2.5, got %v err=%v", v, err)
	}
	if v, err := ParseQueryFloat(req, "missing"); err != nil || v != nil {
		t.Fatalf("expected nil for missing key, got %v err=%v", v, err)
	}
	if _, err := ParseQueryFloat(req, "bad"); err == nil {
		t.Fatal("expected NaN to be rejected")
	}
}

func TestParseQueryIntRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 10, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	if v, err := ParseQueryInt(req, "other", 10, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected default, got %d err=%v", v, err)
	}
}

func TestParseURLParamUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("storeId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseURLParamUUID(req, "storeId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s err=%v", id, got, err)
	}
	if _, err := ParseURLParamUUID(req, "listId"); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  Crème fraîche  ", 5); got != "Crème" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString(" milk ", 0); got != "milk" {
		t.Fatalf("unexpected %q", got)
	}
}
