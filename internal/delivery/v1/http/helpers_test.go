package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/shopspring/decimal"
)

func updateRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPut, "/api/v1/products/1", bytes.NewReader([]byte(body)))
}

func TestParseUpdateBody_AbsentFieldsStayNil(t *testing.T) {
	req, err := parseUpdateBody(updateRequest(`{"name":"Renamed"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if req.Name == nil || *req.Name != "Renamed" {
		t.Fatalf("expected name patch, got %+v", req.Name)
	}
	if req.Description != nil || req.Price != nil || req.StockQuantity != nil {
		t.Fatalf("absent fields must stay nil: %+v", req)
	}
}

// Явный null в description очищает поле, отсутствие ключа оставляет как есть.
func TestParseUpdateBody_NullVersusAbsentDescription(t *testing.T) {
	req, err := parseUpdateBody(updateRequest(`{"description":null}`))
	if err != nil {
		t.Fatalf("parse explicit null: %v", err)
	}
	if req.Description == nil || *req.Description != "" {
		t.Fatalf("explicit null must clear description, got %+v", req.Description)
	}

	req, err = parseUpdateBody(updateRequest(`{"price":1}`))
	if err != nil {
		t.Fatalf("parse absent: %v", err)
	}
	if req.Description != nil {
		t.Fatalf("absent description must stay nil, got %+v", req.Description)
	}
}

func TestParseUpdateBody_NullOtherFieldsIgnored(t *testing.T) {
	req, err := parseUpdateBody(updateRequest(`{"name":null,"price":null,"stockQuantity":null}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Name != nil || req.Price != nil || req.StockQuantity != nil {
		t.Fatalf("null for non-clearable fields must be ignored: %+v", req)
	}
}

func TestParseUpdateBody_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"blank name", `{"name":"   "}`, e.ErrProductNameRequired},
		{"negative price", `{"price":-0.01}`, e.ErrInvalidPrice},
		{"price precision", `{"price":9.999}`, e.ErrPricePrecision},
		{"negative stock", `{"stockQuantity":-1}`, e.ErrInvalidStock},
		{"malformed json", `{"price":`, e.ErrStatusBadRequest},
	}

	for _, tc := range cases {
		if _, err := parseUpdateBody(updateRequest(tc.body)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	if err := validatePrice(decimal.RequireFromString("10.25")); err != nil {
		t.Fatalf("two decimal places must pass: %v", err)
	}
	if err := validatePrice(decimal.RequireFromString("10")); err != nil {
		t.Fatalf("integer price must pass: %v", err)
	}
	if err := validatePrice(decimal.RequireFromString("10.255")); !errors.Is(err, e.ErrPricePrecision) {
		t.Fatalf("expected ErrPricePrecision, got %v", err)
	}
	if err := validatePrice(decimal.RequireFromString("-1")); !errors.Is(err, e.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestParseProductID(t *testing.T) {
	id, err := parseProductID("17")
	if err != nil || id != 17 {
		t.Fatalf("expected 17, got %d, %v", id, err)
	}

	for _, raw := range []string{"", "abc", "0", "-1", "1.5"} {
		if _, err := parseProductID(raw); !errors.Is(err, e.ErrInvalidProductID) {
			t.Fatalf("%q: expected ErrInvalidProductID, got %v", raw, err)
		}
	}
}
