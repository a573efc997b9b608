package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/storeconfig"
)

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSettingsCRUD(t *testing.T) {
	mux := routes(storeconfig.InMemory())

	rec := do(t, mux, http.MethodGet, "/v1/settings/"+storeconfig.KeyShippingFee, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing key, got %d", rec.Code)
	}

	rec = do(t, mux, http.MethodPut, "/v1/settings/"+storeconfig.KeyShippingFee, `{"value":"7500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, mux, http.MethodGet, "/v1/settings/"+storeconfig.KeyShippingFee, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	var body struct {
		Item storeconfig.Setting `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if body.Item.Value != "7500" {
		t.Fatalf("unexpected value %q", body.Item.Value)
	}

	rec = do(t, mux, http.MethodGet, "/v1/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}

	rec = do(t, mux, http.MethodDelete, "/v1/settings/"+storeconfig.KeyShippingFee, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d", rec.Code)
	}
	rec = do(t, mux, http.MethodDelete, "/v1/settings/"+storeconfig.KeyShippingFee, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestSettingsValidation(t *testing.T) {
	mux := routes(storeconfig.InMemory())

	rec := do(t, mux, http.MethodPut, "/v1/settings/some.key", ``)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", rec.Code)
	}

	rec = do(t, mux, http.MethodPost, "/v1/settings", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST on collection, got %d", rec.Code)
	}
}
