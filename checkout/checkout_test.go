package checkout

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/cart"
)

func testSnapshot() cart.Snapshot {
	c := cart.New(cart.DefaultConfig())
	pack := cart.LineItem{CatalogItemID: "sumami-trio", Name: "Sumami Trio", UnitPrice: 31500, Quantity: 2, VariantLabel: "3-Pack"}
	c.AddItem(pack)
	return c.Snapshot()
}

func testRedirectConfig() RedirectConfig {
	return RedirectConfig{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		ProcessURL:  "https://pay.example.com/eng/process",
		ReturnURL:   "https://sumami.example/checkout/success",
		CancelURL:   "https://sumami.example/checkout/cancel",
		NotifyURL:   "https://sumami.example/api/notify",
	}
}

func TestFormatRand(t *testing.T) {
	assert.Equal(t, "480.00", FormatRand(48000))
	assert.Equal(t, "0.55", FormatRand(55))
	assert.Equal(t, "3.05", FormatRand(305))
	assert.Equal(t, "0.00", FormatRand(0))
	assert.Equal(t, "0.00", FormatRand(-100))
}

func TestBuildRedirectForm(t *testing.T) {
	form, err := BuildRedirectForm(testRedirectConfig(), "ord_123", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/eng/process", form.Action)

	byName := map[string]string{}
	var order []string
	for _, f := range form.Fields {
		byName[f.Name] = f.Value
		order = append(order, f.Name)
	}
	// Paired 3-packs: 63000 gross, 15000 rebate.
	assert.Equal(t, "480.00", byName["amount"])
	assert.Equal(t, "ord_123", byName["m_payment_id"])
	assert.Contains(t, byName["item_name"], "2 items")
	assert.Equal(t, "signature", order[len(order)-1], "signature is posted last")
	assert.Equal(t, Sign(form.Fields[:len(form.Fields)-1], ""), byName["signature"])
}

func TestSignDeterministic(t *testing.T) {
	fields := []Field{{"merchant_id", "10000100"}, {"amount", "480.00"}, {"item_name", "Sumami order (2 items)"}}

	sum := md5.Sum([]byte("merchant_id=10000100&amount=480.00&item_name=Sumami+order+%282+items%29"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Sign(fields, ""))

	withPass := md5.Sum([]byte("merchant_id=10000100&amount=480.00&item_name=Sumami+order+%282+items%29&passphrase=secret+word"))
	assert.Equal(t, hex.EncodeToString(withPass[:]), Sign(fields, "secret word"))

	// Empty values are skipped, not signed as empty pairs.
	fields = append(fields, Field{"custom_str1", ""})
	assert.Equal(t, hex.EncodeToString(sum[:]), Sign(fields, ""))
}

func TestBuildRedirectFormValidation(t *testing.T) {
	_, err := BuildRedirectForm(RedirectConfig{}, "ref", testSnapshot())
	assert.Error(t, err)

	cfg := testRedirectConfig()
	empty := cart.New(cart.DefaultConfig()).Snapshot()
	_, err = BuildRedirectForm(cfg, "ref", empty)
	assert.Error(t, err, "empty carts never reach the gateway")
}

func TestRenderAutoSubmit(t *testing.T) {
	form, err := BuildRedirectForm(testRedirectConfig(), "ord_123", testSnapshot())
	require.NoError(t, err)

	page, err := form.RenderAutoSubmit()
	require.NoError(t, err)
	assert.Contains(t, page, `action="https://pay.example.com/eng/process"`)
	assert.Contains(t, page, `name="amount" value="480.00"`)
	assert.Contains(t, page, "document.forms[0].submit()")
	assert.Contains(t, page, "<noscript>")
}

func TestCreateChargeSuccess(t *testing.T) {
	var got chargeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/charges", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(ChargeResult{ID: "ch_1", Status: "successful", AmountInCents: got.AmountInCents, Currency: got.Currency})
	}))
	defer srv.Close()

	client := NewPopupClient(srv.URL, "sk_test_123")
	result, err := client.CreateCharge(context.Background(), "ord_123", "tok_abc", testSnapshot())
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.Equal(t, int64(48000), got.AmountInCents)
	assert.Equal(t, "ZAR", got.Currency)
	assert.Equal(t, "ord_123", got.Metadata.Reference)
	require.Len(t, got.Metadata.Lines, 1)
	assert.Equal(t, 2, got.Metadata.Lines[0].Quantity)
}

func TestCreateChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(ChargeResult{ID: "ch_2", Status: "declined", ErrorMessage: "insufficient funds"})
	}))
	defer srv.Close()

	client := NewPopupClient(srv.URL, "sk_test_123")
	result, err := client.CreateCharge(context.Background(), "ord_124", "tok_abc", testSnapshot())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeclined))
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.False(t, result.Succeeded())
}

func TestCreateChargeValidation(t *testing.T) {
	client := NewPopupClient("https://gateway.example", "")
	_, err := client.CreateCharge(context.Background(), "ref", "tok", testSnapshot())
	assert.Error(t, err, "missing secret key")

	client = NewPopupClient("https://gateway.example", "sk")
	_, err = client.CreateCharge(context.Background(), "ref", "", testSnapshot())
	assert.Error(t, err, "missing token")

	empty := cart.New(cart.DefaultConfig()).Snapshot()
	_, err = client.CreateCharge(context.Background(), "ref", "tok", empty)
	assert.Error(t, err, "empty snapshot")
}
