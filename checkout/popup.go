package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/cart"
)

// ---------------------------------------------------------------------------
// Card-popup gateway
// ---------------------------------------------------------------------------

// PopupClient charges a card token obtained by the gateway's browser popup.
// The popup tokenizes the card client-side; the server only ever sees the
// single-use token.
type PopupClient struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewPopupClient(baseURL, secretKey string) *PopupClient {
	return &PopupClient{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		SecretKey:  strings.TrimSpace(secretKey),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type chargeRequest struct {
	Token         string         `json:"token"`
	AmountInCents int64          `json:"amountInCents"`
	Currency      string         `json:"currency"`
	Metadata      chargeMetadata `json:"metadata"`
}

type chargeMetadata struct {
	Reference string              `json:"reference"`
	Lines     []cart.SnapshotLine `json:"lines"`
}

// ChargeResult is the gateway's verdict on a charge attempt.
type ChargeResult struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	AmountInCents int64  `json:"amountInCents"`
	Currency      string `json:"currency"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// Succeeded reports whether the gateway accepted the charge.
func (r ChargeResult) Succeeded() bool {
	return strings.EqualFold(r.Status, "successful") || strings.EqualFold(r.Status, "succeeded")
}

// ErrDeclined is returned when the gateway processed the request but
// declined the card.
var ErrDeclined = errors.New("card declined")

// CreateCharge submits the snapshot total against a card token.
func (c *PopupClient) CreateCharge(ctx context.Context, reference, token string, snap cart.Snapshot) (ChargeResult, error) {
	if c.SecretKey == "" {
		return ChargeResult{}, errors.New("popup gateway secret key not configured")
	}
	if strings.TrimSpace(token) == "" {
		return ChargeResult{}, errors.New("missing card token")
	}
	if snap.Total <= 0 {
		return ChargeResult{}, errors.New("nothing to charge")
	}

	payload, err := json.Marshal(chargeRequest{
		Token:         strings.TrimSpace(token),
		AmountInCents: snap.Total,
		Currency:      snap.Currency,
		Metadata:      chargeMetadata{Reference: reference, Lines: snap.Lines},
	})
	if err != nil {
		return ChargeResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/charges", bytes.NewReader(payload))
	if err != nil {
		return ChargeResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("popup gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ChargeResult{}, err
	}

	var result ChargeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return ChargeResult{}, fmt.Errorf("popup gateway returned malformed response (status %d)", resp.StatusCode)
	}

	switch {
	case resp.StatusCode >= 500:
		return result, fmt.Errorf("popup gateway error (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusPaymentRequired || strings.EqualFold(result.Status, "declined") || strings.EqualFold(result.Status, "failed"):
		return result, fmt.Errorf("%w: %s", ErrDeclined, declineReason(result))
	case resp.StatusCode >= 400:
		return result, fmt.Errorf("popup gateway rejected request (status %d): %s", resp.StatusCode, declineReason(result))
	}
	return result, nil
}

func declineReason(r ChargeResult) string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return "no reason given"
}

func (c *PopupClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
