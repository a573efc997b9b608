// Package checkout turns a finalized cart snapshot into a payment request
// for one of the two configured gateways: a hosted-page redirect or a
// card-popup charge. Neither integration touches the cart; both consume
// only the immutable snapshot.
package checkout

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/cart"
)

// ---------------------------------------------------------------------------
// Redirect gateway
// ---------------------------------------------------------------------------

// RedirectConfig identifies the merchant to the hosted payment page and
// tells the gateway where to send the shopper afterwards.
type RedirectConfig struct {
	MerchantID  string
	MerchantKey string
	// Passphrase is appended to the signature payload when set on the
	// merchant account.
	Passphrase string
	ProcessURL string
	ReturnURL  string
	CancelURL  string
	NotifyURL  string
}

// Field is one hidden input on the hosted-page form. Order matters: the
// gateway signs the fields in the order they are posted.
type Field struct {
	Name  string
	Value string
}

// RedirectForm is a ready-to-render hosted-page submission.
type RedirectForm struct {
	Action string
	Fields []Field
}

// BuildRedirectForm assembles the signed field list for the hosted payment
// page from a cart snapshot.
func BuildRedirectForm(cfg RedirectConfig, reference string, snap cart.Snapshot) (RedirectForm, error) {
	if strings.TrimSpace(cfg.MerchantID) == "" || strings.TrimSpace(cfg.MerchantKey) == "" {
		return RedirectForm{}, errors.New("redirect gateway merchant credentials not configured")
	}
	if strings.TrimSpace(cfg.ProcessURL) == "" {
		return RedirectForm{}, errors.New("redirect gateway process URL not configured")
	}
	if snap.Total <= 0 {
		return RedirectForm{}, errors.New("nothing to charge")
	}

	fields := []Field{
		{"merchant_id", strings.TrimSpace(cfg.MerchantID)},
		{"merchant_key", strings.TrimSpace(cfg.MerchantKey)},
	}
	if cfg.ReturnURL != "" {
		fields = append(fields, Field{"return_url", cfg.ReturnURL})
	}
	if cfg.CancelURL != "" {
		fields = append(fields, Field{"cancel_url", cfg.CancelURL})
	}
	if cfg.NotifyURL != "" {
		fields = append(fields, Field{"notify_url", cfg.NotifyURL})
	}
	fields = append(fields,
		Field{"m_payment_id", strings.TrimSpace(reference)},
		Field{"amount", FormatRand(snap.Total)},
		Field{"item_name", itemSummary(snap)},
	)
	fields = append(fields, Field{"signature", Sign(fields, cfg.Passphrase)})

	return RedirectForm{Action: cfg.ProcessURL, Fields: fields}, nil
}

// Sign produces the gateway's MD5 signature: the fields urlencoded in post
// order, with the passphrase appended when present.
func Sign(fields []Field, passphrase string) string {
	var b strings.Builder
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(encodeParam(f.Value))
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(encodeParam(passphrase))
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// The gateway expects spaces as '+' and uppercase hex escapes, which is
// exactly url.QueryEscape.
func encodeParam(v string) string {
	return url.QueryEscape(v)
}

// FormatRand renders cents as the decimal rand amount the hosted page
// expects, e.g. 48000 -> "480.00".
func FormatRand(cents int64) string {
	if cents < 0 {
		cents = 0
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func itemSummary(snap cart.Snapshot) string {
	if len(snap.Lines) == 1 && snap.Lines[0].Quantity == 1 {
		return snap.Lines[0].Name
	}
	units := 0
	for _, l := range snap.Lines {
		units += l.Quantity
	}
	return fmt.Sprintf("Sumami order (%d items)", units)
}

// ---------------------------------------------------------------------------
// Auto-submit page
// ---------------------------------------------------------------------------

var autoSubmitTmpl = template.Must(template.New("redirect").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Redirecting to secure payment…</title></head>
<body onload="document.forms[0].submit()">
<form action="{{.Action}}" method="post">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// RenderAutoSubmit renders the form as a page that posts itself to the
// hosted payment page on load.
func (f RedirectForm) RenderAutoSubmit() (string, error) {
	var b strings.Builder
	if err := autoSubmitTmpl.Execute(&b, f); err != nil {
		return "", err
	}
	return b.String(), nil
}
