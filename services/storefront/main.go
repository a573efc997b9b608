// The storefront service is the shopper-facing API: catalog, session
// carts, pricing, and checkout initiation against the two configured
// payment gateways.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/cart"
	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/catalog"
	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/checkout"
	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/storeconfig"
)

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

type server struct {
	catalog  *catalog.Catalog
	settings *storeconfig.Store

	redirectCfg checkout.RedirectConfig
	popup       *checkout.PopupClient

	cartsMu sync.Mutex
	carts   map[string]*session
}

// session pairs a cart with its own lock so one slow checkout call never
// blocks other shoppers. The cart itself is not thread-safe; the session
// lock keeps each shopper's requests serialized.
type session struct {
	mu   sync.Mutex
	cart *cart.Cart
}

type addItemRequest struct {
	CatalogItemID   string   `json:"catalog_item_id"`
	Quantity        int      `json:"quantity"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

type checkoutRequest struct {
	Mode  string `json:"mode"`
	Token string `json:"token,omitempty"`
}

type cartResponse struct {
	Items   []cart.LineItem `json:"items"`
	Pricing cart.Pricing    `json:"pricing"`
}

// ---------------------------------------------------------------------------
// main
// ---------------------------------------------------------------------------

func main() {
	port := env("PORT", "8080")

	cat := catalog.Default()
	if path := env("CATALOG_FILE", ""); path != "" {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("open catalog file: %v", err)
		}
		cat, err = catalog.Load(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("load catalog file: %v", err)
		}
	}

	settings := storeconfig.InMemory()
	if db, err := storeconfig.Connect(); err != nil {
		log.Printf("warn: settings database unavailable, using pricing defaults: %v", err)
	} else {
		settings = storeconfig.New(db, durationEnv("CACHE_TTL", 45*time.Second))
		if err := settings.EnsureSchema(context.Background()); err != nil {
			log.Printf("warn: settings schema setup failed, using pricing defaults: %v", err)
			_ = db.Close()
			settings = storeconfig.InMemory()
		}
	}

	srv := newServer(cat, settings)

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           withServerDefaults(srv.routes()),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Printf("storefront listening on :%s", port)
	log.Fatal(httpSrv.ListenAndServe())
}

func newServer(cat *catalog.Catalog, settings *storeconfig.Store) *server {
	return &server{
		catalog:  cat,
		settings: settings,
		carts:    make(map[string]*session),
		redirectCfg: checkout.RedirectConfig{
			MerchantID:  env("REDIRECT_MERCHANT_ID", ""),
			MerchantKey: env("REDIRECT_MERCHANT_KEY", ""),
			Passphrase:  env("REDIRECT_PASSPHRASE", ""),
			ProcessURL:  env("REDIRECT_PROCESS_URL", ""),
			ReturnURL:   env("REDIRECT_RETURN_URL", ""),
			CancelURL:   env("REDIRECT_CANCEL_URL", ""),
			NotifyURL:   env("REDIRECT_NOTIFY_URL", ""),
		},
		popup: checkout.NewPopupClient(env("POPUP_GATEWAY_URL", ""), env("POPUP_SECRET_KEY", "")),
	}
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		mode := "postgres"
		if s.settings.MemoryMode() {
			mode = "memory"
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "storefront", "settings_mode": mode})
	})

	mux.HandleFunc("/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": s.catalog.Items()})
	})

	mux.HandleFunc("/v1/cart", s.withSession(func(w http.ResponseWriter, r *http.Request, c *cart.Cart) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, cartResponse{Items: c.Items(), Pricing: c.ComputePricing()})
		case http.MethodDelete:
			c.Clear()
			writeJSON(w, http.StatusOK, cartResponse{Items: c.Items(), Pricing: c.ComputePricing()})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
	}))

	mux.HandleFunc("/v1/cart/items", s.withSession(func(w http.ResponseWriter, r *http.Request, c *cart.Cart) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req addItemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		item, err := s.catalog.Get(req.CatalogItemID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "catalog item not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if err := s.catalog.ValidateSelection(item.ID, req.SelectedOptions); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		c.AddItem(cart.LineItem{
			CatalogItemID:   item.ID,
			Name:            item.Name,
			Quantity:        req.Quantity,
			UnitPrice:       item.UnitPrice,
			VariantLabel:    item.VariantLabel,
			SelectedOptions: req.SelectedOptions,
		})
		writeJSON(w, http.StatusOK, cartResponse{Items: c.Items(), Pricing: c.ComputePricing()})
	}))

	mux.HandleFunc("/v1/cart/items/", s.withSession(func(w http.ResponseWriter, r *http.Request, c *cart.Cart) {
		raw := strings.TrimPrefix(r.URL.Path, "/v1/cart/items/")
		index, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line index"})
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req updateQuantityRequest
			if err := decodeJSON(r, &req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			// Out-of-range indexes are a deliberate no-op; the UI may
			// race its own re-render and retry against a stale index.
			c.UpdateQuantity(index, req.Delta)
			writeJSON(w, http.StatusOK, cartResponse{Items: c.Items(), Pricing: c.ComputePricing()})
		case http.MethodDelete:
			c.RemoveItem(index)
			writeJSON(w, http.StatusOK, cartResponse{Items: c.Items(), Pricing: c.ComputePricing()})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		}
	}))

	mux.HandleFunc("/v1/checkout", s.withSession(s.handleCheckout))

	return mux
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request, c *cart.Cart) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if c.Len() == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}

	snap := c.Snapshot()
	reference := newID("ord")

	switch strings.ToLower(strings.TrimSpace(req.Mode)) {
	case "redirect":
		form, err := checkout.BuildRedirectForm(s.redirectCfg, reference, snap)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		page, err := form.RenderAutoSubmit()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, page)
	case "card":
		result, err := s.popup.CreateCharge(r.Context(), reference, req.Token, snap)
		if err != nil {
			if errors.Is(err, checkout.ErrDeclined) {
				writeJSON(w, http.StatusPaymentRequired, map[string]any{"error": err.Error(), "charge": result})
				return
			}
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		// Successful charge ends the shopping session.
		c.Clear()
		writeJSON(w, http.StatusOK, map[string]any{"reference": reference, "charge": result})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be 'redirect' or 'card'"})
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type cartHandler func(http.ResponseWriter, *http.Request, *cart.Cart)

// withSession resolves the shopper's cart from X-Session-ID, creating one
// with the current pricing policy on first touch.
func (s *server) withSession(h cartHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get("X-Session-ID"))
		if sessionID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-Session-ID"})
			return
		}
		s.cartsMu.Lock()
		sess, ok := s.carts[sessionID]
		if !ok {
			sess = &session{cart: cart.New(s.settings.PricingConfig(r.Context()))}
			s.carts[sessionID] = sess
		}
		s.cartsMu.Unlock()

		sess.mu.Lock()
		defer sess.mu.Unlock()
		h(w, r, sess.cart)
	}
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func withServerDefaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func newID(prefix string) string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
