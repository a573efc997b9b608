// Package storeconfig is the one server-side table the storefront owns:
// key/value store configuration in Postgres, with an in-memory fallback
// when the database is unreachable so local development and tests never
// need a running instance.
package storeconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MrW-creator/Sumami-Brand-Premium-Soya-Sauces-sub000/cart"
)

// ---------------------------------------------------------------------------
// Entity
// ---------------------------------------------------------------------------

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known keys read by the storefront.
const (
	KeyDiscountPerPair       = "pricing.discount_per_pair"
	KeyPairVariantLabel      = "pricing.pair_variant_label"
	KeyFreeShippingThreshold = "shipping.free_threshold"
	KeyShippingFee           = "shipping.fee"
)

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

type cacheEntry struct {
	settings []Setting
	expires  time.Time
}

// Store reads and writes settings. With a nil db it runs entirely in
// memory, matching the degraded mode the services report on /healthz.
type Store struct {
	db       *sql.DB
	cacheTTL time.Duration

	cacheMu sync.RWMutex
	cache   *cacheEntry

	memMu sync.RWMutex
	mem   map[string]Setting
}

func New(db *sql.DB, cacheTTL time.Duration) *Store {
	return &Store{
		db:       db,
		cacheTTL: cacheTTL,
		mem:      make(map[string]Setting),
	}
}

// InMemory returns a store with no database behind it.
func InMemory() *Store {
	return New(nil, time.Minute)
}

// MemoryMode reports whether the store is running without a database.
func (s *Store) MemoryMode() bool {
	return s.db == nil
}

// Connect opens the settings database from DATABASE_URL or the DB_* parts
// and verifies connectivity.
func Connect() (*sql.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		host := strings.TrimSpace(os.Getenv("DB_HOST"))
		if host == "" {
			return nil, errors.New("missing DATABASE_URL or DB_HOST")
		}
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		pass := envOr("DB_PASSWORD", "postgres")
		name := envOr("DB_NAME", "sumami_store")
		ssl := envOr("DB_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, name, ssl)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnsureSchema creates the settings table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS store_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

// Get returns one setting. sql.ErrNoRows when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Setting{}, errors.New("empty setting key")
	}

	if s.db == nil {
		s.memMu.RLock()
		st, ok := s.mem[key]
		s.memMu.RUnlock()
		if !ok {
			return Setting{}, sql.ErrNoRows
		}
		return st, nil
	}

	var st Setting
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM store_settings WHERE key=$1`, key,
	).Scan(&st.Key, &st.Value, &st.UpdatedAt)
	if err != nil {
		return Setting{}, err
	}
	return st, nil
}

// All returns every setting sorted by key. Results are cached briefly; the
// cache is dropped on any write.
func (s *Store) All(ctx context.Context) ([]Setting, bool, error) {
	s.cacheMu.RLock()
	if s.cache != nil && time.Now().Before(s.cache.expires) {
		out := append([]Setting(nil), s.cache.settings...)
		s.cacheMu.RUnlock()
		return out, true, nil
	}
	s.cacheMu.RUnlock()

	var settings []Setting
	if s.db == nil {
		s.memMu.RLock()
		for _, st := range s.mem {
			settings = append(settings, st)
		}
		s.memMu.RUnlock()
	} else {
		rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM store_settings`)
		if err != nil {
			return nil, false, err
		}
		defer rows.Close()
		for rows.Next() {
			var st Setting
			if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
				return nil, false, err
			}
			settings = append(settings, st)
		}
		if err := rows.Err(); err != nil {
			return nil, false, err
		}
	}

	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })

	s.cacheMu.Lock()
	s.cache = &cacheEntry{settings: append([]Setting(nil), settings...), expires: time.Now().Add(s.cacheTTL)}
	s.cacheMu.Unlock()
	return settings, false, nil
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

// Set upserts a setting.
func (s *Store) Set(ctx context.Context, key, value string) (Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Setting{}, errors.New("empty setting key")
	}
	st := Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}

	if s.db == nil {
		s.memMu.Lock()
		s.mem[key] = st
		s.memMu.Unlock()
		s.invalidate()
		return st, nil
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO store_settings (key, value, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		st.Key, st.Value, st.UpdatedAt,
	)
	if err != nil {
		return Setting{}, err
	}
	s.invalidate()
	return st, nil
}

// Delete removes a setting. sql.ErrNoRows when the key is absent.
func (s *Store) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)

	if s.db == nil {
		s.memMu.Lock()
		_, ok := s.mem[key]
		if ok {
			delete(s.mem, key)
		}
		s.memMu.Unlock()
		if !ok {
			return sql.ErrNoRows
		}
		s.invalidate()
		return nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM store_settings WHERE key=$1`, key)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	s.invalidate()
	return nil
}

func (s *Store) invalidate() {
	s.cacheMu.Lock()
	s.cache = nil
	s.cacheMu.Unlock()
}

// ---------------------------------------------------------------------------
// Pricing projection
// ---------------------------------------------------------------------------

// PricingConfig projects the settings table onto the cart's pricing policy.
// Absent or malformed keys fall back to the launch defaults so a missing
// table never breaks pricing.
func (s *Store) PricingConfig(ctx context.Context) cart.Config {
	cfg := cart.DefaultConfig()
	if st, err := s.Get(ctx, KeyPairVariantLabel); err == nil && strings.TrimSpace(st.Value) != "" {
		cfg.PairVariantLabel = strings.TrimSpace(st.Value)
	}
	if v, ok := s.centsSetting(ctx, KeyDiscountPerPair); ok {
		cfg.DiscountPerPair = v
	}
	if v, ok := s.centsSetting(ctx, KeyFreeShippingThreshold); ok {
		cfg.FreeShippingThreshold = v
	}
	if v, ok := s.centsSetting(ctx, KeyShippingFee); ok {
		cfg.ShippingFee = v
	}
	return cfg
}

func (s *Store) centsSetting(ctx context.Context, key string) (int64, bool) {
	st, err := s.Get(ctx, key)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(st.Value), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
