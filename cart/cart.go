// Package cart holds the shopping cart and pricing engine for the Sumami
// storefront. The cart is owned by a single shopper session; all mutation
// goes through the methods here, and pricing is recomputed from scratch on
// every query.
package cart

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config carries the pricing policy. All amounts are in cents (ZAR).
type Config struct {
	// PairVariantLabel is the variant label that qualifies for the paired
	// bundle rebate. Matching is exact.
	PairVariantLabel string `json:"pair_variant_label"`
	// DiscountPerPair is the rebate applied for each completed pair of
	// qualifying packs.
	DiscountPerPair int64 `json:"discount_per_pair"`
	// FreeShippingThreshold is compared against the post-discount amount.
	// Orders at or above it ship free; below it ShippingFee applies.
	FreeShippingThreshold int64 `json:"free_shipping_threshold"`
	ShippingFee           int64 `json:"shipping_fee"`
}

// DefaultConfig returns the policy the store has run since launch: R150 off
// per pair of 3-packs, shipping free on every order.
func DefaultConfig() Config {
	return Config{
		PairVariantLabel:      "3-Pack",
		DiscountPerPair:       15000,
		FreeShippingThreshold: 0,
		ShippingFee:           0,
	}
}

// ---------------------------------------------------------------------------
// Line items
// ---------------------------------------------------------------------------

// LineItem is one entry in the cart. UnitPrice is copied from the catalog at
// add time and never re-read, so catalog price changes do not retroactively
// alter items already in the cart.
type LineItem struct {
	CatalogItemID   string   `json:"catalog_item_id"`
	Name            string   `json:"name"`
	Quantity        int      `json:"quantity"`
	UnitPrice       int64    `json:"unit_price"`
	VariantLabel    string   `json:"variant_label,omitempty"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}

func (li LineItem) matches(other LineItem) bool {
	if li.CatalogItemID != other.CatalogItemID || li.VariantLabel != other.VariantLabel {
		return false
	}
	if len(li.SelectedOptions) != len(other.SelectedOptions) {
		return false
	}
	for i := range li.SelectedOptions {
		if li.SelectedOptions[i] != other.SelectedOptions[i] {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Pricing
// ---------------------------------------------------------------------------

// Pricing is the derived result of pricing the cart. It is recomputed on
// every call and never stored.
type Pricing struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	ShippingCost   int64 `json:"shipping_cost"`
	Total          int64 `json:"total"`
	PacksOf3Count  int   `json:"packs_of_3_count"`
	// NeedsNudge is advisory UI state: the shopper holds an odd number of
	// qualifying packs and is one short of the next paired rebate.
	NeedsNudge bool `json:"needs_nudge"`
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// Cart is an ordered sequence of line items plus the pricing policy in
// effect for the session. Not safe for concurrent use; a session owns
// exactly one cart.
type Cart struct {
	cfg   Config
	items []LineItem
}

func New(cfg Config) *Cart {
	if cfg.PairVariantLabel == "" {
		cfg.PairVariantLabel = DefaultConfig().PairVariantLabel
	}
	return &Cart{cfg: cfg}
}

// AddItem appends a line item, or increments the quantity of an existing
// line with the same catalog id, variant label, and option sequence.
// Quantity is clamped to at least 1.
func (c *Cart) AddItem(item LineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range c.items {
		if c.items[i].matches(item) {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// UpdateQuantity adds delta to the quantity of the line at index. A
// resulting quantity of zero or less removes the line. Out-of-range indexes
// are a no-op; cart operations are UI-driven and never surface errors.
func (c *Cart) UpdateQuantity(index, delta int) {
	if index < 0 || index >= len(c.items) {
		return
	}
	c.items[index].Quantity += delta
	if c.items[index].Quantity <= 0 {
		c.removeAt(index)
	}
}

// RemoveItem removes the line at index; no-op if out of range.
func (c *Cart) RemoveItem(index int) {
	if index < 0 || index >= len(c.items) {
		return
	}
	c.removeAt(index)
}

func (c *Cart) removeAt(index int) {
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// ComputePricing prices the current cart state. It is pure: no side
// effects, and repeated calls without mutation return identical results.
func (c *Cart) ComputePricing() Pricing {
	var p Pricing
	for _, li := range c.items {
		p.Subtotal += li.UnitPrice * int64(li.Quantity)
		if li.VariantLabel == c.cfg.PairVariantLabel {
			p.PacksOf3Count += li.Quantity
		}
	}
	p.NeedsNudge = p.PacksOf3Count%2 == 1
	p.DiscountAmount = int64(p.PacksOf3Count/2) * c.cfg.DiscountPerPair

	afterDiscount := p.Subtotal - p.DiscountAmount
	if afterDiscount < c.cfg.FreeShippingThreshold {
		p.ShippingCost = c.cfg.ShippingFee
	}

	p.Total = afterDiscount + p.ShippingCost
	if p.Total < 0 {
		p.Total = 0
	}
	return p
}
