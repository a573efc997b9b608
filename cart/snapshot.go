package cart

// ---------------------------------------------------------------------------
// Checkout handoff
// ---------------------------------------------------------------------------

// SnapshotLine is one frozen line in a checkout snapshot.
type SnapshotLine struct {
	CatalogItemID string `json:"catalog_item_id"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	Quantity      int    `json:"quantity"`
	VariantLabel  string `json:"variant_label,omitempty"`
}

// Snapshot is the immutable handoff given to a checkout collaborator: the
// ordered lines and the chargeable total in cents. Later cart mutations do
// not affect a snapshot already taken.
type Snapshot struct {
	Lines    []SnapshotLine `json:"lines"`
	Total    int64          `json:"total"`
	Currency string         `json:"currency"`
}

// Snapshot prices the cart and freezes the result for checkout.
func (c *Cart) Snapshot() Snapshot {
	p := c.ComputePricing()
	snap := Snapshot{
		Lines:    make([]SnapshotLine, 0, len(c.items)),
		Total:    p.Total,
		Currency: "ZAR",
	}
	for _, li := range c.items {
		snap.Lines = append(snap.Lines, SnapshotLine{
			CatalogItemID: li.CatalogItemID,
			Name:          li.Name,
			UnitPrice:     li.UnitPrice,
			Quantity:      li.Quantity,
			VariantLabel:  li.VariantLabel,
		})
	}
	return snap
}
