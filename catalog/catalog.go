// Package catalog holds the immutable product catalog for the Sumami brand.
// Items are loaded once at startup, either from the built-in defaults or
// from a JSON document, and are read-only for the life of the process.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// Category is the closed set of product kinds the store sells.
type Category string

const (
	CategorySauce  Category = "sauce"
	CategoryBundle Category = "bundle"
)

func normalizeCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategorySauce:
		return CategorySauce, nil
	case CategoryBundle:
		return CategoryBundle, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// Item is one purchasable product or bundle. UnitPrice is in cents.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	SubName     string   `json:"sub_name,omitempty"`
	Description string   `json:"description,omitempty"`
	UnitPrice   int64    `json:"unit_price"`
	Category    Category `json:"category"`
	Highlight   bool     `json:"highlight,omitempty"`
	// VariantLabel tags bundle groupings for the pricing engine's pair
	// promotion (e.g. "3-Pack"). Empty for single bottles.
	VariantLabel string `json:"variant_label,omitempty"`
	// FlavorChoices is how many sauces the shopper picks when building
	// this bundle; zero for fixed products.
	FlavorChoices int `json:"flavor_choices,omitempty"`
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog maps item ids to items and preserves display order.
type Catalog struct {
	byID  map[string]Item
	order []string
}

// ErrNotFound is returned when an item id is not in the catalog.
var ErrNotFound = errors.New("catalog item not found")

func build(items []Item) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Item, len(items))}
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			return nil, errors.New("catalog item missing id")
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate catalog item id %q", id)
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("catalog item %q has negative price", id)
		}
		cat, err := normalizeCategory(string(it.Category))
		if err != nil {
			return nil, fmt.Errorf("catalog item %q: %w", id, err)
		}
		it.ID = id
		it.Category = cat
		c.byID[id] = it
		c.order = append(c.order, id)
	}
	return c, nil
}

// Load reads a JSON array of items.
func Load(r io.Reader) (*Catalog, error) {
	var items []Item
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(items)
}

// Get looks up an item by id.
func (c *Catalog) Get(id string) (Item, error) {
	it, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

// Items returns the catalog in display order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ValidateSelection checks a shopper's flavor choices against the item. A
// build-your-own bundle requires exactly FlavorChoices picks, each naming a
// sauce in the catalog; fixed products accept no choices.
func (c *Catalog) ValidateSelection(itemID string, choices []string) error {
	it, err := c.Get(itemID)
	if err != nil {
		return err
	}
	if it.FlavorChoices == 0 {
		if len(choices) > 0 {
			return fmt.Errorf("item %q takes no flavor choices", it.ID)
		}
		return nil
	}
	if len(choices) != it.FlavorChoices {
		return fmt.Errorf("item %q needs %d flavor choices, got %d", it.ID, it.FlavorChoices, len(choices))
	}
	for _, choice := range choices {
		if !c.isFlavor(choice) {
			return fmt.Errorf("unknown flavor %q", choice)
		}
	}
	return nil
}

func (c *Catalog) isFlavor(name string) bool {
	name = strings.TrimSpace(name)
	for _, id := range c.order {
		it := c.byID[id]
		if it.Category == CategorySauce && strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}
