// Package catalog holds the Climate Voucher eligible product categories.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// DefaultPath is where the catalog file is read from.
const DefaultPath = "data/eligible_products.json"

// ErrEmptyCatalog is returned when a catalog file lists no categories.
var ErrEmptyCatalog = errors.New("catalog has no product categories")

// Requirements are the conditions a product must meet to be bought with
// Climate Vouchers. Ticks lists the accepted energy label tick counts;
// an empty list means the category carries no energy label.
type Requirements struct {
	Ticks   []int  `json:"ticks"`
	Remarks string `json:"remarks"`
}

// HasEnergyLabel reports whether the category is rated with ticks.
func (r Requirements) HasEnergyLabel() bool {
	return len(r.Ticks) > 0
}

// Catalog maps product category names to their requirements.
// It is read-only after Load.
type Catalog struct {
	names    []string
	products map[string]Requirements
}

// Load reads a catalog JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a JSON object of category name to requirements.
func Parse(data []byte) (*Catalog, error) {
	var products map[string]Requirements
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}

	names := make([]string, 0, len(products))
	for name, req := range products {
		if req.Ticks == nil {
			req.Ticks = []int{}
			products[name] = req
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return &Catalog{names: names, products: products}, nil
}

// Names returns the category names in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Lookup returns the requirements of a category.
func (c *Catalog) Lookup(name string) (Requirements, bool) {
	req, ok := c.products[name]
	return req, ok
}

// Len returns the number of categories.
func (c *Catalog) Len() int { return len(c.names) }

// Reference renders the catalog as indented JSON with sorted keys, the
// form embedded into the product lookup instruction.
func (c *Catalog) Reference() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Map keys are emitted sorted, so the output is stable.
	if err := enc.Encode(c.products); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
