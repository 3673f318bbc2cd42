package domain

import (
	"sort"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/money"
)

// Sku is one purchasable configuration of a product.
type Sku struct {
	ID        int64             `json:"id"`
	ProductID int64             `json:"product_id"`
	Specs     map[string]string `json:"specs"`
	UnitPrice money.Cents       `json:"price"`
	Stock     int               `json:"stock"`
}

// SpecSummary renders the spec map in a stable order, e.g. "GPU: RTX 5060; SSD: 1T".
func (s Sku) SpecSummary() string {
	keys := make([]string, 0, len(s.Specs))
	for k := range s.Specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+s.Specs[k])
	}
	return strings.Join(parts, "; ")
}

type SpecOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Product struct {
	ID          int64        `json:"id"`
	CategoryID  int64        `json:"category_id,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"desc"`
	MainImages  []string     `json:"main_images"`
	DetailHTML  string       `json:"detail_html"`
	Tags        []string     `json:"tags,omitempty"`
	SpecOptions []SpecOption `json:"specs"`
	Skus        []Sku        `json:"skus"`

	// Params holds the technical sheet (CPU model, screen size, ...).
	Params map[string]string `json:"params,omitempty"`
}

func (p *Product) FindSku(skuID int64) (Sku, bool) {
	for _, s := range p.Skus {
		if s.ID == skuID {
			return s, true
		}
	}
	return Sku{}, false
}

func (p *Product) CoverImage() string {
	if len(p.MainImages) == 0 {
		return ""
	}
	return p.MainImages[0]
}

// PriceRange returns the cheapest and most expensive SKU price.
func (p *Product) PriceRange() (low, high money.Cents) {
	for i, s := range p.Skus {
		if i == 0 || s.UnitPrice < low {
			low = s.UnitPrice
		}
		if s.UnitPrice > high {
			high = s.UnitPrice
		}
	}
	return low, high
}

// ProductSummary is the list-page view of a product.
type ProductSummary struct {
	ID         int64       `json:"id"`
	CategoryID int64       `json:"category_id,omitempty"`
	Name       string      `json:"name"`
	Price      money.Cents `json:"price"`
	ImageURL   string      `json:"img_url"`
	Tags       []string    `json:"tags,omitempty"`
}

// Category is a node of the product category tree. ParentID 0 marks a root.
type Category struct {
	ID       int64       `json:"id"`
	ParentID int64       `json:"parent_id,omitempty"`
	Name     string      `json:"name"`
	Children []*Category `json:"children,omitempty"`
}

// BuildCategoryTree links a flat list into trees, keeping the input order
// among siblings. A node whose parent is missing becomes a root.
func BuildCategoryTree(flat []Category) []*Category {
	nodes := make(map[int64]*Category, len(flat))
	for i := range flat {
		c := flat[i]
		c.Children = nil
		nodes[c.ID] = &c
	}

	roots := make([]*Category, 0)
	for _, c := range flat {
		node := nodes[c.ID]
		parent, ok := nodes[c.ParentID]
		if c.ParentID == 0 || !ok || parent == node {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

type Page[T any] struct {
	List     []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NormalizePaging clamps page and size to sane values.
func NormalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = 10
	case pageSize > 100:
		pageSize = 100
	}
	return page, pageSize
}
