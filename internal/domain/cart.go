package domain

import (
	"maps"
	"time"

	"github.com/fjod/go_cart/storefront/internal/money"
)

// LineItem is one cart row. Name, image, specs and price are copied from the
// catalog when the row is created and never follow later catalog changes.
type LineItem struct {
	SkuID     int64             `bson:"sku_id" json:"sku_id"`
	ProductID int64             `bson:"product_id" json:"product_id"`
	Name      string            `bson:"name" json:"name"`
	ImageURL  string            `bson:"image_url" json:"img_url"`
	Specs     map[string]string `bson:"specs" json:"specs"`
	UnitPrice money.Cents       `bson:"unit_price" json:"price"`
	Quantity  int               `bson:"quantity" json:"count"`
	Selected  bool              `bson:"selected" json:"selected"`
	AddedAt   time.Time         `bson:"added_at" json:"added_at"`
}

func (i LineItem) Subtotal() money.Cents {
	return i.UnitPrice.Mul(i.Quantity)
}

// Cart holds at most one LineItem per SkuID, in insertion order.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []LineItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) indexOf(skuID int64) int {
	for i := range c.Items {
		if c.Items[i].SkuID == skuID {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// Item returns a copy of the row for skuID.
func (c *Cart) Item(skuID int64) (LineItem, bool) {
	if i := c.indexOf(skuID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// AddItem merges quantity into the row for skuID, re-selecting it, or appends
// a snapshot of the SKU when the cart has no such row.
func (c *Cart) AddItem(product *Product, skuID int64, quantity int) error {
	if !ValidQuantity(quantity) {
		return InvalidQuantity(quantity)
	}
	sku, ok := product.FindSku(skuID)
	if !ok {
		return SkuNotFound(skuID)
	}

	if i := c.indexOf(skuID); i >= 0 {
		merged := c.Items[i].Quantity + quantity
		if !ValidQuantity(merged) {
			return InvalidQuantity(merged)
		}
		c.Items[i].Quantity = merged
		c.Items[i].Selected = true
		c.touch()
		return nil
	}

	c.Items = append(c.Items, LineItem{
		SkuID:     sku.ID,
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.CoverImage(),
		Specs:     maps.Clone(sku.Specs),
		UnitPrice: sku.UnitPrice,
		Quantity:  quantity,
		Selected:  true,
		AddedAt:   time.Now(),
	})
	c.touch()
	return nil
}

// RemoveItem reports whether a row was removed. Removing an absent SKU is not an error.
func (c *Cart) RemoveItem(skuID int64) bool {
	i := c.indexOf(skuID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// RemoveItems drops every listed SKU and returns how many rows went away.
func (c *Cart) RemoveItems(skuIDs ...int64) int {
	drop := make(map[int64]struct{}, len(skuIDs))
	for _, id := range skuIDs {
		drop[id] = struct{}{}
	}

	kept := c.Items[:0]
	removed := 0
	for _, item := range c.Items {
		if _, ok := drop[item.SkuID]; ok {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if removed > 0 {
		c.touch()
	}
	return removed
}

// RemoveSettled drops rows of the listed SKUs that were added no later than
// placedAt. Rows added after an order was placed survive its cart drain.
func (c *Cart) RemoveSettled(placedAt time.Time, skuIDs ...int64) int {
	settled := make(map[int64]struct{}, len(skuIDs))
	for _, id := range skuIDs {
		settled[id] = struct{}{}
	}

	kept := c.Items[:0]
	removed := 0
	for _, item := range c.Items {
		if _, ok := settled[item.SkuID]; ok && !item.AddedAt.After(placedAt) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	if removed > 0 {
		c.touch()
	}
	return removed
}

// SetQuantity rejects quantities below 1 instead of treating them as removal.
// An absent SKU is a no-op.
func (c *Cart) SetQuantity(skuID int64, quantity int) error {
	if !ValidQuantity(quantity) {
		return InvalidQuantity(quantity)
	}
	if i := c.indexOf(skuID); i >= 0 {
		c.Items[i].Quantity = quantity
		c.touch()
	}
	return nil
}

func (c *Cart) SetSelected(skuID int64, selected bool) bool {
	i := c.indexOf(skuID)
	if i < 0 {
		return false
	}
	c.Items[i].Selected = selected
	c.touch()
	return true
}

func (c *Cart) SetAllSelected(selected bool) {
	for i := range c.Items {
		c.Items[i].Selected = selected
	}
	c.touch()
}

func (c *Cart) Clear() {
	c.Items = nil
	c.touch()
}

func (c *Cart) TotalCount() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() money.Cents {
	var total money.Cents
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

func (c *Cart) SelectedTotalCount() int {
	total := 0
	for _, item := range c.Items {
		if item.Selected {
			total += item.Quantity
		}
	}
	return total
}

func (c *Cart) SelectedTotalPrice() money.Cents {
	var total money.Cents
	for _, item := range c.Items {
		if item.Selected {
			total += item.Subtotal()
		}
	}
	return total
}

func (c *Cart) IsAllSelected() bool {
	if len(c.Items) == 0 {
		return false
	}
	for _, item := range c.Items {
		if !item.Selected {
			return false
		}
	}
	return true
}

// SelectedItems returns copies of the selected rows in cart order.
func (c *Cart) SelectedItems() []LineItem {
	var selected []LineItem
	for _, item := range c.Items {
		if item.Selected {
			item.Specs = maps.Clone(item.Specs)
			selected = append(selected, item)
		}
	}
	return selected
}

// Summary is every derived aggregate of a cart, computed from current state.
type Summary struct {
	TotalCount         int         `json:"total_count"`
	TotalPrice         money.Cents `json:"total_price"`
	SelectedTotalCount int         `json:"selected_total_count"`
	SelectedTotalPrice money.Cents `json:"selected_total_price"`
	IsAllSelected      bool        `json:"is_all_selected"`
}

func (c *Cart) Summary() Summary {
	return Summary{
		TotalCount:         c.TotalCount(),
		TotalPrice:         c.TotalPrice(),
		SelectedTotalCount: c.SelectedTotalCount(),
		SelectedTotalPrice: c.SelectedTotalPrice(),
		IsAllSelected:      c.IsAllSelected(),
	}
}
