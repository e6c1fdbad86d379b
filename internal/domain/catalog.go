package domain

import "fmt"

// Product is one sellable room type of a hotel. Position within the
// hotel's sub-list is the canonical presentation order everywhere a
// product sort is needed (list view, calendar cells, export).
type Product struct {
	Hotel string
	Name  string
	Code  string // optional channel code
}

// Catalog holds the ordered hotel list and the ordered product list.
// Products are kept as one flat slice; a hotel's products are the
// sub-sequence with that hotel name, in stored order. The catalog is
// not safe for concurrent use; the owning session serializes access.
type Catalog struct {
	hotels   []string
	products []Product
}

func NewCatalog() *Catalog { return &Catalog{} }

// AddHotel appends a hotel. Names are exact-match unique.
func (c *Catalog) AddHotel(name string) error {
	for _, h := range c.hotels {
		if h == name {
			return fmt.Errorf("%w: hotel %q", ErrDuplicate, name)
		}
	}
	c.hotels = append(c.hotels, name)
	return nil
}

// RemoveHotel removes the hotel and its products. Ledger rows for the
// hotel are deliberately left to the caller (see Ledger.PurgeHotel):
// the catalog knows nothing about ledger storage.
func (c *Catalog) RemoveHotel(name string) error {
	idx := -1
	for i, h := range c.hotels {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: hotel %q", ErrNotFound, name)
	}
	c.hotels = append(c.hotels[:idx], c.hotels[idx+1:]...)
	kept := c.products[:0]
	for _, p := range c.products {
		if p.Hotel != name {
			kept = append(kept, p)
		}
	}
	c.products = kept
	return nil
}

func (c *Catalog) HasHotel(name string) bool {
	for _, h := range c.hotels {
		if h == name {
			return true
		}
	}
	return false
}

// Hotels returns the hotel names in stored order (oldest first).
func (c *Catalog) Hotels() []string {
	out := make([]string, len(c.hotels))
	copy(out, c.hotels)
	return out
}

// AddProduct appends a product with the next position for its hotel.
func (c *Catalog) AddProduct(hotel, name, code string) error {
	if !c.HasHotel(hotel) {
		return fmt.Errorf("%w: hotel %q", ErrNotFound, hotel)
	}
	for _, p := range c.products {
		if p.Hotel == hotel && p.Name == name {
			return fmt.Errorf("%w: product %q", ErrDuplicate, name)
		}
	}
	c.products = append(c.products, Product{Hotel: hotel, Name: name, Code: code})
	return nil
}

// MoveProduct swaps the product at index within the hotel's sub-list
// with its neighbor in direction (-1 up, +1 down). Out-of-bounds moves
// are a no-op, not an error.
func (c *Catalog) MoveProduct(hotel string, index, direction int) {
	mine, others := c.split(hotel)
	j := index + direction
	if index < 0 || index >= len(mine) || j < 0 || j >= len(mine) {
		return
	}
	mine[index], mine[j] = mine[j], mine[index]
	c.products = append(others, mine...)
}

// RemoveProduct deletes the product at index within the hotel's
// sub-list; later products shift down by one.
func (c *Catalog) RemoveProduct(hotel string, index int) error {
	mine, others := c.split(hotel)
	if index < 0 || index >= len(mine) {
		return fmt.Errorf("%w: product index %d for hotel %q", ErrNotFound, index, hotel)
	}
	mine = append(mine[:index], mine[index+1:]...)
	c.products = append(others, mine...)
	return nil
}

// Products returns the hotel's products in stored order.
func (c *Catalog) Products(hotel string) []Product {
	var out []Product
	for _, p := range c.products {
		if p.Hotel == hotel {
			out = append(out, p)
		}
	}
	return out
}

// AllProducts returns every product across hotels in stored order,
// which is exactly the row order persisted to the products table.
func (c *Catalog) AllProducts() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// ProductOrder maps product name to its position for the hotel.
// Used as the sort key for ledger rows and calendar cells.
func (c *Catalog) ProductOrder(hotel string) map[string]int {
	order := make(map[string]int)
	pos := 0
	for _, p := range c.products {
		if p.Hotel == hotel {
			order[p.Name] = pos
			pos++
		}
	}
	return order
}

// ProductCode returns the channel code for a hotel's product, or "".
func (c *Catalog) ProductCode(hotel, name string) string {
	for _, p := range c.products {
		if p.Hotel == hotel && p.Name == name {
			return p.Code
		}
	}
	return ""
}

// Replace swaps in catalog content loaded from the store.
func (c *Catalog) Replace(hotels []string, products []Product) {
	c.hotels = append([]string(nil), hotels...)
	c.products = append([]Product(nil), products...)
}

func (c *Catalog) split(hotel string) (mine, others []Product) {
	for _, p := range c.products {
		if p.Hotel == hotel {
			mine = append(mine, p)
		} else {
			others = append(others, p)
		}
	}
	return mine, others
}
