package lineitem

// Item is one selected product captured on a measurement. Name is a copy taken
// at capture time, so a later rename of the product does not change history.
type Item struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Height   *float64 `json:"height"`
	Width    *float64 `json:"width"`
}

// Area returns height x width x quantity, or 0 when a dimension is missing
func (i Item) Area() float64 {
	if i.Height == nil || i.Width == nil {
		return 0
	}
	qty := i.Quantity
	if qty < 1 {
		qty = 1
	}
	return *i.Height * *i.Width * float64(qty)
}

// HasDimensions reports whether both height and width are set
func (i Item) HasDimensions() bool {
	return i.Height != nil && i.Width != nil
}

// Normalize applies the quantity default and drops non-positive dimensions
func Normalize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if it.Height != nil && *it.Height <= 0 {
			it.Height = nil
		}
		if it.Width != nil && *it.Width <= 0 {
			it.Width = nil
		}
		out = append(out, it)
	}
	return out
}

// TotalArea sums the area of every dimensioned item
func TotalArea(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Area()
	}
	return total
}
