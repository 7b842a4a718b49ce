package attractions

import (
	"encoding/json"
	"math"
	"slices"
)

// Criteria is the filter panel state. The zero value restricts nothing
// except price, which it caps at 0; use DefaultCriteria for a fresh panel.
type Criteria struct {
	Categories map[Category]struct{}
	MinRating  float64
	MaxPrice   float64
}

// Unrestricted is the MaxPrice of a panel that does not cap prices.
var Unrestricted = math.Inf(1)

func DefaultCriteria() Criteria {
	return Criteria{MaxPrice: Unrestricted}
}

// NewCriteria builds criteria from wire values. A nil maxPrice means
// unrestricted.
func NewCriteria(categories []string, minRating float64, maxPrice *float64) Criteria {
	c := DefaultCriteria()
	for _, name := range categories {
		c = c.With(Category(name))
	}
	c.MinRating = minRating
	if maxPrice != nil {
		c.MaxPrice = *maxPrice
	}
	return c.Normalize()
}

// Normalize clamps out-of-range thresholds to the nearest valid boundary.
func (c Criteria) Normalize() Criteria {
	switch {
	case math.IsNaN(c.MinRating) || c.MinRating < 0:
		c.MinRating = 0
	case c.MinRating > MaxRating:
		c.MinRating = MaxRating
	}
	switch {
	case math.IsNaN(c.MaxPrice):
		c.MaxPrice = Unrestricted
	case c.MaxPrice < 0:
		c.MaxPrice = 0
	}
	return c
}

// Has reports whether cat is explicitly selected.
func (c Criteria) Has(cat Category) bool {
	_, ok := c.Categories[cat]
	return ok
}

// With returns a copy with cat added to the category set.
func (c Criteria) With(cat Category) Criteria {
	next := make(map[Category]struct{}, len(c.Categories)+1)
	for k := range c.Categories {
		next[k] = struct{}{}
	}
	next[cat] = struct{}{}
	c.Categories = next
	return c
}

// Toggle flips cat in the category set, like a panel checkbox.
func (c Criteria) Toggle(cat Category) Criteria {
	if !c.Has(cat) {
		return c.With(cat)
	}
	next := make(map[Category]struct{}, len(c.Categories))
	for k := range c.Categories {
		if k != cat {
			next[k] = struct{}{}
		}
	}
	c.Categories = next
	return c
}

// Active reports whether any restriction is set.
func (c Criteria) Active() bool {
	c = c.Normalize()
	return len(c.Categories) > 0 || c.MinRating > 0 || !math.IsInf(c.MaxPrice, 1)
}

// CategoryList returns the selected categories in display order, followed
// by any unknown names sorted.
func (c Criteria) CategoryList() []string {
	out := make([]string, 0, len(c.Categories))
	for _, k := range Categories {
		if c.Has(k) {
			out = append(out, string(k))
		}
	}
	var unknown []string
	for k := range c.Categories {
		if !k.Valid() {
			unknown = append(unknown, string(k))
		}
	}
	slices.Sort(unknown)
	return append(out, unknown...)
}

// Match reports whether a passes every criterion. Thresholds are inclusive.
func (c Criteria) Match(a Attraction) bool {
	if len(c.Categories) > 0 && !c.Has(a.Category) {
		return false
	}
	return a.Rating >= c.MinRating && a.Price <= c.MaxPrice
}

// Filter returns the attractions of dataset matching criteria, in dataset
// order. The input is never modified.
func Filter(dataset []Attraction, criteria Criteria) []Attraction {
	criteria = criteria.Normalize()
	out := make([]Attraction, 0, len(dataset))
	for _, a := range dataset {
		if criteria.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// IDs returns the identifiers of list in order.
func IDs(list []Attraction) []string {
	ids := make([]string, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

type criteriaJSON struct {
	Categories []string `json:"categories"`
	MinRating  float64  `json:"minRating"`
	MaxPrice   *float64 `json:"maxPrice"`
}

func (c Criteria) MarshalJSON() ([]byte, error) {
	c = c.Normalize()
	out := criteriaJSON{Categories: c.CategoryList(), MinRating: c.MinRating}
	if !math.IsInf(c.MaxPrice, 1) {
		p := c.MaxPrice
		out.MaxPrice = &p
	}
	return json.Marshal(out)
}

func (c *Criteria) UnmarshalJSON(data []byte) error {
	var in criteriaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = NewCriteria(in.Categories, in.MinRating, in.MaxPrice)
	return nil
}
