package listings

import (
	"strings"

	"github.com/ZiiHuang/nestguard-website/internal/sheet"
)

// IsActive reports whether the row's active column reads "true" in any case.
func IsActive(row sheet.Row) bool {
	return strings.ToLower(row.Get("active")) == "true"
}

// Active keeps the active rows, preserving input order.
func Active(rows []sheet.Row) []sheet.Row {
	out := make([]sheet.Row, 0, len(rows))
	for _, row := range rows {
		if IsActive(row) {
			out = append(out, row)
		}
	}
	return out
}

// Listing is the JSON form of an active row.
type Listing struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title"`
	Beds   string   `json:"beds,omitempty"`
	Baths  string   `json:"baths,omitempty"`
	Sqft   string   `json:"sqft,omitempty"`
	Price  string   `json:"price,omitempty"`
	Link   string   `json:"link,omitempty"`
	Images []string `json:"images"`
}

// ToListing converts a row for the JSON endpoint.
func ToListing(row sheet.Row) Listing {
	return Listing{
		ID:     row.Get("id"),
		Title:  row.Get("title"),
		Beds:   row.Get("beds"),
		Baths:  row.Get("baths"),
		Sqft:   row.Get("sqft"),
		Price:  row.Get("price"),
		Link:   row.Get("link"),
		Images: Images(row),
	}
}
