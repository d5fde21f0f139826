package models

// ProductRecord is the best-effort result of scraping a product page.
//
// Every field is optional: third-party markup varies wildly and a missing
// field is a normal outcome, not an error. Price is a pointer so that an
// absent price can be told apart from a price of zero.
type ProductRecord struct {
	Name        string   `json:"name,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Image       string   `json:"image,omitempty"`
	Description string   `json:"description,omitempty"`

	// URL is the page the record was extracted from. It is empty when no
	// other field was found.
	URL string `json:"url,omitempty"`
}

// IsEmpty reports whether no product field was extracted.
func (p ProductRecord) IsEmpty() bool {
	return p.Name == "" && p.Brand == "" && p.Price == nil && p.Image == "" && p.Description == ""
}
