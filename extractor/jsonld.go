package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ldProduct holds the fields read from a schema.org Product in JSON-LD.
// Values are kept as raw strings and go through the same normalisation as
// selector matches.
type ldProduct struct {
	Name        string
	Brand       string
	Price       string
	Image       string
	Description string
}

func (p ldProduct) get(f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldBrand:
		return p.Brand
	case FieldPrice:
		return p.Price
	case FieldImage:
		return p.Image
	case FieldDescription:
		return p.Description
	}
	return ""
}

var productTypes = map[string]bool{
	"Product":           true,
	"IndividualProduct": true,
	"ProductModel":      true,
}

// findLDProduct returns the first Product found in the document's
// application/ld+json scripts. Scripts that fail to parse are skipped.
func findLDProduct(doc *goquery.Document) ldProduct {
	var found ldProduct
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		dec := json.NewDecoder(strings.NewReader(s.Text()))
		dec.UseNumber()

		var v any
		if err := dec.Decode(&v); err != nil {
			return true
		}
		if obj, ok := searchProduct(v, 0); ok {
			found = productFromLD(obj)
			return false
		}
		return true
	})
	return found
}

// searchProduct walks arrays and @graph containers looking for a Product node.
func searchProduct(v any, depth int) (map[string]any, bool) {
	if depth > 8 {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if obj, ok := searchProduct(item, depth+1); ok {
				return obj, true
			}
		}
	case map[string]any:
		if isProductType(t["@type"]) {
			return t, true
		}
		if graph, ok := t["@graph"]; ok {
			return searchProduct(graph, depth+1)
		}
		// Some shops nest the product under mainEntity (ItemPage, WebPage).
		if main, ok := t["mainEntity"]; ok {
			return searchProduct(main, depth+1)
		}
	}
	return nil, false
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		return productTypes[t]
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && productTypes[s] {
				return true
			}
		}
	}
	return false
}

func productFromLD(obj map[string]any) ldProduct {
	return ldProduct{
		Name:        ldString(obj["name"]),
		Brand:       ldNamed(obj["brand"]),
		Price:       ldPrice(obj["offers"]),
		Image:       ldImage(obj["image"]),
		Description: ldString(obj["description"]),
	}
}

func ldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case []any:
		if len(t) > 0 {
			return ldString(t[0])
		}
	}
	return ""
}

// ldNamed reads a value that is either a plain string or an object with a name.
func ldNamed(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return ldString(t["name"])
	case []any:
		if len(t) > 0 {
			return ldNamed(t[0])
		}
	}
	return ldString(v)
}

// ldPrice reads offers as an Offer, AggregateOffer or list of offers.
func ldPrice(v any) string {
	switch t := v.(type) {
	case map[string]any:
		for _, key := range []string{"price", "lowPrice"} {
			if p := ldString(t[key]); p != "" {
				return p
			}
		}
		if spec, ok := t["priceSpecification"]; ok {
			return ldPrice(spec)
		}
	case []any:
		for _, item := range t {
			if p := ldPrice(item); p != "" {
				return p
			}
		}
	}
	return ""
}

// ldImage reads an image given as a URL, an ImageObject, or a list of either.
func ldImage(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if u := ldString(t["url"]); u != "" {
			return u
		}
		return ldString(t["contentUrl"])
	case []any:
		for _, item := range t {
			if u := ldImage(item); u != "" {
				return u
			}
		}
		return ""
	}
	return ldString(v)
}
