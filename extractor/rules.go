package extractor

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Field names a ProductRecord field that rules can fill.
type Field string

const (
	FieldName        Field = "name"
	FieldBrand       Field = "brand"
	FieldPrice       Field = "price"
	FieldImage       Field = "image"
	FieldDescription Field = "description"
)

// fields lists every Field in extraction order.
var fields = []Field{FieldName, FieldBrand, FieldPrice, FieldImage, FieldDescription}

// AttrHTML as a Rule.Attr takes the element's inner HTML instead of an attribute.
const AttrHTML = "#html"

// Rule locates one candidate value. Attr names the attribute to read;
// empty means the element's text.
type Rule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
}

// FieldRules holds the ordered rules for each field of one stage.
type FieldRules struct {
	Name        []Rule `yaml:"name,omitempty"`
	Brand       []Rule `yaml:"brand,omitempty"`
	Price       []Rule `yaml:"price,omitempty"`
	Image       []Rule `yaml:"image,omitempty"`
	Description []Rule `yaml:"description,omitempty"`
}

// Rules is the full selector configuration.
//
// Metadata rules run first, then JSON-LD Product data, then Markup rules.
// Within a stage the first rule yielding a usable value wins.
type Rules struct {
	Metadata FieldRules `yaml:"metadata"`
	Markup   FieldRules `yaml:"markup"`
}

func (fr *FieldRules) get(f Field) []Rule {
	switch f {
	case FieldName:
		return fr.Name
	case FieldBrand:
		return fr.Brand
	case FieldPrice:
		return fr.Price
	case FieldImage:
		return fr.Image
	case FieldDescription:
		return fr.Description
	}
	return nil
}

func (fr *FieldRules) set(f Field, rules []Rule) {
	switch f {
	case FieldName:
		fr.Name = rules
	case FieldBrand:
		fr.Brand = rules
	case FieldPrice:
		fr.Price = rules
	case FieldImage:
		fr.Image = rules
	case FieldDescription:
		fr.Description = rules
	}
}

func meta(attr, value string) Rule {
	return Rule{Selector: fmt.Sprintf(`meta[%s=%q]`, attr, value), Attr: "content"}
}

// DefaultRules returns the built-in rules: social-card and product meta
// tags, followed by markup conventions of common shop platforms.
func DefaultRules() Rules {
	return Rules{
		Metadata: FieldRules{
			Name: []Rule{
				meta("property", "og:title"),
				meta("name", "twitter:title"),
				meta("name", "title"),
				meta("itemprop", "name"),
			},
			Brand: []Rule{
				meta("property", "product:brand"),
				meta("property", "og:brand"),
				meta("itemprop", "brand"),
				meta("name", "brand"),
			},
			Price: []Rule{
				meta("property", "product:price:amount"),
				meta("property", "og:price:amount"),
				meta("itemprop", "price"),
				meta("name", "price"),
			},
			Image: []Rule{
				meta("property", "og:image:secure_url"),
				meta("property", "og:image"),
				meta("name", "twitter:image"),
				meta("name", "twitter:image:src"),
				meta("itemprop", "image"),
				{Selector: `link[rel="image_src"]`, Attr: "href"},
			},
			Description: []Rule{
				meta("property", "og:description"),
				meta("name", "twitter:description"),
				meta("name", "description"),
			},
		},
		Markup: FieldRules{
			Name: []Rule{
				{Selector: `[itemtype*="schema.org/Product"] [itemprop="name"]`},
				{Selector: `#productTitle`},
				{Selector: `h1.product_title`},
				{Selector: `h1.product-title`},
				{Selector: `[data-testid="product-title"]`},
				{Selector: `.product-name h1`},
				{Selector: `h1.product-name`},
			},
			Brand: []Rule{
				{Selector: `[itemprop="brand"] [itemprop="name"]`},
				{Selector: `[itemprop="brand"][content]`, Attr: "content"},
				{Selector: `[itemprop="brand"]`},
				{Selector: `[data-brand]`, Attr: "data-brand"},
				{Selector: `.product-brand`},
			},
			Price: []Rule{
				{Selector: `[itemprop="price"][content]`, Attr: "content"},
				{Selector: `[itemprop="price"]`},
				{Selector: `#corePrice_feature_div .a-offscreen`},
				{Selector: `#priceblock_dealprice`},
				{Selector: `#priceblock_ourprice`},
				{Selector: `.a-price .a-offscreen`},
				{Selector: `.price ins .woocommerce-Price-amount`},
				{Selector: `.woocommerce-Price-amount`},
				{Selector: `[data-price]`, Attr: "data-price"},
				{Selector: `.product-price`},
				{Selector: `.price`},
			},
			Image: []Rule{
				{Selector: `#landingImage`, Attr: "data-old-hires"},
				{Selector: `#landingImage`, Attr: "src"},
				{Selector: `img[itemprop="image"]`, Attr: "src"},
				{Selector: `.woocommerce-product-gallery__image img`, Attr: "src"},
				{Selector: `img.product-image`, Attr: "src"},
				{Selector: `.product-image img`, Attr: "src"},
				{Selector: `.product-gallery img`, Attr: "src"},
			},
			Description: []Rule{
				{Selector: `#feature-bullets ul`, Attr: AttrHTML},
				{Selector: `[itemtype*="schema.org/Product"] [itemprop="description"]`, Attr: AttrHTML},
				{Selector: `.woocommerce-product-details__short-description`, Attr: AttrHTML},
				{Selector: `.product-description`, Attr: AttrHTML},
			},
		},
	}
}

// LoadRules reads a YAML rules file. A field list present in the file
// replaces the built-in list for that field; an explicitly empty list
// disables the field for that stage; an absent list keeps the default.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("extractor: read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules is LoadRules for in-memory YAML.
func ParseRules(data []byte) (Rules, error) {
	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Rules{}, fmt.Errorf("extractor: parse rules: %w", err)
	}

	rules := DefaultRules()
	for _, f := range fields {
		if r := override.Metadata.get(f); r != nil {
			rules.Metadata.set(f, r)
		}
		if r := override.Markup.get(f); r != nil {
			rules.Markup.set(f, r)
		}
	}

	if _, err := compileStage(rules.Metadata); err != nil {
		return Rules{}, err
	}
	if _, err := compileStage(rules.Markup); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// compiledRule is a Rule with its selector parsed once.
type compiledRule struct {
	Rule
	matcher cascadia.Selector
}

type compiledStage map[Field][]compiledRule

func compileStage(fr FieldRules) (compiledStage, error) {
	stage := make(compiledStage, len(fields))
	for _, f := range fields {
		for _, r := range fr.get(f) {
			sel, err := cascadia.Compile(r.Selector)
			if err != nil {
				return nil, fmt.Errorf("extractor: %s rule %q: %w", f, r.Selector, err)
			}
			stage[f] = append(stage[f], compiledRule{Rule: r, matcher: sel})
		}
	}
	return stage, nil
}
