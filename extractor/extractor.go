package extractor

import (
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/wishscrape/models"
)

// maxTextLen matches the wishlist item name and brand column size.
const maxTextLen = 255

// Extractor turns product page HTML into a best-effort ProductRecord.
//
// Extraction order per field, first usable value wins:
//
//	1. Metadata rules (Open Graph, Twitter card, product meta tags)
//	2. JSON-LD schema.org Product
//	3. Markup rules (shop platform conventions)
//	4. Readability excerpt, for the description of recognised products only
//
// An Extractor is immutable after New and safe for concurrent use.
type Extractor struct {
	metadata compiledStage
	markup   compiledStage
	md       *converter.Converter
	descMax  int
	logger   *slog.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithDescriptionMaxLen caps descriptions at n characters. n <= 0 keeps the default.
func WithDescriptionMaxLen(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.descMax = n
		}
	}
}

// WithLogger sets the logger for debug diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// New compiles rules into an Extractor. An invalid selector is reported
// here so that Extract itself never fails.
func New(rules Rules, opts ...Option) (*Extractor, error) {
	metadata, err := compileStage(rules.Metadata)
	if err != nil {
		return nil, err
	}
	markup, err := compileStage(rules.Markup)
	if err != nil {
		return nil, err
	}

	x := &Extractor{
		metadata: metadata,
		markup:   markup,
		md:       newMarkdownConverter(),
		descMax:  500,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Default returns an Extractor using DefaultRules.
func Default(opts ...Option) *Extractor {
	x, err := New(DefaultRules(), opts...)
	if err != nil {
		panic("extractor: default rules do not compile: " + err.Error())
	}
	return x
}

// Extract reads a ProductRecord out of rawHTML. pageURL, if non-nil, is
// used to resolve relative image URLs and is recorded on the result when
// at least one product field was found.
//
// Extract never fails: empty, malformed or non-product input yields the
// zero record.
func (x *Extractor) Extract(rawHTML string, pageURL *url.URL) models.ProductRecord {
	var rec models.ProductRecord
	if strings.TrimSpace(rawHTML) == "" {
		return rec
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rec
	}
	doc := goquery.NewDocumentFromNode(root)
	ld := findLDProduct(doc)

	if v, ok := x.first(doc, ld, FieldName, x.acceptText); ok {
		rec.Name = v
	}
	if v, ok := x.first(doc, ld, FieldBrand, x.acceptText); ok {
		rec.Brand = v
	}

	var price float64
	if _, ok := x.first(doc, ld, FieldPrice, func(raw string, _ Rule) (string, bool) {
		p, ok := ParsePrice(raw)
		if ok {
			price = p
		}
		return raw, ok
	}); ok {
		rec.Price = &price
	}

	if v, ok := x.first(doc, ld, FieldImage, func(raw string, _ Rule) (string, bool) {
		return resolveImageURL(raw, pageURL)
	}); ok {
		rec.Image = v
	}

	// Descriptions are common on every kind of page, so they are only
	// taken once something product-specific was found.
	if rec.Name != "" || rec.Price != nil {
		rec.Description = x.description(doc, ld, rawHTML, pageURL)
	}

	if pageURL != nil && !rec.IsEmpty() {
		rec.URL = pageURL.String()
	}
	return rec
}

// acceptFunc normalises a raw candidate and reports whether it is usable.
type acceptFunc func(raw string, r Rule) (string, bool)

// first runs the metadata rules, the JSON-LD value and the markup rules
// for f, returning the first accepted value.
func (x *Extractor) first(doc *goquery.Document, ld ldProduct, f Field, accept acceptFunc) (string, bool) {
	if v, ok := x.firstMatch(doc, x.metadata[f], accept); ok {
		return v, true
	}
	if raw := ld.get(f); raw != "" {
		if v, ok := accept(raw, Rule{}); ok {
			return v, true
		}
	}
	return x.firstMatch(doc, x.markup[f], accept)
}

func (x *Extractor) firstMatch(doc *goquery.Document, rules []compiledRule, accept acceptFunc) (string, bool) {
	for _, r := range rules {
		var (
			value string
			found bool
		)
		doc.FindMatcher(r.matcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			raw, ok := ruleValue(s, r.Rule)
			if !ok {
				return true
			}
			value, found = accept(raw, r.Rule)
			return !found
		})
		if found {
			return value, true
		}
	}
	return "", false
}

// ruleValue reads the attribute, inner HTML or text a rule points at.
func ruleValue(s *goquery.Selection, r Rule) (string, bool) {
	switch r.Attr {
	case "":
		return s.Text(), true
	case AttrHTML:
		h, err := s.Html()
		return h, err == nil
	default:
		return s.Attr(r.Attr)
	}
}

func (x *Extractor) acceptText(raw string, _ Rule) (string, bool) {
	v := collapseSpace(raw)
	if v == "" {
		return "", false
	}
	return truncate(v, maxTextLen), true
}

func (x *Extractor) description(doc *goquery.Document, ld ldProduct, rawHTML string, pageURL *url.URL) string {
	domain := ""
	if pageURL != nil {
		domain = pageURL.Scheme + "://" + pageURL.Host
	}

	v, ok := x.first(doc, ld, FieldDescription, func(raw string, r Rule) (string, bool) {
		if r.Attr == AttrHTML {
			md, err := toMarkdown(x.md, raw, domain)
			if err != nil {
				x.logger.Debug("extractor: description conversion failed", "error", err)
				return "", false
			}
			raw = md
		} else {
			raw = collapseSpace(raw)
		}
		raw = strings.TrimSpace(raw)
		return raw, raw != ""
	})
	if !ok {
		v = readabilityExcerpt(x.logger, rawHTML, pageURL)
	}
	return truncate(v, x.descMax)
}

// resolveImageURL makes raw absolute against pageURL and rejects anything
// that is not an http(s) URL.
func resolveImageURL(raw string, pageURL *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if pageURL != nil {
		u = pageURL.ResolveReference(u)
	} else if u.Scheme == "" && u.Host != "" {
		// Protocol-relative URL without a page to inherit the scheme from.
		u.Scheme = "https"
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
