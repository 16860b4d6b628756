package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/dirscrape"
)

// Ensure Extractor implements dirscrape.Extractor at compile time.
var _ dirscrape.Extractor = (*Extractor)(nil)
var _ dirscrape.ExtractorFactory = Factory

// fieldMatcher pairs a field name with its compiled selector.
// A nil matcher means the selector was empty or failed to compile; the
// field stays null in every record.
type fieldMatcher struct {
	name    string
	matcher cascadia.Selector
	urlish  bool
}

// Extractor applies a resolved selector map to listing pages.
// Selectors are compiled once at construction, so Extract never panics
// on malformed selectors and is safe for concurrent use.
type Extractor struct {
	base       *url.URL
	listItems  cascadia.Selector
	pagination cascadia.Selector
	fields     []fieldMatcher
	fieldNames []string
}

// NewExtractor compiles the selector map against a base URL used to
// resolve relative links. An unparsable base URL or list item selector
// returns EINVALID. Invalid field selectors degrade to null fields and
// an invalid pagination selector disables pagination, since a partial
// extraction is still useful.
func NewExtractor(m *dirscrape.SelectorMap, baseURL string) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "invalid base URL: %v", err)
	}

	e := &Extractor{base: base}

	if m.ListItemSelector != "" {
		sel, err := cascadia.Compile(m.ListItemSelector)
		if err != nil {
			return nil, dirscrape.Errorf(dirscrape.EINVALID, "invalid list item selector %q: %v", m.ListItemSelector, err)
		}
		e.listItems = sel
	}

	if m.PaginationSelector != "" {
		if sel, err := cascadia.Compile(m.PaginationSelector); err == nil {
			e.pagination = sel
		}
	}

	for _, fs := range m.Fields {
		fm := fieldMatcher{name: fs.Name, urlish: dirscrape.IsURLField(fs.Name)}
		if fs.Selector != "" {
			if sel, err := cascadia.Compile(fs.Selector); err == nil {
				fm.matcher = sel
			}
		}
		e.fields = append(e.fields, fm)
		e.fieldNames = append(e.fieldNames, fs.Name)
	}

	return e, nil
}

// Factory adapts NewExtractor to the dirscrape.ExtractorFactory signature.
func Factory(m *dirscrape.SelectorMap, baseURL string) (dirscrape.Extractor, error) {
	return NewExtractor(m, baseURL)
}

// Extract parses the page and returns its records and next page link.
// When the map has no list item selector the whole document is treated
// as a single record.
func (e *Extractor) Extract(html string) (*dirscrape.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	result := &dirscrape.ExtractResult{}

	if e.listItems != nil {
		doc.FindMatcher(e.listItems).Each(func(_ int, item *goquery.Selection) {
			if rec := e.extractRecord(item); rec.NonNullCount() > 0 {
				result.Records = append(result.Records, rec)
			}
		})
	} else {
		if rec := e.extractRecord(doc.Selection); rec.NonNullCount() > 0 {
			result.Records = append(result.Records, rec)
		}
	}

	result.NextPageURL = e.nextPageURL(doc)

	return result, nil
}

// extractRecord pulls one record out of a list item scope. Every mapped
// field is present in the record; fields with no match or no usable
// value stay null.
func (e *Extractor) extractRecord(scope *goquery.Selection) *dirscrape.Record {
	rec := dirscrape.NewRecord(e.fieldNames)
	for _, fm := range e.fields {
		if fm.matcher == nil {
			continue
		}
		el := scope.FindMatcher(fm.matcher).First()
		if el.Length() == 0 {
			continue
		}
		value := extractValue(el)
		if value == "" {
			continue
		}
		if fm.urlish {
			value = e.resolve(value)
		}
		rec.Set(fm.name, value)
	}
	return rec
}

// extractValue prefers link targets over display text: a non-empty href
// wins, then src, then the element's whitespace-collapsed text.
func extractValue(el *goquery.Selection) string {
	if href, ok := el.Attr("href"); ok && href != "" {
		return href
	}
	if src, ok := el.Attr("src"); ok && src != "" {
		return src
	}
	return strings.Join(strings.Fields(el.Text()), " ")
}

// nextPageURL returns the absolute URL of the next listing page, or ""
// when the first pagination match carries no usable href.
func (e *Extractor) nextPageURL(doc *goquery.Document) string {
	if e.pagination == nil {
		return ""
	}
	el := doc.FindMatcher(e.pagination).First()
	if el.Length() == 0 {
		return ""
	}
	href, ok := el.Attr("href")
	if !ok || href == "" || isNonHTTPLink(href) {
		return ""
	}
	return e.resolve(href)
}

// resolve makes a value absolute against the extractor's base URL.
// Unparsable values are returned unchanged.
func (e *Extractor) resolve(value string) string {
	ref, err := url.Parse(value)
	if err != nil {
		return value
	}
	return e.base.ResolveReference(ref).String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
