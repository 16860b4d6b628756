package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/dirscrape"
)

// Default sketch bounds.
const (
	DefaultMaxItems = 5
	DefaultMaxText  = 120
)

// rawSampleLimit bounds the raw HTML sample returned when no repeated
// structure is recognized.
const rawSampleLimit = 25000

// Ensure Sketcher implements dirscrape.Sketcher at compile time.
var _ dirscrape.Sketcher = (*Sketcher)(nil)

// Sketcher compresses an HTML page into a bounded structural summary by
// trying detection strategies in a fixed order: data tables first, then
// keyword-classed repeated containers, then text-dense blocks. Pages that
// match no strategy fall back to a raw HTML prefix.
type Sketcher struct {
	maxItems int
	maxText  int
}

// SketchOption configures a Sketcher.
type SketchOption func(*Sketcher)

// WithMaxItems sets how many sample items a sketch shows.
func WithMaxItems(n int) SketchOption {
	return func(s *Sketcher) {
		s.maxItems = n
	}
}

// WithMaxText sets the text truncation length for sketch content.
func WithMaxText(n int) SketchOption {
	return func(s *Sketcher) {
		s.maxText = n
	}
}

// NewSketcher creates a Sketcher with default bounds.
func NewSketcher(opts ...SketchOption) *Sketcher {
	s := &Sketcher{
		maxItems: DefaultMaxItems,
		maxText:  DefaultMaxText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sketch builds a compressed structural summary of the page.
// The same HTML always yields the same sketch.
func (s *Sketcher) Sketch(html string) (*dirscrape.Sketch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, dirscrape.Errorf(dirscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find("script, style, svg, noscript").Remove()

	if sk := s.sketchTables(doc); sk != nil {
		return sk, nil
	}
	if sk := s.sketchKeywordContainers(doc); sk != nil {
		return sk, nil
	}
	if sk := s.sketchContentBlocks(doc); sk != nil {
		return sk, nil
	}

	// Nothing recognizable: hand the inference a bounded raw sample.
	return &dirscrape.Sketch{
		Text:              clip(html, rawSampleLimit),
		Layout:            dirscrape.LayoutUnknown,
		Count:             0,
		SuggestedSelector: "N/A",
	}, nil
}

// sketchTables returns a sketch of the first table that looks like a data
// table: at least 3 rows carrying td cells, or rows with enough text when
// the table is too sparse for the cell count test.
func (s *Sketcher) sketchTables(doc *goquery.Document) *dirscrape.Sketch {
	tables := doc.Find("table")
	for i := 0; i < tables.Length(); i++ {
		table := tables.Eq(i)
		rows := table.Find("tr")

		dataRows := rows.FilterFunction(func(_ int, row *goquery.Selection) bool {
			return row.Find("td").Length() >= 1
		})

		// Sparse tables can still be directories when each row carries
		// real content (single-column member listings and the like).
		if dataRows.Length() < 5 {
			dataRows = rows.FilterFunction(func(_ int, row *goquery.Selection) bool {
				var text strings.Builder
				row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
					text.WriteString(strings.TrimSpace(cell.Text()))
				})
				return len(text.String()) > 20
			})
		}

		if dataRows.Length() >= 3 {
			return &dirscrape.Sketch{
				Text:              s.renderTable(table),
				Layout:            dirscrape.LayoutTable,
				Count:             dataRows.Length(),
				SuggestedSelector: tableSelector(table),
			}
		}
	}
	return nil
}

// cardPatterns are class-name keywords that mark repeated directory
// containers, tried in order, each with the tags it may appear on.
var cardPatterns = []struct {
	keyword string
	tags    []string
}{
	{"company", []string{"a", "div", "article"}},
	{"member", []string{"div", "article", "li"}},
	{"profile", []string{"div", "article", "a"}},
	{"card", []string{"div", "article"}},
	{"listing", []string{"div", "article", "li"}},
	{"entry", []string{"div", "article", "li"}},
	{"result", []string{"div", "li"}},
}

func (s *Sketcher) sketchKeywordContainers(doc *goquery.Document) *dirscrape.Sketch {
	for _, p := range cardPatterns {
		var containers []*goquery.Selection
		doc.Find(fmt.Sprintf(`[class*="%s"]`, p.keyword)).Each(func(_ int, e *goquery.Selection) {
			if !tagAllowed(goquery.NodeName(e), p.tags) {
				return
			}
			// Short text means a nav item, not a directory entry.
			if len(strings.TrimSpace(e.Text())) < 30 {
				return
			}
			if e.ParentsFiltered("nav, header, footer").Length() > 0 {
				return
			}
			containers = append(containers, e)
		})

		if len(containers) >= 10 {
			shown := containers
			if len(shown) > s.maxItems {
				shown = shown[:s.maxItems]
			}
			return &dirscrape.Sketch{
				Text:              s.renderItems(shown, len(containers)),
				Layout:            dirscrape.LayoutCards,
				Count:             len(containers),
				SuggestedSelector: fmt.Sprintf(`%s[class*="%s"]`, goquery.NodeName(containers[0]), p.keyword),
			}
		}
	}
	return nil
}

// contentMarkers are tokens that suggest a block holds contact data.
var contentMarkers = []string{"phone", "email", "@", "tel:", "http"}

func (s *Sketcher) sketchContentBlocks(doc *goquery.Document) *dirscrape.Sketch {
	var blocks []*goquery.Selection
	doc.Find("div, article, li").Each(func(_ int, e *goquery.Selection) {
		text := strings.TrimSpace(e.Text())
		if len(text) <= 50 {
			return
		}
		lower := strings.ToLower(text)
		for _, marker := range contentMarkers {
			if strings.Contains(lower, marker) {
				blocks = append(blocks, e)
				return
			}
		}
	})

	if len(blocks) < 5 {
		return nil
	}

	shown := blocks
	if len(shown) > s.maxItems {
		shown = shown[:s.maxItems]
	}
	return &dirscrape.Sketch{
		Text:              s.renderItems(shown, len(blocks)),
		Layout:            dirscrape.LayoutContentBlocks,
		Count:             len(blocks),
		SuggestedSelector: goquery.NodeName(blocks[0]),
	}
}

// renderTable renders an abbreviated table: header row, up to maxItems
// sample body rows, and a comment with the true row count.
func (s *Sketcher) renderTable(table *goquery.Selection) string {
	var lines []string

	tableClass := clip(table.AttrOr("class", ""), 100)
	tableID := clip(table.AttrOr("id", ""), 50)
	switch {
	case tableClass != "":
		lines = append(lines, fmt.Sprintf(`<table class="%s">`, tableClass))
	case tableID != "":
		lines = append(lines, fmt.Sprintf(`<table id="%s">`, tableID))
	default:
		lines = append(lines, "<table>")
	}

	headers := table.Find("thead th, thead td, tr:first-child th")
	if headers.Length() > 0 {
		lines = append(lines, "  <thead><tr>")
		headers.EachWithBreak(func(i int, h *goquery.Selection) bool {
			if i >= 10 {
				return false
			}
			text := truncate(h.Text(), 60)
			if hClass := clip(h.AttrOr("class", ""), 60); hClass != "" {
				lines = append(lines, fmt.Sprintf(`    <th class="%s">%s</th>`, hClass, text))
			} else {
				lines = append(lines, fmt.Sprintf("    <th>%s</th>", text))
			}
			return true
		})
		lines = append(lines, "  </tr></thead>")
	}

	lines = append(lines, "  <tbody>")
	bodyRows := table.Find("tbody tr, tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.Find("td").Length() > 0
	})
	total := bodyRows.Length()
	shown := min(total, s.maxItems)

	for i := 0; i < shown; i++ {
		row := bodyRows.Eq(i)
		if rowClass := clip(row.AttrOr("class", ""), 60); rowClass != "" {
			lines = append(lines, fmt.Sprintf(`    <tr class="%s">`, rowClass))
		} else {
			lines = append(lines, "    <tr>")
		}

		cells := row.Find("td")
		for j := 0; j < min(cells.Length(), 10); j++ {
			cell := cells.Eq(j)
			content := s.describeCell(cell)
			if cls := clip(cell.AttrOr("class", ""), 80); cls != "" {
				lines = append(lines, fmt.Sprintf(`      <td class="%s">%s</td>`, cls, content))
			} else {
				lines = append(lines, fmt.Sprintf("      <td>%s</td>", content))
			}
		}
		lines = append(lines, "    </tr>")
	}

	lines = append(lines, "  </tbody>")
	lines = append(lines, "</table>")
	lines = append(lines, fmt.Sprintf("<!-- Total rows: %d (showing %d) -->", total, shown))

	return strings.Join(lines, "\n")
}

// describeCell renders a cell compactly, preferring its first link, then a
// descendant with a value-ish class, then plain text.
func (s *Sketcher) describeCell(cell *goquery.Selection) string {
	if link := cell.Find("a").First(); link.Length() > 0 {
		href := clip(link.AttrOr("href", ""), 40)
		text := truncate(link.Text(), 30)
		return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
	}

	named := cell.Find("[class]").FilterFunction(func(_ int, child *goquery.Selection) bool {
		return containsAny(child.AttrOr("class", ""), "name", "Name", "value", "Value", "text")
	}).First()
	if named.Length() > 0 {
		tag := goquery.NodeName(named)
		cls := clip(named.AttrOr("class", ""), 30)
		text := truncate(named.Text(), s.maxText)
		return fmt.Sprintf(`<%s class="%s">%s</%s>`, tag, cls, text, tag)
	}

	return truncate(cell.Text(), s.maxText)
}

// renderItems renders repeated containers with their significant
// descendants. The items slice is the sample to show; total is the full
// match count reported in the trailing comment.
func (s *Sketcher) renderItems(items []*goquery.Selection, total int) string {
	var lines []string

	// Prefer items that actually carry text over empty duplicates.
	var nonEmpty []*goquery.Selection
	for _, item := range items {
		if len(strings.TrimSpace(item.Text())) > 10 {
			nonEmpty = append(nonEmpty, item)
		}
		if len(nonEmpty) >= s.maxItems {
			break
		}
	}
	if len(nonEmpty) == 0 {
		nonEmpty = items
	}

	for _, item := range nonEmpty {
		tag := goquery.NodeName(item)
		var attrs []string
		if cls := clip(item.AttrOr("class", ""), 80); cls != "" {
			attrs = append(attrs, fmt.Sprintf(`class="%s"`, cls))
		}
		if href := clip(item.AttrOr("href", ""), 80); href != "" {
			attrs = append(attrs, fmt.Sprintf(`href="%s"`, href))
		}

		if len(attrs) > 0 {
			lines = append(lines, fmt.Sprintf("<%s %s>", tag, strings.Join(attrs, " ")))
		} else {
			lines = append(lines, fmt.Sprintf("<%s>", tag))
		}
		s.renderDescendants(item, &lines)
		lines = append(lines, fmt.Sprintf("</%s>", tag))
		lines = append(lines, "")
	}

	lines = append(lines, fmt.Sprintf("<!-- Total items: %d shown, %d total -->", len(nonEmpty), total))

	return strings.Join(lines, "\n")
}

// annotations mark class-name keywords the inference should treat as field
// hints. Checked in order; the first matching label wins.
var annotations = []struct {
	label    string
	keywords []string
}{
	{"NAME", []string{"_coName", "coName", "CompanyName", "company-name", "name", "Name", "title", "Title"}},
	{"LOCATION", []string{"_coLocation", "coLocation", "Location", "location", "loc"}},
	{"DESC", []string{"desc", "Desc", "tagline", "Tagline"}},
	{"BATCH", []string{"batch", "Batch"}},
	{"INDUSTRY", []string{"industry", "Industry", "category", "Category"}},
}

func annotationFor(class string) string {
	for _, a := range annotations {
		if containsAny(class, a.keywords...) {
			return a.label
		}
	}
	return ""
}

// renderDescendants renders up to 50 significant descendants of an item:
// elements carrying a class attribute or more than two characters of text.
func (s *Sketcher) renderDescendants(item *goquery.Selection, lines *[]string) {
	const prefix = "  "

	count := 0
	item.Find("*").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		cls := el.AttrOr("class", "")
		text := strings.TrimSpace(el.Text())
		if cls == "" && len(text) <= 2 {
			return true
		}
		count++
		if count > 50 {
			return false
		}

		tag := goquery.NodeName(el)
		var attrs []string
		annotated := false
		if cls != "" {
			clipped := clip(cls, 100)
			if label := annotationFor(clipped); label != "" {
				attrs = append(attrs, fmt.Sprintf(`class="%s" ← %s`, clipped, label))
				annotated = true
			} else {
				attrs = append(attrs, fmt.Sprintf(`class="%s"`, clipped))
			}
		}
		if href := clip(el.AttrOr("href", ""), 80); href != "" {
			attrs = append(attrs, fmt.Sprintf(`href="%s"`, href))
		}

		attrStr := strings.Join(attrs, " ")
		short := truncate(text, 50)

		switch {
		case attrStr != "" && short != "":
			*lines = append(*lines, fmt.Sprintf("%s<%s %s>%s</%s>", prefix, tag, attrStr, short, tag))
		case annotated:
			// Annotated elements matter even when empty in the sample.
			*lines = append(*lines, fmt.Sprintf("%s<%s %s/>", prefix, tag, attrStr))
		case len(short) > 5:
			*lines = append(*lines, fmt.Sprintf("%s<%s>%s</%s>", prefix, tag, short, tag))
		}
		return true
	})
}

// tableSelector builds a selector for a table, preferring its id, then its
// first class, then the bare tag.
func tableSelector(table *goquery.Selection) string {
	if id, ok := table.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if fields := strings.Fields(table.AttrOr("class", "")); len(fields) > 0 {
		return "table." + fields[0]
	}
	return "table"
}

func tagAllowed(tag string, allowed []string) bool {
	for _, t := range allowed {
		if tag == t {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// truncate collapses whitespace and trims text to max characters, marking
// cut-off text with an ellipsis.
func truncate(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}

// clip trims a string to max characters without touching whitespace.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
