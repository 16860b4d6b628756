package dirscrape

import (
	"bytes"
	"context"
	"encoding/json"
)

// FieldSelector pairs a schema field with the CSS selector that locates it
// inside a single list item. An empty selector means the field could not be
// mapped and always extracts as null.
type FieldSelector struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// SelectorMap is the inferred mapping from a page's structure to the schema.
// It is produced once per page structure and treated as immutable: extraction
// over any number of pages reuses the same map.
type SelectorMap struct {
	// ListItemSelector locates one record's container element.
	// Empty means the whole document is treated as a single record.
	ListItemSelector string

	// Fields holds per-field selectors relative to a list item,
	// in schema order.
	Fields []FieldSelector

	// PaginationSelector locates the next-page link.
	// Empty means the listing has no pagination.
	PaginationSelector string
}

// Selector returns the CSS selector for the named field, or an empty
// string if the field is not mapped.
func (m *SelectorMap) Selector(name string) string {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Selector
		}
	}
	return ""
}

// MarshalJSON encodes the map in the inference wire format: a flat
// "selectors" object with fields in schema order.
func (m SelectorMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"list_item_selector":`)
	item, err := json.Marshal(m.ListItemSelector)
	if err != nil {
		return nil, err
	}
	buf.Write(item)
	buf.WriteString(`,"selectors":{`)
	for i, f := range m.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		sel, err := json.Marshal(f.Selector)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(sel)
	}
	buf.WriteString(`},"pagination_selector":`)
	pag, err := json.Marshal(m.PaginationSelector)
	if err != nil {
		return nil, err
	}
	buf.Write(pag)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ProbeResult is the diagnostic bundle produced by a selector probe:
// the inferred map applied to a single page, without pagination.
type ProbeResult struct {
	SelectorMap   *SelectorMap `json:"selector_map"`
	SampleRecords []*Record    `json:"sample_records"`
	TotalSamples  int          `json:"total_sample_count"`
	HTMLSample    string       `json:"html_sample"`
}

// SelectorResolver infers a selector map for a listing page.
// Implementations compress the HTML into a sketch and ask an LLM to map
// the schema's fields onto CSS selectors.
type SelectorResolver interface {
	// Resolve returns the selector map for the given page.
	// The schema determines field order in the result; fields the
	// inference cannot map come back with empty selectors.
	// Returns ERATELIMIT if inference quota is exhausted after retries.
	Resolve(ctx context.Context, html string, schema Schema, pageURL string) (*SelectorMap, error)
}
