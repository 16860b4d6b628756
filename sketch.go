package dirscrape

// Layout classifies the repeated structure a sketch detected.
type Layout string

// Layout constants, ordered by detection precedence.
const (
	LayoutTable         Layout = "table"
	LayoutCards         Layout = "repeated_divs"
	LayoutContentBlocks Layout = "content_divs"
	LayoutUnknown       Layout = "unknown"
)

// Sketch is a compressed structural summary of an HTML page, small enough
// to embed in an inference prompt.
type Sketch struct {
	// Text is the abbreviated structural rendering of the page.
	Text string

	// Layout is the detected page structure.
	Layout Layout

	// Count is the number of repeated items the detection saw.
	Count int

	// SuggestedSelector is a heuristic guess at the list item selector.
	// "N/A" when the layout is unknown.
	SuggestedSelector string
}

// Sketcher builds sketches from raw HTML.
// Implementations are pure: the same HTML always yields the same sketch.
type Sketcher interface {
	Sketch(html string) (*Sketch, error)
}
