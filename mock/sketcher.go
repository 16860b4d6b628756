package mock

import "github.com/fwojciec/dirscrape"

var _ dirscrape.Sketcher = (*Sketcher)(nil)

// Sketcher is a mock implementation of dirscrape.Sketcher.
type Sketcher struct {
	SketchFn func(html string) (*dirscrape.Sketch, error)
}

func (s *Sketcher) Sketch(html string) (*dirscrape.Sketch, error) {
	return s.SketchFn(html)
}
