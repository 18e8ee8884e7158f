package highlight

import (
	"github.com/zjrosen/recolor/internal/style"
)

// Span is a half-open byte range [Start, End) of one line tagged with the
// style to draw it in. Start <= End always holds.
type Span struct {
	Start, End int
	Style      style.Style
}

// Extractor turns regex matches into spans.
type Extractor struct {
	matcher Matcher
	// styles[i] is the resolved style of capture group i; styles[0] is unused.
	styles []style.Style
}

// NewExtractor resolves a style for every capture group of m: a named group
// listed in table uses that style, any other group uses the palette entry for
// its 1-based position in the pattern.
func NewExtractor(m Matcher, table style.Table, palette style.Palette) *Extractor {
	if len(palette) == 0 {
		palette = style.DefaultPalette()
	}
	n := m.NumGroups()
	styles := make([]style.Style, n+1)
	for i := 1; i <= n; i++ {
		if name := m.GroupName(i); name != "" {
			if s, ok := table[name]; ok {
				styles[i] = s
				continue
			}
		}
		styles[i] = palette.At(i)
	}
	return &Extractor{matcher: m, styles: styles}
}

// groupStyle returns the style resolved for capture group i.
func (e *Extractor) groupStyle(i int) style.Style {
	if i <= 0 || i >= len(e.styles) {
		return style.Style{}
	}
	return e.styles[i]
}

// Extract appends to dst one span per participating capture group of every
// match on line, ordered by match and then by capture index.
func (e *Extractor) Extract(line string, dst []Span) ([]Span, error) {
	err := e.matcher.Each(line, func(groups []Group) {
		for i := 1; i < len(groups); i++ {
			g := groups[i]
			if !g.Matched {
				continue
			}
			dst = append(dst, Span{Start: g.Start, End: g.End, Style: e.groupStyle(i)})
		}
	})
	return dst, err
}
