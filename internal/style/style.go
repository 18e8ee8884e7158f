// Package style implements the highlighter's style vocabulary.
//
// A Style is a pre-composed set of visual attributes: at most one foreground
// color plus independent toggles (bold, dim, italic, underline, blink, hidden,
// strikethrough). Styles are built from comma-joined token lists such as
// "bold,red" or "#ff8700,underline" and rendered as SGR escape sequences
// through a termenv color profile.
package style

import (
	"strings"

	"github.com/muesli/termenv"
)

// Attr is a bit set of boolean text attributes.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrHidden
	AttrStrikethrough
)

// concealSeq is SGR 8. termenv has no constant for it.
const concealSeq = "8"

// attrSeqs lists attributes in the order their parameters are emitted.
var attrSeqs = []struct {
	attr Attr
	seq  string
}{
	{AttrBold, termenv.BoldSeq},
	{AttrDim, termenv.FaintSeq},
	{AttrItalic, termenv.ItalicSeq},
	{AttrUnderline, termenv.UnderlineSeq},
	{AttrBlink, termenv.BlinkSeq},
	{AttrHidden, concealSeq},
	{AttrStrikethrough, termenv.CrossOutSeq},
}

// Style is an immutable composite of a foreground color and attributes.
// The zero value applies no styling.
type Style struct {
	Foreground termenv.Color // nil means the terminal default
	Attrs      Attr
}

// IsZero reports whether the style carries no color and no attributes.
func (s Style) IsZero() bool {
	return s.Foreground == nil && s.Attrs == 0
}

// Has reports whether every attribute in a is set.
func (s Style) Has(a Attr) bool {
	return s.Attrs&a == a
}

// WithForeground returns a copy of s with its foreground replaced.
func (s Style) WithForeground(c termenv.Color) Style {
	s.Foreground = c
	return s
}

// WithAttrs returns a copy of s with a added to its attributes.
func (s Style) WithAttrs(a Attr) Style {
	s.Attrs |= a
	return s
}

// Sequence returns the SGR parameter list for s under profile p, without the
// CSI prefix or the trailing "m". Colors are degraded to what p supports;
// the Ascii profile always yields "".
func (s Style) Sequence(p termenv.Profile) string {
	if p == termenv.Ascii || s.IsZero() {
		return ""
	}

	params := make([]string, 0, len(attrSeqs)+1)
	for _, a := range attrSeqs {
		if s.Attrs&a.attr != 0 {
			params = append(params, a.seq)
		}
	}
	if s.Foreground != nil {
		if c := p.Convert(s.Foreground); c != nil {
			if seq := c.Sequence(false); seq != "" {
				params = append(params, seq)
			}
		}
	}
	return strings.Join(params, ";")
}

// Render wraps text in the escape sequences for s followed by a reset.
// Empty text is never wrapped, and text is returned unchanged when s renders
// to no sequence under p.
func (s Style) Render(p termenv.Profile, text string) string {
	if text == "" {
		return ""
	}
	seq := s.Sequence(p)
	if seq == "" {
		return text
	}
	return termenv.CSI + seq + "m" + text + termenv.CSI + termenv.ResetSeq + "m"
}
