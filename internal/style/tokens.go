package style

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// ErrInvalidStyle is the sentinel wrapped by every style parsing error.
var ErrInvalidStyle = errors.New("invalid style")

// TokenError reports a token that is not part of the vocabulary, or a
// malformed #RRGGBB literal.
type TokenError struct {
	Token  string // offending token
	Input  string // full comma-joined list the token came from
	Reason string // optional detail, e.g. "hex color must be #RRGGBB"
}

func (e *TokenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid style %q in %q: %s", e.Token, e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid style %q in %q", e.Token, e.Input)
}

func (e *TokenError) Unwrap() error { return ErrInvalidStyle }

// Token describes one entry of the style vocabulary.
type Token struct {
	Name    string
	Aliases []string
	Kind    TokenKind

	apply func(Style) Style
}

// TokenKind groups vocabulary entries for listing.
type TokenKind int

const (
	KindColor TokenKind = iota
	KindBrightColor
	KindAttribute
)

func (k TokenKind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindBrightColor:
		return "bright color"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// Apply returns s with the token applied.
func (t Token) Apply(s Style) Style {
	return t.apply(s)
}

func color(name string, c termenv.ANSIColor, kind TokenKind) Token {
	return Token{Name: name, Kind: kind, apply: func(s Style) Style { return s.WithForeground(c) }}
}

func attribute(name string, a Attr, aliases ...string) Token {
	return Token{Name: name, Aliases: aliases, Kind: KindAttribute, apply: func(s Style) Style { return s.WithAttrs(a) }}
}

// vocabulary is the ordered token table. It is never mutated.
var vocabulary = []Token{
	color("black", termenv.ANSIBlack, KindColor),
	color("red", termenv.ANSIRed, KindColor),
	color("green", termenv.ANSIGreen, KindColor),
	color("yellow", termenv.ANSIYellow, KindColor),
	color("blue", termenv.ANSIBlue, KindColor),
	color("magenta", termenv.ANSIMagenta, KindColor),
	color("cyan", termenv.ANSICyan, KindColor),
	color("white", termenv.ANSIWhite, KindColor),
	color("bright_black", termenv.ANSIBrightBlack, KindBrightColor),
	color("bright_red", termenv.ANSIBrightRed, KindBrightColor),
	color("bright_green", termenv.ANSIBrightGreen, KindBrightColor),
	color("bright_yellow", termenv.ANSIBrightYellow, KindBrightColor),
	color("bright_blue", termenv.ANSIBrightBlue, KindBrightColor),
	color("bright_magenta", termenv.ANSIBrightMagenta, KindBrightColor),
	color("bright_cyan", termenv.ANSIBrightCyan, KindBrightColor),
	color("bright_white", termenv.ANSIBrightWhite, KindBrightColor),
	attribute("bold", AttrBold, "bolded"),
	attribute("dim", AttrDim, "dimmed"),
	attribute("italic", AttrItalic, "italics"),
	attribute("underline", AttrUnderline, "underlined"),
	attribute("blink", AttrBlink, "blinking"),
	attribute("hidden", AttrHidden),
	attribute("strikethrough", AttrStrikethrough, "struckthrough", "strike"),
}

var byName = func() map[string]Token {
	m := make(map[string]Token, len(vocabulary)*2)
	for _, t := range vocabulary {
		m[t.Name] = t
		for _, alias := range t.Aliases {
			m[alias] = t
		}
	}
	return m
}()

// Tokens returns the vocabulary in display order.
func Tokens() []Token {
	out := make([]Token, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Lookup returns the vocabulary entry for a token name or alias.
func Lookup(name string) (Token, bool) {
	t, ok := byName[name]
	return t, ok
}

// Parse folds a comma-separated token list into one Style. Tokens apply in
// order: a later color replaces an earlier one, attributes accumulate.
func Parse(list string) (Style, error) {
	var s Style
	for _, tok := range strings.Split(list, ",") {
		next, err := apply(s, tok, list)
		if err != nil {
			return Style{}, err
		}
		s = next
	}
	return s, nil
}

// MustParse is like Parse but panics on error. Intended for package-level
// tables built from known-good literals.
func MustParse(list string) Style {
	s, err := Parse(list)
	if err != nil {
		panic(err)
	}
	return s
}

func apply(s Style, tok, list string) (Style, error) {
	if strings.HasPrefix(tok, "#") {
		c, err := parseHex(tok, list)
		if err != nil {
			return Style{}, err
		}
		return s.WithForeground(c), nil
	}
	t, ok := byName[tok]
	if !ok {
		return Style{}, &TokenError{Token: tok, Input: list}
	}
	return t.Apply(s), nil
}

// parseHex validates a #RRGGBB literal and returns it normalized to lower case.
func parseHex(tok, list string) (termenv.RGBColor, error) {
	if len(tok) != 7 {
		return "", &TokenError{Token: tok, Input: list, Reason: "hex color must be #RRGGBB"}
	}
	if _, err := strconv.ParseUint(tok[1:], 16, 32); err != nil {
		return "", &TokenError{Token: tok, Input: list, Reason: "hex color must be #RRGGBB"}
	}
	return termenv.RGBColor(strings.ToLower(tok)), nil
}
