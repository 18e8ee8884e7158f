package style

import (
	"fmt"
	"maps"
	"strings"
)

// Palette is the ordered list of fallback styles for capture groups that have
// no explicit mapping. It is indexed cyclically by capture-group position.
type Palette []Style

// DefaultPalette returns the built-in palette. Index 1, the first capture
// group, is green.
func DefaultPalette() Palette {
	return Palette{
		MustParse("red"),
		MustParse("green"),
		MustParse("yellow"),
		MustParse("blue"),
		MustParse("magenta"),
		MustParse("cyan"),
		MustParse("white"),
	}
}

// At returns the palette entry for capture index i. An empty palette falls
// back to the default one.
func (p Palette) At(i int) Style {
	if len(p) == 0 {
		p = DefaultPalette()
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}

// ParsePalette builds a palette from token lists, one per entry. An empty
// input yields the default palette.
func ParsePalette(lists []string) (Palette, error) {
	if len(lists) == 0 {
		return DefaultPalette(), nil
	}
	p := make(Palette, 0, len(lists))
	for i, list := range lists {
		s, err := Parse(list)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		p = append(p, s)
	}
	return p, nil
}

// Table maps capture-group names to styles. It is built once and only read
// afterwards.
type Table map[string]Style

// Merge returns a new table holding t's entries overridden by other's.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	maps.Copy(out, t)
	maps.Copy(out, other)
	return out
}

// AssignmentError reports a name=style argument without '='.
type AssignmentError struct {
	Input string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("invalid style assignment %q: format is name=style[,style...]", e.Input)
}

func (e *AssignmentError) Unwrap() error { return ErrInvalidStyle }

// ParseAssignment parses one "name=token,token" argument. The name is
// everything before the first '='.
func ParseAssignment(arg string) (string, Style, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok {
		return "", Style{}, &AssignmentError{Input: arg}
	}
	s, err := Parse(list)
	if err != nil {
		return "", Style{}, fmt.Errorf("style for %q: %w", name, err)
	}
	return name, s, nil
}

// ParseAssignments parses name=style arguments into a table. A later
// assignment for the same name replaces an earlier one.
func ParseAssignments(args []string) (Table, error) {
	t := make(Table, len(args))
	for _, arg := range args {
		name, s, err := ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		t[name] = s
	}
	return t, nil
}

// ParseTable parses a name → token-list map, as read from a config file.
func ParseTable(lists map[string]string) (Table, error) {
	t := make(Table, len(lists))
	for name, list := range lists {
		s, err := Parse(list)
		if err != nil {
			return nil, fmt.Errorf("style for %q: %w", name, err)
		}
		t[name] = s
	}
	return t, nil
}
