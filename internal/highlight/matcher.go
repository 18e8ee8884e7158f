package highlight

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/recolor/internal/log"
)

// Engine selects the regular expression implementation.
type Engine string

const (
	// EngineRE2 uses the standard library's linear-time RE2 engine.
	EngineRE2 Engine = "re2"
	// EngineBacktrack uses a backtracking engine that supports look-around and
	// backreferences.
	EngineBacktrack Engine = "backtrack"
)

// Engines lists the accepted engine names.
func Engines() []Engine {
	return []Engine{EngineRE2, EngineBacktrack}
}

// Group is one capture group's extent within a match, as byte offsets into
// the line. Matched is false when the group did not participate.
type Group struct {
	Start, End int
	Matched    bool
}

// Matcher is the regex engine seen by the extractor.
//
// Each calls fn once per non-overlapping match in increasing start order.
// groups is indexed by capture position (0 is the whole match) and is only
// valid for the duration of the call.
type Matcher interface {
	NumGroups() int
	GroupName(i int) string
	Each(line string, fn func(groups []Group)) error
}

// Options configures Compile.
type Options struct {
	Engine Engine
	// MatchTimeout bounds a single match attempt. Only the backtracking engine
	// honors it; zero disables the limit.
	MatchTimeout time.Duration
}

// ConfigError reports a setup failure: an invalid pattern or engine name.
type ConfigError struct {
	Kind  string // "regex" or "engine"
	Input string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Compile builds a Matcher for pattern with the selected engine.
// An empty engine name selects EngineRE2.
func Compile(pattern string, opts Options) (Matcher, error) {
	switch opts.Engine {
	case "", EngineRE2:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &ConfigError{Kind: "regex", Input: pattern, Err: err}
		}
		if opts.MatchTimeout > 0 {
			log.Warn(log.CatRegex, "Match timeout ignored by re2 engine", "timeout", opts.MatchTimeout)
		}
		log.Debug(log.CatRegex, "Compiled pattern", "engine", EngineRE2, "groups", re.NumSubexp())
		return &re2Matcher{re: re}, nil

	case EngineBacktrack:
		re, err := regexp2.Compile(pattern, regexp2.RE2)
		if err != nil {
			return nil, &ConfigError{Kind: "regex", Input: pattern, Err: err}
		}
		if opts.MatchTimeout > 0 {
			re.MatchTimeout = opts.MatchTimeout
		}
		m := &backtrackMatcher{re: re, numbers: positionalGroups(pattern, re)}
		log.Debug(log.CatRegex, "Compiled pattern", "engine", EngineBacktrack, "groups", m.NumGroups(),
			"timeout", opts.MatchTimeout)
		return m, nil

	default:
		return nil, &ConfigError{Kind: "engine", Input: string(opts.Engine),
			Err: fmt.Errorf("must be %q or %q", EngineRE2, EngineBacktrack)}
	}
}

type re2Matcher struct {
	re *regexp.Regexp
}

func (m *re2Matcher) NumGroups() int { return m.re.NumSubexp() }

func (m *re2Matcher) GroupName(i int) string {
	names := m.re.SubexpNames()
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

func (m *re2Matcher) Each(line string, fn func(groups []Group)) error {
	var groups []Group
	for _, loc := range m.re.FindAllStringSubmatchIndex(line, -1) {
		groups = groups[:0]
		for i := 0; i+1 < len(loc); i += 2 {
			groups = append(groups, Group{Start: loc[i], End: loc[i+1], Matched: loc[i] >= 0})
		}
		fn(groups)
	}
	return nil
}

// backtrackMatcher adapts regexp2, which reports offsets in runes.
type backtrackMatcher struct {
	re      *regexp2.Regexp
	numbers []int // group numbers in positional order, numbers[0] == 0
}

func (m *backtrackMatcher) NumGroups() int { return len(m.numbers) - 1 }

func (m *backtrackMatcher) GroupName(i int) string {
	if i <= 0 || i >= len(m.numbers) {
		return ""
	}
	num := m.numbers[i]
	name := m.re.GroupNameFromNumber(num)
	// Unnamed groups are reported under their number.
	if name == strconv.Itoa(num) {
		return ""
	}
	return name
}

func (m *backtrackMatcher) Each(line string, fn func(groups []Group)) error {
	match, err := m.re.FindStringMatch(line)
	if err != nil {
		return err
	}
	if match == nil {
		return nil
	}

	// byteAt[r] is the byte offset of rune r; the extra entry maps the end.
	byteAt := make([]int, 0, len(line)+1)
	for i := range line {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(line))

	groups := make([]Group, len(m.numbers))
	for match != nil {
		for i, num := range m.numbers {
			g := match.GroupByNumber(num)
			if g == nil || len(g.Captures) == 0 {
				groups[i] = Group{}
				continue
			}
			groups[i] = Group{
				Start:   byteAt[g.Index],
				End:     byteAt[g.Index+g.Length],
				Matched: true,
			}
		}
		fn(groups)

		match, err = m.re.FindNextMatch(match)
		if err != nil {
			return err
		}
	}
	return nil
}

// positionalGroups returns the group numbers of re ordered by where each
// group's opening parenthesis appears in pattern. regexp2 numbers unnamed
// groups before named ones, so its own order can differ from the pattern's.
// Patterns the scan cannot account for keep regexp2's order.
func positionalGroups(pattern string, re *regexp2.Regexp) []int {
	fallback := re.GetGroupNumbers()

	numbers := []int{0}
	seen := map[int]bool{0: true}
	unnamed := 0
	inClass := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if strings.HasPrefix(pattern[i:], "[:") {
				if end := strings.Index(pattern[i+2:], ":]"); end >= 0 {
					i += end + 3
				}
			} else if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// ']' directly after '[' or '[^' is a literal.
			if strings.HasPrefix(pattern[i+1:], "^") {
				i++
			}
			if strings.HasPrefix(pattern[i+1:], "]") {
				i++
			}
		case c == '(':
			rest := pattern[i+1:]
			if strings.HasPrefix(rest, "?#") {
				end := strings.IndexByte(rest, ')')
				if end < 0 {
					return fallback
				}
				i += end + 1
				continue
			}

			var num int
			if name, ok := captureName(rest); ok {
				num = re.GroupNumberFromName(name)
			} else if !strings.HasPrefix(rest, "?") {
				unnamed++
				num = unnamed
			} else {
				continue
			}
			if num < 0 {
				return fallback
			}
			if !seen[num] {
				seen[num] = true
				numbers = append(numbers, num)
			}
		}
	}

	if len(numbers) != len(fallback) {
		return fallback
	}
	for _, num := range fallback {
		if !seen[num] {
			return fallback
		}
	}
	return numbers
}

// captureName reports the name of a named group whose "(" precedes rest.
func captureName(rest string) (string, bool) {
	var term byte
	switch {
	case strings.HasPrefix(rest, "?P<"):
		rest, term = rest[3:], '>'
	case strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!"):
		rest, term = rest[2:], '>'
	case strings.HasPrefix(rest, "?'"):
		rest, term = rest[2:], '\''
	default:
		return "", false
	}
	end := strings.IndexByte(rest, term)
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}
