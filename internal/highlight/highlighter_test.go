package highlight

import (
	"errors"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/recolor/internal/style"
)

var palette = style.DefaultPalette()

func paint(s style.Style, text string) string {
	return s.Render(termenv.TrueColor, text)
}

func newTestHighlighter(t *testing.T, engine Engine, pattern string, assignments ...string) *Highlighter {
	t.Helper()
	m, err := Compile(pattern, Options{Engine: engine})
	require.NoError(t, err)
	table, err := style.ParseAssignments(assignments)
	require.NoError(t, err)
	return New(NewExtractor(m, table, style.DefaultPalette()), NewRenderer(termenv.TrueColor))
}

func highlight(t *testing.T, h *Highlighter, input string) string {
	t.Helper()
	var out strings.Builder
	require.NoError(t, h.Run(strings.NewReader(input), &out))
	return out.String()
}

func TestHighlighter_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		assignments []string
		input       string
		want        string
	}{
		{
			name:    "single match",
			pattern: "(foo)",
			input:   "hello foo",
			want:    "hello " + paint(palette[1], "foo") + "\n",
		},
		{
			name:    "multiple groups",
			pattern: "(foo)(bar)",
			input:   "hello foobar",
			want:    "hello " + paint(palette[1], "foo") + paint(palette[2], "bar") + "\n",
		},
		{
			name:        "named groups",
			pattern:     "(?P<foo>foo)(?P<bar>bar)",
			assignments: []string{"foo=green", "bar=red"},
			input:       "hello foobar",
			want:        "hello " + paint(style.MustParse("green"), "foo") + paint(style.MustParse("red"), "bar") + "\n",
		},
		{
			name:    "multiple matches per line",
			pattern: "(5)",
			input:   "12345 12345 12345",
			want: "1234" + paint(palette[1], "5") +
				" 1234" + paint(palette[1], "5") +
				" 1234" + paint(palette[1], "5") + "\n",
		},
		{
			name:    "no matches",
			pattern: "(5)",
			input:   "hello world",
			want:    "hello world\n",
		},
		{
			name:        "hex colors",
			pattern:     "(?P<five>5)",
			assignments: []string{"five=#ff0000,underline"},
			input:       "12345 12345 12345",
			want: "1234" + paint(style.MustParse("#ff0000,underline"), "5") +
				" 1234" + paint(style.MustParse("#ff0000,underline"), "5") +
				" 1234" + paint(style.MustParse("#ff0000,underline"), "5") + "\n",
		},
		{
			name:    "non-capturing prefix",
			pattern: "123(5)",
			input:   "12345 12345 1235",
			want:    "12345 12345 123" + paint(palette[1], "5") + "\n",
		},
		{
			name:    "nested groups",
			pattern: "12(3(5))",
			input:   "12345 12345 1235",
			want:    "12345 12345 12" + paint(palette[1], "3") + paint(palette[2], "5") + "\n",
		},
		{
			name:    "outer style resumes after inner group",
			pattern: "(a(b)c)",
			input:   "xabcx",
			want:    "x" + paint(palette[1], "a") + paint(palette[2], "b") + paint(palette[1], "c") + "x\n",
		},
		{
			name:        "named group without mapping uses palette",
			pattern:     "(?P<foo>foo)(?P<bar>bar)",
			assignments: []string{"foo=blue"},
			input:       "foobar",
			want:        paint(style.MustParse("blue"), "foo") + paint(palette[2], "bar") + "\n",
		},
		{
			name:    "non-participating group",
			pattern: "(a)|(b)",
			input:   "ab",
			want:    paint(palette[1], "a") + paint(palette[2], "b") + "\n",
		},
		{
			name:    "zero capture groups",
			pattern: "foo",
			input:   "foo foo",
			want:    "foo foo\n",
		},
		{
			name:    "empty groups render nothing",
			pattern: "()",
			input:   "abc",
			want:    "abc\n",
		},
		{
			name:    "multibyte text",
			pattern: "(é+)",
			input:   "café éé 日本",
			want:    "caf" + paint(palette[1], "é") + " " + paint(palette[1], "éé") + " 日本\n",
		},
		{
			name:    "group at end of line",
			pattern: "(日本)$",
			input:   "こんにちは日本",
			want:    "こんにちは" + paint(palette[1], "日本") + "\n",
		},
		{
			name:    "palette cycles past seven groups",
			pattern: "(a)(b)(c)(d)(e)(f)(g)(h)",
			input:   "abcdefgh",
			want: paint(palette[1], "a") + paint(palette[2], "b") + paint(palette[3], "c") +
				paint(palette[4], "d") + paint(palette[5], "e") + paint(palette[6], "f") +
				paint(palette[0], "g") + paint(palette[1], "h") + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHighlighter(t, EngineRE2, tt.pattern, tt.assignments...)
			require.Equal(t, tt.want, highlight(t, h, tt.input))
		})
	}
}

func TestHighlighter_BacktrackEngine(t *testing.T) {
	tests := []struct {
		name        string
		pattern     string
		assignments []string
		input       string
		want        string
	}{
		{
			name:    "single match",
			pattern: "(foo)",
			input:   "hello foo",
			want:    "hello " + paint(palette[1], "foo") + "\n",
		},
		{
			name:    "nested groups",
			pattern: "12(3(5))",
			input:   "12345 12345 1235",
			want:    "12345 12345 12" + paint(palette[1], "3") + paint(palette[2], "5") + "\n",
		},
		{
			name:    "lookahead",
			pattern: `(\w+)(?=:)`,
			input:   "key: value",
			want:    paint(palette[1], "key") + ": value\n",
		},
		{
			name:        "named group",
			pattern:     `(?<level>ERROR|WARN)`,
			assignments: []string{"level=bold,red"},
			input:       "12:00 ERROR boom",
			want:        "12:00 " + paint(style.MustParse("bold,red"), "ERROR") + " boom\n",
		},
		{
			name:    "rune offsets converted to bytes",
			pattern: "(日本)",
			input:   "ñ日本ñ",
			want:    "ñ" + paint(palette[1], "日本") + "ñ\n",
		},
		{
			name:    "no matches",
			pattern: "(zzz)",
			input:   "hello",
			want:    "hello\n",
		},
		{
			name:    "lookbehind capture before the match",
			pattern: `(b)(?<=(a)b)`,
			input:   "ab",
			want:    paint(palette[2], "a") + paint(palette[1], "b") + "\n",
		},
		{
			name:    "lookahead capture overlapping the group end",
			pattern: `(a(?=(bc))b)`,
			input:   "abcd",
			want:    paint(palette[1], "a") + paint(palette[2], "b") + paint(palette[2], "c") + "d\n",
		},
		{
			name:    "named group numbered by position",
			pattern: `(?P<x>a)(b)`,
			input:   "abc",
			want:    paint(palette[1], "a") + paint(palette[2], "b") + "c\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHighlighter(t, EngineBacktrack, tt.pattern, tt.assignments...)
			require.Equal(t, tt.want, highlight(t, h, tt.input))
		})
	}
}

func TestHighlighter_EnginesAgree(t *testing.T) {
	tests := []struct {
		pattern     string
		assignments []string
		input       string
	}{
		{pattern: `(?P<x>a)(b)`, input: "abc"},
		{pattern: `(a)(?P<x>b)(c)`, input: "abc abc"},
		{pattern: `(a)(?P<x>b)(c)`, assignments: []string{"x=bold,red"}, input: "xabcx"},
		{pattern: `(?P<k>\w+)=(\w+) (?P<v>\d+)`, input: "key=value 42"},
		{pattern: `((?P<outer>a)(b(?P<inner>c)))(d)`, input: "abcd"},
		{pattern: `[(](x)[)](?P<y>y)`, input: "(x)y"},
		{pattern: `\((x)\)(?P<y>y)(z)`, input: "(x)yz"},
		{pattern: `[]()](?P<n>\d)(\d)`, input: ")12 ]34"},
		{pattern: `(?:a)(?P<n>b)(c)`, input: "abc"},
		{pattern: `(?i)(?P<n>A)(b)`, input: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			re2 := newTestHighlighter(t, EngineRE2, tt.pattern, tt.assignments...)
			backtrack := newTestHighlighter(t, EngineBacktrack, tt.pattern, tt.assignments...)
			require.Equal(t, highlight(t, re2, tt.input), highlight(t, backtrack, tt.input))
		})
	}
}

func TestHighlighter_LineTerminators(t *testing.T) {
	h := newTestHighlighter(t, EngineRE2, "(b)")
	b := paint(palette[1], "b")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty input", input: "", want: ""},
		{name: "single newline", input: "\n", want: "\n"},
		{name: "missing final newline", input: "abc", want: "a" + b + "c\n"},
		{name: "multiple lines", input: "abc\nxyz\nb\n", want: "a" + b + "c\nxyz\n" + b + "\n"},
		{name: "crlf", input: "abc\r\nb\r\n", want: "a" + b + "c\n" + b + "\n"},
		{name: "blank lines preserved", input: "\n\nb\n\n", want: "\n\n" + b + "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, highlight(t, h, tt.input))
		})
	}
}

func TestHighlighter_LongLine(t *testing.T) {
	h := newTestHighlighter(t, EngineRE2, "(needle)")
	line := strings.Repeat("x", 200_000) + "needle"

	got := highlight(t, h, line+"\n")
	require.Equal(t, strings.Repeat("x", 200_000)+paint(palette[1], "needle")+"\n", got)
}

func TestHighlighter_AsciiProfilePassesThrough(t *testing.T) {
	m, err := Compile("(foo)(bar)", Options{})
	require.NoError(t, err)
	h := New(NewExtractor(m, nil, nil), NewRenderer(termenv.Ascii))

	require.Equal(t, "hello foobar\n", highlight(t, h, "hello foobar"))
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestHighlighter_ReadError(t *testing.T) {
	h := newTestHighlighter(t, EngineRE2, "(a)")
	readErr := errors.New("disk on fire")

	err := h.Run(failingReader{err: readErr}, &strings.Builder{})
	require.Error(t, err)
	require.ErrorIs(t, err, readErr)
	require.Contains(t, err.Error(), "reading input")
}

func TestHighlighter_WriteError(t *testing.T) {
	h := newTestHighlighter(t, EngineRE2, "(a)")
	writeErr := errors.New("broken pipe")

	err := h.Run(strings.NewReader("abc\nabc\n"), failingWriter{err: writeErr})
	require.Error(t, err)
	require.ErrorIs(t, err, writeErr)
	require.Contains(t, err.Error(), "writing output")
}

func TestHighlighter_Line(t *testing.T) {
	h := newTestHighlighter(t, EngineRE2, "(x)")
	var out strings.Builder

	require.NoError(t, h.Line(&out, "axb"))
	require.NoError(t, h.Line(&out, "nothing"))
	require.Equal(t, "a"+paint(palette[1], "x")+"b\nnothing\n", out.String())
}
