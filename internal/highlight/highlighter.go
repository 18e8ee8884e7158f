// Package highlight colors regex capture groups in a stream of lines.
//
// An Extractor runs a compiled pattern over each line and produces one Span
// per participating capture group; a Renderer overlays those spans on the
// line. Highlighter wires the two to an input and output stream.
package highlight

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/recolor/internal/log"
)

// Highlighter streams lines from a reader to a writer, one at a time.
type Highlighter struct {
	extractor *Extractor
	renderer  *Renderer
	spans     []Span
}

// New returns a Highlighter using the given extractor and renderer.
func New(extractor *Extractor, renderer *Renderer) *Highlighter {
	return &Highlighter{extractor: extractor, renderer: renderer}
}

// Line extracts spans for line and renders it, with a trailing newline, to w.
// line must not contain the terminator.
func (h *Highlighter) Line(w io.Writer, line string) error {
	spans, err := h.extractor.Extract(line, h.spans[:0])
	h.spans = spans
	if err != nil {
		return fmt.Errorf("matching line: %w", err)
	}
	if err := h.renderer.Render(w, line, spans); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// Run highlights every line of r onto w until r is exhausted. Output is
// flushed after each line. "\n" and "\r\n" terminators are both accepted;
// every output line ends in "\n", including a final input line that had none.
func (h *Highlighter) Run(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	lines := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("reading input: %w", readErr)
		}
		if line != "" {
			if trimmed, ok := strings.CutSuffix(line, "\n"); ok {
				line = strings.TrimSuffix(trimmed, "\r")
			}
			if err := h.Line(bw, line); err != nil {
				return fmt.Errorf("line %d: %w", lines+1, err)
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			lines++
		}
		if readErr != nil {
			log.Debug(log.CatRender, "Input exhausted", "lines", lines)
			return nil
		}
	}
}
