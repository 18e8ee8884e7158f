package highlight

import (
	"cmp"
	"io"
	"slices"

	"github.com/muesli/termenv"

	"github.com/zjrosen/recolor/internal/style"
)

type eventKind uint8

// Pops sort before pushes at the same offset.
const (
	popEvent eventKind = iota
	pushEvent
)

type event struct {
	kind  eventKind
	span  int         // index of the span that produced the event
	end   int         // span end, used to order pushes
	style style.Style // set for pushEvent only
}

type entry struct {
	span  int
	style style.Style
}

// Renderer draws a line with its spans overlaid.
//
// Spans are turned into push/pop events keyed by offset and swept left to
// right over a stack of styles; the top of the stack is the style in effect.
// Nested spans therefore draw the inner style over the inner range only and
// the outer style resumes after it. A Renderer reuses its event table and
// stack between lines and must not be shared between goroutines.
type Renderer struct {
	profile termenv.Profile
	events  map[int][]event
	stack   []entry
}

// NewRenderer returns a renderer emitting escape sequences for profile.
func NewRenderer(profile termenv.Profile) *Renderer {
	return &Renderer{
		profile: profile,
		events:  make(map[int][]event),
	}
}

// Render writes line with spans applied, followed by a newline.
//
// At each offset the spans ending there are closed before the spans starting
// there are opened, widest first, so the narrowest span is drawn on top. A
// span is closed by its own stack entry, which keeps partially overlapping
// spans (look-around captures) from closing each other.
func (r *Renderer) Render(w io.Writer, line string, spans []Span) error {
	clear(r.events)
	r.stack = r.stack[:0]

	for i, s := range spans {
		if s.Start >= s.End {
			// An empty span styles nothing but still ends the current run.
			if _, ok := r.events[s.Start]; !ok {
				r.events[s.Start] = nil
			}
			continue
		}
		r.events[s.Start] = append(r.events[s.Start], event{kind: pushEvent, span: i, end: s.End, style: s.Style})
		r.events[s.End] = append(r.events[s.End], event{kind: popEvent, span: i, end: s.End})
	}

	run := 0
	if len(r.events) > 0 {
		for pos := range line {
			evs, ok := r.events[pos]
			if !ok {
				continue
			}
			if err := r.flush(w, line[run:pos]); err != nil {
				return err
			}
			run = pos
			r.apply(evs)
		}
	}

	if err := r.flush(w, line[run:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (r *Renderer) apply(evs []event) {
	slices.SortStableFunc(evs, func(a, b event) int {
		return cmp.Or(cmp.Compare(a.kind, b.kind), cmp.Compare(b.end, a.end))
	})
	for _, ev := range evs {
		switch ev.kind {
		case pushEvent:
			r.stack = append(r.stack, entry{span: ev.span, style: ev.style})
		case popEvent:
			r.pop(ev.span)
		}
	}
}

// pop removes the entry opened by span, searching from the top.
func (r *Renderer) pop(span int) {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].span == span {
			r.stack = slices.Delete(r.stack, i, i+1)
			return
		}
	}
}

// flush writes text under the style currently on top of the stack.
func (r *Renderer) flush(w io.Writer, text string) error {
	if text == "" {
		return nil
	}
	if len(r.stack) == 0 {
		_, err := io.WriteString(w, text)
		return err
	}
	_, err := io.WriteString(w, r.stack[len(r.stack)-1].style.Render(r.profile, text))
	return err
}
