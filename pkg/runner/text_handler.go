package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// TextHandler prints the dialogue as plain text and reads commands line by line.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	mu           sync.Mutex
	header       string
	printed      int
	midLine      bool
	bodyDone     bool
	choicesShown bool

	lines     chan lineResult
	startOnce sync.Once
}

type lineResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.lines = make(chan lineResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honour ctx.
func (h *TextHandler) pump() {
	defer close(h.lines)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.lines <- lineResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.lines <- lineResult{err: err}
			}
			return
		}
	}
}

// Output prints the header of a new view, the newly revealed part of the body,
// the choices once the body is complete and every dispatched action.
func (h *TextHandler) Output(ctx context.Context, frame Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	if frame.Fresh {
		h.endLine(&b)
		h.printed, h.bodyDone, h.choicesShown = 0, false, false
		if frame.View.Header != "" && frame.View.Header != h.header {
			b.WriteString(frame.View.Header)
		}
		h.header = frame.View.Header
	}

	for _, a := range frame.Actions {
		h.endLine(&b)
		fmt.Fprintf(&b, "* %s\n", strings.TrimSpace(a.Name+" "+strings.Join(a.Args, " ")))
	}

	if !frame.View.Busy {
		h.writeBody(&b, frame)
		if frame.Complete() && !h.choicesShown && len(frame.View.Choices) > 0 {
			h.endLine(&b)
			for i, c := range frame.View.Choices {
				if c.Enabled {
					fmt.Fprintf(&b, "%d) %s\n", i+1, c.Text)
				} else {
					fmt.Fprintf(&b, "%d) %s (unavailable)\n", i+1, c.Text)
				}
			}
			h.choicesShown = true
		}
	}

	_, err := io.WriteString(h.Writer, b.String())
	return err
}

func (h *TextHandler) writeBody(b *strings.Builder, frame Frame) {
	if h.bodyDone || frame.View.Body == "" {
		return
	}
	body := []rune(frame.View.Body)
	if h.Renderer != nil {
		if !frame.Complete() {
			return
		}
		out := string(body)
		if rendered, err := h.Renderer(out); err == nil {
			out = rendered
		}
		h.endLine(b)
		b.WriteString(strings.TrimSpace(out))
		b.WriteString("\n")
		h.bodyDone = true
		return
	}
	visible := min(frame.Visible, len(body))
	if visible > h.printed {
		b.WriteString(string(body[h.printed:visible]))
		h.printed = visible
		h.midLine = true
	}
	if frame.Complete() {
		h.endLine(b)
		h.bodyDone = true
	}
}

func (h *TextHandler) endLine(b *strings.Builder) {
	if h.midLine {
		b.WriteString("\n")
		h.midLine = false
	}
}

// Input returns the next valid command. Invalid lines are reported and skipped.
func (h *TextHandler) Input(ctx context.Context) (Command, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return Command{}, ctx.Err()
		case res, ok := <-h.lines:
			if !ok {
				return Command{}, io.EOF
			}
			if res.err != nil {
				return Command{}, res.err
			}
			clean, err := SanitizeInput(res.text)
			if err == nil {
				var cmd Command
				if cmd, err = ParseCommand(clean); err == nil {
					return cmd, nil
				}
			}
			_ = h.SystemOutput(ctx, fmt.Sprintf("%v. Press enter to continue, type a number to choose or q to quit.", err))
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	h.endLine(&b)
	fmt.Fprintf(&b, "[System] %s\n", msg)
	_, err := io.WriteString(h.Writer, b.String())
	return err
}
