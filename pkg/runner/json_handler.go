package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Message is one NDJSON line written by JSONHandler.
type Message struct {
	Type string `json:"type"`
	*Frame
	Message string `json:"message,omitempty"`
}

// Message types.
const (
	MessageFrame  = "frame"
	MessageSystem = "system"
	MessageError  = "error"
)

// JSONRequest is one NDJSON line accepted by JSONHandler. Plain strings and
// raw lines use the text syntax instead.
type JSONRequest struct {
	Command string `json:"command"`
	// Index is zero-based.
	Index *int `json:"index,omitempty"`
}

// JSONHandler implements IOHandler over JSON Lines. Typewriter frames are
// coalesced: a line is written for a new view, for dispatched actions and
// when the body becomes complete.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu       sync.Mutex
	complete bool
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, frame Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if frame.Fresh {
		h.complete = false
	}
	reached := frame.Complete() && !h.complete
	if !frame.Fresh && !reached && len(frame.Actions) == 0 {
		return nil
	}
	if reached {
		h.complete = true
	}
	return h.Encoder.Encode(Message{Type: MessageFrame, Frame: &frame})
}

// Input reads the next command. Malformed lines are answered with an error
// message and skipped.
func (h *JSONHandler) Input(ctx context.Context) (Command, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Command{}, err
		}
		line, err := h.Reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return Command{}, err
		}
		cmd, perr := decodeCommand(line)
		if perr == nil {
			return cmd, nil
		}
		if werr := h.write(Message{Type: MessageError, Message: perr.Error()}); werr != nil {
			return Command{}, werr
		}
		if err != nil {
			return Command{}, err
		}
	}
}

func decodeCommand(line string) (Command, error) {
	line, err := SanitizeInput(line)
	if err != nil {
		return Command{}, err
	}
	if strings.HasPrefix(line, "{") {
		var req JSONRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return Command{}, fmt.Errorf("invalid request: %w", err)
		}
		switch strings.ToLower(req.Command) {
		case "next", "":
			return Command{Kind: CommandNext}, nil
		case "quit", "stop":
			return Command{Kind: CommandQuit}, nil
		case "choose", "select":
			if req.Index == nil || *req.Index < 0 {
				return Command{}, fmt.Errorf("command %q needs a non-negative index", req.Command)
			}
			return Command{Kind: CommandChoose, Index: *req.Index}, nil
		}
		return Command{}, fmt.Errorf("unknown command %q", req.Command)
	}
	var text string
	if err := json.Unmarshal([]byte(line), &text); err == nil {
		line = text
	}
	return ParseCommand(line)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.write(Message{Type: MessageSystem, Message: msg})
}

func (h *JSONHandler) write(m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(m)
}
