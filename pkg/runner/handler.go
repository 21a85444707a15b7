package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/mortar/pkg/domain"
)

// Frame is one presentation update.
type Frame struct {
	View domain.Rendered `json:"view"`
	// Visible is the number of body characters revealed so far.
	Visible int `json:"visible"`
	// Fresh marks the first frame of a new view.
	Fresh   bool                      `json:"fresh,omitempty"`
	Actions []domain.DispatchedAction `json:"actions,omitempty"`
}

// Complete reports whether the whole body is revealed.
func (f Frame) Complete() bool {
	return f.Visible >= utf8.RuneCountInString(f.View.Body)
}

// CommandKind is what the player asked for.
type CommandKind int

const (
	// CommandNext completes the typewriter, or advances when the text is fully shown.
	CommandNext CommandKind = iota
	// CommandChoose selects and confirms a choice.
	CommandChoose
	// CommandQuit stops the dialogue.
	CommandQuit
)

// Command is a parsed line of player input.
type Command struct {
	Kind CommandKind
	// Index is the zero-based choice for CommandChoose.
	Index int
}

// ParseCommand reads the line syntax shared by the handlers: an empty line is
// next, a number picks the choice with that 1-based label and "q" quits.
func ParseCommand(line string) (Command, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "", "n", "next":
		return Command{Kind: CommandNext}, nil
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return Command{}, fmt.Errorf("unknown command %q", line)
	}
	return Command{Kind: CommandChoose, Index: n - 1}, nil
}

// IOHandler presents frames and reads commands.
type IOHandler interface {
	Output(ctx context.Context, frame Frame) error
	// Input blocks until the next command. io.EOF ends the run.
	Input(ctx context.Context) (Command, error)
	// SystemOutput shows a message that is not part of the dialogue.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a fully revealed body before display (markdown, styling).
type ContentRenderer func(string) (string, error)
