package runtime

import (
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/google/uuid"
)

// DialogueState is the navigation state of one active node. It owns a copy
// of the node; a jump replaces the whole state.
type DialogueState struct {
	SessionID string
	Path      string
	Node      domain.Node

	// TextIndex points into the node's text items.
	TextIndex     int
	ChoiceStack   []int
	ChoicesBroken bool

	selected   int
	executed   map[int]struct{}
	pendingRun int
	// version changes whenever a different text item becomes current.
	version int

	texts     []int
	choiceIdx int
	choicePos int
}

// NewDialogueState copies node and positions the cursor on its first text.
// Run items ahead of the first text are pending immediately.
func NewDialogueState(path string, node domain.Node) *DialogueState {
	s := &DialogueState{
		SessionID:  uuid.Must(uuid.NewV7()).String(),
		Path:       path,
		Node:       node.Clone(),
		selected:   -1,
		executed:   make(map[int]struct{}),
		pendingRun: 0,
		choiceIdx:  -1,
	}
	for i, item := range s.Node.Content {
		switch item.Type {
		case domain.ContentText:
			s.texts = append(s.texts, i)
		case domain.ContentChoice:
			if s.choiceIdx < 0 {
				s.choiceIdx = i
				s.choicePos = len(s.texts)
			}
		}
	}
	return s
}

// TextCount is the number of text items in the node.
func (s *DialogueState) TextCount() int {
	return len(s.texts)
}

// CurrentText returns the current text item and its content index.
func (s *DialogueState) CurrentText() (*domain.ContentItem, int, bool) {
	if s.TextIndex < 0 || s.TextIndex >= len(s.texts) {
		return nil, -1, false
	}
	idx := s.texts[s.TextIndex]
	return &s.Node.Content[idx], idx, true
}

func (s *DialogueState) currentContentIndex() int {
	if _, idx, ok := s.CurrentText(); ok {
		return idx
	}
	return -1
}

// Version identifies the current text activation.
func (s *DialogueState) Version() int {
	return s.version
}

// HasChoices reports whether the node offers choices that were not broken out of.
func (s *DialogueState) HasChoices() bool {
	return s.choiceIdx >= 0 && !s.ChoicesBroken
}

// AtChoicePoint reports whether the current text is the last one before the choices.
func (s *DialogueState) AtChoicePoint() bool {
	return s.HasChoices() && s.TextIndex+1 >= s.choicePos
}

// ChoiceBeforeText reports whether the pending choices precede every text,
// in which case the current text is hidden until they resolve.
func (s *DialogueState) ChoiceBeforeText() bool {
	return s.HasChoices() && s.choicePos == 0
}

// CurrentChoices returns the options at the current nesting level.
func (s *DialogueState) CurrentChoices() []domain.Choice {
	if !s.HasChoices() {
		return nil
	}
	choices := s.Node.Content[s.choiceIdx].Options
	for _, idx := range s.ChoiceStack {
		if idx < 0 || idx >= len(choices) {
			return nil
		}
		choices = choices[idx].Choice
	}
	return choices
}

// Selected returns the choice awaiting confirmation, or -1.
func (s *DialogueState) Selected() int {
	return s.selected
}

// Select records index for confirmation without navigating.
func (s *DialogueState) Select(index int) error {
	choices := s.CurrentChoices()
	if index < 0 || index >= len(choices) {
		return fmt.Errorf("%w: %d of %d", domain.ErrInvalidSelection, index, len(choices))
	}
	s.selected = index
	return nil
}

// Advance moves to the next text, reports that choices block, or exits the node.
func (s *DialogueState) Advance() domain.AdvanceOutcome {
	cur := s.currentContentIndex()
	if s.AtChoicePoint() {
		if s.hasPendingRunsAfter(cur) {
			s.pendingRun = cur + 1
			return domain.AdvanceOutcome{Kind: domain.Advanced}
		}
		return domain.AdvanceOutcome{Kind: domain.AdvanceWaitingOnChoice}
	}
	if s.TextIndex+1 < len(s.texts) {
		s.TextIndex++
		s.pendingRun = cur + 1
		s.version++
		return domain.AdvanceOutcome{Kind: domain.Advanced}
	}
	if s.hasPendingRunsAfter(cur) {
		s.pendingRun = cur + 1
		return domain.AdvanceOutcome{Kind: domain.Advanced}
	}
	return s.exit()
}

func (s *DialogueState) exit() domain.AdvanceOutcome {
	switch s.Node.Next {
	case "", domain.NextReturn:
		return domain.AdvanceOutcome{Kind: domain.AdvanceEnded}
	default:
		return domain.AdvanceOutcome{Kind: domain.AdvanceJump, Node: s.Node.Next}
	}
}

// BreakChoices abandons the choices of this node for good and continues with
// the text that follows them.
func (s *DialogueState) BreakChoices() domain.AdvanceOutcome {
	hidden := s.ChoiceBeforeText()
	s.ChoiceStack = nil
	s.ChoicesBroken = true
	s.selected = -1
	if hidden && len(s.texts) > 0 {
		s.pendingRun = s.choiceIdx + 1
		s.version++
		return domain.AdvanceOutcome{Kind: domain.Advanced}
	}
	return s.Advance()
}

// ResolutionKind is the branch taken by a confirmed choice.
type ResolutionKind int

const (
	ResolveEnd ResolutionKind = iota
	ResolveReturn
	ResolveBreak
	ResolveNested
	ResolveNext
)

// Resolution describes a confirmed choice.
type Resolution struct {
	Kind   ResolutionKind
	Index  int
	Choice domain.Choice
	// Node is the jump target for ResolveNext.
	Node string
	// Advance is the follow-up navigation after a break.
	Advance domain.AdvanceOutcome
}

// Confirm commits the selected choice. Precedence is action, then nested
// choices, then next, then end; only the first match applies.
func (s *DialogueState) Confirm() (Resolution, error) {
	if s.selected < 0 {
		return Resolution{}, domain.ErrNoSelection
	}
	choices := s.CurrentChoices()
	index := s.selected
	s.selected = -1
	if index >= len(choices) {
		return Resolution{}, fmt.Errorf("%w: %d of %d", domain.ErrInvalidSelection, index, len(choices))
	}
	ch := choices[index]
	res := Resolution{Index: index, Choice: ch}

	switch {
	case ch.Action == domain.ChoiceActionReturn:
		res.Kind = ResolveReturn
	case ch.Action == domain.ChoiceActionBreak:
		res.Kind = ResolveBreak
		res.Advance = s.BreakChoices()
	case len(ch.Choice) > 0:
		res.Kind = ResolveNested
		s.ChoiceStack = append(s.ChoiceStack, index)
	case ch.Next == domain.NextReturn:
		res.Kind = ResolveReturn
	case ch.Next != "":
		res.Kind = ResolveNext
		res.Node = ch.Next
	default:
		res.Kind = ResolveEnd
	}
	return res, nil
}

// MarkExecuted records a run item as done. It returns false when the item
// had already been executed.
func (s *DialogueState) MarkExecuted(contentIndex int) bool {
	if _, done := s.executed[contentIndex]; done {
		return false
	}
	s.executed[contentIndex] = struct{}{}
	return true
}

// IsExecuted reports whether the run item at contentIndex already ran.
func (s *DialogueState) IsExecuted(contentIndex int) bool {
	_, done := s.executed[contentIndex]
	return done
}

// TakePendingRun returns and clears the position the sequencer should scan from.
func (s *DialogueState) TakePendingRun() (int, bool) {
	if s.pendingRun < 0 {
		return 0, false
	}
	pos := s.pendingRun
	s.pendingRun = -1
	return pos, true
}

// CollectRuns returns the content indices of unexecuted run items from
// position onwards, stopping at the next text. An unresolved choice also
// stops the scan; once choices are broken they are stepped over. Run items
// pinned to a text index are left to that text's events.
func (s *DialogueState) CollectRuns(from int) []int {
	if from < 0 {
		from = 0
	}
	var out []int
	for i := from; i < len(s.Node.Content); i++ {
		item := s.Node.Content[i]
		if item.Type == domain.ContentText {
			break
		}
		if s.HasChoices() && i >= s.choiceIdx {
			break
		}
		if !item.IsRun() || item.IndexOverride != nil || s.IsExecuted(i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (s *DialogueState) hasPendingRunsAfter(contentIndex int) bool {
	return len(s.CollectRuns(contentIndex+1)) > 0
}

// Snapshot exports the navigation fields.
func (s *DialogueState) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:     s.SessionID,
		Path:          s.Path,
		Node:          s.Node.Name,
		TextIndex:     s.TextIndex,
		ChoiceStack:   append([]int(nil), s.ChoiceStack...),
		ChoicesBroken: s.ChoicesBroken,
		UpdatedAt:     time.Now(),
	}
	if s.selected >= 0 {
		sel := s.selected
		snap.SelectedChoice = &sel
	}
	for idx := range s.executed {
		snap.Executed = append(snap.Executed, idx)
	}
	sort.Ints(snap.Executed)
	return snap
}

// RestoreDialogueState rebuilds navigation state for node from a snapshot.
// Nothing is left pending: run items that had not executed stay unexecuted
// until the player advances past them again.
func RestoreDialogueState(snap domain.Snapshot, node domain.Node) *DialogueState {
	s := NewDialogueState(snap.Path, node)
	if snap.SessionID != "" {
		s.SessionID = snap.SessionID
	}
	s.pendingRun = -1
	if snap.TextIndex >= 0 && snap.TextIndex < len(s.texts) {
		s.TextIndex = snap.TextIndex
	}
	s.ChoiceStack = append([]int(nil), snap.ChoiceStack...)
	s.ChoicesBroken = snap.ChoicesBroken
	if snap.SelectedChoice != nil {
		s.selected = *snap.SelectedChoice
	}
	for _, idx := range snap.Executed {
		s.executed[idx] = struct{}{}
	}
	return s
}
