package runtime

import (
	"sort"

	"github.com/aretw0/mortar/pkg/domain"
)

// EventTracker fires text events as the host's progress cursor moves forward.
// Each event fires at most once until Reset.
type EventTracker struct {
	events []domain.Event
	fired  []bool
	count  int
}

// NewEventTracker orders events by trigger index, keeping the authored order for ties.
func NewEventTracker(events []domain.Event) *EventTracker {
	sorted := domain.CloneEvents(events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})
	return &EventTracker{
		events: sorted,
		fired:  make([]bool, len(sorted)),
	}
}

// TriggerAt returns the actions of every unfired event with index <= cursor,
// in ascending index order.
func (t *EventTracker) TriggerAt(cursor float64) []domain.Action {
	var actions []domain.Action
	for i, e := range t.events {
		if e.Index > cursor {
			break
		}
		if t.fired[i] {
			continue
		}
		t.fired[i] = true
		t.count++
		for _, a := range e.Actions {
			actions = append(actions, a.Clone())
		}
	}
	return actions
}

// Reset allows every event to fire again.
func (t *EventTracker) Reset() {
	for i := range t.fired {
		t.fired[i] = false
	}
	t.count = 0
}

// FiredCount is the number of events fired since the last Reset.
func (t *EventTracker) FiredCount() int {
	return t.count
}

// Events returns the tracked events in firing order.
func (t *EventTracker) Events() []domain.Event {
	return domain.CloneEvents(t.events)
}
