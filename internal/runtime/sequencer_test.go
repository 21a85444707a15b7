package runtime_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/internal/runtime"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/dsl"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(actions []domain.DispatchedAction) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Name)
	}
	return out
}

func runItem(kind domain.ContentType, name string) domain.ContentItem {
	return domain.ContentItem{Type: kind, Name: name}
}

func TestSequencer_IgnoreDurationTimeline(t *testing.T) {
	b := dsl.New("seq")
	b.TimedEvent("A", 1.0, "a").
		TimedEvent("B", 2.0, "b").
		Event("C", "c")
	b.Timeline("T").Run("A").RunNow("B").Wait(0.5).Run("C")
	program, err := b.Program()
	require.NoError(t, err)

	seq := runtime.NewSequencer(nil)
	out := seq.Schedule("s1", program, "N", []domain.ContentItem{runItem(domain.ContentRunTimeline, "T")})
	assert.Equal(t, []string{"a", "b"}, names(out))
	assert.True(t, seq.Executing())

	assert.Empty(t, seq.Tick("s1", 250*time.Millisecond))
	out = seq.Tick("s1", 250*time.Millisecond)
	assert.Equal(t, []string{"c"}, names(out))
	assert.False(t, seq.Executing())

	for _, a := range out {
		assert.Equal(t, domain.SourceRun, a.Source)
		assert.Equal(t, "N", a.Node)
	}
}

func TestSequencer_TrailingDurationDoesNotBlock(t *testing.T) {
	b := dsl.New("seq")
	b.TimedEvent("slow", 3, "slow")
	program, _ := b.Program()

	seq := runtime.NewSequencer(nil)
	out := seq.Schedule("s1", program, "N", []domain.ContentItem{runItem(domain.ContentRunEvent, "slow")})
	assert.Equal(t, []string{"slow"}, names(out))
	assert.False(t, seq.Executing())
}

func TestSequencer_StaleSessionIsDiscarded(t *testing.T) {
	b := dsl.New("seq")
	b.TimedEvent("A", 1, "a").Event("B", "b")
	program, _ := b.Program()

	seq := runtime.NewSequencer(nil)
	seq.Schedule("old", program, "N", []domain.ContentItem{
		runItem(domain.ContentRunEvent, "A"),
		runItem(domain.ContentRunEvent, "B"),
	})
	require.True(t, seq.Executing())

	assert.Empty(t, seq.Tick("new", 5*time.Second))
	assert.False(t, seq.Executing())
}

func TestSequencer_CancelDropsPending(t *testing.T) {
	b := dsl.New("seq")
	b.TimedEvent("A", 1, "a").Event("B", "b")
	program, _ := b.Program()

	seq := runtime.NewSequencer(nil)
	seq.Schedule("s", program, "N", []domain.ContentItem{
		runItem(domain.ContentRunEvent, "A"),
		runItem(domain.ContentRunEvent, "B"),
	})
	seq.Cancel()
	assert.False(t, seq.Executing())
	assert.Empty(t, seq.Tick("s", time.Hour))
}

func TestSequencer_MissingTargetWarns(t *testing.T) {
	var buf bytes.Buffer
	b := dsl.New("seq")
	b.Event("known", "k")
	b.Timeline("T").Run("ghost").Run("known")
	program, _ := b.Program()

	seq := runtime.NewSequencer(logging.NewWithWriter(&buf, slog.LevelDebug))
	out := seq.Schedule("s", program, "N", []domain.ContentItem{
		runItem(domain.ContentRunEvent, "nowhere"),
		runItem(domain.ContentRunTimeline, "T"),
	})
	assert.Equal(t, []string{"k"}, names(out))
	assert.Contains(t, buf.String(), "Run target not found")
	assert.Contains(t, buf.String(), "Timeline event not found")
}

func TestSequencer_RunEventFallsBackToTimeline(t *testing.T) {
	b := dsl.New("seq")
	b.Event("x", "x")
	b.Timeline("intro").Run("x").Run("x")
	program, _ := b.Program()

	seq := runtime.NewSequencer(nil)
	out := seq.Schedule("s", program, "N", []domain.ContentItem{runItem(domain.ContentRunEvent, "intro")})
	assert.Equal(t, []string{"x", "x"}, names(out))
}

func TestSequencer_DispatchTrace(t *testing.T) {
	b := dsl.New("seq")
	b.TimedEvent("A", 1.0, "a").
		TimedEvent("B", 2.0, "b").
		Event("C", "c", `"x"`, "y")
	b.Timeline("T").Run("A").RunNow("B").Wait(0.5).Run("C")
	b.Timeline("U").Run("A").Run("C").Wait(0.2).Run("B").Run("C")
	program, err := b.Program()
	require.NoError(t, err)

	var buf bytes.Buffer
	record := func(ms int, actions []domain.DispatchedAction) {
		for _, a := range actions {
			fmt.Fprintf(&buf, "t=%dms %s(%s)\n", ms, a.Name, strings.Join(a.Args, ","))
		}
	}

	seq := runtime.NewSequencer(nil)
	record(0, seq.Schedule("s", program, "N", []domain.ContentItem{
		runItem(domain.ContentRunTimeline, "T"),
		runItem(domain.ContentRunEvent, "C"),
		runItem(domain.ContentRunTimeline, "U"),
	}))
	for ms := 100; ms <= 4000; ms += 100 {
		record(ms, seq.Tick("s", 100*time.Millisecond))
	}
	assert.False(t, seq.Executing())

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "dispatch_trace", buf.Bytes())
}
