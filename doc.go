/*
Package mortar is a runtime for compiled branching dialogue scripts.

A program is a set of named nodes. Each node holds ordered content: text
lines with placeholders and conditions, choice menus, and run items that
trigger named events or timelines. The engine walks that content for one
session at a time, evaluates conditions against session variables, and
hands the host two streams: what to display, and which actions to perform.

# Host loop

The host owns the clock and the screen. A typical frame looks like this:

	eng, err := mortar.New("./assets")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx, "intro.mortared", "Start"); err != nil {
		log.Fatal(err)
	}

	for eng.Active() {
		for _, act := range eng.Poll(ctx, frame) {
			play(act) // sounds, camera, animations...
		}
		view, _ := eng.Render(ctx)
		shown := typewriter.Advance(frame)
		eng.SetProgress(shown) // fires text events the cursor crossed
		draw(view, shown)
		handleInput(eng) // Advance, Select, Confirm or Stop
	}

# Pacing

Run items are executed by a sequencer. Events with a duration hold the
sequence; while it executes, Render reports Busy and Advance does not move.
Text events fire when the progress cursor passes their index in the
rendered body, after placeholders have been substituted.

# Adapters

Programs are loaded through ports.ProgramLoader (file, memory). Sessions are
persisted with Snapshot and Restore through ports.SnapshotStore (file, memory,
redis). pkg/session serializes access per session, pkg/adapters/http serves
the engine over JSON, and pkg/runner drives it from a terminal.
*/
package mortar
