/*
Package runner hosts a Mortar dialogue in a terminal or behind a pipe.

The Runner is a fixed-step loop. Every tick it moves a typewriter cursor by
CPS characters per second, feeds it to the engine with SetProgress, polls for
dispatched actions and hands a Frame to an IOHandler. Player input arrives on
a separate goroutine as Commands:

  - an empty line completes the typewriter, then advances;
  - a number selects and confirms the choice with that label;
  - q stops the dialogue.

Two handlers ship with the package. TextHandler prints plain text (optionally
through a ContentRenderer such as glamour); JSONHandler speaks NDJSON for
scripted hosts. Step and Apply are exported so hosts with their own loop can
drive a Runner frame by frame.

# Usage

	r := runner.NewRunner(
		runner.WithCPS(30),
		runner.WithSession(manager, "player-1"),
	)
	if _, err := r.Begin(ctx, engine, "intro.mortared", "Start"); err != nil {
		return err
	}
	return r.Run(ctx, engine)
*/
package runner
