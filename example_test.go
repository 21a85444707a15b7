package mortar_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/mortar"
	"github.com/aretw0/mortar/pkg/dsl"
)

// ExampleNew_memory runs a small program built in code.
func ExampleNew_memory() {
	b := dsl.New("intro.mortared")
	b.Var("name", "String", "Ada")
	b.Event("chime", "play_sound", `"chime.wav"`)
	b.Add("Start").
		RunEvent("chime").
		Text("Hello, {name}!").
		Choice(dsl.Option("Continue", "End"), dsl.Return("Leave"))
	b.Add("End").Text("Goodbye.")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := mortar.New("", mortar.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := eng.Start(ctx, "intro.mortared", "Start"); err != nil {
		log.Fatal(err)
	}

	for _, act := range eng.Poll(ctx, 0) {
		fmt.Println("action:", act.Name, act.Args)
	}

	view, _ := eng.Render(ctx)
	fmt.Print(view.Header)
	fmt.Println(view.Body)
	for _, c := range view.Choices {
		fmt.Printf("%d) %s\n", c.Index, c.Text)
	}

	if err := eng.Select(0); err != nil {
		log.Fatal(err)
	}
	out, err := eng.Confirm(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Kind, out.Node)

	view, _ = eng.Render(ctx)
	fmt.Println(view.Body)
	fmt.Println(eng.Advance(ctx).Kind)

	// Output:
	// action: play_sound [chime.wav]
	// [intro.mortared / Start]
	//
	// Hello, Ada!
	// 0) Continue
	// 1) Leave
	// jump End
	// Goodbye.
	// ended
}
