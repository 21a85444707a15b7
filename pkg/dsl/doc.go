/*
Package dsl provides a Go DSL for programmatically constructing Mortar programs.

It allows developers to define dialogue programs using a type-safe, fluent builder
instead of compiled JSON or YAML files. This is particularly useful for unit testing
and for hosts that generate dialogue at runtime.

Example usage:

	b := dsl.New("intro.mortared")
	b.Var("name", "String", "Traveler")

	b.Add("Start").
		Text("Hello, {name}!").
		Choice(
			dsl.Option("Go on", "End"),
			dsl.Return("Leave"),
		)

	b.Add("End").
		Text("Goodbye!")

	loader, err := b.Build()
	// ... pass loader to mortar.New(mortar.WithLoader(loader))
*/
package dsl
