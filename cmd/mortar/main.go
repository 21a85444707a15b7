// Command mortar plays, checks and serves compiled Mortar dialogue programs.
package main

func main() {
	Execute()
}
