package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  __  __            _`,
	` |  \/  | ___  _ __| |_ __ _ _ __`,
	` | |\/| |/ _ \| '__| __/ _' | '__|`,
	` | |  | | (_) | |  | || (_| | |`,
	` |_|  |_|\___/|_|   \__\__,_|_|`,
}

// Warm clay to brick, one color per line.
var bannerColors = []string{"#fbbf24", "#f59e0b", "#ea580c", "#c2410c", "#9a3412"}

// PrintBanner writes the Mortar banner and version to w. Colors are dropped
// when w is not a color terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String(" v"+version).Faint())
	fmt.Fprintln(w)
}
