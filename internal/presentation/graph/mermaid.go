package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/mortar/pkg/domain"
)

// endID is the synthetic node every "return" and dead end points to.
const endID = "__end"

// GraphOverlay contains session data to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for a program:
// - First node: ((Circle))
// - Node with choices: {{Hexagon}}
// - Node running events or timelines: [[Subroutine]]
// - Default: [Rectangle]
// Choice edges carry the option text; guarded options use dotted edges.
func GenerateMermaid(p *domain.Program, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ends := false
	for i, node := range p.Nodes {
		safeID := sanitizeMermaidID(node.Name)
		opener, closer := shape(node)
		if i == 0 {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(node.Name), closer)

		choices := contentChoices(node)
		edges := choiceEdges(nil, choices)
		switch {
		case node.Next != "":
			edges = append(edges, edge{to: node.Next})
		case len(edges) == 0 || resumes(choices):
			edges = append(edges, edge{to: domain.NextReturn})
		}
		for _, e := range edges {
			to := sanitizeMermaidID(e.to)
			if e.to == domain.NextReturn {
				to = endID
				ends = true
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, e.arrow(), to))
		}
	}
	if ends {
		fmt.Fprintf(&sb, "    %s((\"end\"))\n", endID)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, name := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(name)
			if safeID != "" && !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

type edge struct {
	to      string
	label   string
	guarded bool
}

func (e edge) arrow() string {
	switch {
	case e.label == "" && e.guarded:
		return "-.->"
	case e.label == "":
		return "-->"
	case e.guarded:
		return fmt.Sprintf("-. \"%s\" .->", escape(e.label))
	}
	return fmt.Sprintf("-- \"%s\" -->", escape(e.label))
}

func contentChoices(n domain.Node) []domain.Choice {
	var out []domain.Choice
	for _, item := range n.Content {
		if item.Type == domain.ContentChoice {
			out = append(out, item.Options...)
		}
	}
	return out
}

// choiceEdges flattens nested options; labels join the path with " / ".
// Break options resume the node and have no edge.
func choiceEdges(prefix []string, options []domain.Choice) []edge {
	var out []edge
	for _, ch := range options {
		path := append(append([]string(nil), prefix...), ch.Text)
		guarded := ch.Condition != nil
		switch {
		case ch.Action == domain.ChoiceActionReturn:
			out = append(out, edge{to: domain.NextReturn, label: strings.Join(path, " / "), guarded: guarded})
		case ch.Action == domain.ChoiceActionBreak:
		case len(ch.Choice) > 0:
			out = append(out, choiceEdges(path, ch.Choice)...)
		case ch.Next != "":
			out = append(out, edge{to: ch.Next, label: strings.Join(path, " / "), guarded: guarded})
		default:
			out = append(out, edge{to: domain.NextReturn, label: strings.Join(path, " / "), guarded: guarded})
		}
	}
	return out
}

// resumes reports whether some option falls through to the rest of the node.
func resumes(options []domain.Choice) bool {
	for _, ch := range options {
		if ch.Action == domain.ChoiceActionBreak || resumes(ch.Choice) {
			return true
		}
	}
	return false
}

func shape(n domain.Node) (string, string) {
	if len(contentChoices(n)) > 0 {
		return "{{", "}}"
	}
	for _, item := range n.Content {
		if item.IsRun() {
			return "[[", "]]"
		}
	}
	return "[", "]"
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
