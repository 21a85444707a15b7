// Package validator statically checks compiled programs for links the
// runtime would only discover (and warn about) while a dialogue is running.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/ports"
)

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding.
type Issue struct {
	Severity Severity
	Node     string
	Message  string
}

func (i Issue) String() string {
	if i.Node == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: node %q: %s", i.Severity, i.Node, i.Message)
}

// Report collects the issues of one program.
type Report struct {
	Path   string
	Issues []Issue
}

// Errors returns the error-level issues.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err joins the error-level issues, or returns nil.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, 0, len(errs))
	for _, i := range errs {
		lines = append(lines, i.String())
	}
	return fmt.Errorf("%s: found %d errors:\n- %s", r.Path, len(errs), strings.Join(lines, "\n- "))
}

type checker struct {
	program  *domain.Program
	report   Report
	declared map[string]bool
}

// Validate checks p. Errors are dangling successors, duplicate node names and
// run items or timeline steps naming undefined events or timelines.
// Unreachable nodes and conditions on undeclared identifiers are warnings.
func Validate(p *domain.Program) Report {
	c := &checker{
		program:  p,
		report:   Report{Path: p.Path},
		declared: make(map[string]bool),
	}
	for _, v := range p.Variables {
		c.declared[v.Name] = true
	}
	for _, k := range p.Constants {
		c.declared[k.Name] = true
	}

	if len(p.Nodes) == 0 {
		c.add(SeverityError, "", "program has no nodes")
		return c.report
	}

	seen := make(map[string]bool)
	for _, n := range p.Nodes {
		if seen[n.Name] {
			c.add(SeverityError, n.Name, "duplicate node name")
		}
		seen[n.Name] = true
	}

	for _, n := range p.Nodes {
		c.checkNode(n)
	}
	for _, tl := range p.Timelines {
		for i, st := range tl.Statements {
			if st.Type != domain.TimelineRun {
				continue
			}
			if _, ok := p.EventDef(st.EventName); !ok {
				c.add(SeverityError, "", fmt.Sprintf("timeline %q step %d runs unknown event %q", tl.Name, i, st.EventName))
			}
		}
	}
	c.checkReachable()
	return c.report
}

func (c *checker) add(s Severity, node, msg string) {
	c.report.Issues = append(c.report.Issues, Issue{Severity: s, Node: node, Message: msg})
}

func (c *checker) checkNode(n domain.Node) {
	c.checkTarget(n.Name, n.Next, "next")
	for i, item := range n.Content {
		switch item.Type {
		case domain.ContentRunEvent:
			if _, ok := c.program.EventDef(item.Name); !ok {
				c.add(SeverityError, n.Name, fmt.Sprintf("content %d runs unknown event %q", i, item.Name))
			}
		case domain.ContentRunTimeline:
			if _, ok := c.program.Timeline(item.Name); !ok {
				c.add(SeverityError, n.Name, fmt.Sprintf("content %d runs unknown timeline %q", i, item.Name))
			}
		case domain.ContentText:
			c.checkCondition(n.Name, item.Condition)
		case domain.ContentChoice:
			c.checkChoices(n.Name, item.Options)
		}
	}
}

func (c *checker) checkChoices(node string, options []domain.Choice) {
	for _, ch := range options {
		c.checkCondition(node, ch.Condition)
		if ch.Action == "" && len(ch.Choice) == 0 {
			c.checkTarget(node, ch.Next, fmt.Sprintf("choice %q", ch.Text))
		}
		c.checkChoices(node, ch.Choice)
	}
}

func (c *checker) checkTarget(node, target, what string) {
	if target == "" || target == domain.NextReturn {
		return
	}
	if _, ok := c.program.Node(target); !ok {
		c.add(SeverityError, node, fmt.Sprintf("%s points to unknown node %q", what, target))
	}
}

func (c *checker) checkCondition(node string, cond *domain.Condition) {
	if cond == nil {
		return
	}
	if cond.Type == domain.ConditionIdentifier && !c.declared[cond.Value] {
		c.add(SeverityWarning, node, fmt.Sprintf("condition uses undeclared identifier %q", cond.Value))
	}
	c.checkCondition(node, cond.Left)
	c.checkCondition(node, cond.Right)
	c.checkCondition(node, cond.Operand)
}

// checkReachable crawls successors from the first node.
func (c *checker) checkReachable() {
	visited := make(map[string]bool)
	queue := []string{c.program.Nodes[0].Name}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		n, ok := c.program.Node(name)
		if !ok {
			continue
		}
		queue = append(queue, successors(*n)...)
	}
	for _, n := range c.program.Nodes {
		if !visited[n.Name] {
			c.add(SeverityWarning, n.Name, "unreachable from the first node")
		}
	}
}

func successors(n domain.Node) []string {
	var out []string
	if n.Next != "" && n.Next != domain.NextReturn {
		out = append(out, n.Next)
	}
	var walk func([]domain.Choice)
	walk = func(options []domain.Choice) {
		for _, ch := range options {
			if ch.Next != "" && ch.Next != domain.NextReturn {
				out = append(out, ch.Next)
			}
			walk(ch.Choice)
		}
	}
	for _, item := range n.Content {
		if item.Type == domain.ContentChoice {
			walk(item.Options)
		}
	}
	return out
}

// ErrInvalid is wrapped by ValidateAll when any program has errors.
var ErrInvalid = errors.New("invalid program")

// ValidateAll loads and validates every path. A program that fails to load
// is reported as an error issue.
func ValidateAll(ctx context.Context, loader ports.ProgramLoader, paths []string) ([]Report, error) {
	reports := make([]Report, 0, len(paths))
	failed := 0
	for _, path := range paths {
		p, err := loader.Load(ctx, path)
		var r Report
		if err != nil {
			r = Report{Path: path, Issues: []Issue{{Severity: SeverityError, Message: err.Error()}}}
		} else {
			r = Validate(p)
		}
		if len(r.Errors()) > 0 {
			failed++
		}
		reports = append(reports, r)
	}
	if failed > 0 {
		return reports, fmt.Errorf("%w: %d of %d programs have errors", ErrInvalid, failed, len(paths))
	}
	return reports, nil
}
