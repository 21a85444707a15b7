package dsl

import (
	"fmt"

	"github.com/aretw0/mortar/pkg/adapters/memory"
	"github.com/aretw0/mortar/pkg/domain"
)

// Builder manages the program construction.
type Builder struct {
	program   domain.Program
	nodes     []*NodeBuilder
	index     map[string]*NodeBuilder
	timelines []*domain.TimelineDef
}

// New creates a new program builder for the given path.
func New(path string) *Builder {
	return &Builder{
		program: domain.Program{Path: path},
		index:   make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the program.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.index[name]; ok {
		return nb
	}
	nb := &NodeBuilder{node: domain.Node{Name: name}}
	b.index[name] = nb
	b.nodes = append(b.nodes, nb)
	return nb
}

// Var declares a variable. A nil value takes the type's default.
func (b *Builder) Var(name, typ string, value any) *Builder {
	b.program.Variables = append(b.program.Variables, domain.Variable{Name: name, Type: typ, Value: value})
	return b
}

// Branch declares a Branch variable.
func (b *Builder) Branch(name string, def domain.BranchDef) *Builder {
	payload := map[string]any{"cases": def.Cases}
	if def.EnumType != "" {
		payload["enum_type"] = def.EnumType
	}
	return b.Var(name, "Branch", payload)
}

// Enum declares an enum type.
func (b *Builder) Enum(name string, variants ...string) *Builder {
	b.program.Enums = append(b.program.Enums, domain.Enum{Name: name, Variants: variants})
	return b
}

// Constant declares a constant.
func (b *Builder) Constant(name, typ string, value any, public bool) *Builder {
	b.program.Constants = append(b.program.Constants, domain.Constant{Name: name, Type: typ, Value: value, Public: public})
	return b
}

// Function declares a host function signature.
func (b *Builder) Function(name, returns string, params ...domain.Param) *Builder {
	b.program.Functions = append(b.program.Functions, domain.FunctionDecl{Name: name, Params: params, Return: returns})
	return b
}

// Event declares a named event without a pacing duration.
func (b *Builder) Event(name, action string, args ...string) *Builder {
	b.program.Events = append(b.program.Events, domain.EventDef{
		Name:   name,
		Action: domain.Action{Type: action, Args: args},
	})
	return b
}

// TimedEvent declares a named event that holds the sequence for seconds.
func (b *Builder) TimedEvent(name string, seconds float64, action string, args ...string) *Builder {
	b.program.Events = append(b.program.Events, domain.EventDef{
		Name:     name,
		Action:   domain.Action{Type: action, Args: args},
		Duration: &seconds,
	})
	return b
}

// Timeline declares a named timeline and returns its step builder.
func (b *Builder) Timeline(name string) *TimelineBuilder {
	def := &domain.TimelineDef{Name: name}
	b.timelines = append(b.timelines, def)
	return &TimelineBuilder{def: def}
}

// Program assembles the declared nodes into a domain.Program.
func (b *Builder) Program() (*domain.Program, error) {
	p := b.program
	p.Nodes = make([]domain.Node, 0, len(b.nodes))
	for _, nb := range b.nodes {
		if nb.node.Name == "" {
			return nil, fmt.Errorf("node missing name")
		}
		p.Nodes = append(p.Nodes, nb.node.Clone())
	}
	p.Timelines = make([]domain.TimelineDef, 0, len(b.timelines))
	for _, t := range b.timelines {
		def := *t
		def.Statements = append([]domain.TimelineStmt(nil), t.Statements...)
		p.Timelines = append(p.Timelines, def)
	}
	return &p, nil
}

// Build compiles the program into a MemoryLoader.
func (b *Builder) Build() (*memory.Loader, error) {
	p, err := b.Program()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(p), nil
}

// TimelineBuilder appends steps to a timeline.
type TimelineBuilder struct {
	def *domain.TimelineDef
}

// Run appends a run step using the event's own duration.
func (t *TimelineBuilder) Run(event string) *TimelineBuilder {
	t.def.Statements = append(t.def.Statements, domain.TimelineStmt{Type: domain.TimelineRun, EventName: event})
	return t
}

// RunNow appends a run step flagged ignore_duration.
func (t *TimelineBuilder) RunNow(event string) *TimelineBuilder {
	t.def.Statements = append(t.def.Statements, domain.TimelineStmt{Type: domain.TimelineRun, EventName: event, IgnoreDuration: true})
	return t
}

// Wait appends a wait step.
func (t *TimelineBuilder) Wait(seconds float64) *TimelineBuilder {
	t.def.Statements = append(t.def.Statements, domain.TimelineStmt{Type: domain.TimelineWait, Duration: &seconds})
	return t
}
