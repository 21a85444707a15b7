package domain

// Program is a compiled Mortar file. It is treated as immutable once loaded;
// sessions copy the nodes they visit.
type Program struct {
	// Path identifies the program for loaders and headers. It is not part of
	// the compiled payload.
	Path string `json:"-" yaml:"-"`

	Nodes     []Node         `json:"nodes" yaml:"nodes"`
	Functions []FunctionDecl `json:"functions,omitempty" yaml:"functions,omitempty"`
	Variables []Variable     `json:"variables,omitempty" yaml:"variables,omitempty"`
	Constants []Constant     `json:"constants,omitempty" yaml:"constants,omitempty"`
	Enums     []Enum         `json:"enums,omitempty" yaml:"enums,omitempty"`
	Events    []EventDef     `json:"events,omitempty" yaml:"events,omitempty"`
	Timelines []TimelineDef  `json:"timelines,omitempty" yaml:"timelines,omitempty"`
}

// Node looks up a node by name.
func (p *Program) Node(name string) (*Node, bool) {
	for i := range p.Nodes {
		if p.Nodes[i].Name == name {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// EventDef looks up a named event definition.
func (p *Program) EventDef(name string) (*EventDef, bool) {
	for i := range p.Events {
		if p.Events[i].Name == name {
			return &p.Events[i], true
		}
	}
	return nil, false
}

// Timeline looks up a named timeline definition.
func (p *Program) Timeline(name string) (*TimelineDef, bool) {
	for i := range p.Timelines {
		if p.Timelines[i].Name == name {
			return &p.Timelines[i], true
		}
	}
	return nil, false
}

// Enum looks up an enum declaration by type name.
func (p *Program) Enum(name string) (*Enum, bool) {
	for i := range p.Enums {
		if p.Enums[i].Name == name {
			return &p.Enums[i], true
		}
	}
	return nil, false
}

// Node is a named unit of dialogue.
type Node struct {
	Name    string        `json:"name" yaml:"name"`
	Content []ContentItem `json:"content" yaml:"content"`
	// Next names the successor node. "return" ends the dialogue.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`
}

// NextReturn is the reserved successor name that ends the session.
const NextReturn = "return"

// ContentType discriminates content items.
type ContentType string

const (
	ContentText        ContentType = "text"
	ContentChoice      ContentType = "choice"
	ContentRunEvent    ContentType = "run_event"
	ContentRunTimeline ContentType = "run_timeline"
)

// ContentItem is one entry of a node's ordered content. Only the fields
// relevant to Type are populated.
type ContentItem struct {
	Type ContentType `json:"type" yaml:"type"`

	// Text items.
	Value             string       `json:"value,omitempty" yaml:"value,omitempty"`
	InterpolatedParts []StringPart `json:"interpolated_parts,omitempty" yaml:"interpolated_parts,omitempty"`
	Condition         *Condition   `json:"condition,omitempty" yaml:"condition,omitempty"`
	PreStatements     []Statement  `json:"pre_statements,omitempty" yaml:"pre_statements,omitempty"`
	Events            []Event      `json:"events,omitempty" yaml:"events,omitempty"`

	// Choice items.
	Options []Choice `json:"options,omitempty" yaml:"options,omitempty"`

	// Run items.
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	IndexOverride  *IndexOverride `json:"index_override,omitempty" yaml:"index_override,omitempty"`
	IgnoreDuration bool           `json:"ignore_duration,omitempty" yaml:"ignore_duration,omitempty"`
}

// IsRun reports whether the item triggers an event or a timeline.
func (c ContentItem) IsRun() bool {
	return c.Type == ContentRunEvent || c.Type == ContentRunTimeline
}

// Choice is one selectable option. Resolution order on confirm is
// Action, then nested Choice, then Next, then end of dialogue.
type Choice struct {
	Text      string     `json:"text" yaml:"text"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Next      string     `json:"next,omitempty" yaml:"next,omitempty"`
	// Action is "return" or "break".
	Action string   `json:"action,omitempty" yaml:"action,omitempty"`
	Choice []Choice `json:"choice,omitempty" yaml:"choice,omitempty"`
}

const (
	ChoiceActionReturn = "return"
	ChoiceActionBreak  = "break"
)

// ConditionType discriminates condition tree nodes.
type ConditionType string

const (
	ConditionBinary     ConditionType = "binary"
	ConditionUnary      ConditionType = "unary"
	ConditionIdentifier ConditionType = "identifier"
	ConditionLiteral    ConditionType = "literal"
	ConditionFuncCall   ConditionType = "func_call"
	ConditionEnumMember ConditionType = "enum_member"
)

// Condition is a boolean/comparison expression tree.
type Condition struct {
	Type     ConditionType `json:"type" yaml:"type"`
	Operator string        `json:"operator,omitempty" yaml:"operator,omitempty"`
	Left     *Condition    `json:"left,omitempty" yaml:"left,omitempty"`
	Right    *Condition    `json:"right,omitempty" yaml:"right,omitempty"`
	Operand  *Condition    `json:"operand,omitempty" yaml:"operand,omitempty"`
	// Value holds the identifier name, the literal text or the enum member.
	Value        string   `json:"value,omitempty" yaml:"value,omitempty"`
	FunctionName string   `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	Args         []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// PartType discriminates interpolated text segments.
type PartType string

const (
	PartText        PartType = "text"
	PartPlaceholder PartType = "placeholder"
)

// StringPart is a pre-segmented piece of a text template. Placeholder
// Content keeps its delimiters (e.g. "{name}"), so its rune count is the
// width it occupies in the source.
type StringPart struct {
	Type         PartType `json:"part_type" yaml:"part_type"`
	Content      string   `json:"content" yaml:"content"`
	FunctionName string   `json:"function_name,omitempty" yaml:"function_name,omitempty"`
	Args         []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// Statement is a side effect attached to a text item.
type Statement struct {
	Type     string `json:"type" yaml:"type"`
	Variable string `json:"var_name" yaml:"var_name"`
	Value    string `json:"value" yaml:"value"`
}

// StatementAssign is the only statement kind executed by the runtime.
const StatementAssign = "assign"

// Event binds actions to a position in the rendered text.
type Event struct {
	Index         float64  `json:"index" yaml:"index"`
	IndexVariable string   `json:"index_variable,omitempty" yaml:"index_variable,omitempty"`
	Actions       []Action `json:"actions" yaml:"actions"`
}

// Action is an opaque host instruction: a name plus string arguments.
type Action struct {
	Type string   `json:"type" yaml:"type"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// EventDef is a named, reusable action with an optional pacing duration in seconds.
type EventDef struct {
	Name     string   `json:"name" yaml:"name"`
	Action   Action   `json:"action" yaml:"action"`
	Duration *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// TimelineDef is a named sequence of run and wait steps.
type TimelineDef struct {
	Name       string         `json:"name" yaml:"name"`
	Statements []TimelineStmt `json:"statements" yaml:"statements"`
}

const (
	TimelineRun  = "run"
	TimelineWait = "wait"
)

// TimelineStmt is a single timeline step.
type TimelineStmt struct {
	Type      string `json:"type" yaml:"type"`
	EventName string `json:"event_name,omitempty" yaml:"event_name,omitempty"`
	// Duration is the delay of a wait step. Run steps are paced by the
	// event's own duration.
	Duration       *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	IgnoreDuration bool     `json:"ignore_duration,omitempty" yaml:"ignore_duration,omitempty"`
}

// IndexOverride places a run_event at a fixed or variable-driven text position.
type IndexOverride struct {
	Type  string `json:"type" yaml:"type"` // "value" or "variable"
	Value string `json:"value" yaml:"value"`
}

// Variable is a declaration with an optional initial value.
type Variable struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Enum declares a closed set of variants.
type Enum struct {
	Name     string   `json:"name" yaml:"name"`
	Variants []string `json:"variants" yaml:"variants"`
}

// FunctionDecl is the script-side signature of a host function.
type FunctionDecl struct {
	Name   string  `json:"name" yaml:"name"`
	Params []Param `json:"params,omitempty" yaml:"params,omitempty"`
	Return string  `json:"return_type,omitempty" yaml:"return_type,omitempty"`
}

// Param is one declared function parameter.
type Param struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Constant is a named compile-time value.
type Constant struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Value  any    `json:"value" yaml:"value"`
	Public bool   `json:"public,omitempty" yaml:"public,omitempty"`
}

// BranchDef is the payload of a Branch-typed variable: text alternatives
// selected either by an enum variable or by the first true boolean.
type BranchDef struct {
	EnumType string       `json:"enum_type,omitempty" yaml:"enum_type,omitempty"`
	Cases    []BranchCase `json:"cases" yaml:"cases"`
}

// BranchCase is one alternative of a BranchDef.
type BranchCase struct {
	Condition string  `json:"condition" yaml:"condition"`
	Text      string  `json:"text" yaml:"text"`
	Events    []Event `json:"events,omitempty" yaml:"events,omitempty"`
}
