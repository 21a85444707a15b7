package runtime

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/mortar/internal/logging"
	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/value"
	"github.com/mitchellh/mapstructure"
)

const branchType = "Branch"

// Variables is the mutable variable store of one dialogue session.
// Types are not fixed: the last assignment wins.
type Variables struct {
	values     map[string]value.Value
	branches   map[string]domain.BranchDef
	branchText map[string]string
	enums      map[string][]string

	logger *slog.Logger
	warned map[string]struct{}
}

// NewVariables seeds the store from the program's declarations. Missing
// initial values default to "", 0, false or the enum's first variant.
func NewVariables(program *domain.Program, logger *slog.Logger) *Variables {
	if logger == nil {
		logger = logging.NewNop()
	}
	v := &Variables{
		values:     make(map[string]value.Value),
		branches:   make(map[string]domain.BranchDef),
		branchText: make(map[string]string),
		enums:      make(map[string][]string),
		logger:     logger,
		warned:     make(map[string]struct{}),
	}
	if program == nil {
		return v
	}

	for _, e := range program.Enums {
		v.enums[e.Name] = e.Variants
	}

	for _, decl := range program.Variables {
		switch decl.Type {
		case "String":
			s := ""
			if decl.Value != nil {
				s = fmt.Sprint(decl.Value)
			}
			v.values[decl.Name] = value.String(s)
		case "Number":
			v.values[decl.Name] = value.Number(toFloat(decl.Value))
		case "Boolean", "Bool":
			b, _ := decl.Value.(bool)
			v.values[decl.Name] = value.Boolean(b)
		case branchType:
			def, err := decodeBranch(decl.Value)
			if err != nil {
				v.logger.Warn("Invalid branch definition", "variable", decl.Name, "err", err)
				continue
			}
			v.branches[decl.Name] = def
		default:
			variants, ok := v.enums[decl.Type]
			if !ok {
				v.logger.Warn("Unknown variable type", "variable", decl.Name, "type", decl.Type)
				continue
			}
			if s, ok := decl.Value.(string); ok && s != "" {
				v.values[decl.Name] = value.String(s)
			} else if len(variants) > 0 {
				v.values[decl.Name] = value.String(decl.Type + "." + variants[0])
			} else {
				v.values[decl.Name] = value.String("")
			}
		}
	}
	return v
}

func decodeBranch(raw any) (domain.BranchDef, error) {
	var def domain.BranchDef
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &def,
	})
	if err != nil {
		return def, err
	}
	if err := decoder.Decode(raw); err != nil {
		return def, fmt.Errorf("failed to decode branch: %w", err)
	}
	return def, nil
}

func toFloat(raw any) float64 {
	if raw == nil {
		return 0
	}
	if v, err := value.FromAny(raw); err == nil {
		if n, ok := value.AsNumber(v); ok {
			return n
		}
	}
	if s, ok := raw.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

// Get returns the current value of name.
func (v *Variables) Get(name string) (value.Value, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Set stores val under name, replacing any previous type.
func (v *Variables) Set(name string, val value.Value) {
	v.values[name] = val
}

// Assign applies a script assignment: dotted text is an enum member, the
// words true/false are Booleans, numbers are Numbers, anything else is kept
// as a raw String.
func (v *Variables) Assign(name, raw string) {
	switch {
	case strings.Contains(raw, ".") && !isNumeric(raw):
		v.values[name] = value.String(raw)
	case raw == "true":
		v.values[name] = value.Boolean(true)
	case raw == "false":
		v.values[name] = value.Boolean(false)
	case isNumeric(raw):
		f, _ := strconv.ParseFloat(raw, 64)
		v.values[name] = value.Number(f)
	default:
		v.values[name] = value.String(raw)
	}
}

func isNumeric(raw string) bool {
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

// Execute applies assignment statements and reports whether any ran.
func (v *Variables) Execute(stmts []domain.Statement) bool {
	executed := false
	for _, stmt := range stmts {
		if stmt.Type != domain.StatementAssign {
			continue
		}
		v.Assign(stmt.Variable, stmt.Value)
		executed = true
	}
	return executed
}

// Branch returns the branch definition bound to name.
func (v *Variables) Branch(name string) (domain.BranchDef, bool) {
	def, ok := v.branches[name]
	return def, ok
}

// BranchText returns the text last selected for the branch placeholder name.
func (v *Variables) BranchText(name string) (string, bool) {
	s, ok := v.branchText[name]
	return s, ok
}

// SetBranchText pins the text rendered for a branch placeholder.
func (v *Variables) SetBranchText(name, text string) {
	v.branchText[name] = text
}

// Snapshot exports the plain values for persistence.
func (v *Variables) Snapshot() map[string]any {
	out := make(map[string]any, len(v.values))
	for k, val := range v.values {
		out[k] = value.ToAny(val)
	}
	return out
}

// Restore overwrites values from a persisted snapshot.
func (v *Variables) Restore(snapshot map[string]any) {
	for k, raw := range snapshot {
		val, err := value.FromAny(raw)
		if err != nil {
			v.logger.Warn("Skipping unrestorable variable", "variable", k, "err", err)
			continue
		}
		v.values[k] = val
	}
}

// Names returns the variable names in sorted order.
func (v *Variables) Names() []string {
	names := make([]string, 0, len(v.values))
	for k := range v.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// warnOnce logs an unresolved reference or type mismatch the first time it is seen.
func (v *Variables) warnOnce(kind, name, msg string, args ...any) {
	key := kind + ":" + name
	if _, seen := v.warned[key]; seen {
		return
	}
	v.warned[key] = struct{}{}
	v.logger.Warn(msg, append([]any{kind, name}, args...)...)
}
