package runtime

import (
	"strings"
	"unicode/utf8"

	"github.com/aretw0/mortar/pkg/domain"
	"github.com/aretw0/mortar/pkg/registry"
	"github.com/aretw0/mortar/pkg/value"
	"golang.org/x/text/unicode/norm"
)

// Interpolation is a rendered text template.
type Interpolation struct {
	Text string
	// IndexMap maps each source rune offset to its rendered rune offset. It
	// holds one entry per source rune plus a final entry for the end position.
	IndexMap []int
	// BranchEvents are events contributed by selected branch cases, already
	// in rendered coordinates.
	BranchEvents []domain.Event
}

// Interpolate renders the text item against the variable store and registry.
// Literal runs map one to one; every rune of a placeholder maps to the
// rendered start of its substitution.
func (v *Variables) Interpolate(item *domain.ContentItem, fns *registry.Registry) Interpolation {
	if len(item.InterpolatedParts) == 0 {
		return Interpolation{
			Text:     item.Value,
			IndexMap: identityMap(utf8.RuneCountInString(item.Value)),
		}
	}

	var sb strings.Builder
	var out Interpolation
	rendered := 0

	for _, part := range item.InterpolatedParts {
		if part.Type != domain.PartPlaceholder {
			for range part.Content {
				out.IndexMap = append(out.IndexMap, rendered)
				rendered++
			}
			sb.WriteString(part.Content)
			continue
		}

		text, events := v.resolvePlaceholder(part, fns)
		text = norm.NFC.String(text)

		for range part.Content {
			out.IndexMap = append(out.IndexMap, rendered)
		}
		for _, e := range domain.CloneEvents(events) {
			e.Index += float64(rendered)
			out.BranchEvents = append(out.BranchEvents, e)
		}

		sb.WriteString(text)
		rendered += utf8.RuneCountInString(text)
	}

	out.IndexMap = append(out.IndexMap, rendered)
	out.Text = sb.String()
	return out
}

func identityMap(n int) []int {
	m := make([]int, n+1)
	for i := range m {
		m[i] = i
	}
	return m
}

// placeholderName strips the delimiters from "{name}".
func placeholderName(content string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(content, "{"), "}"))
}

// resolvePlaceholder looks the placeholder up as a function call, then a
// branch, then a variable, then a zero-argument function.
func (v *Variables) resolvePlaceholder(part domain.StringPart, fns *registry.Registry) (string, []domain.Event) {
	if part.FunctionName != "" {
		result, ok := v.call(part.FunctionName, part.Args, fns)
		if !ok {
			return "", nil
		}
		return result.String(), nil
	}

	name := placeholderName(part.Content)

	if def, ok := v.branches[name]; ok {
		if c, ok := v.selectBranch(def); ok {
			v.branchText[name] = c.Text
			return c.Text, c.Events
		}
		v.warnOnce("branch", name, "No branch case matched")
		return "", nil
	}
	if text, ok := v.branchText[name]; ok {
		return text, nil
	}

	if val, ok := v.values[name]; ok {
		return val.String(), nil
	}

	if result, ok := fns.Call(name); ok {
		return result.String(), nil
	}

	v.warnOnce("placeholder", name, "Unresolved placeholder")
	return "", nil
}

// selectBranch picks the case matching the enum variable's member, or the
// first case whose condition names a true Boolean.
func (v *Variables) selectBranch(def domain.BranchDef) (domain.BranchCase, bool) {
	if def.EnumType != "" {
		val, ok := v.values[def.EnumType]
		if !ok {
			v.warnOnce("variable", def.EnumType, "Unresolved enum variable for branch")
			return domain.BranchCase{}, false
		}
		member := val.String()
		if i := strings.LastIndex(member, "."); i >= 0 {
			member = member[i+1:]
		}
		for _, c := range def.Cases {
			if c.Condition == member {
				return c, true
			}
		}
		return domain.BranchCase{}, false
	}

	for _, c := range def.Cases {
		val, ok := v.values[c.Condition]
		if !ok {
			continue
		}
		if b, isBool := value.AsBool(val); isBool && b {
			return c, true
		}
	}
	return domain.BranchCase{}, false
}

// RemapEvents resolves index variables and moves every event from source to
// rendered coordinates. Events past the end of the template keep their
// distance from the end.
func (v *Variables) RemapEvents(events []domain.Event, indexMap []int) []domain.Event {
	out := domain.CloneEvents(events)
	if len(indexMap) == 0 {
		return out
	}
	last := len(indexMap) - 1
	for i := range out {
		e := &out[i]
		if e.IndexVariable != "" {
			if n, ok := v.numberVariable(e.IndexVariable); ok {
				e.Index = n
			}
		}
		if e.Index < 0 {
			continue
		}
		pos := int(e.Index)
		frac := e.Index - float64(pos)
		if pos <= last {
			e.Index = float64(indexMap[pos]) + frac
			continue
		}
		e.Index += float64(indexMap[last] - last)
	}
	return out
}

func (v *Variables) numberVariable(name string) (float64, bool) {
	val, ok := v.values[name]
	if !ok {
		v.warnOnce("variable", name, "Unresolved index variable")
		return 0, false
	}
	n, ok := value.AsNumber(val)
	if !ok {
		v.warnOnce("variable", name, "Index variable is not a Number", "type", val.Kind().String())
	}
	return n, ok
}
