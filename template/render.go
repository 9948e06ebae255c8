package template

import (
	"fmt"
	"strings"
)

// Render concatenates resolved blocks in order, substituting variables from
// bindings. A reference with no binding and no default filter fails with an
// *UnboundVariableError. Render has no side effects; the same inputs always
// produce the same output.
func Render(blocks []ResolvedBlock, bindings map[string]string) (string, error) {
	var buf strings.Builder
	for _, b := range blocks {
		for _, n := range b.Body {
			switch n := n.(type) {
			case *TextNode:
				buf.WriteString(n.Text)
			case *VarNode:
				val, ok := bindings[n.Name]
				if !ok && !n.hasDefault() {
					return "", &UnboundVariableError{Name: n.Name, Block: b.Name}
				}
				buf.WriteString(applyFilters(val, n.Filters))
			case *SuperNode:
				// No parent content outside Resolve.
			default:
				return "", fmt.Errorf("render block %q: unexpected node %T", b.Name, n)
			}
		}
	}
	return buf.String(), nil
}

// Variables returns the variable names referenced by the blocks, in order of
// first appearance. Names guarded by a default filter are included.
func Variables(blocks []ResolvedBlock) []string {
	seen := make(map[string]bool)
	var result []string
	for _, b := range blocks {
		for _, n := range b.Body {
			v, ok := n.(*VarNode)
			if !ok || seen[v.Name] {
				continue
			}
			seen[v.Name] = true
			result = append(result, v.Name)
		}
	}
	return result
}

// RequiredVariables is like Variables but omits references that have a
// default filter everywhere they appear.
func RequiredVariables(blocks []ResolvedBlock) []string {
	required := make(map[string]bool)
	for _, b := range blocks {
		for _, n := range b.Body {
			if v, ok := n.(*VarNode); ok && !v.hasDefault() {
				required[v.Name] = true
			}
		}
	}
	var result []string
	for _, name := range Variables(blocks) {
		if required[name] {
			result = append(result, name)
		}
	}
	return result
}

// ValidateBindings checks that all required variables are bound.
// Returns an error wrapping ErrUnboundVariable naming the first missing one.
func ValidateBindings(required []string, bindings map[string]string) error {
	for _, name := range required {
		if _, ok := bindings[name]; !ok {
			return &UnboundVariableError{Name: name}
		}
	}
	return nil
}
