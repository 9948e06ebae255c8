package template

import "fmt"

// Source looks up templates by name. *Registry implements it.
type Source interface {
	Lookup(name string) (*Template, error)
}

// Resolve flattens the named template's inheritance chain into an ordered
// list of effective blocks.
//
// Blocks appear in the order the root declares them; block names first
// introduced by a descendant are appended when that descendant is processed.
// For each name, content is accumulated from root to leaf: a definition
// without a super reference replaces the accumulated content, and each super
// reference in a definition is replaced by it. Super with no ancestor
// definition yields empty content.
func Resolve(src Source, name string) ([]ResolvedBlock, error) {
	chain, err := ancestry(src, name)
	if err != nil {
		return nil, err
	}

	type slot struct {
		name string
		body []Node
	}
	var order []*slot
	byName := make(map[string]*slot)

	for i := len(chain) - 1; i >= 0; i-- {
		for _, b := range chain[i].Blocks {
			if b.Anonymous() {
				order = append(order, &slot{body: splice(nil, b)})
				continue
			}
			s, ok := byName[b.Name]
			if !ok {
				s = &slot{name: b.Name}
				byName[b.Name] = s
				order = append(order, s)
			}
			s.body = splice(s.body, b)
		}
	}

	resolved := make([]ResolvedBlock, 0, len(order))
	for _, s := range order {
		resolved = append(resolved, ResolvedBlock{Name: s.name, Body: s.body})
	}
	return resolved, nil
}

// ancestry returns the chain from the named template up to its root.
func ancestry(src Source, name string) ([]*Template, error) {
	visited := make(map[string]bool)
	var walked []string
	var chain []*Template

	for current := name; ; {
		if visited[current] {
			return nil, &CycleError{Chain: append(walked, current)}
		}
		visited[current] = true
		walked = append(walked, current)

		t, err := src.Lookup(current)
		if err != nil {
			if len(chain) > 0 {
				return nil, fmt.Errorf("resolve %q: parent of %q: %w", name, chain[len(chain)-1].Name, err)
			}
			return nil, fmt.Errorf("resolve %q: %w", name, err)
		}
		chain = append(chain, t)

		if t.Parent == "" {
			return chain, nil
		}
		current = t.Parent
	}
}

// splice applies one block definition on top of the accumulated content.
func splice(acc []Node, b *Block) []Node {
	if !b.hasSuper() {
		return append([]Node(nil), b.Body...)
	}
	out := make([]Node, 0, len(b.Body)+len(acc))
	for _, n := range b.Body {
		if _, ok := n.(*SuperNode); ok {
			out = append(out, acc...)
			continue
		}
		out = append(out, n)
	}
	return out
}
