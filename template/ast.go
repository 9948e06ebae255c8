package template

// Node is one piece of a block body.
type Node interface {
	node()
}

// TextNode is literal script text.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// VarNode is a {{ name | filter ... }} reference.
type VarNode struct {
	Name    string
	Filters []Filter
}

func (*VarNode) node() {}

// SuperNode marks where the parent's content for the enclosing block goes.
type SuperNode struct{}

func (*SuperNode) node() {}

// Filter is one stage of a variable's filter pipeline.
type Filter struct {
	Name string
	Args []string
}

// hasDefault reports whether the pipeline supplies a fallback value.
func (v *VarNode) hasDefault() bool {
	for _, f := range v.Filters {
		if f.Name == "default" {
			return true
		}
	}
	return false
}

// Block is a named, overridable unit of content.
// Anonymous blocks hold text found outside any block in a root template.
type Block struct {
	Name string
	Body []Node
}

// Anonymous reports whether the block is unnamed top-level text.
func (b *Block) Anonymous() bool {
	return b.Name == ""
}

// hasSuper reports whether the body contains a super reference.
func (b *Block) hasSuper() bool {
	for _, n := range b.Body {
		if _, ok := n.(*SuperNode); ok {
			return true
		}
	}
	return false
}

// Template is a parsed script template.
type Template struct {
	Name string

	// Parent is the name of the extended template, or empty for a root.
	Parent string

	// Blocks are in declaration order.
	Blocks []*Block
}

// Block returns the named block, or nil.
func (t *Template) Block(name string) *Block {
	if name == "" {
		return nil
	}
	for _, b := range t.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// ResolvedBlock is a block after inheritance has been applied.
// Its body contains only TextNode and VarNode values.
type ResolvedBlock struct {
	Name string
	Body []Node
}
