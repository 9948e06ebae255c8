package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag delimiters.
const (
	varOpen      = "{{"
	varClose     = "}}"
	stmtOpen     = "{%"
	stmtClose    = "%}"
	commentOpen  = "{#"
	commentClose = "#}"
)

// parser holds the state of a single Parse call.
type parser struct {
	name    string
	src     string
	pos     int
	line    int
	tmpl    *Template
	current *Block
	opened  int // line of the current block's opening tag
	seen    map[string]bool
}

// Parse parses template source into a Template.
//
// Supported syntax:
//
//	{% extends "parent" %}
//	{% block name %} ... {% endblock %}
//	{{ super() }}
//	{{ variable | filter | filter(arg) }}
//	{# comment #}
//
// A single newline directly after a {% %} tag is dropped.
func Parse(name, src string) (*Template, error) {
	p := &parser{
		name: name,
		src:  src,
		line: 1,
		tmpl: &Template{Name: name},
		seen: make(map[string]bool),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.tmpl, nil
}

// MustParse is like Parse but panics on error.
// Use only with static sources (e.g., in tests).
func MustParse(name, src string) *Template {
	t, err := Parse(name, src)
	if err != nil {
		panic(fmt.Sprintf("template.MustParse(%q): %v", name, err))
	}
	return t
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &SyntaxError{Template: p.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		idx := nextTag(p.src, p.pos)
		if idx < 0 {
			if err := p.text(rest); err != nil {
				return err
			}
			p.advance(len(rest))
			break
		}
		if idx > 0 {
			if err := p.text(rest[:idx]); err != nil {
				return err
			}
			p.advance(idx)
			rest = p.src[p.pos:]
		}

		open := rest[:2]
		var closer string
		switch open {
		case varOpen:
			closer = varClose
		case stmtOpen:
			closer = stmtClose
		default:
			closer = commentClose
		}
		end := strings.Index(rest[2:], closer)
		if end < 0 {
			return p.errorf(p.line, "unterminated %s tag", open)
		}
		inner := strings.TrimSpace(rest[2 : 2+end])
		tagLine := p.line
		p.advance(2 + end + 2)

		var err error
		switch open {
		case varOpen:
			err = p.output(inner, tagLine)
		case stmtOpen:
			err = p.statement(inner, tagLine)
			p.trimNewline()
		}
		if err != nil {
			return err
		}
	}

	if p.current != nil {
		return p.errorf(p.opened, "block %q is never closed", p.current.Name)
	}
	if p.tmpl.Parent != "" {
		p.tmpl.Blocks = namedOnly(p.tmpl.Blocks)
	}
	return nil
}

// nextTag returns the offset from pos of the next tag opener, or -1.
// "${#" is shell parameter length syntax, not a comment.
func nextTag(s string, pos int) int {
	for i := pos; i+1 < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		switch s[i+1] {
		case '{', '%':
			return i - pos
		case '#':
			if i == 0 || s[i-1] != '$' {
				return i - pos
			}
		}
	}
	return -1
}

func (p *parser) advance(n int) {
	p.line += strings.Count(p.src[p.pos:p.pos+n], "\n")
	p.pos += n
}

// trimNewline drops one newline following a statement tag.
func (p *parser) trimNewline() {
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "\r\n"):
		p.advance(2)
	case strings.HasPrefix(rest, "\n"):
		p.advance(1)
	}
}

// appendNode adds n to the open block, or to a trailing anonymous block.
func (p *parser) appendNode(n Node) {
	if p.current != nil {
		p.current.Body = append(p.current.Body, n)
		return
	}
	blocks := p.tmpl.Blocks
	if len(blocks) == 0 || !blocks[len(blocks)-1].Anonymous() {
		p.tmpl.Blocks = append(p.tmpl.Blocks, &Block{})
		blocks = p.tmpl.Blocks
	}
	last := blocks[len(blocks)-1]
	last.Body = append(last.Body, n)
}

func (p *parser) text(s string) error {
	if p.current == nil && p.tmpl.Parent != "" {
		if strings.TrimSpace(s) != "" {
			return p.errorf(p.line, "text outside of a block in a template that extends %q", p.tmpl.Parent)
		}
		return nil
	}
	// Merge with a preceding text node so bodies stay compact.
	body := p.body()
	if len(body) > 0 {
		if tn, ok := body[len(body)-1].(*TextNode); ok {
			tn.Text += s
			return nil
		}
	}
	p.appendNode(&TextNode{Text: s})
	return nil
}

// body returns the body currently being appended to.
func (p *parser) body() []Node {
	if p.current != nil {
		return p.current.Body
	}
	blocks := p.tmpl.Blocks
	if len(blocks) == 0 || !blocks[len(blocks)-1].Anonymous() {
		return nil
	}
	return blocks[len(blocks)-1].Body
}

func (p *parser) output(inner string, line int) error {
	if isSuper(inner) {
		if p.current == nil {
			return p.errorf(line, "super used outside of a block")
		}
		p.current.Body = append(p.current.Body, &SuperNode{})
		return nil
	}
	if p.current == nil && p.tmpl.Parent != "" {
		return p.errorf(line, "variable outside of a block in a template that extends %q", p.tmpl.Parent)
	}
	v, err := parseVar(inner)
	if err != nil {
		return p.errorf(line, "%v", err)
	}
	p.appendNode(v)
	return nil
}

func (p *parser) statement(inner string, line int) error {
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return p.errorf(line, "empty statement tag")
	}

	switch fields[0] {
	case "extends":
		if len(fields) != 2 {
			return p.errorf(line, "extends takes exactly one template name")
		}
		if p.tmpl.Parent != "" {
			return p.errorf(line, "template already extends %q", p.tmpl.Parent)
		}
		if p.current != nil || len(namedOnly(p.tmpl.Blocks)) > 0 || !blank(p.tmpl.Blocks) {
			return p.errorf(line, "extends must come before any content")
		}
		parent := TemplateName(unquote(fields[1]))
		if parent == "" {
			return p.errorf(line, "extends requires a template name")
		}
		p.tmpl.Parent = parent
		p.tmpl.Blocks = nil

	case "block":
		if len(fields) != 2 || !isValidIdentifier(fields[1]) {
			return p.errorf(line, "block requires a single identifier name")
		}
		if p.current != nil {
			return p.errorf(line, "block %q nested inside block %q", fields[1], p.current.Name)
		}
		if p.seen[fields[1]] {
			return p.errorf(line, "block %q defined more than once", fields[1])
		}
		p.seen[fields[1]] = true
		p.current = &Block{Name: fields[1]}
		p.opened = line

	case "endblock":
		if p.current == nil {
			return p.errorf(line, "endblock without a matching block")
		}
		if len(fields) > 2 {
			return p.errorf(line, "endblock takes at most one name")
		}
		if len(fields) == 2 && fields[1] != p.current.Name {
			return p.errorf(line, "endblock %q does not match block %q", fields[1], p.current.Name)
		}
		p.tmpl.Blocks = append(p.tmpl.Blocks, p.current)
		p.current = nil

	default:
		return p.errorf(line, "unknown directive %q", fields[0])
	}
	return nil
}

func isSuper(inner string) bool {
	return inner == "super" || inner == "super()"
}

// parseVar parses "name | filter | filter(arg, arg)".
func parseVar(expr string) (*VarNode, error) {
	parts := splitOutside(expr, '|')
	name := strings.TrimSpace(parts[0])
	if !isValidIdentifier(name) {
		return nil, fmt.Errorf("invalid variable name %q", name)
	}
	v := &VarNode{Name: name}
	for _, raw := range parts[1:] {
		f, err := parseFilter(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		v.Filters = append(v.Filters, f)
	}
	return v, nil
}

func parseFilter(s string) (Filter, error) {
	name, argStr := s, ""
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Filter{}, fmt.Errorf("filter %q: missing closing parenthesis", s)
		}
		name = strings.TrimSpace(s[:i])
		argStr = s[i+1 : len(s)-1]
	}

	def, ok := filters[name]
	if !ok {
		return Filter{}, fmt.Errorf("unknown filter %q", name)
	}

	var args []string
	if strings.TrimSpace(argStr) != "" {
		for _, a := range splitOutside(argStr, ',') {
			a = strings.TrimSpace(a)
			switch {
			case isQuotedString(a):
				args = append(args, unquote(a))
			case isNumber(a):
				args = append(args, a)
			default:
				return Filter{}, fmt.Errorf("filter %q: argument %q must be a quoted string or number", name, a)
			}
		}
	}

	if len(args) != def.arity {
		return Filter{}, fmt.Errorf("filter %q takes %d argument(s), got %d", name, def.arity, len(args))
	}
	if def.intArg {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return Filter{}, fmt.Errorf("filter %q: argument %q is not an integer", name, args[0])
		}
	}
	return Filter{Name: name, Args: args}, nil
}

// splitOutside splits s on sep while respecting quoted strings.
func splitOutside(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	for _, ch := range s {
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
			current.WriteRune(ch)
		case inQuote && ch == quoteChar:
			inQuote = false
			current.WriteRune(ch)
		case !inQuote && ch == sep:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(parts, current.String())
}

// blank reports whether the blocks hold nothing but whitespace text.
func blank(blocks []*Block) bool {
	for _, b := range blocks {
		for _, n := range b.Body {
			tn, ok := n.(*TextNode)
			if !ok || strings.TrimSpace(tn.Text) != "" {
				return false
			}
		}
	}
	return true
}

func namedOnly(blocks []*Block) []*Block {
	var out []*Block
	for _, b := range blocks {
		if !b.Anonymous() {
			out = append(out, b)
		}
	}
	return out
}

func unquote(s string) string {
	if !isQuotedString(s) {
		return s
	}
	if s[0] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s[1 : len(s)-1]
}

// isNumber checks if a string represents a number (integer or float, optionally negative).
func isNumber(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	for i, ch := range s {
		if ch == '-' && i == 0 {
			continue
		}
		if ch == '.' {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// isQuotedString checks if a string is wrapped in matching quotes.
func isQuotedString(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)) ||
		(strings.HasPrefix(s, `'`) && strings.HasSuffix(s, `'`))
}

// isValidIdentifier checks if a string is a valid variable or block name.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		if i == 0 && ch >= '0' && ch <= '9' {
			return false
		}
		isLower := ch >= 'a' && ch <= 'z'
		isUpper := ch >= 'A' && ch <= 'Z'
		isDigit := ch >= '0' && ch <= '9'
		if !isLower && !isUpper && !isDigit && ch != '_' {
			return false
		}
	}
	return true
}
