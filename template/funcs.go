package template

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kballard/go-shellquote"
)

// filterSpec describes a built-in filter.
type filterSpec struct {
	arity  int
	intArg bool // first argument must parse as an integer
	apply  func(s string, args []string) string
}

// filters maps filter names to their implementations.
var filters = map[string]filterSpec{
	"upper":    {apply: func(s string, _ []string) string { return strings.ToUpper(s) }},
	"lower":    {apply: func(s string, _ []string) string { return strings.ToLower(s) }},
	"trim":     {apply: func(s string, _ []string) string { return strings.TrimSpace(s) }},
	"quote":    {apply: func(s string, _ []string) string { return shellquote.Join(s) }},
	"default":  {arity: 1, apply: defaultValue},
	"indent":   {arity: 1, intArg: true, apply: func(s string, a []string) string { return indent(s, atoi(a[0])) }},
	"truncate": {arity: 1, intArg: true, apply: func(s string, a []string) string { return truncate(s, atoi(a[0])) }},
	"wrap":     {arity: 1, intArg: true, apply: func(s string, a []string) string { return wrap(s, atoi(a[0])) }},
	"replace":  {arity: 2, apply: func(s string, a []string) string { return strings.ReplaceAll(s, a[0], a[1]) }},
}

// FilterNames returns the built-in filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyFilters runs a value through the pipeline in order.
func applyFilters(s string, pipeline []Filter) string {
	for _, f := range pipeline {
		s = filters[f.Name].apply(s, f.Args)
	}
	return s
}

// atoi converts an argument already validated at parse time.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// defaultValue returns the fallback if the value is empty.
func defaultValue(s string, args []string) string {
	if s == "" {
		return args[0]
	}
	return s
}

// truncate backs | truncate(n): at most n characters, the last three
// replaced by "..." when anything was cut. Limits of 3 or less cut without
// an ellipsis.
func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	keep, ellipsis := n, ""
	if n > 3 {
		keep, ellipsis = n-3, "..."
	}
	cut := 0
	for i := 0; i < keep; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return s[:cut] + ellipsis
}

// indent prefixes every line after the first with spaces. Empty lines stay empty.
func indent(s string, spaces int) string {
	if spaces <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// wrap backs | wrap(n): words are refilled into lines of at most n
// characters; a single longer word gets a line of its own. n <= 0 leaves the
// value alone.
func wrap(s string, n int) string {
	if n <= 0 {
		return s
	}
	var lines []string
	var line []string
	width := 0
	for _, word := range strings.Fields(s) {
		w := utf8.RuneCountInString(word)
		if len(line) > 0 && width+1+w > n {
			lines = append(lines, strings.Join(line, " "))
			line, width = nil, 0
		}
		if len(line) > 0 {
			width++
		}
		line = append(line, word)
		width += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return strings.Join(lines, "\n")
}
