package camera

import (
	"regexp"
	"strings"
)

// Matcher selects file names.
type Matcher interface {
	MatchString(name string) bool
}

// Wildcard compiles a file wildcard where * matches any run of characters
// and ? matches one. Matching is case-insensitive and covers the whole name.
func Wildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// AnyOf matches a name accepted by any of its matchers.
type AnyOf []Matcher

func (a AnyOf) MatchString(name string) bool {
	for _, m := range a {
		if m.MatchString(name) {
			return true
		}
	}
	return false
}
