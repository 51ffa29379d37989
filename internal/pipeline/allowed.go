package pipeline

import (
	"regexp"
	"slices"
	"strings"

	"github.com/nfrund/netspy/internal/topics"
)

// Filter matches topics by name and type. Both fields accept the shell
// wildcards * and ?; an empty field matches anything.
type Filter struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

func (f Filter) String() string {
	if f.Type == "" {
		return f.Name
	}
	return f.Name + " (" + f.Type + ")"
}

type filterMatcher struct {
	name *regexp.Regexp
	typ  *regexp.Regexp
}

func newFilterMatcher(f Filter) filterMatcher {
	return filterMatcher{name: wildcard(f.Name), typ: wildcard(f.Type)}
}

func (m filterMatcher) match(d topics.Descriptor) bool {
	return m.name.MatchString(d.Name) && m.typ.MatchString(d.TypeName)
}

// wildcard compiles a glob into an anchored expression. Everything except
// * and ? is matched literally, so compilation cannot fail.
func wildcard(pattern string) *regexp.Regexp {
	if pattern == "" {
		pattern = "*"
	}
	var b strings.Builder
	b.WriteString("^")
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
	return regexp.MustCompile(b.String())
}

// AllowedTopicList decides which topics the spy may print. A topic is allowed
// when it matches no blocklist entry and either the allowlist is empty or it
// matches an allowlist entry.
type AllowedTopicList struct {
	allow    []Filter
	block    []Filter
	allowRes []filterMatcher
	blockRes []filterMatcher
}

// NewAllowedTopicList builds a list from allow and block filters.
func NewAllowedTopicList(allow, block []Filter) *AllowedTopicList {
	l := &AllowedTopicList{
		allow: slices.Clone(allow),
		block: slices.Clone(block),
	}
	for _, f := range allow {
		l.allowRes = append(l.allowRes, newFilterMatcher(f))
	}
	for _, f := range block {
		l.blockRes = append(l.blockRes, newFilterMatcher(f))
	}
	return l
}

// IsAllowed reports whether d passes the list. A nil list allows everything.
func (l *AllowedTopicList) IsAllowed(d topics.Descriptor) bool {
	if l == nil {
		return true
	}
	for _, m := range l.blockRes {
		if m.match(d) {
			return false
		}
	}
	if len(l.allowRes) == 0 {
		return true
	}
	for _, m := range l.allowRes {
		if m.match(d) {
			return true
		}
	}
	return false
}

// Equal reports whether both lists hold the same filters in the same order.
func (l *AllowedTopicList) Equal(other *AllowedTopicList) bool {
	if l == nil || other == nil {
		return l == other
	}
	return slices.Equal(l.allow, other.allow) && slices.Equal(l.block, other.block)
}

// Allowlist returns a copy of the allow filters.
func (l *AllowedTopicList) Allowlist() []Filter {
	if l == nil {
		return nil
	}
	return slices.Clone(l.allow)
}

// Blocklist returns a copy of the block filters.
func (l *AllowedTopicList) Blocklist() []Filter {
	if l == nil {
		return nil
	}
	return slices.Clone(l.block)
}
