// Package access holds the route access policy: an ordered list of rules,
// each naming a path pattern, the methods it covers and what a caller needs
// to pass. The first matching rule decides; unmatched requests fall back to
// the policy default.
package access

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
)

// Kind is the category of a requirement.
type Kind int

const (
	Public Kind = iota
	Authenticated
	HasRole
)

func (k Kind) String() string {
	switch k {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case HasRole:
		return "role"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Requirement is what a rule demands from the caller.
type Requirement struct {
	Kind Kind
	Role string
}

func PermitAll() Requirement            { return Requirement{Kind: Public} }
func RequireAuthenticated() Requirement { return Requirement{Kind: Authenticated} }
func RequireRole(role string) Requirement {
	return Requirement{Kind: HasRole, Role: role}
}

func (r Requirement) String() string {
	if r.Kind == HasRole {
		return "role " + r.Role
	}
	return r.Kind.String()
}

// Check decides a request. ok tells whether the request carries an
// authenticated principal. It returns nil, common.ErrorUnauthorized when a
// principal is needed and missing, or common.ErrorForbidden when the
// principal lacks the role.
func (r Requirement) Check(p models.Principal, ok bool) error {
	switch r.Kind {
	case Public:
		return nil
	case Authenticated:
		if !ok {
			return common.ErrorUnauthorized
		}
		return nil
	case HasRole:
		if !ok {
			return common.ErrorUnauthorized
		}
		if !p.HasRole(r.Role) {
			return common.ErrorForbidden
		}
		return nil
	default:
		return common.ErrorForbidden
	}
}

// Rule binds a requirement to a path pattern and a set of methods. An empty
// method list means any method.
//
// Pattern segments are literals, "{name}" or "*" for exactly one segment, or
// a trailing "**" for any number of segments, none included.
type Rule struct {
	Methods     []string
	Pattern     string
	Requirement Requirement

	segments []string
}

func (r *Rule) compile() error {
	if !strings.HasPrefix(r.Pattern, "/") {
		return fmt.Errorf("pattern %q must start with /", r.Pattern)
	}
	r.segments = splitPath(r.Pattern)
	for i, s := range r.segments {
		if s == "**" && i != len(r.segments)-1 {
			return fmt.Errorf("pattern %q: ** is only allowed as the last segment", r.Pattern)
		}
	}
	for i, m := range r.Methods {
		r.Methods[i] = strings.ToUpper(m)
	}
	return nil
}

func (r *Rule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	method = strings.ToUpper(method)
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

func (r *Rule) matchesPath(segs []string) bool {
	for i, p := range r.segments {
		if p == "**" {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if isWildcard(p) {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if p != segs[i] {
			return false
		}
	}
	return len(segs) == len(r.segments)
}

func isWildcard(seg string) bool {
	return seg == "*" || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"))
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Policy is an immutable ordered rule set.
type Policy struct {
	rules    []Rule
	fallback Requirement
}

// NewPolicy compiles rules in the given order.
func NewPolicy(rules []Rule, fallback Requirement) (*Policy, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		r.Methods = append([]string(nil), r.Methods...)
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		compiled[i] = r
	}
	return &Policy{rules: compiled, fallback: fallback}, nil
}

// Match returns the requirement of the first rule covering method and path.
func (p *Policy) Match(method, path string) Requirement {
	segs := splitPath(path)
	for i := range p.rules {
		r := &p.rules[i]
		if r.matchesMethod(method) && r.matchesPath(segs) {
			return r.Requirement
		}
	}
	return p.fallback
}
