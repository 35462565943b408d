package transform

import (
	"path"
	"strings"
)

// Role is the template role a markup file is mapped to.
type Role string

const (
	RoleIndex  Role = "index"
	RoleHeader Role = "header"
	RoleFooter Role = "footer"
	RoleSingle Role = "single"
	RolePage   Role = "page"
	RoleOther  Role = "other"
)

// RoleRule maps file names containing Match (case-insensitive) to Filename.
type RoleRule struct {
	Role     Role
	Match    string
	Filename string
}

// DefaultRoleRules is the role table in priority order.
func DefaultRoleRules() []RoleRule {
	return []RoleRule{
		{Role: RoleIndex, Match: "index", Filename: Index},
		{Role: RoleHeader, Match: "header", Filename: Header},
		{Role: RoleFooter, Match: "footer", Filename: Footer},
		{Role: RoleSingle, Match: "single", Filename: "single.php"},
		{Role: RolePage, Match: "page", Filename: "page.php"},
	}
}

// Assignment is the outcome of naming one markup file.
type Assignment struct {
	Role     Role
	Filename string
	// Dropped is set when every applicable name was already taken.
	Dropped bool
}

// roleAssigner hands out output names; each name is claimed at most once
// and earlier files win.
type roleAssigner struct {
	rules   []RoleRule
	claimed map[string]bool
}

func newRoleAssigner(rules []RoleRule) *roleAssigner {
	return &roleAssigner{rules: rules, claimed: make(map[string]bool)}
}

// assign walks the rule table in priority order and takes the first matching
// rule whose filename is still free. A file matching some rule but finding
// every matching name taken is dropped. A file matching no rule keeps its
// base name with a .php extension unless that name is taken or reserved.
func (a *roleAssigner) assign(name string) Assignment {
	lower := strings.ToLower(name)
	matched := false
	for _, rule := range a.rules {
		if !strings.Contains(lower, rule.Match) {
			continue
		}
		matched = true
		if a.claimed[rule.Filename] {
			continue
		}
		a.claimed[rule.Filename] = true
		return Assignment{Role: rule.Role, Filename: rule.Filename}
	}
	if matched {
		return Assignment{Role: RoleOther, Dropped: true}
	}

	fallback := strings.TrimSuffix(name, path.Ext(name)) + ".php"
	if a.claimed[fallback] || reserved[fallback] {
		return Assignment{Role: RoleOther, Filename: fallback, Dropped: true}
	}
	a.claimed[fallback] = true
	return Assignment{Role: RoleOther, Filename: fallback}
}
