// Package classify partitions repository entries into the asset categories
// the theme transformer consumes.
package classify

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/tailzen/internal/source"
)

// Category names an asset class.
type Category string

const (
	Styles  Category = "styles"
	Markup  Category = "markup"
	Scripts Category = "scripts"
	Images  Category = "images"
)

// Result holds the classified entries, each list in input order.
type Result struct {
	Styles  []source.RemoteEntry
	Markup  []source.RemoteEntry
	Scripts []source.RemoteEntry
	Images  []source.RemoteEntry
}

// Rule decides membership of one category.
type Rule struct {
	Category   Category
	Extensions []string
	Exclude    func(source.RemoteEntry) bool
}

// DefaultRules returns a fresh copy of the classification table. An entry
// lands in the first category whose extension matches and whose exclusion
// does not.
func DefaultRules() []Rule {
	return []Rule{
		{Category: Styles, Extensions: []string{".css"}},
		{Category: Markup, Extensions: []string{".html"}},
		{Category: Scripts, Extensions: []string{".js"}, Exclude: vendoredOrMinified},
		{Category: Images, Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp"}},
	}
}

var rules = DefaultRules()

func vendoredOrMinified(e source.RemoteEntry) bool {
	return strings.Contains(e.Path, "node_modules") || strings.Contains(e.Name, ".min.")
}

// Classify partitions entries. Directories and files without a content
// locator are never classified.
func Classify(entries []source.RemoteEntry) Result {
	var r Result
	for _, e := range entries {
		if !e.Fetchable() {
			continue
		}
		cat, ok := categoryOf(e)
		if !ok {
			continue
		}
		switch cat {
		case Styles:
			r.Styles = append(r.Styles, e)
		case Markup:
			r.Markup = append(r.Markup, e)
		case Scripts:
			r.Scripts = append(r.Scripts, e)
		case Images:
			r.Images = append(r.Images, e)
		}
	}
	return r
}

func categoryOf(e source.RemoteEntry) (Category, bool) {
	ext := e.Extension()
	for _, rule := range rules {
		if !slices.Contains(rule.Extensions, ext) {
			continue
		}
		if rule.Exclude != nil && rule.Exclude(e) {
			return "", false
		}
		return rule.Category, true
	}
	return "", false
}

// Total returns the number of classified entries.
func (r Result) Total() int {
	return len(r.Styles) + len(r.Markup) + len(r.Scripts) + len(r.Images)
}

// Counts returns the size of each category.
func (r Result) Counts() map[Category]int {
	return map[Category]int{
		Styles:  len(r.Styles),
		Markup:  len(r.Markup),
		Scripts: len(r.Scripts),
		Images:  len(r.Images),
	}
}
