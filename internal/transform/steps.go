package transform

import (
	"regexp"
	"strings"
)

// Document is a markup file being rewritten into a template.
type Document struct {
	// Name is the source file name; some steps only apply to certain names.
	Name    string
	Content string
}

// Step is one named text substitution applied to markup. A step whose
// pattern is absent returns the content unchanged.
type Step interface {
	Name() string
	Apply(doc Document) string
}

type regexpStep struct {
	name    string
	pattern *regexp.Regexp
	// replace builds the substitution for one match.
	replace func(match string) string
	// firstOnly limits the substitution to the first match.
	firstOnly bool
	// when restricts the step to matching documents.
	when func(doc Document) bool
}

func (s regexpStep) Name() string { return s.name }

func (s regexpStep) Apply(doc Document) string {
	if s.when != nil && !s.when(doc) {
		return doc.Content
	}
	if !s.firstOnly {
		return s.pattern.ReplaceAllStringFunc(doc.Content, s.replace)
	}
	loc := s.pattern.FindStringIndex(doc.Content)
	if loc == nil {
		return doc.Content
	}
	return doc.Content[:loc[0]] + s.replace(doc.Content[loc[0]:loc[1]]) + doc.Content[loc[1]:]
}

// Step names in application order.
const (
	StepReplaceTitle       = "ReplaceTitle"
	StepReplaceCharset     = "ReplaceCharset"
	StepInjectPostsLoop    = "InjectPostsLoop"
	StepInjectHeadHook     = "InjectHeadHook"
	StepInjectBodyOpenHook = "InjectBodyOpenHook"
	StepInjectFooterHook   = "InjectFooterHook"
)

// IsEntryCandidate reports whether a markup file name suggests the primary
// entry page.
func IsEntryCandidate(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "index") || strings.Contains(n, "home")
}

func constant(s string) func(string) string {
	return func(string) string { return s }
}

// DefaultSteps returns the markup rewrite sequence.
func DefaultSteps() []Step {
	loop := strings.TrimRight(postsLoop, "\n")
	return []Step{
		regexpStep{
			name:    StepReplaceTitle,
			pattern: regexp.MustCompile(`(?i)<title>[^<]*</title>`),
			replace: constant(`<?php wp_title(); ?>`),
		},
		regexpStep{
			name:    StepReplaceCharset,
			pattern: regexp.MustCompile(`(?i)<meta\s+charset=["'][^"']*["']\s*/?>`),
			replace: constant(`<meta charset="<?php bloginfo('charset'); ?>">`),
		},
		regexpStep{
			name:    StepInjectPostsLoop,
			pattern: regexp.MustCompile(`(?is)<main[^>]*>.*?</main>`),
			replace: constant(loop),
			when:    func(doc Document) bool { return IsEntryCandidate(doc.Name) },
		},
		regexpStep{
			name:      StepInjectHeadHook,
			pattern:   regexp.MustCompile(`(?i)</head>`),
			replace:   func(m string) string { return "    <?php wp_head(); ?>\n" + m },
			firstOnly: true,
		},
		regexpStep{
			name:      StepInjectBodyOpenHook,
			pattern:   regexp.MustCompile(`(?i)<body(\s[^>]*)?>`),
			replace:   func(m string) string { return m + "\n<?php wp_body_open(); ?>" },
			firstOnly: true,
		},
		regexpStep{
			name:      StepInjectFooterHook,
			pattern:   regexp.MustCompile(`(?i)</body>`),
			replace:   func(m string) string { return "    <?php wp_footer(); ?>\n" + m },
			firstOnly: true,
		},
	}
}

// Rewrite applies steps in order.
func Rewrite(doc Document, steps []Step) string {
	for _, s := range steps {
		doc.Content = s.Apply(doc)
	}
	return doc.Content
}
