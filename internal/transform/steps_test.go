package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepByName(t *testing.T, name string) Step {
	t.Helper()
	for _, s := range DefaultSteps() {
		if s.Name() == name {
			return s
		}
	}
	require.Failf(t, "missing step", "%s", name)
	return nil
}

func TestDefaultStepsOrder(t *testing.T) {
	var names []string
	for _, s := range DefaultSteps() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		StepReplaceTitle, StepReplaceCharset, StepInjectPostsLoop,
		StepInjectHeadHook, StepInjectBodyOpenHook, StepInjectFooterHook,
	}, names)
}

func TestSteps(t *testing.T) {
	tests := []struct {
		step string
		doc  Document
		want string
	}{
		{StepReplaceTitle, Document{"a.html", "<TITLE>Old</TITLE>"}, "<?php wp_title(); ?>"},
		{StepReplaceCharset, Document{"a.html", `<meta charset="utf-8">`}, `<meta charset="<?php bloginfo('charset'); ?>">`},
		{StepReplaceCharset, Document{"a.html", `<meta charset='utf-8' />`}, `<meta charset="<?php bloginfo('charset'); ?>">`},
		{StepInjectHeadHook, Document{"a.html", "<head></head>"}, "<head>    <?php wp_head(); ?>\n</head>"},
		{StepInjectBodyOpenHook, Document{"a.html", `<body class="x">`}, "<body class=\"x\">\n<?php wp_body_open(); ?>"},
		{StepInjectBodyOpenHook, Document{"a.html", `<bodyguard>`}, `<bodyguard>`},
		{StepInjectFooterHook, Document{"a.html", "</body>"}, "    <?php wp_footer(); ?>\n</body>"},
		{StepInjectFooterHook, Document{"a.html", "<p>no body</p>"}, "<p>no body</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.step+"/"+tt.doc.Content, func(t *testing.T) {
			assert.Equal(t, tt.want, stepByName(t, tt.step).Apply(tt.doc))
		})
	}
}

func TestInjectPostsLoopOnlyForEntryCandidates(t *testing.T) {
	step := stepByName(t, StepInjectPostsLoop)
	content := "<main class=\"hero\">\n<p>static</p>\n</main>"

	for _, name := range []string{"index.html", "Home.html", "site-index.html"} {
		got := step.Apply(Document{Name: name, Content: content})
		assert.Contains(t, got, "have_posts()", name)
		assert.NotContains(t, got, "static", name)
		assert.True(t, strings.HasPrefix(got, `<main id="main" class="site-main">`))
	}

	got := step.Apply(Document{Name: "about.html", Content: content})
	assert.Equal(t, content, got)
}

func TestRewriteFullDocument(t *testing.T) {
	in := `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Acme</title>
</head>
<body>
<main><h1>Hello</h1></main>
</body>
</html>`
	out := Rewrite(Document{Name: "index.html", Content: in}, DefaultSteps())

	assert.Contains(t, out, "<?php wp_title(); ?>")
	assert.NotContains(t, out, "<title>")
	assert.Contains(t, out, "bloginfo('charset')")
	assert.Contains(t, out, "<?php wp_head(); ?>\n</head>")
	assert.Contains(t, out, "<body>\n<?php wp_body_open(); ?>")
	assert.Contains(t, out, "<?php wp_footer(); ?>\n</body>")
	assert.NotContains(t, out, "<h1>Hello</h1>")
	assert.Equal(t, out, Rewrite(Document{Name: "index.html", Content: in}, DefaultSteps()))
}

func TestRewriteWithoutPatternsIsIdentity(t *testing.T) {
	in := "<div>fragment</div>"
	assert.Equal(t, in, Rewrite(Document{Name: "index.html", Content: in}, DefaultSteps()))
}
