package transform

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"text/template"
)

//go:embed skeletons/*.tmpl
var skeletonFS embed.FS

//go:embed skeletons/posts-loop.php
var postsLoop string

//go:embed skeletons/style-baseline.css
var styleBaseline string

var skeletons = template.Must(template.New("skeletons").
	Funcs(template.FuncMap{"attr": html.EscapeString}).
	Option("missingkey=error").
	ParseFS(skeletonFS, "skeletons/*.tmpl"))

// skeletonData is the input of every skeleton template.
type skeletonData struct {
	ThemeName             string
	Description           string
	RepositoryName        string
	RepositoryDescription string
	HomeURL               string
	TextDomain            string
	Prefix                string
	Author                string
	Version               string
	Year                  int
	ExcerptLength         int
	HasStyles             bool
	HasScripts            bool
}

func render(name string, data skeletonData) (string, error) {
	var buf bytes.Buffer
	if err := skeletons.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
