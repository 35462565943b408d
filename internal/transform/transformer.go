// Package transform builds the WordPress theme artifacts from classified
// repository files: an aggregated stylesheet, templates rewritten from markup,
// synthesized defaults and the functions/README auxiliaries.
package transform

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/tailzen/internal/classify"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultMaxStyleFiles  = 5
	DefaultMaxMarkupFiles = 3
	DefaultAuthor         = "TailZen"
	DefaultVersion        = "1.0.0"
	DefaultDescription    = "WordPress theme converted from GitHub repository"
	excerptLength         = 30
)

// ContentSource materializes the text of a listed file.
type ContentSource interface {
	FetchContent(ctx context.Context, entry source.RemoteEntry) (string, error)
}

// Options configures a Transformer.
type Options struct {
	MaxStyleFiles  int
	MaxMarkupFiles int
	Author         string
	Version        string
	// Year is printed in the synthesized footer. When zero, Now is read once
	// per BuildArtifacts call.
	Year     int
	Now      func() time.Time
	Steps    []Step
	Roles    []RoleRule
	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Transformer converts classified files into an ArtifactSet. It keeps no
// state between calls.
type Transformer struct {
	src  ContentSource
	opts Options
}

// New returns a Transformer reading file content from src.
func New(src ContentSource, opts Options) *Transformer {
	if opts.MaxStyleFiles <= 0 {
		opts.MaxStyleFiles = DefaultMaxStyleFiles
	}
	if opts.MaxMarkupFiles <= 0 {
		opts.MaxMarkupFiles = DefaultMaxMarkupFiles
	}
	if opts.Author == "" {
		opts.Author = DefaultAuthor
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Steps == nil {
		opts.Steps = DefaultSteps()
	}
	if opts.Roles == nil {
		opts.Roles = DefaultRoleRules()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	return &Transformer{src: src, opts: opts}
}

// BuildArtifacts produces the theme. Per-file fetch failures are logged and
// skipped; the only error returned is cancellation.
func (t *Transformer) BuildArtifacts(ctx context.Context, meta source.RepositoryMetadata, classified classify.Result) (*ArtifactSet, error) {
	year := t.opts.Year
	if year == 0 {
		year = t.opts.Now().Year()
	}

	themeName := ThemeName(meta.Name)
	description := meta.Description
	if description == "" {
		description = DefaultDescription
	}
	repoDescription := meta.Description
	if repoDescription == "" {
		repoDescription = "No description available"
	}
	data := skeletonData{
		ThemeName:             themeName,
		Description:           description,
		RepositoryName:        meta.Name,
		RepositoryDescription: repoDescription,
		HomeURL:               meta.HomeURL,
		TextDomain:            TextDomain(meta.Name),
		Prefix:                functionPrefix(themeName),
		Author:                t.opts.Author,
		Version:               t.opts.Version,
		Year:                  year,
		ExcerptLength:         excerptLength,
		HasStyles:             len(classified.Styles) > 0,
		HasScripts:            len(classified.Scripts) > 0,
	}

	set := NewArtifactSet()

	style, err := t.buildStylesheet(ctx, data, capped(classified.Styles, t.opts.MaxStyleFiles))
	if err != nil {
		return nil, err
	}
	set.Set(StyleSheet, style)

	if err := t.convertMarkup(ctx, set, capped(classified.Markup, t.opts.MaxMarkupFiles)); err != nil {
		return nil, err
	}

	for _, a := range []struct {
		name     string
		skeleton string
	}{
		{Index, "index.php.tmpl"},
		{Functions, "functions.php.tmpl"},
		{Header, "header.php.tmpl"},
		{Footer, "footer.php.tmpl"},
		{Readme, "README.md.tmpl"},
	} {
		if set.Has(a.name) {
			continue
		}
		content, err := render(a.skeleton, data)
		if err != nil {
			return nil, derrors.TransformError("failed to render theme skeleton").
				WithCause(err).
				WithContext("artifact", a.name).
				Build()
		}
		set.Set(a.name, content)
		t.opts.Logger.DebugContext(ctx, "Synthesized artifact", logfields.Artifact(a.name))
	}
	return set, nil
}

var importDirective = regexp.MustCompile(`@import\s+[^;]+;`)

// ProcessStyle strips @import directives and appends the WordPress baseline rules.
func ProcessStyle(css string) string {
	return importDirective.ReplaceAllString(css, "") + styleBaseline
}

func (t *Transformer) buildStylesheet(ctx context.Context, data skeletonData, styles []source.RemoteEntry) (string, error) {
	header, err := render("style-header.css.tmpl", data)
	if err != nil {
		return "", derrors.TransformError("failed to render stylesheet header").WithCause(err).Build()
	}
	var b strings.Builder
	b.WriteString(header)
	for _, entry := range styles {
		content, ok, err := t.fetch(ctx, entry, "style")
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		b.WriteString("\n/* From " + entry.Name + " */\n")
		b.WriteString(ProcessStyle(content))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (t *Transformer) convertMarkup(ctx context.Context, set *ArtifactSet, markup []source.RemoteEntry) error {
	roles := newRoleAssigner(t.opts.Roles)
	for _, entry := range markup {
		content, ok, err := t.fetch(ctx, entry, "markup")
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		assignment := roles.assign(entry.Name)
		if assignment.Dropped {
			t.opts.Logger.WarnContext(ctx, "Dropping markup file: template name already taken",
				logfields.Path(entry.Path),
				logfields.Artifact(assignment.Filename))
			continue
		}
		set.Set(assignment.Filename, Rewrite(Document{Name: entry.Name, Content: content}, t.opts.Steps))
		t.opts.Logger.DebugContext(ctx, "Converted markup",
			logfields.Path(entry.Path),
			logfields.Artifact(assignment.Filename),
			logfields.Role(string(assignment.Role)))
	}
	return nil
}

// fetch returns ok=false for soft failures. Cancellation is the only error.
func (t *Transformer) fetch(ctx context.Context, entry source.RemoteEntry, kind string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, derrors.Cancelled("transforming", err)
	}
	content, err := t.src.FetchContent(ctx, entry)
	if err == nil {
		return content, true, nil
	}
	if ctx.Err() != nil {
		return "", false, derrors.Cancelled("transforming", ctx.Err())
	}
	loss := derrors.PartialContentLoss(entry.Path, err)
	t.opts.Recorder.IncSoftFailure(kind)
	t.opts.Logger.WarnContext(ctx, "Skipping file after fetch failure",
		logfields.Path(entry.Path),
		slog.String("kind", kind),
		logfields.Category(string(loss.Category())),
		logfields.Error(err))
	return "", false, nil
}

func capped(entries []source.RemoteEntry, n int) []source.RemoteEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
