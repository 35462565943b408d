// Package commands implements the tailzen command tree.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/tailzen/internal/config"
	"git.home.luguber.info/inful/tailzen/internal/convert"
	"git.home.luguber.info/inful/tailzen/internal/fetcher"
	"git.home.luguber.info/inful/tailzen/internal/forge"
	"git.home.luguber.info/inful/tailzen/internal/git"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/retry"
	"git.home.luguber.info/inful/tailzen/internal/source"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output (stdout when nil).
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"tailzen.yaml"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
	LogFormat string `name:"log-format" help:"Log format (text|json); overrides log.format"`

	Convert ConvertCmd `cmd:"" help:"Convert a repository into a WordPress theme"`
	List    ListCmd    `cmd:"" help:"List the classified files of a repository without converting"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP conversion API"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Version VersionCmd `cmd:"" help:"Print build information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(os.Stderr, c.Verbose, c.LogFormat)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads the configuration and re-applies the configured log
// settings unless flags override them.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	format := c.LogFormat
	if format == "" {
		format = cfg.Log.Format
	}
	verbose := c.Verbose || strings.EqualFold(cfg.Log.Level, "debug")
	g.Logger = newLogger(os.Stderr, verbose, format)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newSource builds the content source selected by kind (config default when empty).
func newSource(cfg *config.Config, kind config.SourceKind, logger *slog.Logger) (source.API, error) {
	if kind == "" {
		kind = cfg.Fetch.Source
	}
	if kind == config.SourceGit {
		return git.NewSource(git.Options{
			BaseURL: cfg.GitHub.CloneURL,
			Token:   cfg.GitHub.Token,
			Logger:  logger,
		}), nil
	}
	client, err := forge.NewGitHubClient(forge.GitHubOptions{
		APIURL:     cfg.GitHub.APIURL,
		Token:      cfg.GitHub.Token,
		UserAgent:  cfg.GitHub.UserAgent,
		HTTPClient: forge.NewHTTPClient(cfg.HTTPTimeout()),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// converterOptions translates configuration into conversion options.
func converterOptions(cfg *config.Config, logger *slog.Logger, rec metrics.Recorder, obs convert.Observer) convert.Options {
	return convert.Options{
		Fetch: fetcher.Options{
			Concurrency: cfg.Fetch.Concurrency,
			Policy: retry.NewPolicy(cfg.Fetch.RetryBackoff, cfg.RetryUnit(), cfg.RetryMaxDelay(),
				cfg.Fetch.MaxAttempts-1),
		},
		Transform: transform.Options{
			MaxStyleFiles:  cfg.Transform.MaxStyleFiles,
			MaxMarkupFiles: cfg.Transform.MaxMarkupFiles,
			Author:         cfg.Transform.Author,
		},
		Logger:   logger,
		Recorder: rec,
		Observer: obs,
	}
}
