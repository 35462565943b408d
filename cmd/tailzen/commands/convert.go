package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/tailzen/internal/config"
	"git.home.luguber.info/inful/tailzen/internal/convert"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/logfields"
	"git.home.luguber.info/inful/tailzen/internal/packager"
	"git.home.luguber.info/inful/tailzen/internal/source"
	"git.home.luguber.info/inful/tailzen/internal/transform"
)

// ConvertCmd implements the 'convert' command.
type ConvertCmd struct {
	Repository string `arg:"" help:"Repository as owner/name or GitHub URL"`
	OutputKind string `name:"output-kind" short:"k" help:"Output kind (dir|zip|s3); defaults to output.kind"`
	Out        string `short:"o" help:"Output directory; defaults to output.directory"`
	Source     string `name:"source" help:"Content source (api|git); defaults to fetch.source"`
	Overwrite  bool   `help:"Replace an existing theme directory"`
	NoProgress bool   `name:"no-progress" help:"Disable the progress bar"`
}

func (c *ConvertCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, c.Source, c.OutputKind, c.Out); err != nil {
		return err
	}
	ref, err := source.ParseRef(c.Repository)
	if err != nil {
		return err
	}
	api, err := newSource(cfg, cfg.Fetch.Source, g.Logger)
	if err != nil {
		return err
	}
	pkg, err := newPackager(cfg, c.Overwrite)
	if err != nil {
		return err
	}

	observers := convert.MultiObserver{convert.LogObserver{Logger: g.Logger}}
	var progress *progressObserver
	if !c.NoProgress {
		progress = newProgressObserver(os.Stderr, convertStages)
		defer progress.Finish()
		observers = append(observers, progress)
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := convert.New(api, converterOptions(cfg, g.Logger, nil, observers)).Convert(ctx, ref)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	location, err := pkg.Package(ctx, transform.TextDomain(res.ThemeName), res.Artifacts)
	if err != nil {
		return err
	}
	g.Logger.Info("Theme written",
		logfields.ConversionID(res.ConversionID),
		logfields.Path(location))
	printSummary(g.out(), res, location)
	return nil
}

// applyOverrides applies command-line selections on top of the configuration.
func applyOverrides(cfg *config.Config, src, kind, out string) error {
	if src != "" {
		cfg.Fetch.Source = config.SourceKind(src)
	}
	if kind != "" {
		cfg.Output.Kind = config.OutputKind(kind)
	}
	if out != "" {
		cfg.Output.Directory = out
	}
	return cfg.Validate()
}

// newPackager builds the packager selected by output.kind.
func newPackager(cfg *config.Config, overwrite bool) (packager.Packager, error) {
	switch cfg.Output.Kind {
	case config.OutputZip:
		return packager.Zip{Root: cfg.Output.Directory}, nil
	case config.OutputS3:
		store, err := packager.NewObjectStore(packager.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.OutputDirectory, "":
		return packager.Directory{Root: cfg.Output.Directory, Overwrite: overwrite}, nil
	default:
		return nil, derrors.ValidationError("unsupported output kind").
			WithContext("kind", string(cfg.Output.Kind)).
			Build()
	}
}

func printSummary(w io.Writer, res convert.Result, location string) {
	_, _ = fmt.Fprintf(w, "Theme:       %s\n", res.ThemeName)
	_, _ = fmt.Fprintf(w, "Description: %s\n", res.Description)
	_, _ = fmt.Fprintf(w, "Location:    %s\n", location)
	_, _ = fmt.Fprintf(w, "Files (%d, %d bytes):\n", res.Artifacts.Len(), res.Artifacts.TotalBytes())
	for name, content := range res.Artifacts.All() {
		_, _ = fmt.Fprintf(w, "  %-14s %8d\n", name, len(content))
	}
}
