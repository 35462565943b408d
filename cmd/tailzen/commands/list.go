package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/tailzen/internal/classify"
	"git.home.luguber.info/inful/tailzen/internal/convert"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Repository string `arg:"" help:"Repository as owner/name or GitHub URL"`
	Source     string `name:"source" help:"Content source (api|git); defaults to fetch.source"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, l.Source, "", ""); err != nil {
		return err
	}
	ref, err := source.ParseRef(l.Repository)
	if err != nil {
		return err
	}
	api, err := newSource(cfg, cfg.Fetch.Source, g.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	inv, err := convert.New(api, converterOptions(cfg, g.Logger, nil, nil)).Inventory(ctx, ref)
	if err != nil {
		return err
	}
	printInventory(g.out(), ref, inv)
	return nil
}

func printInventory(w io.Writer, ref source.RepositoryRef, inv convert.Inventory) {
	_, _ = fmt.Fprintf(w, "Repository: %s (%d files)\n", ref, len(inv.Files))
	if inv.Metadata.Description != "" {
		_, _ = fmt.Fprintf(w, "Description: %s\n", inv.Metadata.Description)
	}
	groups := []struct {
		name    classify.Category
		entries []source.RemoteEntry
	}{
		{classify.Styles, inv.Classified.Styles},
		{classify.Markup, inv.Classified.Markup},
		{classify.Scripts, inv.Classified.Scripts},
		{classify.Images, inv.Classified.Images},
	}
	for _, g := range groups {
		_, _ = fmt.Fprintf(w, "%s (%d):\n", g.name, len(g.entries))
		for _, e := range g.entries {
			_, _ = fmt.Fprintf(w, "  %s\n", e.Path)
		}
	}
	if other := len(inv.Files) - inv.Classified.Total(); other > 0 {
		_, _ = fmt.Fprintf(w, "unclassified: %d\n", other)
	}
}
