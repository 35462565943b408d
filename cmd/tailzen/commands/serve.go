package commands

import (
	"git.home.luguber.info/inful/tailzen/internal/convert"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	"git.home.luguber.info/inful/tailzen/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Address string `short:"a" help:"Listen address; defaults to server.address"`
	Source  string `name:"source" help:"Content source (api|git); defaults to fetch.source"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, s.Source, "", ""); err != nil {
		return err
	}
	if s.Address != "" {
		cfg.Server.Address = s.Address
	}
	api, err := newSource(cfg, cfg.Fetch.Source, g.Logger)
	if err != nil {
		return err
	}

	opts := server.Options{
		Address:        cfg.Server.Address,
		RequestTimeout: cfg.RequestTimeout(),
		Logger:         g.Logger,
	}
	var rec metrics.Recorder
	if cfg.Server.EnableMetrics {
		reg := metrics.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		opts.Registry = reg
	}

	conv := convert.New(api, converterOptions(cfg, g.Logger, rec, convert.LogObserver{Logger: g.Logger}))

	ctx, cancel := signalContext()
	defer cancel()
	return server.New(conv, opts).Start(ctx)
}
