package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tailzen/cmd/tailzen/commands"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}

	parser := kong.Parse(cli,
		kong.Name("tailzen"),
		kong.Description("Convert GitHub repositories into WordPress themes."),
		kong.UsageOnError(),
		kong.Bind(global),
	)

	if err := parser.Run(global, cli); err != nil {
		derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
