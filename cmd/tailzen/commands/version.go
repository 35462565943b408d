package commands

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/tailzen/internal/version"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct {
	JSON bool `help:"Print build information as JSON"`
}

func (v *VersionCmd) Run(g *Global) error {
	info := version.Get()
	if v.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err := fmt.Fprintln(g.out(), info.String())
	return err
}
