package realtime

import (
	"github.com/travigo/geotrack/pkg/realtime/fixqueue"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "realtime",
		Usage: "Realtime GPS fix processing",
		Subcommands: []*cli.Command{
			fixqueue.RegisterCLI(),
		},
	}
}
