package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/admin"
	"github.com/travigo/geotrack/pkg/api"
	"github.com/travigo/geotrack/pkg/realtime"
	"github.com/travigo/geotrack/pkg/util"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	env := util.GetEnvironmentVariables()

	if env["GEOTRACK_LOG_FORMAT"] != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if util.Enabled(env, "GEOTRACK_DEBUG") {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "geotrack",
		Description: "Vehicle GPS fix ingestion and latest location tracking",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			realtime.RegisterCLI(),
			admin.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
