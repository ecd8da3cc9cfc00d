package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Apurer/go-gin-users-crud/internal/app/api"
)

func main() {
	app := &cli.App{
		Name:  "users-api",
		Usage: "serve the users REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML or TOML config file",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "listen port, overrides config and PORT",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := api.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Port = c.String("port")
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg)
		},
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatalf("users API failed: %v", err)
	}
}
