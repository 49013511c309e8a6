package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"github.com/yigit/edupay/internal/bootstrap"
	"github.com/yigit/edupay/internal/pkg/logger"
	"github.com/yigit/edupay/internal/server"
)

// @title EduPay API
// @version 1.0
// @description Fee management console: courses, students, payments, approvals and reports

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	app := &cli.App{
		Name:  "edupay-api",
		Usage: "serve the fee management console API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   bootstrap.DefaultConfigPath,
				Usage:   "path to the YAML config file",
				EnvVars: []string{"EDUPAY_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "run on an in-memory store with demo data",
			},
		},
		Action: func(c *cli.Context) error {
			srv, err := server.NewServer(c.Context, server.Options{
				ConfigPath: c.String("config"),
				Memory:     c.Bool("memory"),
			})
			if err != nil {
				logger.Error().Err(err).Msg("Failed to initialize server")
				return err
			}
			// Blocks until shutdown signal
			return srv.Run()
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}
	logger.Info().Msg("Application finished gracefully.")
}
