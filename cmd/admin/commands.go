package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yigit/edupay/internal/app/models"
	appServices "github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/bootstrap"
	"github.com/yigit/edupay/internal/config"
	"github.com/yigit/edupay/internal/pkg/export"
	"github.com/yigit/edupay/internal/pkg/logger"
	"github.com/yigit/edupay/internal/seed"
)

var readPasswordFunc = term.ReadPassword // mockable

// commandLine carries what the commands share. cfg and deps are loaded by
// the app's Before hook unless already set.
type commandLine struct {
	cfg  *config.Config
	deps *bootstrap.Dependencies
	out  io.Writer
}

func newApp(cmd *commandLine) *cli.App {
	return &cli.App{
		Name:  "edupay-admin",
		Usage: "maintenance tasks for the fee ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   bootstrap.DefaultConfigPath,
				Usage:   "path to the YAML config file",
				EnvVars: []string{"EDUPAY_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			if cmd.cfg != nil {
				return nil
			}
			cfg, _, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
			if err != nil {
				return err
			}
			cmd.cfg = cfg
			return nil
		},
		After: func(c *cli.Context) error {
			if cmd.deps != nil {
				cmd.deps.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: cmd.migrate,
			},
			{
				Name:  "seed",
				Usage: "create the settings row, and demo courses and students with --demo",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "demo", Usage: "also add demo courses and students"},
				},
				Action: cmd.seed,
			},
			{
				Name:  "add-accountant",
				Usage: "create an accountant login; the password is prompted when not given",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
					&cli.StringFlag{Name: "login", Required: true, Usage: "login id"},
					&cli.StringFlag{Name: "password", Usage: "password (prompted when empty)"},
				},
				Action: cmd.addAccountant,
			},
			{
				Name:   "sync",
				Usage:  "load every collection and print row counts",
				Action: cmd.sync,
			},
			{
				Name:      "export",
				Usage:     "export payments or the fee ledger",
				ArgsUsage: "payments|ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.FormatCSV), Usage: "csv or xlsx"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (defaults to the generated name)"},
					&cli.StringFlag{Name: "from", Usage: "first date, YYYY-MM-DD"},
					&cli.StringFlag{Name: "to", Usage: "last date, YYYY-MM-DD"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "payment search text"},
				},
				Action: cmd.export,
			},
		},
	}
}

// dependencies opens the configured store and loads the first snapshot.
func (cmd *commandLine) dependencies(c *cli.Context) (*bootstrap.Dependencies, error) {
	if cmd.deps != nil {
		return cmd.deps, nil
	}
	lgr := logger.Component("admin")
	gw, database, err := bootstrap.OpenGateway(c.Context, cmd.cfg, false, lgr)
	if err != nil {
		return nil, err
	}
	deps, err := bootstrap.BuildDependencies(c.Context, cmd.cfg, gw, lgr)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, err
	}
	deps.Database = database
	cmd.deps = deps
	return deps, nil
}

func (cmd *commandLine) adminSession() models.Session {
	return models.Session{Name: cmd.cfg.Admin.Name, UserID: cmd.cfg.Admin.LoginID, Role: models.RoleAdmin}
}

func (cmd *commandLine) migrate(c *cli.Context) error {
	database, err := bootstrap.SetupDatabase(c.Context, cmd.cfg, logger.Component("admin"))
	if err != nil {
		return err
	}
	database.Close()
	fmt.Fprintln(cmd.out, "migrations applied")
	return nil
}

func (cmd *commandLine) seed(c *cli.Context) error {
	deps, err := cmd.dependencies(c)
	if err != nil {
		return err
	}
	if c.Bool("demo") {
		if err := seed.CreateDemoData(c.Context, deps.Gateway, deps.Logger); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.out, "seed complete")
	return nil
}

func (cmd *commandLine) addAccountant(c *cli.Context) error {
	password := c.String("password")
	if password == "" {
		fmt.Fprint(cmd.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cmd.out)
		if err != nil {
			return err
		}
		password = string(pwd)
	}
	if password == "" {
		return errors.New("a password is required")
	}

	deps, err := cmd.dependencies(c)
	if err != nil {
		return err
	}
	if err := deps.Refresher.Refresh(c.Context); err != nil {
		return err
	}
	acc, err := deps.AccountantService.Create(c.Context, cmd.adminSession(), appServices.AccountantInput{
		Name:     c.String("name"),
		UserID:   c.String("login"),
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.out, "accountant %s (%s) created\n", acc.Name, acc.UserID)
	return nil
}

func (cmd *commandLine) sync(c *cli.Context) error {
	deps, err := cmd.dependencies(c)
	if err != nil {
		return err
	}
	if err := deps.Refresher.Refresh(c.Context); err != nil {
		return err
	}
	counts := deps.State.Current().Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.out, "%-16s %d\n", name, counts[name])
	}
	return nil
}

func (cmd *commandLine) export(c *cli.Context) error {
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	deps, err := cmd.dependencies(c)
	if err != nil {
		return err
	}
	if err := deps.Refresher.Refresh(c.Context); err != nil {
		return err
	}

	r := appServices.DateRange{From: c.String("from"), To: c.String("to")}
	var file *export.File
	switch what := strings.ToLower(c.Args().First()); what {
	case "payments":
		file, err = deps.ReportService.ExportPayments(c.Context, format, c.String("query"), r)
	case "ledger":
		file, err = deps.ReportService.ExportLedger(c.Context, format, r)
	default:
		return fmt.Errorf("unknown export %q: want payments or ledger", what)
	}
	if err != nil {
		return err
	}

	path := c.String("out")
	if path == "" {
		path = file.Name
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.out, "wrote %s (%d bytes)\n", filepath.Clean(path), len(file.Data))
	return nil
}
