// Package cli implements the rigour command line: one subcommand per API
// operation plus "browse", which renders the web front-end pages.
package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rigour/rigour_sdk_go/internal/config"
	"github.com/rigour/rigour_sdk_go/internal/logging"
	"github.com/rigour/rigour_sdk_go/pkg/rigour_sdk"
)

// Flags are the persistent flags shared by every subcommand. Flags that are
// not set on the command line leave the environment configuration alone.
type Flags struct {
	APIURL     string
	Mode       string
	Deployment string
	Seed       string
	LogLevel   string
	Pretty     bool
	JSON       bool
}

type app struct {
	flags   Flags
	cfg     *config.Config
	clients *rigour_sdk.Clients
	log     zerolog.Logger
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rigour",
		Short: "Query a Rigour host-records API",
		Long: `
		rigour reads hosts, banners, scans and credentials from a Rigour API.
		The API origin, runtime mode and deployment come from RIGOUR_* environment
		variables (or a .env file) and can be overridden with flags. Without an
		API URL the commands run against an in-memory mock, optionally seeded
		with --seed.
		`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	fl := root.PersistentFlags()

	connFlags := pflag.NewFlagSet("Connection", pflag.ExitOnError)
	connFlags.StringVar(&a.flags.APIURL, "api-url", "", "API origin (overrides "+config.EnvAPIURL+")")
	connFlags.StringVar(&a.flags.Mode, "mode", "", "runtime mode: auto, http or mock")
	connFlags.StringVar(&a.flags.Deployment, "deployment", "", "API schema: banners or scans")
	connFlags.StringVar(&a.flags.Seed, "seed", "", "JSON seed file for mock mode")
	fl.AddFlagSet(connFlags)

	outFlags := pflag.NewFlagSet("Output", pflag.ExitOnError)
	outFlags.StringVar(&a.flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	outFlags.BoolVar(&a.flags.Pretty, "pretty", true, "human readable logs")
	outFlags.BoolVar(&a.flags.JSON, "json", false, "print results as JSON")
	fl.AddFlagSet(outFlags)

	root.AddGroup(
		&cobra.Group{ID: "banners", Title: "Banner deployment:"},
		&cobra.Group{ID: "scans", Title: "Scan-list deployment:"},
	)
	root.AddCommand(
		a.hostCommand(),
		a.searchCommand(),
		a.countCommand(),
		a.hostsCommand(),
		a.credentialsCommand(),
		a.browseCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = strings.TrimSpace(a.flags.APIURL)
	}
	if flags.Changed("mode") {
		cfg.Mode = config.Mode(strings.ToLower(a.flags.Mode))
	}
	if flags.Changed("deployment") {
		cfg.Deployment = config.Deployment(strings.ToLower(a.flags.Deployment))
	}
	if flags.Changed("seed") {
		cfg.MockSeed = a.flags.Seed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Pretty: a.flags.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	clients, err := rigour_sdk.NewFromConfig(cfg, rigour_sdk.WithLogger(log))
	if err != nil {
		return err
	}
	log.Debug().
		Str("mode", string(clients.Mode)).
		Str("deployment", string(clients.Deployment)).
		Str("api_url", cfg.APIURL).
		Msg("clients ready")

	a.cfg, a.clients, a.log = cfg, clients, log
	return nil
}

// requires reports a usage error when the command needs a deployment other
// than the configured one.
func (a *app) requires(cmd *cobra.Command, d config.Deployment) error {
	if a.clients.Deployment == d {
		return nil
	}
	return errors.Errorf("%s needs the %s deployment, configured: %s (set --deployment or %s)",
		cmd.CommandPath(), d, a.clients.Deployment, config.EnvDeployment)
}

func optInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optString(cmd *cobra.Command, name string, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func joinArgs(args []string) *string {
	if len(args) == 0 {
		return nil
	}
	q := strings.Join(args, " ")
	return &q
}

func (a *app) emit(cmd *cobra.Command, v any, text func(*table)) error {
	out := cmd.OutOrStdout()
	if a.flags.JSON {
		return writeJSON(out, v)
	}
	t := newTable(out)
	text(t)
	return errors.Wrap(t.flush(), "write output")
}
