package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const releaseVersion = "0.1.0"

type Config struct {
	directory string
	listen    string
	advertise string
	rounds    int
	level     int
	catalog   string
	name      string
	logLevel  string
	logFormat string
}

func (c *Config) validate() error {
	if c.directory == "" {
		return errors.New("--directory is required")
	}
	if c.rounds < 1 {
		return fmt.Errorf("invalid rounds (must be at least 1): %d", c.rounds)
	}
	if c.level < 1 {
		return fmt.Errorf("invalid level (must be at least 1): %d", c.level)
	}
	return nil
}

// advertiseURL is where the responder dials. Defaults to the listen address.
func (c *Config) advertiseURL() string {
	if c.advertise != "" {
		return c.advertise
	}
	host := c.listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "ws://" + host + "/peer"
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DOMAINGUESSR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:           "peer",
		Short:         "Play a two-player domain guessing match over a direct peer link.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindEnv(v, cmd.Flags())
			return cfg.validate()
		},
	}

	pfs := root.PersistentFlags()
	pfs.SetNormalizeFunc(normalize)
	pfs.StringVarP(&cfg.directory, "directory", "d", "http://localhost:8080", "lobby directory base URL (env: DOMAINGUESSR_DIRECTORY)")
	pfs.StringVar(&cfg.catalog, "catalog", "", "path to a custom domains.yaml (env: DOMAINGUESSR_CATALOG)")
	pfs.StringVarP(&cfg.name, "name", "n", "player", "display name (env: DOMAINGUESSR_NAME)")
	pfs.StringVar(&cfg.logLevel, "log-level", "warn", "log level (env: DOMAINGUESSR_LOG_LEVEL)")
	pfs.StringVar(&cfg.logFormat, "log-format", "console", "log format, console or json (env: DOMAINGUESSR_LOG_FORMAT)")

	host := &cobra.Command{
		Use:   "host",
		Short: "Create a lobby and wait for an opponent.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	hfs := host.Flags()
	hfs.SetNormalizeFunc(normalize)
	hfs.StringVarP(&cfg.listen, "listen", "l", ":9000", "address for the peer link listener (env: DOMAINGUESSR_LISTEN)")
	hfs.StringVar(&cfg.advertise, "advertise", "", "websocket URL the opponent dials, defaults to the listen address (env: DOMAINGUESSR_ADVERTISE)")
	hfs.IntVarP(&cfg.rounds, "rounds", "r", 10, "rounds per match (env: DOMAINGUESSR_ROUNDS)")
	hfs.IntVar(&cfg.level, "level", 1, "player level, selects the difficulty band (env: DOMAINGUESSR_LEVEL)")

	join := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a lobby by code.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd.Context(), cfg, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	root.AddCommand(host, join)
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.SetVersionTemplate("peer v{{.Version}}\n")

	return root
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// bindEnv lets DOMAINGUESSR_* variables fill flags the user did not set.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
