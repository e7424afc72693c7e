package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

// cli carries state shared by subcommands once flags are parsed.
type cli struct {
	cfgFile string
	cfg     folio.SiteConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "folio",
		Short: "folio - a personal publishing engine built with Go, Echo and templ",
		Long: `folio serves posts grouped by topic, standalone pages and a link log
from a SQLite database, with an admin dashboard, a JSON API, RSS and a
sitemap. Configuration comes from a YAML/TOML/JSON file given with --config
and from FOLIO_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.cfgFile)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./folio.yaml when present)")

	root.AddCommand(
		newServeCmd(c),
		newRenderCmd(c),
		newImportCmd(c),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
