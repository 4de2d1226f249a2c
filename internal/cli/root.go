// Package cli assembles galileo's cobra command tree: run, dry-run, lander
// send, init, and jupiter (the external quoter process's lifecycle).
// Grounded on the teacher's cmd/gocoffee-cli/main.go + internal/cli/root.go
// cobra+viper shape.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the galileo root command. version/commit/date are
// injected at build time the same way the teacher's cmd/gocoffee-cli does.
func NewRootCommand(version, commit, date string) *cobra.Command {
	root := &cobra.Command{
		Use:     "galileo",
		Short:   "galileo is a self-hosted Solana arbitrage bot",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to galileo.yaml")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newRunCommand())
	root.AddCommand(newDryRunCommand())
	root.AddCommand(newLanderCommand())
	root.AddCommand(newInitCommand())
	root.AddCommand(newJupiterCommand())

	return root
}

// configPath reads the `-c`/`--config` flag a subcommand inherited from the
// persistent flag set.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
