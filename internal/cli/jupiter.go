package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/galileobot/galileo/internal/quoterproc"
)

// newJupiterCommand builds `galileo jupiter`, managing the external
// quoter binary's process lifecycle (spec.md §6). Download/update logic
// is out of scope (spec.md §1) and returns quoterproc.ErrNotImplemented.
func newJupiterCommand() *cobra.Command {
	var binaryPath string
	var pidFile string

	jupiterCmd := &cobra.Command{
		Use:   "jupiter",
		Short: "manage the external Jupiter quoter process",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if binaryPath == "" {
				binaryPath = defaultQuoterBinaryPath()
			}
			if pidFile == "" {
				pidFile = defaultQuoterPidFile()
			}
			return nil
		},
	}
	jupiterCmd.PersistentFlags().StringVar(&binaryPath, "binary", "", "path to the quoter binary")
	jupiterCmd.PersistentFlags().StringVar(&pidFile, "pid-file", "", "path to the quoter pid file")

	manager := func() *quoterproc.Manager { return quoterproc.NewManager(binaryPath, pidFile) }

	var forceUpdate bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "start the quoter process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager().Start(forceUpdate)
		},
	}
	startCmd.Flags().BoolVar(&forceUpdate, "force-update", false, "update before starting (not implemented)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "stop the quoter process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager().Stop()
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "restart the quoter process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager().Restart()
		},
	}

	var updateTag string
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "update the quoter binary (not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager().Update(updateTag)
		},
	}
	updateCmd.Flags().StringVarP(&updateTag, "v", "v", "", "version tag to update to")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "report whether the quoter process is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := manager().Status()
			if status.Running {
				fmt.Printf("running (pid %d)\n", status.Pid)
			} else {
				fmt.Println("stopped")
			}
			return nil
		},
	}

	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list available quoter releases (not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := manager().List(listLimit)
			return err
		},
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "maximum number of releases to list")

	jupiterCmd.AddCommand(startCmd, stopCmd, restartCmd, updateCmd, statusCmd, listCmd)
	return jupiterCmd
}

func defaultQuoterBinaryPath() string {
	return filepath.Join(".", "bin", "jupiter-quoter")
}

func defaultQuoterPidFile() string {
	dir := os.TempDir()
	return filepath.Join(dir, "galileo-jupiter-quoter.pid")
}
