package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	projectDir  string
	metricsAddr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "healing",
	Short: "Healing - roster sync console for survey modules",
	Long: `Healing keeps one participant roster and organization context and pushes
it to every survey module (program, facility, prevention, healing, counsel,
hrv, vibra, gambling) on request.

Run without a subcommand to open the console.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", cwd, "Project directory holding .healing/")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides HEALING_METRICS_ADDR)")
}
