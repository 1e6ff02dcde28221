package cli

import (
	"github.com/spf13/cobra"

	"github.com/vileikis/glowbooth/internal/cli/output"
)

var (
	jsonOutput bool
	quietMode  bool
	cfg        *Config
	printer    *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "boothctl",
	Short: "glowbooth operator CLI - inspect and manage transform jobs",
	Long: `boothctl is the operator command-line interface for the glowbooth
transform engine.

Inspect job documents, re-enqueue stuck jobs, and watch progress:
  boothctl job inspect <job-id>
  boothctl job requeue <job-id>
  boothctl job watch <job-id>`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return err
		}

		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(jobCmd)
}
