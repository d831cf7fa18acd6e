package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "relbot",
	Short: "Question answering over Relativity release notes",
	Long: `relbot answers questions about Relativity releases from a release-notes
CSV, using a hosted chat model, and logs every interaction to a spreadsheet
webhook.

Configuration is read from the environment (and an optional .env file or
CONFIG_FILE YAML).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the relbot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "relbot version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(serveCmd, searchCmd, askCmd, statusCmd, mcpCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
