// Package main is the entry point for the chartlet command-line tool.
//
// chartlet fetches MUST GPA charts, stamps each with its roll number and
// bundles them into one PDF under ~/MUST_GPA.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

func main() {
	if err := rootCmd(&cliApp{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, domerrors.GetUserMessage(err))
		os.Exit(1)
	}
}

func rootCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chartlet",
		Short:         "MUST GPA chart downloader",
		Long:          `chartlet looks up MUST GPA charts by roll number and saves them as a stamped PDF bundle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.setup(cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(lookupCmd(app))
	cmd.AddCommand(rangeCmd(app))
	cmd.AddCommand(menuCmd(app))
	cmd.AddCommand(urlCmd(app))
	cmd.AddCommand(versionCmd())

	return cmd
}
