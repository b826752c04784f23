package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/must-gpa/chartlet/internal/buildinfo"
	"github.com/must-gpa/chartlet/internal/resolver"
)

func lookupCmd(app *cliApp) *cobra.Command {
	var name, outDir string
	cmd := &cobra.Command{
		Use:   "lookup ROLL[,ROLL...]",
		Short: "Download charts for one or more roll numbers into a PDF",
		Long: `Download the GPA chart for each comma-separated roll number, stamp the
roll number on it and save all charts as one PDF. A single roll number is
saved under its own name unless --name is given.`,
		Example: "  chartlet lookup FA21-BCS-001\n  chartlet lookup FA21-BCS-001,FA21-BCS-007 --name friends",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := app.batch.List(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				if len(refs) > 1 {
					return fmt.Errorf("--name is required when looking up more than one roll number")
				}
				name = refs[0].Roll.String()
			}

			res, err := app.bundle(cmd.Context(), cmd.ErrOrStderr(), refs, name, outDir)
			if err != nil {
				return err
			}
			printBundle(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "PDF file name (without extension)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default ~/MUST_GPA)")
	return cmd
}

func rangeCmd(app *cliApp) *cobra.Command {
	var name, outDir string
	cmd := &cobra.Command{
		Use:     "range FIRST LAST",
		Short:   "Download a whole class from the first to the last roll number",
		Example: "  chartlet range FA21-BCS-001 FA21-BCS-060 --name BCS-2021",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := app.batch.Range(args[0], args[1])
			if err != nil {
				return err
			}
			res, err := app.bundle(cmd.Context(), cmd.ErrOrStderr(), refs, name, outDir)
			if err != nil {
				return err
			}
			printBundle(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Class name used for the PDF file")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default ~/MUST_GPA)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func urlCmd(app *cliApp) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "url ROLL",
		Short: "Print the chart URL for a roll number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !check {
				ref, err := app.resolver.Resolve(args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), ref.URL)
				return nil
			}

			st, _ := resolver.NewView(app.resolver).Submit(cmd.Context(), args[0])
			if st.Status == resolver.StatusInvalid {
				return fmt.Errorf("%s", st.Message)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", st.ChartURL, st.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Also check whether the chart is available")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chartlet %s\n", buildinfo.String())
		},
	}
}
