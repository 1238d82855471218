package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"deltamerge/internal/app"
	"deltamerge/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Merge TopM and Addison exports into a cost-center report",
		Long: `deltamerge reads the TopM KPI export and the Addison accounting export,
derives margin KPIs per cost center (KSt), joins the Addison figures and
writes the final cost report as a formatted Excel workbook.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Stdout = cmd.OutOrStdout()
			return app.Run(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.Flags()
	f.StringVar(&opts.TopM, "topm", "", "TopM export workbook (.xlsx)")
	f.StringVar(&opts.Addison, "addison", "", "Addison export workbook (.xlsx)")
	f.StringVar(&opts.Out, "out", "", fmt.Sprintf("output workbook (default %q)", config.DefaultOutputPath))
	f.StringVar(&opts.ConfigPath, "config", "", "YAML config file (default: deltamerge.yaml or configs/deltamerge.yaml if present)")
	f.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	f.BoolVar(&opts.Summary, "summary", false, "print the final report as a console table")
	_ = root.MarkFlagRequired("topm")
	_ = root.MarkFlagRequired("addison")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	})

	return root
}
