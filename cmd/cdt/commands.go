package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/compound-data-tool/internal/domain"
	"github.com/tbourn/compound-data-tool/internal/render"
	"github.com/tbourn/compound-data-tool/internal/services"
)

const fullUsage = "Show compound information without cutting long strings"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "cdt",
		Short: "Compound data tool",
		Long: `Compound-data-tool or CDT is a command line tool that keeps a local copy of
compound summaries published by the PDBe graph API.`,
		Version:       version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.setup(cmd, args)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Enables verbose mode which produces additional output to console")

	root.AddCommand(
		newActualizeCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newRemoveCmd(a),
		newSupportedCmd(),
		newRefreshCmd(a),
		newServeCmd(a),
		newBackupCmd(a),
	)
	return root
}

func newActualizeCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "actualize COMPOUND",
		Short: "Download a compound summary and store it locally",
		Long: `Retrieves the compound summary from www.ebi.ac.uk and stores it locally
for further use.

Supported compounds are: ` + strings.Join(domain.SupportedCompounds(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			code := domain.NormalizeCode(args[0])
			if !domain.IsSupported(code) {
				printUnsupported(out, code)
				return nil
			}

			rec, err := a.svc.Fetch(cmd.Context(), code)
			if err != nil {
				return err
			}
			printLines(out, render.Compound(rec.Fields(), full))
			return a.svc.Save(cmd.Context(), rec)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, fullUsage)
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "show COMPOUND",
		Short: "Show a compound summary from the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			code := domain.NormalizeCode(args[0])
			if !domain.IsSupported(code) {
				printUnsupported(out, code)
				return nil
			}

			rec, err := a.svc.Show(cmd.Context(), code)
			if errors.Is(err, services.ErrCompoundNotFound) {
				fmt.Fprintf(out, "We don't have a local copy of the %s summary.\n", code)
				fmt.Fprintf(out, "Run `cdt actualize %s` once to obtain the info.\n", code)
				return nil
			}
			if err != nil {
				return err
			}
			printLines(out, render.Compound(rec.StoredFields(), full))
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, fullUsage)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List compounds available in the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			header := false
			for st, err := range a.svc.List(cmd.Context()) {
				if err != nil {
					return err
				}
				if !header {
					printLines(out, render.StampHeader())
					header = true
				}
				fmt.Fprintln(out, render.StampRow(st))
			}
			if !header {
				fmt.Fprintln(out, "Local database is empty. Nothing to show. "+
					"Please download compound summary via `cdt actualize` command and try again")
				return nil
			}
			fmt.Fprintln(out, render.StampFooter())
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove COMPOUND",
		Short: "Remove a compound summary from the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			code := domain.NormalizeCode(args[0])
			if !domain.IsSupported(code) {
				printUnsupported(out, code)
				return nil
			}

			n, err := a.svc.Remove(cmd.Context(), code)
			if err != nil {
				return err
			}
			if n > 0 {
				fmt.Fprintf(out, "Compound %s successfully removed.\n", code)
			} else {
				fmt.Fprintf(out, "Compound %s summary is missing in local database. Nothing to remove.\n", code)
			}
			return nil
		},
	}
}

func newSupportedCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "supported",
		Short:       "List the supported compounds",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Next compounds are supported by cdt:")
			for _, code := range domain.SupportedCompounds() {
				fmt.Fprintln(out, "  "+code)
			}
			return nil
		},
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download every locally stored compound summary again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			report, err := a.svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if len(report.Refreshed) == 0 && len(report.Failed) == 0 {
				fmt.Fprintln(out, "Local database is empty. Nothing to refresh.")
				return nil
			}
			for _, code := range report.Refreshed {
				fmt.Fprintf(out, "Compound %s actualized.\n", code)
			}
			failed := make([]string, 0, len(report.Failed))
			for code := range report.Failed {
				failed = append(failed, code)
			}
			sort.Strings(failed)
			for _, code := range failed {
				fmt.Fprintf(out, "Compound %s could not be actualized: %v\n", code, report.Failed[code])
			}
			return nil
		},
	}
}

func printUnsupported(out io.Writer, code string) {
	fmt.Fprintf(out, "Compound %s is not supported\n", code)
	fmt.Fprintf(out, "Supported compounds are: %s\n", strings.Join(domain.SupportedCompounds(), ", "))
}

func printLines(out io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
}
