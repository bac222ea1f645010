package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/bootstrap"
	"github.com/unison-academica/records-lookup/internal/infrastructure/report"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP
// ══════════════════════════════════════════════════════════════════════════════

func newLookupCmd(flags *globalFlags) *cobra.Command {
	var (
		semester string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Show a student's profile, records and semester summary",
		Example: `  recordctl lookup 12345
  recordctl lookup EXP12345 --semester 2024-1 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			h, err := bootstrap.NewHandlers(e.cfg, e.store, e.log)
			if err != nil {
				return err
			}
			result, err := h.Summarize.Handle(cmd.Context(), query.SummarizeRecordsQuery{
				Identifier: args[0],
				Semester:   semester,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printSummary(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&semester, "semester", "s", "", `semester label, or "all"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printSummary(w io.Writer, r *query.SummaryResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Name:\t%s\n", r.Student.Name)
	fmt.Fprintf(tw, "Identifier:\t%s\n", r.Student.CanonicalIdentifier)
	fmt.Fprintf(tw, "Group:\t%s\n", r.Student.CurrentGroup)
	fmt.Fprintf(tw, "Email:\t%s\n", r.Student.Email)
	fmt.Fprintf(tw, "Semesters:\t%s\n", strings.Join(r.Summary.Semesters, ", "))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "SEMESTER\tSUBJECT\tGRADE\tSTATUS")
	for _, rec := range r.Summary.Records {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", rec.Semester, rec.Subject, rec.Grade, rec.Status)
	}
	if len(r.Summary.Records) == 0 {
		fmt.Fprintln(tw, "(no records)")
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Selected:\t%s\n", r.Summary.Selected)
	fmt.Fprintf(tw, "Average:\t%.2f\n", r.Summary.Average)
	fmt.Fprintf(tw, "Approved:\t%d\n", r.Summary.ApprovedCount)
	fmt.Fprintf(tw, "Failed:\t%d\n", r.Summary.FailedCount)
	fmt.Fprintf(tw, "Approval rate:\t%d%%\n", r.Summary.ApprovalRate)

	return tw.Flush()
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT
// ══════════════════════════════════════════════════════════════════════════════

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		semester string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export <identifier>",
		Short: "Write a student's transcript as an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer e.Close()

			h, err := bootstrap.NewHandlers(e.cfg, e.store, e.log)
			if err != nil {
				return err
			}
			q := query.SummarizeRecordsQuery{Identifier: args[0], Semester: semester}
			result, err := h.Summarize.Handle(cmd.Context(), q)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = report.Filename(result.Student.CanonicalIdentifier, q.Selector())
			}
			err = writeFile(path, func(w io.Writer) error {
				return report.WriteTranscript(w, result.Student, result.Summary)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d records)\n", path, len(result.Summary.Records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&semester, "semester", "s", "", `semester label, or "all"`)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default transcript_<identifier>.xlsx)")
	return cmd
}

// writeFile creates path and fills it with write. A failed write leaves no
// file behind.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATE
// ══════════════════════════════════════════════════════════════════════════════

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the records schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := openEnv(cmd, flags)
				if err != nil {
					return err
				}
				defer e.Close()

				if err := e.cfg.CheckSchemaPrefix(); err != nil {
					return err
				}
				n, err := e.store.Migrator.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := openEnv(cmd, flags)
				if err != nil {
					return err
				}
				defer e.Close()

				v, err := e.store.Migrator.Rollback(cmd.Context())
				if err != nil {
					return err
				}
				if v == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				e, err := openEnv(cmd, flags)
				if err != nil {
					return err
				}
				defer e.Close()

				rows, err := e.store.Migrator.Status(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED\tAT")
				for _, r := range rows {
					at := r.AppliedAt
					if at == "" {
						at = "-"
					}
					fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", r.Version, r.Name, r.Applied, at)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
