package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/service/bigquery"
)

// printRows writes typed rows as a table or as a JSON array of objects.
func printRows(cmd *cobra.Command, headers []string, rows []domain.Row) error {
	if getOutputFormat(cmd) == "json" {
		if rows == nil {
			rows = []domain.Row{}
		}
		return PrintJSON(os.Stdout, rows)
	}
	PrintTable(os.Stdout, headers, rowsToTable(headers, rows))
	return nil
}

func newQueryCmd(rt *session) *cobra.Command {
	var (
		maxResults int
		timeout    time.Duration
		dryRun     bool
		noCache    bool
		dataset    string
		legacySQL  bool
	)

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			opts := bigquery.QueryOptions{
				MaxResults: maxResults,
				Timeout:    timeout,
				DryRun:     dryRun,
				Dataset:    dataset,
			}
			if noCache {
				opts.Cache = new(bool)
			}
			if cmd.Flags().Changed("legacy-sql") {
				opts.LegacySQL = &legacySQL
			}

			data, err := a.Project.Query(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if dryRun {
				if getOutputFormat(cmd) == "json" {
					return PrintJSON(os.Stdout, map[string]any{
						"dry_run":               true,
						"total_bytes_processed": data.TotalBytesProcessed,
						"schema":                data.Headers(),
					})
				}
				_, _ = fmt.Fprintf(os.Stdout, "Query would process %d bytes\n", data.TotalBytesProcessed)
				return nil
			}
			rows, err := domain.Collect(data.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			return printRows(cmd, data.Headers(), rows)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Rows per page")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Server-side wait per request (default QUERY_TIMEOUT)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the query and report bytes processed")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not use cached results")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Default dataset for unqualified table names")
	cmd.Flags().BoolVar(&legacySQL, "legacy-sql", false, "Use legacy SQL dialect")
	return cmd
}

func newQueryJobCmd(rt *session) *cobra.Command {
	var (
		priority     string
		noCache      bool
		destination  string
		create       string
		write        string
		largeResults bool
		noFlatten    bool
		dataset      string
		dryRun       bool
		wait         bool
		timeout      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "query-job <sql>",
		Short: "Start an asynchronous query job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			opts := bigquery.QueryJobOptions{
				Priority:     priority,
				Create:       domain.CreateDisposition(create),
				Write:        domain.WriteDisposition(write),
				LargeResults: largeResults,
				Dataset:      dataset,
				DryRun:       dryRun,
			}
			if noCache {
				opts.Cache = new(bool)
			}
			if noFlatten {
				opts.Flatten = new(bool)
			}
			if destination != "" {
				ref, err := domain.ParseTableReference(destination, a.Project.ID())
				if err != nil {
					return err
				}
				opts.Destination = &ref
			}

			job, err := a.Project.QueryJob(ctx, args[0], opts)
			if err != nil {
				return err
			}
			if wait {
				if err := waitJob(ctx, job.Job, timeout); err != nil {
					return err
				}
			}
			view := viewJob(job.Job)
			if err := printJobs(cmd, []jobView{view}); err != nil {
				return err
			}
			return failedJobsError([]jobView{view})
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "INTERACTIVE (default) or BATCH")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not use cached results")
	cmd.Flags().StringVar(&destination, "destination", "", "Results table as [project:]dataset.table")
	cmd.Flags().StringVar(&create, "create", "", "Create disposition (CREATE_IF_NEEDED, CREATE_NEVER)")
	cmd.Flags().StringVar(&write, "write", "", "Write disposition (WRITE_TRUNCATE, WRITE_APPEND, WRITE_EMPTY)")
	cmd.Flags().BoolVar(&largeResults, "large-results", false, "Allow large results (requires --destination)")
	cmd.Flags().BoolVar(&noFlatten, "no-flatten", false, "Keep nested and repeated fields unflattened")
	cmd.Flags().StringVar(&dataset, "dataset", "", "Default dataset for unqualified table names")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without running")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long")
	return cmd
}
