package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/service/bigquery"
)

// waitConcurrency bounds the jobs polled at once by "job wait".
const waitConcurrency = 4

// jobView is the printable form of a job snapshot.
type jobView struct {
	ID             string     `json:"id"`
	Project        string     `json:"project"`
	Location       string     `json:"location,omitempty"`
	Kind           string     `json:"kind"`
	State          string     `json:"state"`
	Failed         bool       `json:"failed"`
	Error          string     `json:"error,omitempty"`
	Created        *time.Time `json:"created,omitempty"`
	Started        *time.Time `json:"started,omitempty"`
	Ended          *time.Time `json:"ended,omitempty"`
	BytesProcessed int64      `json:"bytes_processed,omitempty"`
	CacheHit       bool       `json:"cache_hit,omitempty"`
}

func viewJob(j *bigquery.Job) jobView {
	v := jobView{
		ID:       j.ID(),
		Project:  j.ProjectID(),
		Location: j.Location(),
		Kind:     string(j.Kind()),
		State:    string(j.State()),
		Failed:   j.Failed(),
		Created:  j.CreatedAt(),
		Started:  j.StartedAt(),
		Ended:    j.EndedAt(),
	}
	if v.Kind == "" {
		v.Kind = "generic"
	}
	if v.State == "" {
		v.State = "UNKNOWN"
	}
	if e := j.ErrorResult(); e != nil {
		v.Error = e.Error()
	}
	if q, ok := j.AsQuery(); ok {
		v.BytesProcessed = q.BytesProcessed()
		v.CacheHit = q.CacheHit()
	}
	return v
}

func printJobs(cmd *cobra.Command, views []jobView) error {
	if getOutputFormat(cmd) == "json" {
		return PrintJSON(os.Stdout, views)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		state := v.State
		if v.Failed {
			state = "FAILED"
		}
		rows = append(rows, []string{v.ID, v.Kind, state, FormatValue(v.Created), FormatValue(v.Ended), v.Error})
	}
	PrintTable(os.Stdout, []string{"id", "kind", "state", "created", "ended", "error"}, rows)
	return nil
}

// lookupJob resolves a job ID, turning absence into an error.
func lookupJob(ctx context.Context, p *bigquery.Project, id string) (*bigquery.Job, error) {
	job, err := p.Job(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrNotFound("job %q not found in project %s", id, p.ID())
	}
	return job, nil
}

// waitJob blocks until job is done, reporting progress on an interactive stderr.
func waitJob(ctx context.Context, job *bigquery.Job, timeout time.Duration) error {
	var opts []bigquery.WaitOption
	if timeout > 0 {
		opts = append(opts, bigquery.WithDeadline(timeout))
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		_, _ = fmt.Fprintf(os.Stderr, "Waiting for job %s...\n", job.ID())
	}
	return job.WaitUntilDone(ctx, opts...)
}

func newJobCmd(rt *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and control a BigQuery job",
	}
	cmd.AddCommand(newJobGetCmd(rt))
	cmd.AddCommand(newJobWaitCmd(rt))
	cmd.AddCommand(newJobRerunCmd(rt))
	cmd.AddCommand(newJobResultsCmd(rt))
	return cmd
}

func newJobGetCmd(rt *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			job, err := lookupJob(cmd.Context(), a.Project, args[0])
			if err != nil {
				return err
			}
			return printJobs(cmd, []jobView{viewJob(job)})
		},
	}
}

func newJobWaitCmd(rt *session) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait <job-id>...",
		Short: "Wait until one or more jobs are done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]jobView, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(waitConcurrency)
			for i, id := range args {
				g.Go(func() error {
					job, err := lookupJob(ctx, a.Project, id)
					if err != nil {
						return err
					}
					if err := waitJob(ctx, job, timeout); err != nil {
						return err
					}
					views[i] = viewJob(job)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if err := printJobs(cmd, views); err != nil {
				return err
			}
			return failedJobsError(views)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long (0 waits indefinitely)")
	return cmd
}

// failedJobsError reports jobs that finished with an error result.
func failedJobsError(views []jobView) error {
	var failed []string
	for _, v := range views {
		if v.Failed {
			failed = append(failed, fmt.Sprintf("%s (%s)", v.ID, v.Error))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("job failed: %s", strings.Join(failed, ", "))
}

func newJobRerunCmd(rt *session) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "rerun <job-id>",
		Short: "Submit a job again with the same configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			job, err := lookupJob(ctx, a.Project, args[0])
			if err != nil {
				return err
			}
			next, err := job.Rerun(ctx)
			if err != nil {
				return err
			}
			if wait {
				if err := waitJob(ctx, next, timeout); err != nil {
					return err
				}
			}
			view := viewJob(next)
			if err := printJobs(cmd, []jobView{view}); err != nil {
				return err
			}
			return failedJobsError([]jobView{view})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the new job to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Give up waiting after this long")
	return cmd
}

func newJobResultsCmd(rt *session) *cobra.Command {
	var (
		maxResults int
		startIndex int64
	)

	cmd := &cobra.Command{
		Use:   "results <job-id>",
		Short: "Print the results of a query job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			job, err := lookupJob(ctx, a.Project, args[0])
			if err != nil {
				return err
			}
			q, ok := job.AsQuery()
			if !ok {
				return domain.ErrValidation("job %s is a %s job, not a query", job.ID(), viewJob(job).Kind)
			}
			opts := domain.QueryResultsOptions{PageRequest: domain.PageRequest{MaxResults: maxResults}}
			if cmd.Flags().Changed("start-index") {
				opts.StartIndex = &startIndex
			}
			data, err := q.QueryResults(ctx, opts)
			if err != nil {
				return err
			}
			if !data.Complete {
				return domain.ErrPrecondition("job %s has not finished; run 'gcq job wait %s' first", job.ID(), job.ID())
			}
			rows, err := domain.Collect(data.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			return printRows(cmd, data.Headers(), rows)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Rows per page")
	cmd.Flags().Int64Var(&startIndex, "start-index", 0, "Zero-based row to start from")
	return cmd
}

func newJobsCmd(rt *session) *cobra.Command {
	var (
		allUsers   bool
		states     []string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			opts := domain.JobListOptions{
				PageRequest: domain.PageRequest{MaxResults: maxResults},
				AllUsers:    allUsers,
			}
			for _, s := range states {
				st := domain.ParseJobState(s)
				if st == domain.JobStateUnknown {
					return domain.ErrValidation("unknown job state %q: use pending, running or done", s)
				}
				opts.StateFilter = append(opts.StateFilter, st)
			}

			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			page, err := a.Project.Jobs(ctx, opts)
			if err != nil {
				return err
			}
			jobs, err := domain.Collect(page.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			views := make([]jobView, 0, len(jobs))
			for _, j := range jobs {
				views = append(views, viewJob(j))
			}
			return printJobs(cmd, views)
		},
	}

	cmd.Flags().BoolVar(&allUsers, "all-users", false, "Include jobs of every user")
	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (pending, running, done)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Jobs per page")
	return cmd
}
