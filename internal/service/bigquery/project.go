// Package bigquery provides the BigQuery object model: a Project entry
// point, the Job polling state machine with its Query/Copy/Extract/Load
// specializations, and typed row streams over paginated results.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gcloud-go/internal/domain"
)

// DefaultQueryTimeout is how long a synchronous query waits server-side
// before returning an incomplete result.
const DefaultQueryTimeout = 10 * time.Second

// Options configures a Project.
type Options struct {
	Logger       *slog.Logger
	Backoff      Backoff       // nil means LinearBackoff with DefaultPollUnit
	PollDeadline time.Duration // zero leaves waits unbounded
	QueryTimeout time.Duration // zero means DefaultQueryTimeout
	Location     string        // where new jobs run and unlocated jobs are looked up
}

// client is shared by every object obtained from one Project.
type client struct {
	gw           domain.BigQueryGateway
	projectID    string
	logger       *slog.Logger
	backoff      Backoff
	pollDeadline time.Duration
	queryTimeout time.Duration
	location     string
	sleep        sleepFunc
}

// Project is the entry point to BigQuery resources of one project.
type Project struct {
	c *client
}

// NewProject creates a Project backed by gw.
func NewProject(gw domain.BigQueryGateway, projectID string, opts Options) *Project {
	c := &client{
		gw:           gw,
		projectID:    projectID,
		logger:       opts.Logger,
		backoff:      opts.Backoff,
		pollDeadline: opts.PollDeadline,
		queryTimeout: opts.QueryTimeout,
		location:     opts.Location,
		sleep:        sleepContext,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.backoff == nil {
		c.backoff = LinearBackoff{}
	}
	if c.queryTimeout <= 0 {
		c.queryTimeout = DefaultQueryTimeout
	}
	return &Project{c: c}
}

// ID returns the project ID.
func (p *Project) ID() string { return p.c.projectID }

// Location returns the default job location, or "" for the service default.
func (p *Project) Location() string { return p.c.location }

// Job looks up a job by ID in the project's default location. A missing
// job yields (nil, nil).
func (p *Project) Job(ctx context.Context, jobID string) (*Job, error) {
	snap, err := p.c.gw.GetJob(ctx, p.c.projectID, jobID, p.c.location)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return newJob(p.c, snap), nil
}

// Jobs lists jobs in the project. Follow-up pages replay opts.
func (p *Project) Jobs(ctx context.Context, opts domain.JobListOptions) (*domain.Page[*Job], error) {
	var fetch domain.PageFetcher[*Job]
	fetch = func(ctx context.Context, token string) (*domain.Page[*Job], error) {
		req := opts
		req.PageToken = token
		res, err := p.c.gw.ListJobs(ctx, p.c.projectID, req)
		if err != nil {
			return nil, err
		}
		jobs := make([]*Job, 0, len(res.Items))
		for _, snap := range res.Items {
			jobs = append(jobs, newJob(p.c, snap))
		}
		return pageFromList(res, jobs, fetch), nil
	}
	return fetch(ctx, opts.PageToken)
}

// InsertJob submits a job with a client-generated ID.
func (p *Project) InsertJob(ctx context.Context, cfg domain.JobConfiguration) (*Job, error) {
	return p.c.insertJob(ctx, "", cfg)
}

func (c *client) insertJob(ctx context.Context, location string, cfg domain.JobConfiguration) (*Job, error) {
	if cfg.Spec == nil && cfg.Raw == nil {
		return nil, domain.ErrValidation("job configuration is required")
	}
	if location == "" {
		location = c.location
	}
	req := domain.JobInsertRequest{
		Reference: domain.JobReference{
			ProjectID: c.projectID,
			JobID:     domain.NewJobID(),
			Location:  location,
		},
		Configuration: cfg,
	}
	snap, err := c.gw.InsertJob(ctx, c.projectID, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("job inserted", "job_id", snap.Reference.JobID, "kind", cfg.Kind())
	return newJob(c, snap), nil
}

// QueryJobOptions configures Project.QueryJob.
type QueryJobOptions struct {
	Priority     string                   // default INTERACTIVE
	Cache        *bool                    // default true
	Destination  *domain.TableReference   // results table
	Create       domain.CreateDisposition // unset leaves the server default
	Write        domain.WriteDisposition  // unset leaves the server default
	LargeResults bool
	Flatten      *bool
	Dataset      string // default dataset for unqualified table names
	LegacySQL    *bool
	DryRun       bool
}

// QueryJob starts an asynchronous query. Completion is left to the caller,
// typically through QueryJob.WaitUntilDone.
func (p *Project) QueryJob(ctx context.Context, query string, opts QueryJobOptions) (*QueryJob, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrValidation("query is required")
	}
	priority := strings.ToUpper(opts.Priority)
	if priority == "" {
		priority = domain.PriorityInteractive
	}
	if priority != domain.PriorityInteractive && priority != domain.PriorityBatch {
		return nil, domain.ErrValidation("unknown query priority %q", opts.Priority)
	}
	cache := true
	if opts.Cache != nil {
		cache = *opts.Cache
	}

	spec := &domain.QuerySpec{
		Query:             query,
		Priority:          priority,
		UseQueryCache:     &cache,
		UseLegacySQL:      opts.LegacySQL,
		FlattenResults:    opts.Flatten,
		Destination:       opts.Destination,
		CreateDisposition: opts.Create,
		WriteDisposition:  opts.Write,
	}
	if opts.LargeResults {
		v := true
		spec.AllowLargeResults = &v
	}
	if opts.Dataset != "" {
		spec.DefaultDataset = &domain.DatasetReference{ProjectID: p.c.projectID, DatasetID: opts.Dataset}
	}

	job, err := p.c.insertJob(ctx, "", domain.JobConfiguration{Spec: spec, DryRun: opts.DryRun})
	if err != nil {
		return nil, err
	}
	q, _ := job.AsQuery()
	if q == nil {
		return nil, &domain.MalformedResponseError{Field: "configuration", Value: job.Configuration().Raw,
			Err: errors.New("inserted query job came back without a query configuration")}
	}
	return q, nil
}

// QueryOptions configures Project.Query.
type QueryOptions struct {
	MaxResults int
	Timeout    time.Duration // server-side wait per call; zero means the project default
	DryRun     bool
	Cache      *bool  // default true
	Dataset    string // default dataset for unqualified table names
	Project    string // project of Dataset; defaults to this project
	LegacySQL  *bool
}

// Query runs a query and blocks until the results are complete, polling
// with the project's backoff. The returned stream holds the first page.
func (p *Project) Query(ctx context.Context, query string, opts QueryOptions, waitOpts ...WaitOption) (*QueryData, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrValidation("query is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.c.queryTimeout
	}
	cache := true
	if opts.Cache != nil {
		cache = *opts.Cache
	}
	req := domain.QueryRequest{
		Query:         query,
		MaxResults:    opts.MaxResults,
		Timeout:       timeout,
		DryRun:        opts.DryRun,
		UseQueryCache: &cache,
		UseLegacySQL:  opts.LegacySQL,
		Location:      p.c.location,
	}
	if opts.Dataset != "" {
		project := opts.Project
		if project == "" {
			project = p.c.projectID
		}
		req.DefaultDataset = &domain.DatasetReference{ProjectID: project, DatasetID: opts.Dataset}
	}

	page, err := p.c.gw.Query(ctx, p.c.projectID, req)
	if err != nil {
		return nil, err
	}
	results := domain.QueryResultsOptions{
		PageRequest: domain.PageRequest{MaxResults: opts.MaxResults},
		Timeout:     timeout,
		Location:    page.JobReference.Location,
	}
	if results.Location == "" {
		results.Location = p.c.location
	}
	if page.JobComplete || opts.DryRun {
		return newQueryData(p.c, page, results)
	}

	jobID := page.JobReference.JobID
	if jobID == "" {
		return nil, &domain.MalformedResponseError{Field: "jobReference",
			Err: errors.New("incomplete query result without a job reference")}
	}
	err = p.c.poll(ctx, waitOpts, func(ctx context.Context, attempt int) (bool, error) {
		next, err := p.c.gw.GetQueryResults(ctx, p.c.projectID, jobID, results)
		if err != nil {
			return false, err
		}
		p.c.logger.Debug("query results polled", "job_id", jobID, "attempt", attempt, "complete", next.JobComplete)
		page = next
		return next.JobComplete, nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for query %s: %w", jobID, err)
	}
	return newQueryData(p.c, page, results)
}

// Dataset looks up a dataset. A missing dataset yields (nil, nil).
func (p *Project) Dataset(ctx context.Context, datasetID string) (*domain.Dataset, error) {
	ds, err := p.c.gw.GetDataset(ctx, p.c.projectID, datasetID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return ds, nil
}

// Datasets lists datasets in the project.
func (p *Project) Datasets(ctx context.Context, opts domain.DatasetListOptions) (*domain.Page[*domain.Dataset], error) {
	var fetch domain.PageFetcher[*domain.Dataset]
	fetch = func(ctx context.Context, token string) (*domain.Page[*domain.Dataset], error) {
		req := opts
		req.PageToken = token
		res, err := p.c.gw.ListDatasets(ctx, p.c.projectID, req)
		if err != nil {
			return nil, err
		}
		return pageFromList(res, res.Items, fetch), nil
	}
	return fetch(ctx, opts.PageToken)
}

// Table looks up a table. A missing table yields (nil, nil).
func (p *Project) Table(ctx context.Context, datasetID, tableID string) (*domain.Table, error) {
	return p.c.lookupTable(ctx, &domain.TableReference{ProjectID: p.c.projectID, DatasetID: datasetID, TableID: tableID})
}

// Tables lists tables in a dataset.
func (p *Project) Tables(ctx context.Context, datasetID string, opts domain.TableListOptions) (*domain.Page[*domain.Table], error) {
	var fetch domain.PageFetcher[*domain.Table]
	fetch = func(ctx context.Context, token string) (*domain.Page[*domain.Table], error) {
		req := opts
		req.PageToken = token
		res, err := p.c.gw.ListTables(ctx, p.c.projectID, datasetID, req)
		if err != nil {
			return nil, err
		}
		return pageFromList(res, res.Items, fetch), nil
	}
	return fetch(ctx, opts.PageToken)
}

// lookupTable resolves a reference to a table. A nil reference or a
// missing table yields (nil, nil).
func (c *client) lookupTable(ctx context.Context, ref *domain.TableReference) (*domain.Table, error) {
	if ref == nil {
		return nil, nil
	}
	t, err := c.gw.GetTable(ctx, *ref)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func pageFromList[S, T any](res *domain.ListResult[S], items []T, fetch domain.PageFetcher[T]) *domain.Page[T] {
	return domain.NewPage(items, res.NextPageToken, fetch,
		domain.WithEtag(res.Etag), domain.WithTotal(res.TotalItems))
}

func isNotFound(err error) bool {
	var nf *domain.NotFoundError
	return errors.As(err, &nf)
}
