// Package bigquery implements domain.BigQueryGateway over the BigQuery v2
// REST API.
package bigquery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/gateway"
)

// Compile-time check: Gateway implements the BigQuery port.
var _ domain.BigQueryGateway = (*Gateway)(nil)

// Options configures a Gateway.
type Options struct {
	Endpoint        string       // override the API base path; disables auth when no credentials are set
	CredentialsFile string       // service account key file; ignored when HTTPClient is set
	HTTPClient      *http.Client // pre-authorised client, mainly for tests
	RateLimitRPS    float64
	RateLimitBurst  int
	Logger          *slog.Logger
}

// Gateway issues BigQuery REST calls.
type Gateway struct {
	svc    *bq.Service
	caller *gateway.Caller
}

// New creates a Gateway.
func New(ctx context.Context, opts Options) (*Gateway, error) {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithAuthCredentialsFile(option.ServiceAccount, opts.CredentialsFile))
	case opts.Endpoint != "":
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	svc, err := bq.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	return &Gateway{
		svc:    svc,
		caller: gateway.NewCaller("bigquery", opts.RateLimitRPS, opts.RateLimitBurst, opts.Logger),
	}, nil
}

// GetJob fetches a job by ID. An empty location leaves the lookup to the
// service default.
func (g *Gateway) GetJob(ctx context.Context, projectID, jobID, location string) (*domain.Job, error) {
	call := g.svc.Jobs.Get(projectID, jobID)
	if location != "" {
		call = call.Location(location)
	}

	var resp *bq.Job
	err := g.caller.Do(ctx, "jobs.get", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobFromAPI(resp)
}

// InsertJob submits a new job.
func (g *Gateway) InsertJob(ctx context.Context, projectID string, req domain.JobInsertRequest) (*domain.Job, error) {
	cfg, err := configToAPI(req.Configuration)
	if err != nil {
		return nil, err
	}
	job := &bq.Job{
		Configuration: cfg,
		JobReference: &bq.JobReference{
			ProjectId: projectID,
			JobId:     req.Reference.JobID,
			Location:  req.Reference.Location,
		},
	}

	var resp *bq.Job
	err = g.caller.Do(ctx, "jobs.insert", func(ctx context.Context) error {
		var err error
		resp, err = g.svc.Jobs.Insert(projectID, job).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobFromAPI(resp)
}

// ListJobs lists one page of jobs.
func (g *Gateway) ListJobs(ctx context.Context, projectID string, opts domain.JobListOptions) (*domain.ListResult[*domain.Job], error) {
	call := g.svc.Jobs.List(projectID).Projection("full")
	if opts.AllUsers {
		call = call.AllUsers(true)
	}
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}
	if states := stateFilterToAPI(opts.StateFilter); len(states) > 0 {
		call = call.StateFilter(states...)
	}

	var resp *bq.JobList
	err := g.caller.Do(ctx, "jobs.list", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &domain.ListResult[*domain.Job]{
		NextPageToken: resp.NextPageToken,
		Etag:          resp.Etag,
		Items:         make([]*domain.Job, 0, len(resp.Jobs)),
	}
	for _, entry := range resp.Jobs {
		job, err := jobFromListEntry(entry)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, job)
	}
	return out, nil
}

// GetQueryResults fetches one page of a query job's results.
func (g *Gateway) GetQueryResults(ctx context.Context, projectID, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
	call := g.svc.Jobs.GetQueryResults(projectID, jobID)
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}
	if opts.StartIndex != nil {
		call = call.StartIndex(uint64(*opts.StartIndex))
	}
	if opts.Timeout > 0 {
		call = call.TimeoutMs(opts.Timeout.Milliseconds())
	}
	if opts.Location != "" {
		call = call.Location(opts.Location)
	}

	var resp *bq.GetQueryResultsResponse
	err := g.caller.Do(ctx, "jobs.getQueryResults", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &domain.QueryResultPage{
		JobComplete:         resp.JobComplete,
		Schema:              schemaFromAPI(resp.Schema),
		Rows:                rowsFromAPI(resp.Rows),
		PageToken:           resp.PageToken,
		TotalRows:           int64(resp.TotalRows),
		TotalBytesProcessed: resp.TotalBytesProcessed,
		CacheHit:            resp.CacheHit,
		NumDMLAffectedRows:  resp.NumDmlAffectedRows,
		Errors:              errorsFromAPI(resp.Errors),
		Etag:                resp.Etag,
	}
	if r := resp.JobReference; r != nil {
		page.JobReference = domain.JobReference{ProjectID: r.ProjectId, JobID: r.JobId, Location: r.Location}
	}
	return page, nil
}

// Query runs a query synchronously, returning the first page of results.
// The page may report JobComplete=false if the timeout elapsed first.
func (g *Gateway) Query(ctx context.Context, projectID string, req domain.QueryRequest) (*domain.QueryResultPage, error) {
	body := &bq.QueryRequest{
		Query:         req.Query,
		DryRun:        req.DryRun,
		UseQueryCache: req.UseQueryCache,
		UseLegacySql:  req.UseLegacySQL,
		Location:      req.Location,
	}
	if req.MaxResults > 0 {
		body.MaxResults = int64(req.MaxResults)
	}
	if req.Timeout > 0 {
		body.TimeoutMs = req.Timeout.Milliseconds()
	}
	if d := req.DefaultDataset; d != nil {
		body.DefaultDataset = &bq.DatasetReference{ProjectId: d.ProjectID, DatasetId: d.DatasetID}
	}

	var resp *bq.QueryResponse
	err := g.caller.Do(ctx, "jobs.query", func(ctx context.Context) error {
		var err error
		resp, err = g.svc.Jobs.Query(projectID, body).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &domain.QueryResultPage{
		JobComplete:         resp.JobComplete,
		Schema:              schemaFromAPI(resp.Schema),
		Rows:                rowsFromAPI(resp.Rows),
		PageToken:           resp.PageToken,
		TotalRows:           int64(resp.TotalRows),
		TotalBytesProcessed: resp.TotalBytesProcessed,
		CacheHit:            resp.CacheHit,
		NumDMLAffectedRows:  resp.NumDmlAffectedRows,
		Errors:              errorsFromAPI(resp.Errors),
	}
	if r := resp.JobReference; r != nil {
		page.JobReference = domain.JobReference{ProjectID: r.ProjectId, JobID: r.JobId, Location: r.Location}
	}
	return page, nil
}
