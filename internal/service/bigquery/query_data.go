package bigquery

import (
	"context"

	"gcloud-go/internal/domain"
)

// QueryData is one page of typed query results. Follow-up pages are fetched
// from the originating job, replaying the page size and timeout.
type QueryData struct {
	*domain.Page[domain.Row]

	Schema              *domain.Schema
	JobReference        domain.JobReference
	Complete            bool
	CacheHit            bool
	TotalRows           int64
	TotalBytesProcessed int64
	NumDMLAffectedRows  int64

	c    *client
	opts domain.QueryResultsOptions
}

func newQueryData(c *client, page *domain.QueryResultPage, opts domain.QueryResultsOptions) (*QueryData, error) {
	rows, err := coerceRows(page.Schema, page.Rows)
	if err != nil {
		return nil, err
	}

	// Only the first request may start mid-table.
	opts.StartIndex = nil
	opts.PageToken = ""
	if opts.Location == "" {
		opts.Location = page.JobReference.Location
	}
	if opts.Location == "" {
		opts.Location = c.location
	}

	qd := &QueryData{
		Schema:              page.Schema,
		JobReference:        page.JobReference,
		Complete:            page.JobComplete,
		CacheHit:            page.CacheHit,
		TotalRows:           page.TotalRows,
		TotalBytesProcessed: page.TotalBytesProcessed,
		NumDMLAffectedRows:  page.NumDMLAffectedRows,
		c:                   c,
		opts:                opts,
	}
	qd.Page = domain.NewPage(rows, page.PageToken, func(ctx context.Context, token string) (*domain.Page[domain.Row], error) {
		next, err := qd.fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		return next.Page, nil
	}, domain.WithEtag(page.Etag), domain.WithTotal(&qd.TotalRows))
	return qd, nil
}

func (qd *QueryData) fetch(ctx context.Context, token string) (*QueryData, error) {
	opts := qd.opts
	opts.PageToken = token
	page, err := qd.c.gw.GetQueryResults(ctx, qd.projectID(), qd.JobReference.JobID, opts)
	if err != nil {
		return nil, err
	}
	if page.Schema == nil {
		page.Schema = qd.Schema
	}
	if page.JobReference.JobID == "" {
		page.JobReference = qd.JobReference
	}
	return newQueryData(qd.c, page, opts)
}

func (qd *QueryData) location() string {
	if l := qd.JobReference.Location; l != "" {
		return l
	}
	return qd.opts.Location
}

func (qd *QueryData) projectID() string {
	if p := qd.JobReference.ProjectID; p != "" {
		return p
	}
	return qd.c.projectID
}

// Next fetches the following page of results. It returns a
// PreconditionError on the final page.
func (qd *QueryData) Next(ctx context.Context) (*QueryData, error) {
	if !qd.HasNext() {
		return nil, domain.ErrPrecondition("no next page: continuation token is empty")
	}
	return qd.fetch(ctx, qd.NextPageToken)
}

// Row returns the i-th row of this page, or nil when out of range.
func (qd *QueryData) Row(i int) domain.Row {
	if i < 0 || i >= len(qd.Items) {
		return nil
	}
	return qd.Items[i]
}

// Headers returns the result column names.
func (qd *QueryData) Headers() []string {
	if qd.Schema == nil {
		return nil
	}
	return qd.Schema.Headers()
}

// Job fetches the job that produced these results, or nil when it no
// longer exists.
func (qd *QueryData) Job(ctx context.Context) (*QueryJob, error) {
	snap, err := qd.c.gw.GetJob(ctx, qd.projectID(), qd.JobReference.JobID, qd.location())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	q, _ := newJob(qd.c, snap).AsQuery()
	return q, nil
}
