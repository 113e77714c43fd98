package bigquery

import (
	"context"

	"gcloud-go/internal/domain"
)

// QueryJob is a Job running a query.
type QueryJob struct {
	*Job
}

func (q *QueryJob) spec() *domain.QuerySpec {
	if s, ok := q.Configuration().Spec.(*domain.QuerySpec); ok && s != nil {
		return s
	}
	return &domain.QuerySpec{}
}

// Query returns the query text.
func (q *QueryJob) Query() string { return q.spec().Query }

// IsBatch reports whether the query runs at BATCH priority.
func (q *QueryJob) IsBatch() bool { return q.spec().Priority == domain.PriorityBatch }

// IsInteractive reports whether the query runs at INTERACTIVE priority,
// the default when no priority is set.
func (q *QueryJob) IsInteractive() bool {
	p := q.spec().Priority
	return p == "" || p == domain.PriorityInteractive
}

// LargeResults reports whether results may exceed the response size limit.
func (q *QueryJob) LargeResults() bool { return boolOr(q.spec().AllowLargeResults, false) }

// Cache reports whether the query may be served from the query cache.
func (q *QueryJob) Cache() bool { return boolOr(q.spec().UseQueryCache, false) }

// Flatten reports whether nested results are flattened.
func (q *QueryJob) Flatten() bool { return boolOr(q.spec().FlattenResults, true) }

// CreateDisposition returns the create disposition, resolved to its default.
func (q *QueryJob) CreateDisposition() domain.CreateDisposition {
	return q.spec().CreateDisposition.OrDefault()
}

// WriteDisposition returns the write disposition, resolved to its default.
func (q *QueryJob) WriteDisposition() domain.WriteDisposition {
	return q.spec().WriteDisposition.OrDefault()
}

// CacheHit reports whether the results came from the query cache.
func (q *QueryJob) CacheHit() bool {
	if s := q.Statistics().Query; s != nil {
		return s.CacheHit
	}
	return false
}

// BytesProcessed returns the bytes read by the query.
func (q *QueryJob) BytesProcessed() int64 {
	if s := q.Statistics().Query; s != nil {
		return s.TotalBytesProcessed
	}
	return q.Statistics().TotalBytesProcessed
}

// Destination fetches the table holding the results, or nil when the job
// names none or the table no longer exists.
func (q *QueryJob) Destination(ctx context.Context) (*domain.Table, error) {
	return q.c.lookupTable(ctx, q.spec().Destination)
}

// QueryResults fetches a page of the job's results. Completion is not
// awaited; the page reports Complete=false while the job is running.
func (q *QueryJob) QueryResults(ctx context.Context, opts domain.QueryResultsOptions) (*QueryData, error) {
	if opts.Location == "" {
		opts.Location = q.Location()
	}
	page, err := q.c.gw.GetQueryResults(ctx, q.ProjectID(), q.ID(), opts)
	if err != nil {
		return nil, err
	}
	if page.JobReference.JobID == "" {
		page.JobReference = q.Snapshot().Reference
	}
	return newQueryData(q.c, page, opts)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
