package bigquery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/testutil"
)

// pagedJobs serves jobs j0..j(n-1) in pages of size per token.
func pagedJobs(t *testing.T, n, size int, seen *[]domain.JobListOptions) func(context.Context, string, domain.JobListOptions) (*domain.ListResult[*domain.Job], error) {
	t.Helper()
	return func(_ context.Context, projectID string, opts domain.JobListOptions) (*domain.ListResult[*domain.Job], error) {
		*seen = append(*seen, opts)
		start := 0
		if opts.PageToken != "" {
			_, err := fmt.Sscanf(opts.PageToken, "off-%d", &start)
			require.NoError(t, err)
		}
		end := min(start+size, n)
		res := &domain.ListResult[*domain.Job]{}
		for i := start; i < end; i++ {
			res.Items = append(res.Items, testutil.JobSnapshot(projectID, fmt.Sprintf("j%d", i), "DONE"))
		}
		if end < n {
			res.NextPageToken = fmt.Sprintf("off-%d", end)
		}
		return res, nil
	}
}

func jobIDs(jobs []*Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID()
	}
	return ids
}

func TestProject_Jobs_PaginationReplaysFilters(t *testing.T) {
	var seen []domain.JobListOptions
	gw := &testutil.MockBigQueryGateway{ListJobsFn: pagedJobs(t, 7, 3, &seen)}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	opts := domain.JobListOptions{
		PageRequest: domain.PageRequest{MaxResults: 3},
		AllUsers:    true,
		StateFilter: []domain.JobState{domain.JobStateDone},
	}
	first, err := p.Jobs(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"j0", "j1", "j2"}, jobIDs(first.Items))
	require.True(t, first.HasNext())

	second, err := first.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"j3", "j4", "j5"}, jobIDs(second.Items))

	// Replaying the same token yields the same page.
	again, err := first.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobIDs(second.Items), jobIDs(again.Items))

	third, err := second.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"j6"}, jobIDs(third.Items))
	assert.False(t, third.HasNext())

	_, err = third.Next(ctx)
	var pe *domain.PreconditionError
	require.ErrorAs(t, err, &pe)

	for _, o := range seen {
		assert.True(t, o.AllUsers)
		assert.Equal(t, 3, o.MaxResults)
		assert.Equal(t, []domain.JobState{domain.JobStateDone}, o.StateFilter)
	}
}

func TestProject_Jobs_All(t *testing.T) {
	var seen []domain.JobListOptions
	gw := &testutil.MockBigQueryGateway{ListJobsFn: pagedJobs(t, 7, 3, &seen)}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	first, err := p.Jobs(ctx, domain.JobListOptions{})
	require.NoError(t, err)

	all, err := domain.Collect(first.All(ctx))
	require.NoError(t, err)
	assert.Len(t, all, 7)
	assert.Equal(t, 3, gw.Calls("ListJobs"))

	limited, err := domain.Collect(first.All(ctx, domain.WithRequestLimit(0)))
	require.NoError(t, err)
	assert.Equal(t, []string{"j0", "j1", "j2"}, jobIDs(limited))
	assert.Equal(t, 3, gw.Calls("ListJobs"), "request limit 0 performs no fetch")

	one, err := domain.Collect(first.All(ctx, domain.WithRequestLimit(1)))
	require.NoError(t, err)
	assert.Len(t, one, 6)
	assert.Equal(t, 4, gw.Calls("ListJobs"))
}

func TestProject_Jobs_Error(t *testing.T) {
	boom := &domain.RemoteCallError{Op: "jobs.list", Message: "down"}
	gw := &testutil.MockBigQueryGateway{
		ListJobsFn: func(context.Context, string, domain.JobListOptions) (*domain.ListResult[*domain.Job], error) {
			return nil, boom
		},
	}
	p, _ := newTestProject(gw)

	_, err := p.Jobs(context.Background(), domain.JobListOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestProject_DatasetsAndTables(t *testing.T) {
	total := int64(2)
	gw := &testutil.MockBigQueryGateway{
		ListDatasetsFn: func(_ context.Context, projectID string, opts domain.DatasetListOptions) (*domain.ListResult[*domain.Dataset], error) {
			assert.True(t, opts.All)
			if opts.PageToken == "" {
				return &domain.ListResult[*domain.Dataset]{
					Items:         []*domain.Dataset{{Reference: domain.DatasetReference{ProjectID: projectID, DatasetID: "a"}}},
					NextPageToken: "t1",
				}, nil
			}
			return &domain.ListResult[*domain.Dataset]{
				Items: []*domain.Dataset{{Reference: domain.DatasetReference{ProjectID: projectID, DatasetID: "b"}}},
			}, nil
		},
		GetDatasetFn: func(_ context.Context, _, datasetID string) (*domain.Dataset, error) {
			if datasetID == "missing" {
				return nil, domain.ErrNotFound("datasets.get: missing")
			}
			return &domain.Dataset{Reference: domain.DatasetReference{DatasetID: datasetID}}, nil
		},
		ListTablesFn: func(_ context.Context, _, datasetID string, _ domain.TableListOptions) (*domain.ListResult[*domain.Table], error) {
			assert.Equal(t, "a", datasetID)
			return &domain.ListResult[*domain.Table]{
				Items:      []*domain.Table{{Reference: domain.TableReference{TableID: "t1"}}, {Reference: domain.TableReference{TableID: "t2"}}},
				Etag:       "etag-1",
				TotalItems: &total,
			}, nil
		},
		GetTableFn: func(_ context.Context, ref domain.TableReference) (*domain.Table, error) {
			if ref.TableID == "missing" {
				return nil, domain.ErrNotFound("tables.get: missing")
			}
			return &domain.Table{Reference: ref}, nil
		},
	}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	datasets, err := p.Datasets(ctx, domain.DatasetListOptions{All: true})
	require.NoError(t, err)
	all, err := domain.Collect(datasets.All(ctx))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[1].Reference.DatasetID)

	ds, err := p.Dataset(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", ds.Reference.DatasetID)
	ds, err = p.Dataset(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, ds)

	tables, err := p.Tables(ctx, "a", domain.TableListOptions{})
	require.NoError(t, err)
	assert.Len(t, tables.Items, 2)
	assert.Equal(t, "etag-1", tables.Etag)
	require.NotNil(t, tables.Total)
	assert.Equal(t, int64(2), *tables.Total)

	tbl, err := p.Table(ctx, "a", "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableReference{ProjectID: "p", DatasetID: "a", TableID: "t1"}, tbl.Reference)
	tbl, err = p.Table(ctx, "a", "missing")
	require.NoError(t, err)
	assert.Nil(t, tbl)
}

func TestProject_QueryJob_Defaults(t *testing.T) {
	var got domain.JobInsertRequest
	gw := &testutil.MockBigQueryGateway{
		InsertJobFn: func(_ context.Context, projectID string, req domain.JobInsertRequest) (*domain.Job, error) {
			got = req
			snap := testutil.JobSnapshot(projectID, req.Reference.JobID, "PENDING")
			snap.Configuration = req.Configuration
			return snap, nil
		},
	}
	p, _ := newTestProject(gw)

	q, err := p.QueryJob(context.Background(), "SELECT 1", QueryJobOptions{Dataset: "logs"})
	require.NoError(t, err)

	spec := got.Configuration.Spec.(*domain.QuerySpec)
	assert.Equal(t, domain.PriorityInteractive, spec.Priority)
	require.NotNil(t, spec.UseQueryCache)
	assert.True(t, *spec.UseQueryCache)
	assert.Nil(t, spec.AllowLargeResults)
	assert.Equal(t, &domain.DatasetReference{ProjectID: "p", DatasetID: "logs"}, spec.DefaultDataset)
	assert.NotEmpty(t, got.Reference.JobID)
	assert.Equal(t, "p", got.Reference.ProjectID)

	assert.Equal(t, "SELECT 1", q.Query())
	assert.True(t, q.IsInteractive())
	assert.False(t, q.IsBatch())
	assert.True(t, q.Cache())
	assert.False(t, q.LargeResults())
	assert.True(t, q.Flatten())
	assert.True(t, q.IsPending())
}

func TestProject_QueryJob_Options(t *testing.T) {
	var got domain.JobInsertRequest
	gw := &testutil.MockBigQueryGateway{
		InsertJobFn: func(_ context.Context, projectID string, req domain.JobInsertRequest) (*domain.Job, error) {
			got = req
			snap := testutil.JobSnapshot(projectID, req.Reference.JobID, "PENDING")
			snap.Configuration = req.Configuration
			return snap, nil
		},
	}
	p, _ := newTestProject(gw)
	noCache, noFlatten := false, false
	dest := &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "out"}

	q, err := p.QueryJob(context.Background(), "SELECT 1", QueryJobOptions{
		Priority:     "batch",
		Cache:        &noCache,
		Flatten:      &noFlatten,
		LargeResults: true,
		Destination:  dest,
		Write:        domain.WriteTruncate,
	})
	require.NoError(t, err)
	assert.True(t, q.IsBatch())
	assert.False(t, q.Cache())
	assert.False(t, q.Flatten())
	assert.True(t, q.LargeResults())
	assert.Equal(t, domain.WriteTruncate, q.WriteDisposition())
	assert.Equal(t, domain.CreateIfNeeded, q.CreateDisposition())
	assert.Equal(t, dest, got.Configuration.Spec.(*domain.QuerySpec).Destination)
}

func TestProject_QueryJob_Validation(t *testing.T) {
	gw := &testutil.MockBigQueryGateway{}
	p, _ := newTestProject(gw)
	ctx := context.Background()
	var ve *domain.ValidationError

	_, err := p.QueryJob(ctx, "  ", QueryJobOptions{})
	require.ErrorAs(t, err, &ve)
	_, err = p.QueryJob(ctx, "SELECT 1", QueryJobOptions{Priority: "urgent"})
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, gw.TotalCalls())
}

func TestQueryJob_StatisticsAndDestination(t *testing.T) {
	gw := &testutil.MockBigQueryGateway{
		GetTableFn: func(_ context.Context, ref domain.TableReference) (*domain.Table, error) {
			return &domain.Table{Reference: ref}, nil
		},
	}
	p, _ := newTestProject(gw)
	snap := testutil.QueryJobSnapshot("p", "j", "DONE", "SELECT 1")
	snap.Statistics.Query = &domain.QueryStatistics{CacheHit: true, TotalBytesProcessed: 2048}
	q, ok := newJob(p.c, snap).AsQuery()
	require.True(t, ok)

	assert.True(t, q.CacheHit())
	assert.Equal(t, int64(2048), q.BytesProcessed())
	assert.False(t, q.Cache(), "unset cache flag on a fetched job reads false")

	tbl, err := q.Destination(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tbl)
	assert.Zero(t, gw.Calls("GetTable"))

	snap.Configuration.Spec.(*domain.QuerySpec).Destination = &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "tmp"}
	tbl, err = q.Destination(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tbl)
	assert.Equal(t, "tmp", tbl.Reference.TableID)
}

func resultPage(jobID string, complete bool, token string, values ...string) *domain.QueryResultPage {
	page := &domain.QueryResultPage{
		JobReference: domain.JobReference{ProjectID: "p", JobID: jobID},
		JobComplete:  complete,
		PageToken:    token,
		TotalRows:    5,
		Schema:       domain.NewSchema(field("n", domain.FieldInteger)).Freeze(),
	}
	for _, v := range values {
		page.Rows = append(page.Rows, domain.RawRow{v})
	}
	return page
}

func TestProject_Query_CompleteImmediately(t *testing.T) {
	var req domain.QueryRequest
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(_ context.Context, _ string, r domain.QueryRequest) (*domain.QueryResultPage, error) {
			req = r
			page := resultPage("q1", true, "", "36")
			page.CacheHit = true
			page.TotalBytesProcessed = 10
			return page, nil
		},
	}
	p, slept := newTestProject(gw)

	data, err := p.Query(context.Background(), "SELECT 36", QueryOptions{Dataset: "d", Project: "other"})
	require.NoError(t, err)

	assert.Equal(t, DefaultQueryTimeout, req.Timeout)
	require.NotNil(t, req.UseQueryCache)
	assert.True(t, *req.UseQueryCache)
	assert.Equal(t, &domain.DatasetReference{ProjectID: "other", DatasetID: "d"}, req.DefaultDataset)

	assert.True(t, data.Complete)
	assert.True(t, data.CacheHit)
	assert.Equal(t, int64(10), data.TotalBytesProcessed)
	assert.Equal(t, int64(5), data.TotalRows)
	assert.Equal(t, []string{"n"}, data.Headers())
	assert.Equal(t, domain.Row{"n": int64(36)}, data.Row(0))
	assert.Nil(t, data.Row(1))
	assert.False(t, data.HasNext())
	assert.Empty(t, *slept)
}

func TestProject_Query_PollsUntilComplete(t *testing.T) {
	polls := 0
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(context.Context, string, domain.QueryRequest) (*domain.QueryResultPage, error) {
			return resultPage("q1", false, ""), nil
		},
		GetQueryResultsFn: func(_ context.Context, _, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
			assert.Equal(t, "q1", jobID)
			assert.Equal(t, 2, opts.MaxResults)
			assert.Equal(t, 3*time.Second, opts.Timeout)
			polls++
			if polls < 3 {
				return resultPage("q1", false, ""), nil
			}
			return resultPage("q1", true, "tok", "1", "2"), nil
		},
	}
	p, slept := newTestProject(gw)

	data, err := p.Query(context.Background(), "SELECT n", QueryOptions{MaxResults: 2, Timeout: 3 * time.Second})
	require.NoError(t, err)
	assert.True(t, data.Complete)
	assert.Equal(t, []domain.Row{{"n": int64(1)}, {"n": int64(2)}}, data.Items)
	assert.Equal(t, 3, polls)
	assert.Equal(t, []time.Duration{5 * time.Second, 7 * time.Second, 9 * time.Second}, *slept)
}

func TestProject_Query_PollError(t *testing.T) {
	boom := errors.New("poll failed")
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(context.Context, string, domain.QueryRequest) (*domain.QueryResultPage, error) {
			return resultPage("q1", false, ""), nil
		},
		GetQueryResultsFn: func(context.Context, string, string, domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
			return nil, boom
		},
	}
	p, _ := newTestProject(gw)

	_, err := p.Query(context.Background(), "SELECT 1", QueryOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestProject_Query_MalformedRowAbortsPage(t *testing.T) {
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(context.Context, string, domain.QueryRequest) (*domain.QueryResultPage, error) {
			return resultPage("q1", true, "", "1", "two"), nil
		},
	}
	p, _ := newTestProject(gw)

	data, err := p.Query(context.Background(), "SELECT 1", QueryOptions{})
	assert.Nil(t, data)
	var me *domain.MalformedResponseError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "two", me.Value)
}

func TestQueryData_Pagination(t *testing.T) {
	var calls []domain.QueryResultsOptions
	gw := &testutil.MockBigQueryGateway{
		GetQueryResultsFn: func(_ context.Context, _, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
			calls = append(calls, opts)
			switch opts.PageToken {
			case "":
				return resultPage(jobID, true, "t1", "1", "2"), nil
			case "t1":
				// empty page with a token: traversal must continue
				page := resultPage(jobID, true, "t2")
				page.Schema = nil
				return page, nil
			default:
				return resultPage(jobID, true, "", "3"), nil
			}
		},
		GetJobFn: func(_ context.Context, projectID, jobID, _ string) (*domain.Job, error) {
			return testutil.QueryJobSnapshot(projectID, jobID, "DONE", "SELECT n"), nil
		},
	}
	p, _ := newTestProject(gw)
	ctx := context.Background()
	q, ok := newJob(p.c, testutil.QueryJobSnapshot("p", "q1", "DONE", "SELECT n")).AsQuery()
	require.True(t, ok)

	start := int64(4)
	first, err := q.QueryResults(ctx, domain.QueryResultsOptions{
		PageRequest: domain.PageRequest{MaxResults: 2},
		StartIndex:  &start,
		Timeout:     time.Second,
	})
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)

	second, err := first.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Items)
	assert.True(t, second.HasNext())
	assert.NotNil(t, second.Schema, "schema carries over from the previous page")

	rows, err := domain.Collect(first.All(ctx))
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"n": int64(1)}, {"n": int64(2)}, {"n": int64(3)}}, rows)

	require.NotEmpty(t, calls)
	assert.Equal(t, &start, calls[0].StartIndex)
	for _, c := range calls[1:] {
		assert.Nil(t, c.StartIndex, "start index only applies to the first request")
		assert.Equal(t, 2, c.MaxResults)
		assert.Equal(t, time.Second, c.Timeout)
	}

	job, err := first.Job(ctx)
	require.NoError(t, err)
	assert.Equal(t, "q1", job.ID())
	assert.Equal(t, "SELECT n", job.Query())
}

func TestQueryData_AllRequestLimit(t *testing.T) {
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(context.Context, string, domain.QueryRequest) (*domain.QueryResultPage, error) {
			return resultPage("q1", true, "more", "1", "2", "3"), nil
		},
	}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	data, err := p.Query(ctx, "SELECT n", QueryOptions{})
	require.NoError(t, err)

	rows, err := domain.Collect(data.All(ctx, domain.WithRequestLimit(0)))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Zero(t, gw.Calls("GetQueryResults"))
}

func TestProject_TableData(t *testing.T) {
	schema := domain.NewSchema(field("name", domain.FieldString), field("age", domain.FieldInteger)).Freeze()
	ref := domain.TableReference{DatasetID: "d", TableID: "people"}
	var seen []domain.TableDataOptions
	gw := &testutil.MockBigQueryGateway{
		GetTableFn: func(_ context.Context, r domain.TableReference) (*domain.Table, error) {
			assert.Equal(t, "p", r.ProjectID)
			return &domain.Table{Reference: r, Schema: schema}, nil
		},
		ListTableDataFn: func(_ context.Context, r domain.TableReference, opts domain.TableDataOptions) (*domain.TableDataPage, error) {
			assert.Equal(t, "people", r.TableID)
			seen = append(seen, opts)
			if opts.PageToken == "" {
				return &domain.TableDataPage{Rows: []domain.RawRow{{"ann", "30"}}, PageToken: "n", TotalRows: 2}, nil
			}
			return &domain.TableDataPage{Rows: []domain.RawRow{{"bo", nil}}, TotalRows: 2}, nil
		},
	}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	start := int64(0)
	data, err := p.TableData(ctx, ref, domain.TableDataOptions{PageRequest: domain.PageRequest{MaxResults: 1}, StartIndex: &start})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, data.Headers())
	assert.Equal(t, int64(2), data.TotalRows)

	next, err := data.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"name": "bo", "age": nil}}, next.Items)
	assert.False(t, next.HasNext())

	require.Len(t, seen, 2)
	assert.Nil(t, seen[1].StartIndex)
	assert.Equal(t, 1, seen[1].MaxResults)
}

func TestProject_TableData_MissingTable(t *testing.T) {
	gw := &testutil.MockBigQueryGateway{
		GetTableFn: func(context.Context, domain.TableReference) (*domain.Table, error) {
			return nil, domain.ErrNotFound("tables.get: gone")
		},
	}
	p, _ := newTestProject(gw)

	_, err := p.TableData(context.Background(), domain.TableReference{DatasetID: "d", TableID: "gone"}, domain.TableDataOptions{})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestProject_Query_RegionalJob(t *testing.T) {
	regional := func(page *domain.QueryResultPage) *domain.QueryResultPage {
		page.JobReference.Location = "asia-northeast1"
		return page
	}
	var resultLocations []string
	var jobLocation string
	gw := &testutil.MockBigQueryGateway{
		QueryFn: func(context.Context, string, domain.QueryRequest) (*domain.QueryResultPage, error) {
			return regional(resultPage("q1", false, "")), nil
		},
		GetQueryResultsFn: func(_ context.Context, _, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
			resultLocations = append(resultLocations, opts.Location)
			if opts.PageToken == "" {
				return regional(resultPage(jobID, true, "t1", "1")), nil
			}
			// later pages may omit the job reference
			page := resultPage(jobID, true, "", "2")
			page.JobReference = domain.JobReference{}
			return page, nil
		},
		GetJobFn: func(_ context.Context, projectID, jobID, location string) (*domain.Job, error) {
			jobLocation = location
			return testutil.QueryJobSnapshot(projectID, jobID, "DONE", "SELECT n"), nil
		},
	}
	p, _ := newTestProject(gw)
	ctx := context.Background()

	data, err := p.Query(ctx, "SELECT n", QueryOptions{})
	require.NoError(t, err)
	next, err := data.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"n": int64(2)}}, next.Items)

	_, err = next.Job(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"asia-northeast1", "asia-northeast1"}, resultLocations)
	assert.Equal(t, "asia-northeast1", jobLocation)
}
