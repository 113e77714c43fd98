// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"

	"gcloud-go/internal/domain"
)

// === BigQuery Gateway Mock ===

// MockBigQueryGateway implements domain.BigQueryGateway for testing. Calls
// counts every invocation by method name.
type MockBigQueryGateway struct {
	GetJobFn          func(ctx context.Context, projectID, jobID, location string) (*domain.Job, error)
	InsertJobFn       func(ctx context.Context, projectID string, req domain.JobInsertRequest) (*domain.Job, error)
	ListJobsFn        func(ctx context.Context, projectID string, opts domain.JobListOptions) (*domain.ListResult[*domain.Job], error)
	GetQueryResultsFn func(ctx context.Context, projectID, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error)
	QueryFn           func(ctx context.Context, projectID string, req domain.QueryRequest) (*domain.QueryResultPage, error)
	GetDatasetFn      func(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error)
	ListDatasetsFn    func(ctx context.Context, projectID string, opts domain.DatasetListOptions) (*domain.ListResult[*domain.Dataset], error)
	GetTableFn        func(ctx context.Context, ref domain.TableReference) (*domain.Table, error)
	ListTablesFn      func(ctx context.Context, projectID, datasetID string, opts domain.TableListOptions) (*domain.ListResult[*domain.Table], error)
	ListTableDataFn   func(ctx context.Context, ref domain.TableReference, opts domain.TableDataOptions) (*domain.TableDataPage, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ domain.BigQueryGateway = (*MockBigQueryGateway)(nil)

func (m *MockBigQueryGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockBigQueryGateway) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// TotalCalls returns the number of invocations across all methods.
func (m *MockBigQueryGateway) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// GetJob implements the interface method for testing.
func (m *MockBigQueryGateway) GetJob(ctx context.Context, projectID, jobID, location string) (*domain.Job, error) {
	m.record("GetJob")
	if m.GetJobFn != nil {
		return m.GetJobFn(ctx, projectID, jobID, location)
	}
	panic("unexpected call to MockBigQueryGateway.GetJob")
}

// InsertJob implements the interface method for testing.
func (m *MockBigQueryGateway) InsertJob(ctx context.Context, projectID string, req domain.JobInsertRequest) (*domain.Job, error) {
	m.record("InsertJob")
	if m.InsertJobFn != nil {
		return m.InsertJobFn(ctx, projectID, req)
	}
	panic("unexpected call to MockBigQueryGateway.InsertJob")
}

// ListJobs implements the interface method for testing.
func (m *MockBigQueryGateway) ListJobs(ctx context.Context, projectID string, opts domain.JobListOptions) (*domain.ListResult[*domain.Job], error) {
	m.record("ListJobs")
	if m.ListJobsFn != nil {
		return m.ListJobsFn(ctx, projectID, opts)
	}
	panic("unexpected call to MockBigQueryGateway.ListJobs")
}

// GetQueryResults implements the interface method for testing.
func (m *MockBigQueryGateway) GetQueryResults(ctx context.Context, projectID, jobID string, opts domain.QueryResultsOptions) (*domain.QueryResultPage, error) {
	m.record("GetQueryResults")
	if m.GetQueryResultsFn != nil {
		return m.GetQueryResultsFn(ctx, projectID, jobID, opts)
	}
	panic("unexpected call to MockBigQueryGateway.GetQueryResults")
}

// Query implements the interface method for testing.
func (m *MockBigQueryGateway) Query(ctx context.Context, projectID string, req domain.QueryRequest) (*domain.QueryResultPage, error) {
	m.record("Query")
	if m.QueryFn != nil {
		return m.QueryFn(ctx, projectID, req)
	}
	panic("unexpected call to MockBigQueryGateway.Query")
}

// GetDataset implements the interface method for testing.
func (m *MockBigQueryGateway) GetDataset(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	m.record("GetDataset")
	if m.GetDatasetFn != nil {
		return m.GetDatasetFn(ctx, projectID, datasetID)
	}
	panic("unexpected call to MockBigQueryGateway.GetDataset")
}

// ListDatasets implements the interface method for testing.
func (m *MockBigQueryGateway) ListDatasets(ctx context.Context, projectID string, opts domain.DatasetListOptions) (*domain.ListResult[*domain.Dataset], error) {
	m.record("ListDatasets")
	if m.ListDatasetsFn != nil {
		return m.ListDatasetsFn(ctx, projectID, opts)
	}
	panic("unexpected call to MockBigQueryGateway.ListDatasets")
}

// GetTable implements the interface method for testing.
func (m *MockBigQueryGateway) GetTable(ctx context.Context, ref domain.TableReference) (*domain.Table, error) {
	m.record("GetTable")
	if m.GetTableFn != nil {
		return m.GetTableFn(ctx, ref)
	}
	panic("unexpected call to MockBigQueryGateway.GetTable")
}

// ListTables implements the interface method for testing.
func (m *MockBigQueryGateway) ListTables(ctx context.Context, projectID, datasetID string, opts domain.TableListOptions) (*domain.ListResult[*domain.Table], error) {
	m.record("ListTables")
	if m.ListTablesFn != nil {
		return m.ListTablesFn(ctx, projectID, datasetID, opts)
	}
	panic("unexpected call to MockBigQueryGateway.ListTables")
}

// ListTableData implements the interface method for testing.
func (m *MockBigQueryGateway) ListTableData(ctx context.Context, ref domain.TableReference, opts domain.TableDataOptions) (*domain.TableDataPage, error) {
	m.record("ListTableData")
	if m.ListTableDataFn != nil {
		return m.ListTableDataFn(ctx, ref, opts)
	}
	panic("unexpected call to MockBigQueryGateway.ListTableData")
}

// === Storage Gateway Mock ===

// MockStorageGateway implements domain.StorageGateway for testing.
type MockStorageGateway struct {
	ListBucketsFn func(ctx context.Context, projectID string, opts domain.BucketListOptions) (*domain.ListResult[*domain.Bucket], error)
}

var _ domain.StorageGateway = (*MockStorageGateway)(nil)

// ListBuckets implements the interface method for testing.
func (m *MockStorageGateway) ListBuckets(ctx context.Context, projectID string, opts domain.BucketListOptions) (*domain.ListResult[*domain.Bucket], error) {
	if m.ListBucketsFn != nil {
		return m.ListBucketsFn(ctx, projectID, opts)
	}
	panic("unexpected call to MockStorageGateway.ListBuckets")
}

// === Fixtures ===

// JobSnapshot builds a job snapshot in the given raw state.
func JobSnapshot(projectID, jobID, state string) *domain.Job {
	return &domain.Job{
		Reference: domain.JobReference{ProjectID: projectID, JobID: jobID},
		Status:    domain.JobStatus{State: state},
	}
}

// QueryJobSnapshot builds a query job snapshot whose configuration carries
// both the decoded spec and its raw wire form.
func QueryJobSnapshot(projectID, jobID, state, query string) *domain.Job {
	j := JobSnapshot(projectID, jobID, state)
	j.Configuration = domain.JobConfiguration{
		Spec: &domain.QuerySpec{Query: query},
		Raw:  map[string]any{"query": map[string]any{"query": query}},
	}
	return j
}
