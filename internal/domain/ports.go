package domain

import "context"

// ListResult is one page of a list call as returned by a gateway.
type ListResult[T any] struct {
	Items         []T
	NextPageToken string
	Etag          string
	TotalItems    *int64
}

// BigQueryGateway performs BigQuery REST calls for a client.
// Implemented by gateway/bigquery.Gateway.
//
// Lookups of a missing resource return *NotFoundError. Every other failure
// is a *RemoteCallError. Jobs outside the US and EU multi-regions are only
// found when the job location is passed along.
type BigQueryGateway interface {
	GetJob(ctx context.Context, projectID, jobID, location string) (*Job, error)
	InsertJob(ctx context.Context, projectID string, req JobInsertRequest) (*Job, error)
	ListJobs(ctx context.Context, projectID string, opts JobListOptions) (*ListResult[*Job], error)
	GetQueryResults(ctx context.Context, projectID, jobID string, opts QueryResultsOptions) (*QueryResultPage, error)
	Query(ctx context.Context, projectID string, req QueryRequest) (*QueryResultPage, error)

	GetDataset(ctx context.Context, projectID, datasetID string) (*Dataset, error)
	ListDatasets(ctx context.Context, projectID string, opts DatasetListOptions) (*ListResult[*Dataset], error)
	GetTable(ctx context.Context, ref TableReference) (*Table, error)
	ListTables(ctx context.Context, projectID, datasetID string, opts TableListOptions) (*ListResult[*Table], error)
	ListTableData(ctx context.Context, ref TableReference, opts TableDataOptions) (*TableDataPage, error)
}

// StorageGateway performs Cloud Storage calls for a client.
// Implemented by gateway/storage.Gateway.
type StorageGateway interface {
	ListBuckets(ctx context.Context, projectID string, opts BucketListOptions) (*ListResult[*Bucket], error)
}
