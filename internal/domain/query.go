package domain

import "time"

// RawRow is a row as delivered on the wire: one undecoded cell value per
// schema field, in schema order. Scalar values are strings or nil; RECORD
// values are {"f": [...]} objects and REPEATED values are [{"v": ...}] lists.
type RawRow []any

// Row maps field names to typed values. A NULL cell maps to nil.
type Row map[string]any

// QueryRequest is the payload of a synchronous query call.
type QueryRequest struct {
	Query          string
	MaxResults     int
	Timeout        time.Duration
	DryRun         bool
	UseQueryCache  *bool
	UseLegacySQL   *bool
	DefaultDataset *DatasetReference
	Location       string
}

// QueryResultsOptions selects a page of a query job's results.
type QueryResultsOptions struct {
	PageRequest
	StartIndex *int64
	Timeout    time.Duration
	Location   string // location of the job; required for regional jobs
}

// QueryResultPage is one page of query output as returned by either the
// synchronous query call or the results lookup of a query job.
type QueryResultPage struct {
	JobReference        JobReference
	JobComplete         bool
	Schema              *Schema
	Rows                []RawRow
	PageToken           string
	TotalRows           int64
	TotalBytesProcessed int64
	CacheHit            bool
	NumDMLAffectedRows  int64
	Errors              []ErrorDetail
	Etag                string
}
