package domain

import (
	"strings"
	"time"
)

// JobState is the lifecycle state of an asynchronous remote job. States only
// move forward: PENDING -> RUNNING -> DONE.
type JobState string

// Job lifecycle states. JobStateUnknown covers an absent or unrecognised
// state string and is never treated as terminal.
const (
	JobStateUnknown JobState = ""
	JobStatePending JobState = "PENDING"
	JobStateRunning JobState = "RUNNING"
	JobStateDone    JobState = "DONE"
)

// ParseJobState maps a wire state string to a JobState, ignoring case.
func ParseJobState(s string) JobState {
	s = strings.TrimSpace(s)
	for _, st := range []JobState{JobStatePending, JobStateRunning, JobStateDone} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return JobStateUnknown
}

// JobKind identifies which configuration branch a job carries.
type JobKind string

// Job kinds. JobKindGeneric is used when no known branch is populated.
const (
	JobKindGeneric JobKind = ""
	JobKindCopy    JobKind = "copy"
	JobKindExtract JobKind = "extract"
	JobKindLoad    JobKind = "load"
	JobKindQuery   JobKind = "query"
)

// JobReference identifies a job.
type JobReference struct {
	ProjectID string
	JobID     string
	Location  string
}

// ErrorDetail is a single error reported by the service for a job.
type ErrorDetail struct {
	Reason    string
	Message   string
	Location  string
	DebugInfo string
}

func (e ErrorDetail) Error() string {
	if e.Reason == "" {
		return e.Message
	}
	return e.Reason + ": " + e.Message
}

// JobStatus carries the raw state string and any reported errors.
// ErrorResult is set only when the job failed.
type JobStatus struct {
	State       string
	ErrorResult *ErrorDetail
	Errors      []ErrorDetail
}

// QueryStatistics holds statistics for query jobs.
type QueryStatistics struct {
	CacheHit            bool
	TotalBytesProcessed int64
	TotalBytesBilled    int64
	NumDMLAffectedRows  int64
}

// LoadStatistics holds statistics for load jobs.
type LoadStatistics struct {
	InputFiles     int64
	InputFileBytes int64
	OutputRows     int64
	OutputBytes    int64
	BadRecords     int64
}

// ExtractStatistics holds statistics for extract jobs.
type ExtractStatistics struct {
	DestinationURIFileCounts []int64
}

// JobStatistics holds timing and counters for a job. Timestamps are nil
// until the service reports them.
type JobStatistics struct {
	CreationTime        *time.Time
	StartTime           *time.Time
	EndTime             *time.Time
	TotalBytesProcessed int64
	Query               *QueryStatistics
	Load                *LoadStatistics
	Extract             *ExtractStatistics
}

// JobConfiguration is the request that produced a job. Spec is the decoded
// configuration branch (nil for a generic job). Raw is the opaque wire form;
// when present it is resubmitted unchanged by a rerun.
type JobConfiguration struct {
	Spec   JobSpec
	DryRun bool
	Labels map[string]string
	Raw    map[string]any
}

// Kind returns the configuration branch kind.
func (c JobConfiguration) Kind() JobKind {
	if c.Spec == nil {
		return JobKindGeneric
	}
	return c.Spec.Kind()
}

// Job is a snapshot of a remote job as of the last fetch.
type Job struct {
	Reference     JobReference
	Status        JobStatus
	Statistics    JobStatistics
	Configuration JobConfiguration
	UserEmail     string
	Etag          string
}

// State derives the lifecycle state from the snapshot.
func (j *Job) State() JobState {
	return ParseJobState(j.Status.State)
}

// Failed reports whether an error result is present, regardless of state.
func (j *Job) Failed() bool {
	return j.Status.ErrorResult != nil
}

// JobInsertRequest is the payload for inserting a job. Reference.JobID is
// generated client-side so a resubmission always gets a new ID.
type JobInsertRequest struct {
	Reference     JobReference
	Configuration JobConfiguration
}

// JobListOptions filters a job listing.
type JobListOptions struct {
	PageRequest
	AllUsers    bool
	StateFilter []JobState
}

// TimeFromMillis converts a milliseconds-since-epoch value to a time.
// Zero is treated as absent.
func TimeFromMillis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
