package bigquery

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gcloud-go/internal/domain"
)

// Job is a handle to a remote asynchronous operation. It holds the snapshot
// from the last fetch; Reload replaces that snapshot as a whole.
type Job struct {
	c    *client
	snap atomic.Pointer[domain.Job]
}

func newJob(c *client, snap *domain.Job) *Job {
	j := &Job{c: c}
	j.snap.Store(snap)
	return j
}

// Snapshot returns the current snapshot. It must not be modified.
func (j *Job) Snapshot() *domain.Job { return j.snap.Load() }

// ID returns the job ID.
func (j *Job) ID() string { return j.Snapshot().Reference.JobID }

// ProjectID returns the project that owns the job.
func (j *Job) ProjectID() string {
	if p := j.Snapshot().Reference.ProjectID; p != "" {
		return p
	}
	return j.c.projectID
}

// Location returns the job location as reported, falling back to the
// project default.
func (j *Job) Location() string {
	if l := j.Snapshot().Reference.Location; l != "" {
		return l
	}
	return j.c.location
}

// Kind returns which configuration branch the job carries.
func (j *Job) Kind() domain.JobKind { return j.Snapshot().Configuration.Kind() }

// RawState returns the state string as reported by the service.
func (j *Job) RawState() string { return j.Snapshot().Status.State }

// State returns the lifecycle state derived from the snapshot.
func (j *Job) State() domain.JobState { return j.Snapshot().State() }

// IsPending reports whether the job is waiting to run.
func (j *Job) IsPending() bool { return j.State() == domain.JobStatePending }

// IsRunning reports whether the job is running.
func (j *Job) IsRunning() bool { return j.State() == domain.JobStateRunning }

// IsDone reports whether the job reached its terminal state. A done job may
// still have failed.
func (j *Job) IsDone() bool { return j.State() == domain.JobStateDone }

// Failed reports whether the service reported an error result.
func (j *Job) Failed() bool { return j.Snapshot().Failed() }

// ErrorResult returns the error that failed the job, or nil.
func (j *Job) ErrorResult() *domain.ErrorDetail { return j.Snapshot().Status.ErrorResult }

// Errors returns the non-fatal errors reported for the job. It is never nil.
func (j *Job) Errors() []domain.ErrorDetail {
	errs := j.Snapshot().Status.Errors
	if errs == nil {
		return []domain.ErrorDetail{}
	}
	return errs
}

// CreatedAt returns when the job was created, or nil.
func (j *Job) CreatedAt() *time.Time { return j.Snapshot().Statistics.CreationTime }

// StartedAt returns when the job started running, or nil.
func (j *Job) StartedAt() *time.Time { return j.Snapshot().Statistics.StartTime }

// EndedAt returns when the job finished, or nil.
func (j *Job) EndedAt() *time.Time { return j.Snapshot().Statistics.EndTime }

// Configuration returns the request that produced the job.
func (j *Job) Configuration() domain.JobConfiguration { return j.Snapshot().Configuration }

// Statistics returns the job statistics.
func (j *Job) Statistics() domain.JobStatistics { return j.Snapshot().Statistics }

// Status returns the job status.
func (j *Job) Status() domain.JobStatus { return j.Snapshot().Status }

// Reload fetches the job again and replaces the snapshot. Unlike
// Project.Job, a missing job is an error here.
func (j *Job) Reload(ctx context.Context) error {
	snap, err := j.c.gw.GetJob(ctx, j.ProjectID(), j.ID(), j.Location())
	if err != nil {
		return err
	}
	j.snap.Store(snap)
	return nil
}

// WaitUntilDone polls the job until it is DONE, sleeping per the backoff
// policy before each reload. It returns immediately without any remote call
// when the job is already DONE. There is no ceiling unless WithDeadline or a
// context deadline sets one. A failed reload ends the wait.
func (j *Job) WaitUntilDone(ctx context.Context, opts ...WaitOption) error {
	if j.IsDone() {
		return nil
	}
	err := j.c.poll(ctx, opts, func(ctx context.Context, attempt int) (bool, error) {
		if err := j.Reload(ctx); err != nil {
			return false, err
		}
		j.c.logger.Debug("job polled", "job_id", j.ID(), "attempt", attempt, "state", j.RawState())
		return j.IsDone(), nil
	})
	if err != nil {
		return fmt.Errorf("wait for job %s: %w", j.ID(), err)
	}
	if j.Failed() {
		j.c.logger.Warn("job failed", "job_id", j.ID(), "error", j.ErrorResult().Error())
	}
	return nil
}

// Rerun submits the job's configuration again as a new job with a new ID.
// The receiver is not modified.
func (j *Job) Rerun(ctx context.Context) (*Job, error) {
	return j.c.insertJob(ctx, j.Location(), j.Configuration())
}

// AsQuery returns the query specialization when the job is a query job.
func (j *Job) AsQuery() (*QueryJob, bool) {
	if j.Kind() != domain.JobKindQuery {
		return nil, false
	}
	return &QueryJob{Job: j}, true
}

// AsCopy returns the copy specialization when the job is a copy job.
func (j *Job) AsCopy() (*CopyJob, bool) {
	if j.Kind() != domain.JobKindCopy {
		return nil, false
	}
	return &CopyJob{Job: j}, true
}

// AsExtract returns the extract specialization when the job is an extract job.
func (j *Job) AsExtract() (*ExtractJob, bool) {
	if j.Kind() != domain.JobKindExtract {
		return nil, false
	}
	return &ExtractJob{Job: j}, true
}

// AsLoad returns the load specialization when the job is a load job.
func (j *Job) AsLoad() (*LoadJob, bool) {
	if j.Kind() != domain.JobKindLoad {
		return nil, false
	}
	return &LoadJob{Job: j}, true
}
