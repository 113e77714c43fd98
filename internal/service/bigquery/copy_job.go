package bigquery

import (
	"context"

	"gcloud-go/internal/domain"
)

// CopyJob is a Job copying one or more tables into another.
type CopyJob struct {
	*Job
}

func (j *CopyJob) spec() *domain.CopySpec {
	if s, ok := j.Configuration().Spec.(*domain.CopySpec); ok && s != nil {
		return s
	}
	return &domain.CopySpec{}
}

// Sources returns the source table references.
func (j *CopyJob) Sources() []domain.TableReference { return j.spec().Sources }

// Source fetches the first source table, or nil.
func (j *CopyJob) Source(ctx context.Context) (*domain.Table, error) {
	srcs := j.spec().Sources
	if len(srcs) == 0 {
		return nil, nil
	}
	return j.c.lookupTable(ctx, &srcs[0])
}

// Destination fetches the destination table, or nil.
func (j *CopyJob) Destination(ctx context.Context) (*domain.Table, error) {
	return j.c.lookupTable(ctx, j.spec().Destination)
}

// CreateDisposition returns the create disposition, resolved to its default.
func (j *CopyJob) CreateDisposition() domain.CreateDisposition {
	return j.spec().CreateDisposition.OrDefault()
}

// WriteDisposition returns the write disposition, resolved to its default.
func (j *CopyJob) WriteDisposition() domain.WriteDisposition {
	return j.spec().WriteDisposition.OrDefault()
}

// IsCreateIfNeeded reports whether a missing destination is created.
func (j *CopyJob) IsCreateIfNeeded() bool { return j.CreateDisposition() == domain.CreateIfNeeded }

// IsCreateNever reports whether the destination must already exist.
func (j *CopyJob) IsCreateNever() bool { return j.CreateDisposition() == domain.CreateNever }

// IsWriteTruncate reports whether existing destination data is replaced.
func (j *CopyJob) IsWriteTruncate() bool { return j.WriteDisposition() == domain.WriteTruncate }

// IsWriteAppend reports whether rows are appended to the destination.
func (j *CopyJob) IsWriteAppend() bool { return j.WriteDisposition() == domain.WriteAppend }

// IsWriteEmpty reports whether the destination must be empty.
func (j *CopyJob) IsWriteEmpty() bool { return j.WriteDisposition() == domain.WriteEmpty }
