package bigquery

import (
	"context"
	"strings"

	"gcloud-go/internal/domain"
)

// LoadJob is a Job loading files from Cloud Storage into a table.
type LoadJob struct {
	*Job
}

func (j *LoadJob) spec() *domain.LoadSpec {
	if s, ok := j.Configuration().Spec.(*domain.LoadSpec); ok && s != nil {
		return s
	}
	return &domain.LoadSpec{}
}

// SourceURIs returns the gs:// URIs being loaded.
func (j *LoadJob) SourceURIs() []string { return j.spec().SourceURIs }

// Destination fetches the destination table, or nil.
func (j *LoadJob) Destination(ctx context.Context) (*domain.Table, error) {
	return j.c.lookupTable(ctx, j.spec().Destination)
}

// Delimiter returns the CSV field delimiter, "," when unset.
func (j *LoadJob) Delimiter() string {
	if d := j.spec().FieldDelimiter; d != "" {
		return d
	}
	return ","
}

// SkipLeadingRows returns the number of header rows skipped.
func (j *LoadJob) SkipLeadingRows() int64 { return j.spec().SkipLeadingRows }

// Encoding returns the source encoding, UTF-8 when unset.
func (j *LoadJob) Encoding() string {
	if e := j.spec().Encoding; e != "" {
		return strings.ToUpper(e)
	}
	return domain.EncodingUTF8
}

// IsUTF8 reports whether sources are UTF-8 encoded.
func (j *LoadJob) IsUTF8() bool { return j.Encoding() == domain.EncodingUTF8 }

// IsISO8859_1 reports whether sources are ISO-8859-1 encoded.
func (j *LoadJob) IsISO8859_1() bool { return j.Encoding() == domain.EncodingISO8859_1 }

// Quote returns the CSV quote character, a double quote when unset. An
// explicitly empty quote disables quoting.
func (j *LoadJob) Quote() string {
	if q := j.spec().Quote; q != nil {
		return *q
	}
	return `"`
}

// MaxBadRecords returns how many bad records are tolerated.
func (j *LoadJob) MaxBadRecords() int64 { return j.spec().MaxBadRecords }

// QuotedNewlines reports whether quoted fields may contain newlines.
func (j *LoadJob) QuotedNewlines() bool { return j.spec().AllowQuotedNewlines }

// AllowJaggedRows reports whether short CSV rows are padded with nulls.
func (j *LoadJob) AllowJaggedRows() bool { return j.spec().AllowJaggedRows }

// IgnoreUnknownValues reports whether extra values are ignored.
func (j *LoadJob) IgnoreUnknownValues() bool { return j.spec().IgnoreUnknownValues }

// Format returns the source format, CSV when unset.
func (j *LoadJob) Format() string {
	if f := j.spec().SourceFormat; f != "" {
		return strings.ToUpper(f)
	}
	return domain.FormatCSV
}

// IsJSON reports whether sources are newline-delimited JSON.
func (j *LoadJob) IsJSON() bool { return j.Format() == domain.FormatJSON }

// IsCSV reports whether sources are CSV.
func (j *LoadJob) IsCSV() bool { return j.Format() == domain.FormatCSV }

// IsBackup reports whether sources are a Datastore backup.
func (j *LoadJob) IsBackup() bool { return j.Format() == domain.FormatBackup }

// Schema returns the schema supplied with the load, or nil.
func (j *LoadJob) Schema() *domain.Schema { return j.spec().Schema }

// CreateDisposition returns the create disposition, resolved to its default.
func (j *LoadJob) CreateDisposition() domain.CreateDisposition {
	return j.spec().CreateDisposition.OrDefault()
}

// WriteDisposition returns the write disposition, resolved to its default.
func (j *LoadJob) WriteDisposition() domain.WriteDisposition {
	return j.spec().WriteDisposition.OrDefault()
}

// IsCreateIfNeeded reports whether a missing destination is created.
func (j *LoadJob) IsCreateIfNeeded() bool { return j.CreateDisposition() == domain.CreateIfNeeded }

// IsCreateNever reports whether the destination must already exist.
func (j *LoadJob) IsCreateNever() bool { return j.CreateDisposition() == domain.CreateNever }

// IsWriteTruncate reports whether existing destination data is replaced.
func (j *LoadJob) IsWriteTruncate() bool { return j.WriteDisposition() == domain.WriteTruncate }

// IsWriteAppend reports whether rows are appended to the destination.
func (j *LoadJob) IsWriteAppend() bool { return j.WriteDisposition() == domain.WriteAppend }

// IsWriteEmpty reports whether the destination must be empty.
func (j *LoadJob) IsWriteEmpty() bool { return j.WriteDisposition() == domain.WriteEmpty }

func (j *LoadJob) stats() domain.LoadStatistics {
	if s := j.Statistics().Load; s != nil {
		return *s
	}
	return domain.LoadStatistics{}
}

// InputFiles returns the number of source files read.
func (j *LoadJob) InputFiles() int64 { return j.stats().InputFiles }

// InputFileBytes returns the size of the source files.
func (j *LoadJob) InputFileBytes() int64 { return j.stats().InputFileBytes }

// OutputRows returns the number of rows loaded.
func (j *LoadJob) OutputRows() int64 { return j.stats().OutputRows }

// OutputBytes returns the bytes written to the destination.
func (j *LoadJob) OutputBytes() int64 { return j.stats().OutputBytes }
