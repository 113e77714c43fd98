package bigquery

import (
	"context"
	"strings"

	"gcloud-go/internal/domain"
)

// Extract compressions.
const (
	CompressionNone = "NONE"
	CompressionGzip = "GZIP"
)

// ExtractJob is a Job exporting a table to Cloud Storage.
type ExtractJob struct {
	*Job
}

func (j *ExtractJob) spec() *domain.ExtractSpec {
	if s, ok := j.Configuration().Spec.(*domain.ExtractSpec); ok && s != nil {
		return s
	}
	return &domain.ExtractSpec{}
}

// DestinationURIs returns the gs:// URIs written by the job.
func (j *ExtractJob) DestinationURIs() []string { return j.spec().DestinationURIs }

// Source fetches the exported table, or nil.
func (j *ExtractJob) Source(ctx context.Context) (*domain.Table, error) {
	return j.c.lookupTable(ctx, j.spec().Source)
}

// Compression returns the output compression, NONE when unset.
func (j *ExtractJob) Compression() string {
	if c := j.spec().Compression; c != "" {
		return strings.ToUpper(c)
	}
	return CompressionNone
}

// IsCompressed reports whether output files are gzipped.
func (j *ExtractJob) IsCompressed() bool { return j.Compression() == CompressionGzip }

// Format returns the destination format, CSV when unset.
func (j *ExtractJob) Format() string {
	if f := j.spec().DestinationFormat; f != "" {
		return strings.ToUpper(f)
	}
	return domain.FormatCSV
}

// IsJSON reports whether output is newline-delimited JSON.
func (j *ExtractJob) IsJSON() bool { return j.Format() == domain.FormatJSON }

// IsCSV reports whether output is CSV.
func (j *ExtractJob) IsCSV() bool { return j.Format() == domain.FormatCSV }

// IsAvro reports whether output is Avro.
func (j *ExtractJob) IsAvro() bool { return j.Format() == domain.FormatAvro }

// Delimiter returns the CSV field delimiter, "," when unset.
func (j *ExtractJob) Delimiter() string {
	if d := j.spec().FieldDelimiter; d != "" {
		return d
	}
	return ","
}

// PrintHeader reports whether CSV output starts with a header row.
func (j *ExtractJob) PrintHeader() bool { return boolOr(j.spec().PrintHeader, true) }

// DestinationFileCounts returns the number of files written per
// destination URI.
func (j *ExtractJob) DestinationFileCounts() []int64 {
	if s := j.Statistics().Extract; s != nil {
		return s.DestinationURIFileCounts
	}
	return nil
}
