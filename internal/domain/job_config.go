package domain

// JobSpec is the decoded configuration branch of a job. Exactly one of
// CopySpec, ExtractSpec, LoadSpec and QuerySpec implements it for a given job.
type JobSpec interface {
	Kind() JobKind
	isJobSpec()
}

// CreateDisposition controls whether a job may create its destination table.
type CreateDisposition string

// Create dispositions.
const (
	CreateIfNeeded CreateDisposition = "CREATE_IF_NEEDED"
	CreateNever    CreateDisposition = "CREATE_NEVER"
)

// OrDefault resolves an unset disposition to the server default.
func (d CreateDisposition) OrDefault() CreateDisposition {
	if d == "" {
		return CreateIfNeeded
	}
	return d
}

// WriteDisposition controls how a job writes to an existing destination.
type WriteDisposition string

// Write dispositions.
const (
	WriteTruncate WriteDisposition = "WRITE_TRUNCATE"
	WriteAppend   WriteDisposition = "WRITE_APPEND"
	WriteEmpty    WriteDisposition = "WRITE_EMPTY"
)

// OrDefault resolves an unset disposition to the server default.
func (d WriteDisposition) OrDefault() WriteDisposition {
	if d == "" {
		return WriteEmpty
	}
	return d
}

// Query priorities.
const (
	PriorityInteractive = "INTERACTIVE"
	PriorityBatch       = "BATCH"
)

// Source and destination formats.
const (
	FormatCSV    = "CSV"
	FormatJSON   = "NEWLINE_DELIMITED_JSON"
	FormatAvro   = "AVRO"
	FormatBackup = "DATASTORE_BACKUP"
)

// Load encodings.
const (
	EncodingUTF8      = "UTF-8"
	EncodingISO8859_1 = "ISO-8859-1"
)

// CopySpec configures a table copy.
type CopySpec struct {
	Sources           []TableReference
	Destination       *TableReference
	CreateDisposition CreateDisposition
	WriteDisposition  WriteDisposition
}

// Kind implements JobSpec.
func (*CopySpec) Kind() JobKind { return JobKindCopy }
func (*CopySpec) isJobSpec()    {}

// ExtractSpec configures a table export to Cloud Storage.
type ExtractSpec struct {
	Source            *TableReference
	DestinationURIs   []string
	DestinationFormat string
	Compression       string
	FieldDelimiter    string
	PrintHeader       *bool
}

// Kind implements JobSpec.
func (*ExtractSpec) Kind() JobKind { return JobKindExtract }
func (*ExtractSpec) isJobSpec()    {}

// LoadSpec configures loading files into a table.
type LoadSpec struct {
	SourceURIs          []string
	Destination         *TableReference
	Schema              *Schema
	SourceFormat        string
	Encoding            string
	FieldDelimiter      string
	Quote               *string
	SkipLeadingRows     int64
	MaxBadRecords       int64
	AllowQuotedNewlines bool
	AllowJaggedRows     bool
	IgnoreUnknownValues bool
	CreateDisposition   CreateDisposition
	WriteDisposition    WriteDisposition
}

// Kind implements JobSpec.
func (*LoadSpec) Kind() JobKind { return JobKindLoad }
func (*LoadSpec) isJobSpec()    {}

// QuerySpec configures a query job.
type QuerySpec struct {
	Query              string
	Priority           string
	UseQueryCache      *bool
	UseLegacySQL       *bool
	AllowLargeResults  *bool
	FlattenResults     *bool
	DefaultDataset     *DatasetReference
	Destination        *TableReference
	CreateDisposition  CreateDisposition
	WriteDisposition   WriteDisposition
	MaximumBytesBilled int64
}

// Kind implements JobSpec.
func (*QuerySpec) Kind() JobKind { return JobKindQuery }
func (*QuerySpec) isJobSpec()    {}
