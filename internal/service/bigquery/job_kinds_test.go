package bigquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcloud-go/internal/domain"
	"gcloud-go/internal/testutil"
)

func jobWithSpec(p *Project, spec domain.JobSpec) *Job {
	snap := testutil.JobSnapshot("p", "j", "DONE")
	snap.Configuration.Spec = spec
	return newJob(p.c, snap)
}

func tableEcho() *testutil.MockBigQueryGateway {
	return &testutil.MockBigQueryGateway{
		GetTableFn: func(_ context.Context, ref domain.TableReference) (*domain.Table, error) {
			if ref.TableID == "dropped" {
				return nil, domain.ErrNotFound("tables.get: dropped")
			}
			return &domain.Table{Reference: ref}, nil
		},
	}
}

func TestCopyJob_Defaults(t *testing.T) {
	p, _ := newTestProject(tableEcho())
	c, ok := jobWithSpec(p, &domain.CopySpec{}).AsCopy()
	require.True(t, ok)

	assert.Equal(t, domain.CreateIfNeeded, c.CreateDisposition())
	assert.Equal(t, domain.WriteEmpty, c.WriteDisposition())
	assert.True(t, c.IsCreateIfNeeded())
	assert.False(t, c.IsCreateNever())
	assert.True(t, c.IsWriteEmpty())
	assert.False(t, c.IsWriteTruncate())
	assert.False(t, c.IsWriteAppend())

	src, err := c.Source(context.Background())
	require.NoError(t, err)
	assert.Nil(t, src)
	dst, err := c.Destination(context.Background())
	require.NoError(t, err)
	assert.Nil(t, dst, "no destination in configuration")
}

func TestCopyJob_ExplicitSettings(t *testing.T) {
	gw := tableEcho()
	p, _ := newTestProject(gw)
	c, _ := jobWithSpec(p, &domain.CopySpec{
		Sources:           []domain.TableReference{{ProjectID: "p", DatasetID: "d", TableID: "src"}},
		Destination:       &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "dropped"},
		CreateDisposition: domain.CreateNever,
		WriteDisposition:  domain.WriteAppend,
	}).AsCopy()
	ctx := context.Background()

	assert.True(t, c.IsCreateNever())
	assert.True(t, c.IsWriteAppend())

	src, err := c.Source(ctx)
	require.NoError(t, err)
	assert.Equal(t, "src", src.Reference.TableID)

	dst, err := c.Destination(ctx)
	require.NoError(t, err)
	assert.Nil(t, dst, "a missing table resolves to nothing")
	assert.Equal(t, 2, gw.Calls("GetTable"))
}

func TestExtractJob_Defaults(t *testing.T) {
	p, _ := newTestProject(tableEcho())
	e, ok := jobWithSpec(p, &domain.ExtractSpec{DestinationURIs: []string{"gs://b/out-*.csv"}}).AsExtract()
	require.True(t, ok)

	assert.Equal(t, []string{"gs://b/out-*.csv"}, e.DestinationURIs())
	assert.Equal(t, CompressionNone, e.Compression())
	assert.False(t, e.IsCompressed())
	assert.True(t, e.IsCSV())
	assert.False(t, e.IsJSON())
	assert.False(t, e.IsAvro())
	assert.Equal(t, ",", e.Delimiter())
	assert.True(t, e.PrintHeader())
	assert.Nil(t, e.DestinationFileCounts())
}

func TestExtractJob_ExplicitSettings(t *testing.T) {
	p, _ := newTestProject(tableEcho())
	noHeader := false
	snap := testutil.JobSnapshot("p", "j", "DONE")
	snap.Configuration.Spec = &domain.ExtractSpec{
		Source:            &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "t"},
		DestinationFormat: domain.FormatJSON,
		Compression:       "gzip",
		FieldDelimiter:    "\t",
		PrintHeader:       &noHeader,
	}
	snap.Statistics.Extract = &domain.ExtractStatistics{DestinationURIFileCounts: []int64{3}}
	e, _ := newJob(p.c, snap).AsExtract()

	assert.True(t, e.IsCompressed())
	assert.True(t, e.IsJSON())
	assert.False(t, e.IsCSV())
	assert.Equal(t, "\t", e.Delimiter())
	assert.False(t, e.PrintHeader())
	assert.Equal(t, []int64{3}, e.DestinationFileCounts())

	src, err := e.Source(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", src.Reference.TableID)
}

func TestLoadJob_Defaults(t *testing.T) {
	p, _ := newTestProject(tableEcho())
	l, ok := jobWithSpec(p, &domain.LoadSpec{SourceURIs: []string{"gs://b/in.csv"}}).AsLoad()
	require.True(t, ok)

	assert.Equal(t, []string{"gs://b/in.csv"}, l.SourceURIs())
	assert.Equal(t, ",", l.Delimiter())
	assert.True(t, l.IsUTF8())
	assert.False(t, l.IsISO8859_1())
	assert.Equal(t, `"`, l.Quote())
	assert.True(t, l.IsCSV())
	assert.False(t, l.IsJSON())
	assert.False(t, l.IsBackup())
	assert.Zero(t, l.SkipLeadingRows())
	assert.Zero(t, l.MaxBadRecords())
	assert.False(t, l.QuotedNewlines())
	assert.False(t, l.AllowJaggedRows())
	assert.False(t, l.IgnoreUnknownValues())
	assert.Nil(t, l.Schema())
	assert.True(t, l.IsCreateIfNeeded())
	assert.True(t, l.IsWriteEmpty())
	assert.Zero(t, l.InputFiles())
	assert.Zero(t, l.OutputRows())
}

func TestLoadJob_ExplicitSettings(t *testing.T) {
	p, _ := newTestProject(tableEcho())
	empty := ""
	schema := domain.NewSchema()
	_, err := schema.String("name")
	require.NoError(t, err)

	snap := testutil.JobSnapshot("p", "j", "DONE")
	snap.Configuration.Spec = &domain.LoadSpec{
		Destination:         &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "t"},
		Schema:              schema,
		SourceFormat:        domain.FormatBackup,
		Encoding:            "iso-8859-1",
		FieldDelimiter:      "|",
		Quote:               &empty,
		SkipLeadingRows:     1,
		MaxBadRecords:       10,
		AllowQuotedNewlines: true,
		AllowJaggedRows:     true,
		IgnoreUnknownValues: true,
		CreateDisposition:   domain.CreateNever,
		WriteDisposition:    domain.WriteTruncate,
	}
	snap.Statistics.Load = &domain.LoadStatistics{InputFiles: 2, InputFileBytes: 300, OutputRows: 40, OutputBytes: 900}
	l, _ := newJob(p.c, snap).AsLoad()

	assert.True(t, l.IsBackup())
	assert.True(t, l.IsISO8859_1())
	assert.Equal(t, "|", l.Delimiter())
	assert.Equal(t, "", l.Quote())
	assert.Equal(t, int64(1), l.SkipLeadingRows())
	assert.Equal(t, int64(10), l.MaxBadRecords())
	assert.True(t, l.QuotedNewlines())
	assert.True(t, l.AllowJaggedRows())
	assert.True(t, l.IgnoreUnknownValues())
	assert.Equal(t, []string{"name"}, l.Schema().Headers())
	assert.True(t, l.IsCreateNever())
	assert.True(t, l.IsWriteTruncate())
	assert.Equal(t, int64(2), l.InputFiles())
	assert.Equal(t, int64(300), l.InputFileBytes())
	assert.Equal(t, int64(40), l.OutputRows())
	assert.Equal(t, int64(900), l.OutputBytes())

	dst, err := l.Destination(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", dst.Reference.TableID)
}

func TestProject_InsertJob(t *testing.T) {
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

	job, err := p.InsertJob(context.Background(), domain.JobConfiguration{Spec: &domain.ExtractSpec{
		Source:          &domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "t"},
		DestinationURIs: []string{"gs://b/t.csv"},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.JobKindExtract, job.Kind())
	assert.Equal(t, got.Reference.JobID, job.ID())

	_, err = p.InsertJob(context.Background(), domain.JobConfiguration{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}
