package bigquery

import (
	"encoding/json"
	"fmt"
	"strings"

	bq "google.golang.org/api/bigquery/v2"

	"gcloud-go/internal/domain"
)

func jobFromAPI(j *bq.Job) (*domain.Job, error) {
	if j == nil {
		return nil, fmt.Errorf("decode job: empty response")
	}
	job := &domain.Job{
		UserEmail: j.UserEmail,
		Etag:      j.Etag,
	}
	if j.JobReference != nil {
		job.Reference = domain.JobReference{
			ProjectID: j.JobReference.ProjectId,
			JobID:     j.JobReference.JobId,
			Location:  j.JobReference.Location,
		}
	}
	if j.Status != nil {
		job.Status = domain.JobStatus{
			State:       j.Status.State,
			ErrorResult: errorFromAPI(j.Status.ErrorResult),
			Errors:      errorsFromAPI(j.Status.Errors),
		}
	}
	if j.Statistics != nil {
		job.Statistics = statisticsFromAPI(j.Statistics)
	}
	if j.Configuration != nil {
		cfg, err := configFromAPI(j.Configuration)
		if err != nil {
			return nil, err
		}
		job.Configuration = cfg
	}
	return job, nil
}

// jobFromListEntry folds the flattened list representation into a Job.
func jobFromListEntry(e *bq.JobListJobs) (*domain.Job, error) {
	status := e.Status
	if status == nil {
		status = &bq.JobStatus{}
	}
	if status.State == "" {
		status.State = e.State
	}
	if status.ErrorResult == nil {
		status.ErrorResult = e.ErrorResult
	}
	return jobFromAPI(&bq.Job{
		Configuration: e.Configuration,
		JobReference:  e.JobReference,
		Statistics:    e.Statistics,
		Status:        status,
		UserEmail:     e.UserEmail,
	})
}

func errorFromAPI(e *bq.ErrorProto) *domain.ErrorDetail {
	if e == nil {
		return nil
	}
	return &domain.ErrorDetail{
		Reason:    e.Reason,
		Message:   e.Message,
		Location:  e.Location,
		DebugInfo: e.DebugInfo,
	}
}

func errorsFromAPI(in []*bq.ErrorProto) []domain.ErrorDetail {
	out := make([]domain.ErrorDetail, 0, len(in))
	for _, e := range in {
		if e != nil {
			out = append(out, *errorFromAPI(e))
		}
	}
	return out
}

func statisticsFromAPI(s *bq.JobStatistics) domain.JobStatistics {
	stats := domain.JobStatistics{
		CreationTime:        domain.TimeFromMillis(s.CreationTime),
		StartTime:           domain.TimeFromMillis(s.StartTime),
		EndTime:             domain.TimeFromMillis(s.EndTime),
		TotalBytesProcessed: s.TotalBytesProcessed,
	}
	if q := s.Query; q != nil {
		stats.Query = &domain.QueryStatistics{
			CacheHit:            q.CacheHit,
			TotalBytesProcessed: q.TotalBytesProcessed,
			TotalBytesBilled:    q.TotalBytesBilled,
			NumDMLAffectedRows:  q.NumDmlAffectedRows,
		}
	}
	if l := s.Load; l != nil {
		stats.Load = &domain.LoadStatistics{
			InputFiles:     l.InputFiles,
			InputFileBytes: l.InputFileBytes,
			OutputRows:     l.OutputRows,
			OutputBytes:    l.OutputBytes,
			BadRecords:     l.BadRecords,
		}
	}
	if e := s.Extract; e != nil {
		stats.Extract = &domain.ExtractStatistics{
			DestinationURIFileCounts: e.DestinationUriFileCounts,
		}
	}
	return stats
}

// configFromAPI decodes the populated configuration branch once. Copy wins
// over extract, load and query when more than one is set.
func configFromAPI(c *bq.JobConfiguration) (domain.JobConfiguration, error) {
	raw, err := rawConfig(c)
	if err != nil {
		return domain.JobConfiguration{}, err
	}
	cfg := domain.JobConfiguration{
		DryRun: c.DryRun,
		Labels: c.Labels,
		Raw:    raw,
	}

	switch {
	case c.Copy != nil:
		spec := &domain.CopySpec{
			Destination:       tableRefFromAPI(c.Copy.DestinationTable),
			CreateDisposition: domain.CreateDisposition(c.Copy.CreateDisposition),
			WriteDisposition:  domain.WriteDisposition(c.Copy.WriteDisposition),
		}
		if src := tableRefFromAPI(c.Copy.SourceTable); src != nil {
			spec.Sources = append(spec.Sources, *src)
		}
		for _, t := range c.Copy.SourceTables {
			if ref := tableRefFromAPI(t); ref != nil {
				spec.Sources = append(spec.Sources, *ref)
			}
		}
		cfg.Spec = spec
	case c.Extract != nil:
		uris := c.Extract.DestinationUris
		if len(uris) == 0 && c.Extract.DestinationUri != "" {
			uris = []string{c.Extract.DestinationUri}
		}
		cfg.Spec = &domain.ExtractSpec{
			Source:            tableRefFromAPI(c.Extract.SourceTable),
			DestinationURIs:   uris,
			DestinationFormat: c.Extract.DestinationFormat,
			Compression:       c.Extract.Compression,
			FieldDelimiter:    c.Extract.FieldDelimiter,
			PrintHeader:       c.Extract.PrintHeader,
		}
	case c.Load != nil:
		cfg.Spec = &domain.LoadSpec{
			SourceURIs:          c.Load.SourceUris,
			Destination:         tableRefFromAPI(c.Load.DestinationTable),
			Schema:              schemaFromAPI(c.Load.Schema),
			SourceFormat:        c.Load.SourceFormat,
			Encoding:            c.Load.Encoding,
			FieldDelimiter:      c.Load.FieldDelimiter,
			Quote:               c.Load.Quote,
			SkipLeadingRows:     c.Load.SkipLeadingRows,
			MaxBadRecords:       c.Load.MaxBadRecords,
			AllowQuotedNewlines: c.Load.AllowQuotedNewlines,
			AllowJaggedRows:     c.Load.AllowJaggedRows,
			IgnoreUnknownValues: c.Load.IgnoreUnknownValues,
			CreateDisposition:   domain.CreateDisposition(c.Load.CreateDisposition),
			WriteDisposition:    domain.WriteDisposition(c.Load.WriteDisposition),
		}
	case c.Query != nil:
		spec := &domain.QuerySpec{
			Query:              c.Query.Query,
			Priority:           c.Query.Priority,
			UseQueryCache:      c.Query.UseQueryCache,
			UseLegacySQL:       c.Query.UseLegacySql,
			FlattenResults:     c.Query.FlattenResults,
			Destination:        tableRefFromAPI(c.Query.DestinationTable),
			CreateDisposition:  domain.CreateDisposition(c.Query.CreateDisposition),
			WriteDisposition:   domain.WriteDisposition(c.Query.WriteDisposition),
			MaximumBytesBilled: c.Query.MaximumBytesBilled,
		}
		if c.Query.AllowLargeResults {
			v := true
			spec.AllowLargeResults = &v
		}
		if d := c.Query.DefaultDataset; d != nil {
			spec.DefaultDataset = &domain.DatasetReference{ProjectID: d.ProjectId, DatasetID: d.DatasetId}
		}
		cfg.Spec = spec
	}
	return cfg, nil
}

func rawConfig(c *bq.JobConfiguration) (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode job configuration: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode job configuration: %w", err)
	}
	return raw, nil
}

// configToAPI prefers the opaque wire form so a resubmitted configuration
// is byte-for-byte what the service reported.
func configToAPI(cfg domain.JobConfiguration) (*bq.JobConfiguration, error) {
	if cfg.Raw != nil {
		data, err := json.Marshal(cfg.Raw)
		if err != nil {
			return nil, fmt.Errorf("encode job configuration: %w", err)
		}
		var out bq.JobConfiguration
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode job configuration: %w", err)
		}
		return &out, nil
	}

	out := &bq.JobConfiguration{
		DryRun: cfg.DryRun,
		Labels: cfg.Labels,
	}
	switch spec := cfg.Spec.(type) {
	case *domain.CopySpec:
		c := &bq.JobConfigurationTableCopy{
			DestinationTable:  tableRefToAPI(spec.Destination),
			CreateDisposition: string(spec.CreateDisposition),
			WriteDisposition:  string(spec.WriteDisposition),
		}
		if len(spec.Sources) == 1 {
			c.SourceTable = tableRefToAPI(&spec.Sources[0])
		} else {
			for i := range spec.Sources {
				c.SourceTables = append(c.SourceTables, tableRefToAPI(&spec.Sources[i]))
			}
		}
		out.Copy = c
	case *domain.ExtractSpec:
		out.Extract = &bq.JobConfigurationExtract{
			SourceTable:       tableRefToAPI(spec.Source),
			DestinationUris:   spec.DestinationURIs,
			DestinationFormat: spec.DestinationFormat,
			Compression:       spec.Compression,
			FieldDelimiter:    spec.FieldDelimiter,
			PrintHeader:       spec.PrintHeader,
		}
	case *domain.LoadSpec:
		out.Load = &bq.JobConfigurationLoad{
			SourceUris:          spec.SourceURIs,
			DestinationTable:    tableRefToAPI(spec.Destination),
			Schema:              schemaToAPI(spec.Schema),
			SourceFormat:        spec.SourceFormat,
			Encoding:            spec.Encoding,
			FieldDelimiter:      spec.FieldDelimiter,
			Quote:               spec.Quote,
			SkipLeadingRows:     spec.SkipLeadingRows,
			MaxBadRecords:       spec.MaxBadRecords,
			AllowQuotedNewlines: spec.AllowQuotedNewlines,
			AllowJaggedRows:     spec.AllowJaggedRows,
			IgnoreUnknownValues: spec.IgnoreUnknownValues,
			CreateDisposition:   string(spec.CreateDisposition),
			WriteDisposition:    string(spec.WriteDisposition),
		}
	case *domain.QuerySpec:
		q := &bq.JobConfigurationQuery{
			Query:              spec.Query,
			Priority:           spec.Priority,
			UseQueryCache:      spec.UseQueryCache,
			UseLegacySql:       spec.UseLegacySQL,
			FlattenResults:     spec.FlattenResults,
			DestinationTable:   tableRefToAPI(spec.Destination),
			CreateDisposition:  string(spec.CreateDisposition),
			WriteDisposition:   string(spec.WriteDisposition),
			MaximumBytesBilled: spec.MaximumBytesBilled,
		}
		if spec.AllowLargeResults != nil {
			q.AllowLargeResults = *spec.AllowLargeResults
		}
		if d := spec.DefaultDataset; d != nil {
			q.DefaultDataset = &bq.DatasetReference{ProjectId: d.ProjectID, DatasetId: d.DatasetID}
		}
		out.Query = q
	case nil:
		return nil, domain.ErrValidation("job configuration has no copy, extract, load or query branch")
	default:
		return nil, domain.ErrValidation("unsupported job configuration %T", spec)
	}
	return out, nil
}

func tableRefFromAPI(r *bq.TableReference) *domain.TableReference {
	if r == nil {
		return nil
	}
	return &domain.TableReference{ProjectID: r.ProjectId, DatasetID: r.DatasetId, TableID: r.TableId}
}

func tableRefToAPI(r *domain.TableReference) *bq.TableReference {
	if r == nil {
		return nil
	}
	return &bq.TableReference{ProjectId: r.ProjectID, DatasetId: r.DatasetID, TableId: r.TableID}
}

// schemaFromAPI returns a frozen schema; response schemas are read-only.
func schemaFromAPI(s *bq.TableSchema) *domain.Schema {
	if s == nil {
		return nil
	}
	return domain.NewSchema(fieldsFromAPI(s.Fields)...).Freeze()
}

func fieldsFromAPI(in []*bq.TableFieldSchema) []*domain.Field {
	out := make([]*domain.Field, 0, len(in))
	for _, f := range in {
		if f == nil {
			continue
		}
		typ, _ := domain.ParseFieldType(f.Type)
		mode, _ := domain.ParseFieldMode(f.Mode)
		out = append(out, domain.NewField(f.Name, typ, mode, f.Description, fieldsFromAPI(f.Fields)...))
	}
	return out
}

func schemaToAPI(s *domain.Schema) *bq.TableSchema {
	if s == nil {
		return nil
	}
	return &bq.TableSchema{Fields: fieldsToAPI(s.Fields())}
}

func fieldsToAPI(in []*domain.Field) []*bq.TableFieldSchema {
	out := make([]*bq.TableFieldSchema, 0, len(in))
	for _, f := range in {
		out = append(out, &bq.TableFieldSchema{
			Name:        f.Name,
			Type:        string(f.Type),
			Mode:        string(f.Mode),
			Description: f.Description,
			Fields:      fieldsToAPI(f.Fields()),
		})
	}
	return out
}

func rowsFromAPI(in []*bq.TableRow) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(in))
	for _, r := range in {
		if r == nil {
			out = append(out, domain.RawRow{})
			continue
		}
		row := make(domain.RawRow, len(r.F))
		for i, cell := range r.F {
			if cell != nil {
				row[i] = cell.V
			}
		}
		out = append(out, row)
	}
	return out
}

func stateFilterToAPI(states []domain.JobState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s != domain.JobStateUnknown {
			out = append(out, strings.ToLower(string(s)))
		}
	}
	return out
}

func datasetFromAPI(d *bq.Dataset) *domain.Dataset {
	ds := &domain.Dataset{
		FriendlyName: d.FriendlyName,
		Description:  d.Description,
		Location:     d.Location,
		CreationTime: domain.TimeFromMillis(d.CreationTime),
		Labels:       d.Labels,
		Etag:         d.Etag,
	}
	if d.DatasetReference != nil {
		ds.Reference = domain.DatasetReference{ProjectID: d.DatasetReference.ProjectId, DatasetID: d.DatasetReference.DatasetId}
	}
	return ds
}

func datasetFromListEntry(d *bq.DatasetListDatasets) *domain.Dataset {
	ds := &domain.Dataset{
		FriendlyName: d.FriendlyName,
		Location:     d.Location,
		Labels:       d.Labels,
	}
	if d.DatasetReference != nil {
		ds.Reference = domain.DatasetReference{ProjectID: d.DatasetReference.ProjectId, DatasetID: d.DatasetReference.DatasetId}
	}
	return ds
}

func tableFromAPI(t *bq.Table) *domain.Table {
	tbl := &domain.Table{
		FriendlyName: t.FriendlyName,
		Description:  t.Description,
		Type:         t.Type,
		Location:     t.Location,
		NumRows:      int64(t.NumRows),
		NumBytes:     t.NumBytes,
		CreationTime: domain.TimeFromMillis(t.CreationTime),
		Schema:       schemaFromAPI(t.Schema),
		Etag:         t.Etag,
	}
	if ref := tableRefFromAPI(t.TableReference); ref != nil {
		tbl.Reference = *ref
	}
	return tbl
}

func tableFromListEntry(t *bq.TableListTables) *domain.Table {
	tbl := &domain.Table{
		FriendlyName: t.FriendlyName,
		Type:         t.Type,
		CreationTime: domain.TimeFromMillis(t.CreationTime),
	}
	if ref := tableRefFromAPI(t.TableReference); ref != nil {
		tbl.Reference = *ref
	}
	return tbl
}
