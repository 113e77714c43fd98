package bigquery

import (
	"context"

	bq "google.golang.org/api/bigquery/v2"

	"gcloud-go/internal/domain"
)

// GetDataset fetches a dataset.
func (g *Gateway) GetDataset(ctx context.Context, projectID, datasetID string) (*domain.Dataset, error) {
	var resp *bq.Dataset
	err := g.caller.Do(ctx, "datasets.get", func(ctx context.Context) error {
		var err error
		resp, err = g.svc.Datasets.Get(projectID, datasetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return datasetFromAPI(resp), nil
}

// ListDatasets lists one page of datasets.
func (g *Gateway) ListDatasets(ctx context.Context, projectID string, opts domain.DatasetListOptions) (*domain.ListResult[*domain.Dataset], error) {
	call := g.svc.Datasets.List(projectID)
	if opts.All {
		call = call.All(true)
	}
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}

	var resp *bq.DatasetList
	err := g.caller.Do(ctx, "datasets.list", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &domain.ListResult[*domain.Dataset]{
		NextPageToken: resp.NextPageToken,
		Etag:          resp.Etag,
		Items:         make([]*domain.Dataset, 0, len(resp.Datasets)),
	}
	for _, d := range resp.Datasets {
		out.Items = append(out.Items, datasetFromListEntry(d))
	}
	return out, nil
}

// GetTable fetches a table, including its schema.
func (g *Gateway) GetTable(ctx context.Context, ref domain.TableReference) (*domain.Table, error) {
	var resp *bq.Table
	err := g.caller.Do(ctx, "tables.get", func(ctx context.Context) error {
		var err error
		resp, err = g.svc.Tables.Get(ref.ProjectID, ref.DatasetID, ref.TableID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return tableFromAPI(resp), nil
}

// ListTables lists one page of tables in a dataset.
func (g *Gateway) ListTables(ctx context.Context, projectID, datasetID string, opts domain.TableListOptions) (*domain.ListResult[*domain.Table], error) {
	call := g.svc.Tables.List(projectID, datasetID)
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}

	var resp *bq.TableList
	err := g.caller.Do(ctx, "tables.list", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	total := resp.TotalItems
	out := &domain.ListResult[*domain.Table]{
		NextPageToken: resp.NextPageToken,
		Etag:          resp.Etag,
		TotalItems:    &total,
		Items:         make([]*domain.Table, 0, len(resp.Tables)),
	}
	for _, t := range resp.Tables {
		out.Items = append(out.Items, tableFromListEntry(t))
	}
	return out, nil
}

// ListTableData reads one page of raw rows from a table.
func (g *Gateway) ListTableData(ctx context.Context, ref domain.TableReference, opts domain.TableDataOptions) (*domain.TableDataPage, error) {
	call := g.svc.Tabledata.List(ref.ProjectID, ref.DatasetID, ref.TableID)
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.MaxResults > 0 {
		call = call.MaxResults(int64(opts.MaxResults))
	}
	if opts.StartIndex != nil {
		call = call.StartIndex(uint64(*opts.StartIndex))
	}

	var resp *bq.TableDataList
	err := g.caller.Do(ctx, "tabledata.list", func(ctx context.Context) error {
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &domain.TableDataPage{
		Rows:      rowsFromAPI(resp.Rows),
		PageToken: resp.PageToken,
		TotalRows: int64(resp.TotalRows),
		Etag:      resp.Etag,
	}, nil
}
