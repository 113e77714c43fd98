package bigquery

import (
	"context"

	"gcloud-go/internal/domain"
)

// TableData is one page of typed rows read directly from a table.
type TableData struct {
	*domain.Page[domain.Row]

	Table     *domain.Table
	TotalRows int64

	c    *client
	ref  domain.TableReference
	opts domain.TableDataOptions
}

// TableData reads rows from a table, typed against the table's schema.
// A missing table is a NotFoundError.
func (p *Project) TableData(ctx context.Context, ref domain.TableReference, opts domain.TableDataOptions) (*TableData, error) {
	if ref.ProjectID == "" {
		ref.ProjectID = p.c.projectID
	}
	tbl, err := p.c.gw.GetTable(ctx, ref)
	if err != nil {
		return nil, err
	}
	page, err := p.c.gw.ListTableData(ctx, ref, opts)
	if err != nil {
		return nil, err
	}
	return newTableData(p.c, ref, tbl, page, opts)
}

func newTableData(c *client, ref domain.TableReference, tbl *domain.Table, page *domain.TableDataPage, opts domain.TableDataOptions) (*TableData, error) {
	rows, err := coerceRows(tbl.Schema, page.Rows)
	if err != nil {
		return nil, err
	}

	opts.StartIndex = nil
	opts.PageToken = ""

	td := &TableData{
		Table:     tbl,
		TotalRows: page.TotalRows,
		c:         c,
		ref:       ref,
		opts:      opts,
	}
	td.Page = domain.NewPage(rows, page.PageToken, func(ctx context.Context, token string) (*domain.Page[domain.Row], error) {
		next, err := td.fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		return next.Page, nil
	}, domain.WithEtag(page.Etag), domain.WithTotal(&td.TotalRows))
	return td, nil
}

func (td *TableData) fetch(ctx context.Context, token string) (*TableData, error) {
	opts := td.opts
	opts.PageToken = token
	page, err := td.c.gw.ListTableData(ctx, td.ref, opts)
	if err != nil {
		return nil, err
	}
	return newTableData(td.c, td.ref, td.Table, page, opts)
}

// Next fetches the following page of rows. It returns a PreconditionError
// on the final page.
func (td *TableData) Next(ctx context.Context) (*TableData, error) {
	if !td.HasNext() {
		return nil, domain.ErrPrecondition("no next page: continuation token is empty")
	}
	return td.fetch(ctx, td.NextPageToken)
}

// Headers returns the column names.
func (td *TableData) Headers() []string {
	if td.Table.Schema == nil {
		return nil
	}
	return td.Table.Schema.Headers()
}
