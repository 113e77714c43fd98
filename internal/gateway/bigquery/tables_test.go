package bigquery

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcloud-go/internal/domain"
)

func TestGateway_Datasets(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/projects/p/datasets"):
			assert.Equal(t, "true", r.URL.Query().Get("all"))
			writeJSON(t, w, http.StatusOK, `{
				"etag": "e",
				"nextPageToken": "n",
				"datasets": [{"datasetReference": {"projectId": "p", "datasetId": "logs"}, "location": "EU"}]
			}`)
		case strings.HasSuffix(r.URL.Path, "/projects/p/datasets/logs"):
			writeJSON(t, w, http.StatusOK, `{
				"datasetReference": {"projectId": "p", "datasetId": "logs"},
				"friendlyName": "Logs",
				"creationTime": "1700000000000"
			}`)
		default:
			writeJSON(t, w, http.StatusNotFound, notFoundBody)
		}
	})
	ctx := context.Background()

	res, err := g.ListDatasets(ctx, "p", domain.DatasetListOptions{All: true})
	require.NoError(t, err)
	assert.Equal(t, "n", res.NextPageToken)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "logs", res.Items[0].Reference.DatasetID)
	assert.Equal(t, "EU", res.Items[0].Location)

	ds, err := g.GetDataset(ctx, "p", "logs")
	require.NoError(t, err)
	assert.Equal(t, "Logs", ds.FriendlyName)
	require.NotNil(t, ds.CreationTime)

	_, err = g.GetDataset(ctx, "p", "gone")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGateway_Tables(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/projects/p/datasets/d/tables"):
			assert.Equal(t, "tok", r.URL.Query().Get("pageToken"))
			writeJSON(t, w, http.StatusOK, `{
				"etag": "e",
				"totalItems": 3,
				"tables": [{"tableReference": {"projectId": "p", "datasetId": "d", "tableId": "v"}, "type": "VIEW"}]
			}`)
		case strings.HasSuffix(r.URL.Path, "/projects/p/datasets/d/tables/t"):
			writeJSON(t, w, http.StatusOK, `{
				"tableReference": {"projectId": "p", "datasetId": "d", "tableId": "t"},
				"type": "TABLE",
				"numRows": "42",
				"numBytes": "1024",
				"schema": {"fields": [
					{"name": "id", "type": "INTEGER"},
					{"name": "tags", "type": "STRING", "mode": "REPEATED"}
				]}
			}`)
		default:
			writeJSON(t, w, http.StatusNotFound, notFoundBody)
		}
	})
	ctx := context.Background()

	res, err := g.ListTables(ctx, "p", "d", domain.TableListOptions{PageRequest: domain.PageRequest{PageToken: "tok"}})
	require.NoError(t, err)
	assert.Empty(t, res.NextPageToken)
	require.NotNil(t, res.TotalItems)
	assert.Equal(t, int64(3), *res.TotalItems)
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].IsView())

	tbl, err := g.GetTable(ctx, domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "t"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), tbl.NumRows)
	assert.Equal(t, int64(1024), tbl.NumBytes)
	assert.False(t, tbl.IsView())
	require.NotNil(t, tbl.Schema)
	assert.True(t, tbl.Schema.Field("tags").Repeated())
}

func TestGateway_ListTableData(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/projects/p/datasets/d/tables/t/data"), r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("startIndex"))
		writeJSON(t, w, http.StatusOK, `{
			"etag": "e",
			"pageToken": "n",
			"totalRows": "100",
			"rows": [{"f": [{"v": "1"}, {"v": [{"v": "a"}, {"v": "b"}]}]}]
		}`)
	})

	start := int64(10)
	page, err := g.ListTableData(context.Background(),
		domain.TableReference{ProjectID: "p", DatasetID: "d", TableID: "t"},
		domain.TableDataOptions{StartIndex: &start})
	require.NoError(t, err)
	assert.Equal(t, "n", page.PageToken)
	assert.Equal(t, int64(100), page.TotalRows)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "1", page.Rows[0][0])
	assert.Equal(t, []any{map[string]any{"v": "a"}, map[string]any{"v": "b"}}, page.Rows[0][1])
}
