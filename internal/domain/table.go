package domain

import (
	"fmt"
	"strings"
	"time"
)

// DatasetReference identifies a dataset.
type DatasetReference struct {
	ProjectID string
	DatasetID string
}

// TableReference identifies a table.
type TableReference struct {
	ProjectID string
	DatasetID string
	TableID   string
}

// String renders the reference in project:dataset.table form.
func (r TableReference) String() string {
	return fmt.Sprintf("%s:%s.%s", r.ProjectID, r.DatasetID, r.TableID)
}

// ParseTableReference parses "project:dataset.table", "project.dataset.table"
// or "dataset.table". The short form takes defaultProject.
func ParseTableReference(s, defaultProject string) (TableReference, error) {
	project := defaultProject
	rest := s
	if p, r, ok := strings.Cut(s, ":"); ok {
		project, rest = p, r
	}
	parts := strings.Split(rest, ".")
	switch {
	case len(parts) == 3 && !strings.Contains(s, ":"):
		project, parts = parts[0], parts[1:]
	case len(parts) != 2:
		return TableReference{}, ErrValidation("invalid table reference %q: want [project:]dataset.table", s)
	}
	ref := TableReference{ProjectID: project, DatasetID: parts[0], TableID: parts[1]}
	if ref.ProjectID == "" || ref.DatasetID == "" || ref.TableID == "" {
		return TableReference{}, ErrValidation("invalid table reference %q: want [project:]dataset.table", s)
	}
	return ref, nil
}

// Dataset describes a BigQuery dataset.
type Dataset struct {
	Reference    DatasetReference
	FriendlyName string
	Description  string
	Location     string
	CreationTime *time.Time
	Labels       map[string]string
	Etag         string
}

// Table types.
const (
	TableTypeTable = "TABLE"
	TableTypeView  = "VIEW"
)

// Table describes a BigQuery table or view. Schema is nil for list results.
type Table struct {
	Reference    TableReference
	FriendlyName string
	Description  string
	Type         string
	Location     string
	NumRows      int64
	NumBytes     int64
	CreationTime *time.Time
	Schema       *Schema
	Etag         string
}

// IsView reports whether the table is a view.
func (t *Table) IsView() bool { return t.Type == TableTypeView }

// DatasetListOptions filters a dataset listing.
type DatasetListOptions struct {
	PageRequest
	All bool // include hidden datasets
}

// TableListOptions filters a table listing.
type TableListOptions struct {
	PageRequest
}

// TableDataOptions selects a window of table rows.
type TableDataOptions struct {
	PageRequest
	StartIndex *int64
}

// TableDataPage is one page of raw table rows.
type TableDataPage struct {
	Rows      []RawRow
	PageToken string
	TotalRows int64
	Etag      string
}
