package bigquery

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"gcloud-go/internal/domain"
)

var errNotString = errors.New("wire value is not a string")

// coerceRows materializes raw rows against schema. The first malformed value
// aborts the whole page.
func coerceRows(schema *domain.Schema, raw []domain.RawRow) ([]domain.Row, error) {
	rows := make([]domain.Row, 0, len(raw))
	if len(raw) == 0 {
		return rows, nil
	}
	if schema == nil {
		return nil, &domain.MalformedResponseError{Field: "schema", Err: errors.New("rows returned without a schema")}
	}
	for _, r := range raw {
		row, err := coerceRow(schema.Fields(), r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// coerceRow zips fields with values by position. Missing trailing values
// are null; surplus values are ignored.
func coerceRow(fields []*domain.Field, values []any) (domain.Row, error) {
	row := make(domain.Row, len(fields))
	for i, f := range fields {
		var v any
		if i < len(values) {
			v = values[i]
		}
		cv, err := coerceField(f, v)
		if err != nil {
			return nil, err
		}
		row[f.Name] = cv
	}
	return row, nil
}

func coerceField(f *domain.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !f.Repeated() {
		return coerceValue(f, v)
	}

	cells, ok := v.([]any)
	if !ok {
		return nil, malformed(f, v, errors.New("repeated value is not a list"))
	}
	out := make([]any, 0, len(cells))
	for _, cell := range cells {
		cv, err := coerceValue(f, cellValue(cell))
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

// cellValue unwraps a {"v": x} cell.
func cellValue(cell any) any {
	if m, ok := cell.(map[string]any); ok {
		return m["v"]
	}
	return cell
}

func coerceValue(f *domain.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.Type == domain.FieldRecord {
		return coerceRecord(f, v)
	}
	if _, known := domain.ParseFieldType(string(f.Type)); !known {
		return v, nil
	}

	s, ok := v.(string)
	if !ok {
		return nil, malformed(f, v, errNotString)
	}

	switch f.Type {
	case domain.FieldString:
		return s, nil
	case domain.FieldInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return n, nil
	case domain.FieldFloat:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return n, nil
	case domain.FieldBoolean:
		switch {
		case strings.EqualFold(s, "true"):
			return true, nil
		case strings.EqualFold(s, "false"):
			return false, nil
		}
		return nil, malformed(f, v, errors.New("not a boolean"))
	case domain.FieldTimestamp:
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return time.UnixMicro(int64(math.Round(secs * 1e6))).UTC(), nil
	case domain.FieldBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return b, nil
	case domain.FieldDate:
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return d, nil
	case domain.FieldTime:
		t, err := civil.ParseTime(s)
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return t, nil
	case domain.FieldDatetime:
		dt, err := civil.ParseDateTime(strings.Replace(s, " ", "T", 1))
		if err != nil {
			return nil, malformed(f, v, err)
		}
		return dt, nil
	}
	return v, nil
}

// coerceRecord decodes a {"f": [{"v": ...}, ...]} value against the nested
// fields of f.
func coerceRecord(f *domain.Field, v any) (domain.Row, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, malformed(f, v, errors.New("record value is not an object"))
	}
	cells, ok := m["f"].([]any)
	if !ok {
		return nil, malformed(f, v, errors.New(`record value has no "f" list`))
	}
	values := make([]any, len(cells))
	for i, cell := range cells {
		values[i] = cellValue(cell)
	}
	row, err := coerceRow(f.Fields(), values)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", f.Name, err)
	}
	return row, nil
}

func malformed(f *domain.Field, v any, err error) error {
	return &domain.MalformedResponseError{Field: f.Name, Type: f.Type, Value: v, Err: err}
}
