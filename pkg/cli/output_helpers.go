package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gcloud-go/internal/domain"
)

var (
	headerColor  = color.New(color.Bold)
	doneColor    = color.New(color.FgGreen)
	failedColor  = color.New(color.FgRed)
	runningColor = color.New(color.FgYellow)
	pendingColor = color.New(color.FgCyan)
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable writes rows under upper-cased column headers, padded to the
// widest cell of each column. No output is produced without columns.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i := 0; i < len(columns) && i < len(row); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	_, _ = fmt.Fprintln(w, headerColor.Sprint(joinPadded(header, widths, nil)))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, joinPadded(row, widths, colorizeState))
	}
}

// joinPadded pads each cell to its column width. style may decorate the
// padded cell without affecting alignment.
func joinPadded(cells []string, widths []int, style func(string) string) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		styled := cell
		if style != nil {
			styled = style(cell)
		}
		b.WriteString(styled)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(cell)+2))
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// colorizeState highlights job state cells.
func colorizeState(cell string) string {
	switch cell {
	case string(domain.JobStateDone):
		return doneColor.Sprint(cell)
	case "FAILED":
		return failedColor.Sprint(cell)
	case string(domain.JobStateRunning):
		return runningColor.Sprint(cell)
	case string(domain.JobStatePending):
		return pendingColor.Sprint(cell)
	}
	return cell
}

// FormatValue renders a coerced cell for table output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(time.RFC3339)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// rowsToTable renders typed rows in header order.
func rowsToTable(headers []string, rows []domain.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i] = FormatValue(row[h])
		}
		out = append(out, cells)
	}
	return out
}
