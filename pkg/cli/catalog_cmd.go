package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"gcloud-go/internal/domain"
)

func newDatasetsCmd(rt *session) *cobra.Command {
	var (
		all        bool
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List datasets in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			page, err := a.Project.Datasets(ctx, domain.DatasetListOptions{
				PageRequest: domain.PageRequest{MaxResults: maxResults},
				All:         all,
			})
			if err != nil {
				return err
			}
			datasets, err := domain.Collect(page.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]any, 0, len(datasets))
				for _, d := range datasets {
					out = append(out, map[string]any{
						"project":       d.Reference.ProjectID,
						"dataset":       d.Reference.DatasetID,
						"location":      d.Location,
						"friendly_name": d.FriendlyName,
					})
				}
				return PrintJSON(os.Stdout, out)
			}
			rows := make([][]string, 0, len(datasets))
			for _, d := range datasets {
				rows = append(rows, []string{d.Reference.DatasetID, d.Location, d.FriendlyName})
			}
			PrintTable(os.Stdout, []string{"dataset", "location", "friendly_name"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include hidden datasets")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Datasets per page")
	return cmd
}

func newTablesCmd(rt *session) *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "tables <dataset>",
		Short: "List tables in a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			ds, err := a.Project.Dataset(ctx, args[0])
			if err != nil {
				return err
			}
			if ds == nil {
				return domain.ErrNotFound("dataset %q not found in project %s", args[0], a.Project.ID())
			}
			page, err := a.Project.Tables(ctx, args[0], domain.TableListOptions{
				PageRequest: domain.PageRequest{MaxResults: maxResults},
			})
			if err != nil {
				return err
			}
			tables, err := domain.Collect(page.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				items := make([]map[string]any, 0, len(tables))
				for _, t := range tables {
					items = append(items, map[string]any{
						"table":   t.Reference.TableID,
						"type":    t.Type,
						"created": t.CreationTime,
					})
				}
				out := map[string]any{"tables": items}
				if page.Total != nil {
					out["total"] = *page.Total
				}
				return PrintJSON(os.Stdout, out)
			}
			rows := make([][]string, 0, len(tables))
			for _, t := range tables {
				rows = append(rows, []string{t.Reference.TableID, t.Type, FormatValue(t.CreationTime)})
			}
			PrintTable(os.Stdout, []string{"table", "type", "created"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Tables per page")
	return cmd
}

func newTableDataCmd(rt *session) *cobra.Command {
	var (
		maxResults int
		startIndex int64
	)

	cmd := &cobra.Command{
		Use:   "table-data <dataset> <table>",
		Short: "Print rows of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			opts := domain.TableDataOptions{PageRequest: domain.PageRequest{MaxResults: maxResults}}
			if cmd.Flags().Changed("start-index") {
				opts.StartIndex = &startIndex
			}
			data, err := a.Project.TableData(ctx, domain.TableReference{DatasetID: args[0], TableID: args[1]}, opts)
			if err != nil {
				return err
			}
			rows, err := domain.Collect(data.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			return printRows(cmd, data.Headers(), rows)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Rows per page")
	cmd.Flags().Int64Var(&startIndex, "start-index", 0, "Zero-based row to start from")
	return cmd
}

func newBucketsCmd(rt *session) *cobra.Command {
	var (
		prefix     string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "List Cloud Storage buckets in the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := rt.services(ctx)
			if err != nil {
				return err
			}
			page, err := a.Buckets.List(ctx, domain.BucketListOptions{
				PageRequest: domain.PageRequest{MaxResults: maxResults},
				Prefix:      prefix,
			})
			if err != nil {
				return err
			}
			buckets, err := domain.Collect(page.All(ctx, rt.allOpts()...))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]any, 0, len(buckets))
				for _, b := range buckets {
					out = append(out, map[string]any{
						"name":          b.Name,
						"location":      b.Location,
						"storage_class": b.StorageClass,
						"versioning":    b.VersioningEnabled,
						"created":       b.Created,
					})
				}
				return PrintJSON(os.Stdout, out)
			}
			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				rows = append(rows, []string{b.Name, b.Location, b.StorageClass, strconv.FormatBool(b.VersioningEnabled)})
			}
			PrintTable(os.Stdout, []string{"name", "location", "storage_class", "versioning"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only buckets whose name starts with this prefix")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Buckets per page")
	return cmd
}
