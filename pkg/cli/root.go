// Package cli implements gcq, a command-line client for BigQuery jobs,
// query results and Cloud Storage buckets.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gcloud-go/internal/app"
	"gcloud-go/internal/config"
	"gcloud-go/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// appFactory builds the wired services. Tests substitute one that injects
// gateway mocks.
type appFactory func(ctx context.Context, deps app.Deps) (*app.App, error)

// session carries resolved settings to every command.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	maxPages int
	newApp   appFactory
	app      *app.App
}

// services returns the wired App, building it on first use.
func (r *session) services(ctx context.Context) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := r.newApp(ctx, app.Deps{Cfg: r.cfg, Logger: r.logger})
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// allOpts turns --max-pages into a request limit for Page.All.
func (r *session) allOpts() []domain.AllOption {
	if r.maxPages < 0 {
		return nil
	}
	return []domain.AllOption{domain.WithRequestLimit(r.maxPages)}
}

func (r *session) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// Execute runs the CLI.
func Execute() int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	rootCmd := newRootCmd(app.New)
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = PrintJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorObject renders err for --output json.
func errorObject(err error) map[string]any {
	errObj := map[string]any{"error": err.Error()}
	var (
		rce *domain.RemoteCallError
		nf  *domain.NotFoundError
		ve  *domain.ValidationError
	)
	switch {
	case errors.As(err, &rce):
		errObj["code"] = "REMOTE_CALL_FAILED"
		if rce.StatusCode != 0 {
			errObj["http_status"] = rce.StatusCode
		}
		if rce.Reason != "" {
			errObj["reason"] = rce.Reason
		}
	case errors.As(err, &nf):
		errObj["code"] = "NOT_FOUND"
	case errors.As(err, &ve):
		errObj["code"] = "INVALID_ARGUMENT"
	}
	return errObj
}

func newRootCmd(newApp appFactory) *cobra.Command {
	var (
		project  string
		output   string
		profile  string
		logLevel string
		location string
	)
	rt := &session{newApp: newApp}

	rootCmd := &cobra.Command{
		Use:           "gcq",
		Short:         "BigQuery and Cloud Storage CLI",
		Long:          "Command-line client for BigQuery queries, jobs and tables, and Cloud Storage buckets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			// Config file is optional.
			userCfg, err := loadUserConfigOrEmpty()
			if err != nil {
				return err
			}
			p, err := userCfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			switch {
			case cmd.Flags().Changed("project"):
				cfg.ProjectID = project
				cfg.Warnings = dropProjectWarning(cfg.Warnings)
			case cfg.ProjectID == "" && p.Project != "":
				cfg.ProjectID = p.Project
				cfg.Warnings = dropProjectWarning(cfg.Warnings)
			}
			if cmd.Flags().Changed("location") {
				cfg.Location = location
			}
			if cfg.CredentialsFile == "" && p.CredentialsFile != "" {
				cfg.CredentialsFile = p.CredentialsFile
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("GCQ_OUTPUT"); v != "" {
					output = v
				} else if p.Output != "" {
					output = p.Output
				}
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			switch {
			case cmd.Flags().Changed("log-level"):
				cfg.LogLevel = logLevel
			case os.Getenv("LOG_LEVEL") == "" && p.LogLevel != "":
				cfg.LogLevel = p.LogLevel
			}

			rt.cfg = cfg
			rt.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return rt.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&project, "project", "", "Google Cloud project (overrides GCQ_PROJECT and profile)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().IntVar(&rt.maxPages, "max-pages", -1, "Follow-up pages to fetch when listing (-1 for all)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&location, "location", "", "BigQuery job location (overrides BIGQUERY_LOCATION)")

	// BigQuery
	rootCmd.AddCommand(newQueryCmd(rt))
	rootCmd.AddCommand(newQueryJobCmd(rt))
	rootCmd.AddCommand(newJobCmd(rt))
	rootCmd.AddCommand(newJobsCmd(rt))
	rootCmd.AddCommand(newDatasetsCmd(rt))
	rootCmd.AddCommand(newTablesCmd(rt))
	rootCmd.AddCommand(newTableDataCmd(rt))

	// Cloud Storage
	rootCmd.AddCommand(newBucketsCmd(rt))

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(rt))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func dropProjectWarning(warnings []string) []string {
	out := warnings[:0]
	for _, w := range warnings {
		if !strings.HasPrefix(w, "no default project") {
			out = append(out, w)
		}
	}
	return out
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
