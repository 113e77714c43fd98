package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newConfigCmd(rt *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd(rt))
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())
	cmd.AddCommand(newConfigDeleteProfileCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd(rt *session) *cobra.Command {
	var resolved bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display configuration profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if resolved {
				return printResolved(cmd, rt)
			}
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "No configuration found at %s\n", ConfigPath())
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, cfg)
			}

			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p := cfg.Profiles[name]
				active := ""
				if name == cfg.CurrentProfile {
					active = "*"
				}
				rows = append(rows, []string{name, active, p.Project, p.CredentialsFile, p.Output, p.LogLevel})
			}
			PrintTable(os.Stdout, []string{"profile", "active", "project", "credentials", "output", "log_level"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resolved, "resolved", false, "Show effective settings after flags, environment and profile")
	return cmd
}

// printResolved prints the settings the other commands would run with.
func printResolved(cmd *cobra.Command, rt *session) error {
	cfg := rt.cfg
	deadline := ""
	if cfg.PollDeadline > 0 {
		deadline = cfg.PollDeadline.String()
	}
	settings := [][]string{
		{"project", cfg.ProjectID},
		{"credentials_file", cfg.CredentialsFile},
		{"bigquery_endpoint", cfg.BigQueryEndpoint},
		{"storage_endpoint", cfg.StorageEndpoint},
		{"location", cfg.Location},
		{"log_level", cfg.LogLevel},
		{"rate_limit_rps", strconv.FormatFloat(cfg.RateLimitRPS, 'g', -1, 64)},
		{"rate_limit_burst", strconv.Itoa(cfg.RateLimitBurst)},
		{"poll_unit", cfg.PollUnit.String()},
		{"poll_deadline", deadline},
		{"query_timeout", cfg.QueryTimeout.String()},
		{"output", getOutputFormat(cmd)},
	}
	if getOutputFormat(cmd) == "json" {
		out := make(map[string]any, len(settings)+1)
		for _, kv := range settings {
			out[kv[0]] = kv[1]
		}
		out["warnings"] = cfg.Warnings
		return PrintJSON(os.Stdout, out)
	}
	PrintTable(os.Stdout, []string{"setting", "value"}, settings)
	for _, w := range cfg.Warnings {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return nil
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		project     string
		credentials string
		output      string
		logLevel    string
		activate    bool
	)

	cmd := &cobra.Command{
		Use:   "set-profile <name>",
		Short: "Create or update a configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if cmd.Flags().Changed("default-output") {
				if err := validateOutputFormat(output); err != nil {
					return err
				}
			}

			cfg, err := loadUserConfigOrEmpty()
			if err != nil {
				return err
			}

			p := cfg.Profiles[name]
			if cmd.Flags().Changed("default-project") {
				p.Project = project
			}
			if cmd.Flags().Changed("credentials-file") {
				p.CredentialsFile = credentials
			}
			if cmd.Flags().Changed("default-output") {
				p.Output = output
			}
			if cmd.Flags().Changed("default-log-level") {
				p.LogLevel = logLevel
			}
			cfg.Profiles[name] = p
			if activate {
				cfg.CurrentProfile = name
			}

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]any{
					"status":  "ok",
					"profile": name,
					"active":  cfg.CurrentProfile == name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "default-project", "", "Default project")
	cmd.Flags().StringVar(&credentials, "credentials-file", "", "Service account key file")
	cmd.Flags().StringVar(&output, "default-output", "", "Default output format (table, json)")
	cmd.Flags().StringVar(&logLevel, "default-log-level", "", "Default log level")
	cmd.Flags().BoolVar(&activate, "use", false, "Also make this the active profile")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Active profile set to %q\n", name)
			return nil
		},
	}
}

func newConfigDeleteProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile <name>",
		Short: "Remove a configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			if name == cfg.CurrentProfile {
				return fmt.Errorf("profile %q is active; switch with 'gcq config use-profile' first", name)
			}
			delete(cfg.Profiles, name)
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{"status": "ok", "deleted": name})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q deleted\n", name)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the profile file location",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(os.Stdout, ConfigPath())
			return nil
		},
	}
}
