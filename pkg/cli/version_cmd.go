package cli

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildVersion fills in version and commit from the embedded build info
// when they were not set with -ldflags.
func buildVersion() (string, string) {
	v, c := version, commit
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v, c
	}
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	if c == "none" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				c = s.Value[:7]
			}
		}
	}
	return v, c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, c := buildVersion()
			platform := runtime.GOOS + "/" + runtime.GOARCH
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"version":  v,
					"commit":   c,
					"go":       runtime.Version(),
					"platform": platform,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "gcq %s (commit %s, %s, %s)\n", v, c, runtime.Version(), platform)
			return nil
		},
	}
}
