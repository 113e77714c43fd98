package cli

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"gcloud-go/internal/app"
	"gcloud-go/internal/domain"
	"gcloud-go/internal/testutil"
)

// captureStdout redirects os.Stdout to a pipe and returns a function
// that restores stdout and returns the captured output.
// Uses a goroutine to read concurrently, avoiding pipe buffer deadlocks.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	// Read concurrently to avoid pipe buffer deadlock on large outputs
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	return func() string {
		_ = w.Close()
		<-done
		os.Stdout = old
		return buf.String()
	}
}

// isolateEnv points HOME at a temp dir and clears every variable the CLI reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"GCQ_PROJECT", "BIGQUERY_PROJECT", "GCLOUD_PROJECT", "GOOGLE_CLOUD_PROJECT",
		"GOOGLE_APPLICATION_CREDENTIALS", "BIGQUERY_ENDPOINT", "STORAGE_ENDPOINT", "BIGQUERY_LOCATION",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "POLL_DEADLINE", "QUERY_TIMEOUT",
		"GCQ_OUTPUT", "GCQ_CONFIG",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("POLL_UNIT", "1ms")
	t.Setenv("LOG_LEVEL", "error")
}

// newTestRootCmd isolates the environment and creates a root command whose
// services are backed by the given gateway mocks.
func newTestRootCmd(t *testing.T, bq *testutil.MockBigQueryGateway, gcs *testutil.MockStorageGateway, args ...string) *cobra.Command {
	t.Helper()
	isolateEnv(t)
	return mockedRootCmd(bq, gcs, append([]string{"--project", "proj"}, args...)...)
}

// mockedRootCmd creates a root command backed by gateway mocks in the
// current environment. A nil mock panics on first use.
func mockedRootCmd(bq *testutil.MockBigQueryGateway, gcs *testutil.MockStorageGateway, args ...string) *cobra.Command {
	if bq == nil {
		bq = &testutil.MockBigQueryGateway{}
	}
	if gcs == nil {
		gcs = &testutil.MockStorageGateway{}
	}
	rootCmd := newRootCmd(func(ctx context.Context, deps app.Deps) (*app.App, error) {
		deps.BigQuery = bq
		deps.Storage = gcs
		return app.New(ctx, deps)
	})
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCmd executes args and returns captured stdout.
func runCmd(t *testing.T, bq *testutil.MockBigQueryGateway, gcs *testutil.MockStorageGateway, args ...string) (string, error) {
	t.Helper()
	cmd := newTestRootCmd(t, bq, gcs, args...)
	capture := captureStdout(t)
	err := cmd.Execute()
	return capture(), err
}

// nameAgeSchema is a two-column schema used by row output tests.
func nameAgeSchema() *domain.Schema {
	return domain.NewSchema(
		domain.NewField("name", domain.FieldString, domain.ModeNullable, ""),
		domain.NewField("age", domain.FieldInteger, domain.ModeNullable, ""),
	).Freeze()
}

// containsIgnoreCase checks if s contains substr (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
