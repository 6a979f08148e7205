package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/lakecleaner/internal/cli/output"
	"github.com/marmos91/lakecleaner/pkg/api"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/storage"
	"github.com/marmos91/lakecleaner/pkg/storage/memory"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func writeTestConfig(t *testing.T, root string, maxAttempts int) string {
	t.Helper()

	content := fmt.Sprintf(`logging:
  level: ERROR
  format: text
  output: stderr
storage:
  type: local
  local:
    root: %s
cleanup:
  retry:
    max_attempts: %d
    initial_backoff: 1ms
    max_backoff: 1ms
`, root, maxAttempts)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so commands can be executed
// more than once in the same process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func decodeResults(t *testing.T, s string) output.TaskResults {
	t.Helper()

	var results output.TaskResults
	if err := json.Unmarshal([]byte(s), &results); err != nil {
		t.Fatalf("Failed to decode output %q: %v", s, err)
	}
	return results
}

func TestSubmit_DeletesAndSkipsAbsent(t *testing.T) {
	root := t.TempDir()
	present := filepath.Join(root, "data", "f1.parquet")
	absent := filepath.Join(root, "data", "gone.parquet")
	writeFile(t, present)

	out, err := executeRoot(t,
		"--config", writeTestConfig(t, root, 3),
		"submit", "--table", "db.events", "-o", "json",
		present, absent)
	if err != nil {
		t.Fatalf("submit failed: %v\n%s", err, out)
	}

	results := decodeResults(t, out)
	if len(results) != 1 {
		t.Fatalf("Expected 1 task result, got %d", len(results))
	}
	res := results[0]
	if !res.Handled {
		t.Errorf("Expected task to be handled: %+v", res)
	}
	if res.Table != "db.events" {
		t.Errorf("Expected table db.events, got %q", res.Table)
	}

	statuses := make(map[string]output.PathResult)
	for _, p := range res.Paths {
		statuses[p.Path] = p
	}
	if got := statuses[present]; got.Status != "deleted" || got.Attempts != 1 {
		t.Errorf("Expected %s deleted in 1 attempt, got %+v", present, got)
	}
	if got := statuses[absent]; got.Status != "absent" || got.Attempts != 0 {
		t.Errorf("Expected %s absent with 0 attempts, got %+v", absent, got)
	}

	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed, stat err = %v", present, err)
	}
}

func TestSubmit_PathsFileAndMaxAttemptsOverride(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "m1.avro")
	writeFile(t, inside)

	outside := filepath.Join(t.TempDir(), "elsewhere.avro")
	list := filepath.Join(t.TempDir(), "paths.txt")
	content := "# orphans\n" + inside + "\n\n" + outside + "\n"
	if err := os.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeRoot(t,
		"--config", writeTestConfig(t, root, 3),
		"submit", "--table", "db.events", "--paths-file", list,
		"--max-attempts", "2", "-o", "json")
	if !errors.Is(err, errIncomplete) {
		t.Fatalf("Expected errIncomplete, got %v", err)
	}

	res := decodeResults(t, out)[0]
	if res.Handled {
		t.Error("Expected task to be incomplete")
	}
	if res.Summary.Deleted != 1 || res.Summary.Failed != 1 {
		t.Errorf("Unexpected summary: %+v", res.Summary)
	}
	for _, p := range res.Paths {
		if p.Path == outside && p.Attempts != 2 {
			t.Errorf("Expected 2 attempts for rejected path, got %d", p.Attempts)
		}
	}
}

func TestSubmit_Remote(t *testing.T) {
	store := memory.New()
	store.Put("s3://b/db/events/f1.parquet", []byte("x"))

	pool := workerpool.New(workerpool.Config{Workers: 1})
	pool.Start()
	t.Cleanup(func() { pool.Stop(time.Second) })

	results := cleanup.NewResultLog(4)
	h := cleanup.NewHandler(storage.Static(store), pool, cleanup.WithResultHook(results.Record))
	server := httptest.NewServer(api.NewRouter(api.Dependencies{
		Dispatcher: task.NewDispatcher(h),
		Results:    results,
		Pool:       pool,
	}))
	t.Cleanup(server.Close)

	out, err := executeRoot(t,
		"submit", "--server", server.URL, "--table", "db.events", "-o", "json",
		"s3://b/db/events/f1.parquet")
	if err != nil {
		t.Fatalf("remote submit failed: %v\n%s", err, out)
	}

	res := decodeResults(t, out)[0]
	if !res.Handled || res.Summary.Deleted != 1 {
		t.Errorf("Unexpected remote result: %+v", res)
	}
	if store.Has("s3://b/db/events/f1.parquet") {
		t.Error("Expected remote server to delete the file")
	}
}

func TestSubmit_RequiresTable(t *testing.T) {
	_, err := executeRoot(t, "submit", "a.parquet")
	if err == nil {
		t.Fatal("Expected error without --table")
	}
}

func TestRun_TaskFiles(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "snap-1.avro")
	writeFile(t, file)

	id, err := cleanup.ParseTableIdentifier("ns.orders")
	if err != nil {
		t.Fatal(err)
	}
	tk, err := cleanup.NewTask(id, []string{file})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatal(err)
	}
	taskFile := filepath.Join(t.TempDir(), "task.json")
	if err := os.WriteFile(taskFile, data, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeRoot(t, "--config", writeTestConfig(t, root, 3), "run", "-o", "json", taskFile)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}

	results := decodeResults(t, out)
	if len(results) != 1 || results[0].TaskID != tk.ID || !results[0].Handled {
		t.Errorf("Unexpected results: %+v", results)
	}
}

func TestRun_MissingFile(t *testing.T) {
	_, err := executeRoot(t, "run", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("Expected error for missing task file")
	}
}

func TestRun_InvalidOutputFormat(t *testing.T) {
	_, err := executeRoot(t, "run", "-o", "xml", "task.json")
	if err == nil {
		t.Fatal("Expected error for unknown output format")
	}
}

func TestReadPathsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paths.txt")
	content := "  a.parquet  \n# comment\n\nb.parquet\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := readPathsFile(path)
	if err != nil {
		t.Fatalf("readPathsFile failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.parquet" || paths[1] != "b.parquet" {
		t.Errorf("Unexpected paths: %v", paths)
	}
}

func TestVersion_Short(t *testing.T) {
	out, err := executeRoot(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != Version+"\n" {
		t.Errorf("Expected %q, got %q", Version+"\n", out)
	}
}
