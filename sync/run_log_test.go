package sync

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunLog_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv.log")
	runLog, done, err := OpenRunLog(path, "export.csv", RunLogOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Errorf("Expected nothing done but have %v", done)
	}
	if err = runLog.StartRun("run-1", time.Date(2022, 3, 22, 10, 4, 5, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	results := []SyncResult{
		{Row: 1, Key: "a@example.com", Outcome: Created, Actions: []string{"create", "mobile subscribed", "Phone_Bank"}},
		{Row: 2, Outcome: Skipped},
		{Row: 3, Key: "-", Outcome: Failed, Reason: "missing identifier"},
		{Row: 4, Key: "b@example.com", Outcome: Updated, Actions: []string{"update"}},
	}
	for _, r := range results {
		if err = runLog.Record(r); err != nil {
			t.Fatal(err)
		}
	}
	if err = runLog.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := "SyncFile: 'export.csv'\n" +
		"SyncTime: 2022-03-22 10:04:05\n" +
		"SyncRun: run-1\n" +
		"[0001] OK a@example.com create, mobile subscribed, Phone_Bank\n" +
		"[0003] FAIL - missing identifier\n" +
		"[0004] OK b@example.com update\n"
	if string(b) != expected {
		t.Errorf("Expected:\n%s\nbut have:\n%s", expected, string(b))
	}
}

func TestRunLog_ExistsWithoutResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv.log")
	if err := os.WriteFile(path, []byte("SyncFile: 'export.csv'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := OpenRunLog(path, "export.csv", RunLogOptions{})
	if err == nil || !strings.Contains(err.Error(), "file exists") {
		t.Errorf("Expected file exists error but have %v", err)
	}

	runLog, _, err := OpenRunLog(path, "export.csv", RunLogOptions{Overwrite: true})
	if err != nil {
		t.Fatal(err)
	}
	runLog.Close()
}

func TestRunLog_Resume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv.log")
	existing := "SyncFile: 'export.csv'\n" +
		"SyncTime: 2022-03-22 10:04:05\n" +
		"SyncRun: run-1\n" +
		"[0001] OK a@example.com create\n" +
		"[0002] FAIL - missing identifier\n" +
		"[0003] DRYRUN c@example.com create\n" +
		"[0004] SKIP d@example.com\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	runLog, done, err := OpenRunLog(path, "export.csv", RunLogOptions{Resume: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 2 || !done[1] || !done[4] {
		t.Errorf("Expected rows 1 and 4 done but have %v", done)
	}
	if err = runLog.Record(SyncResult{Row: 2, Key: "b@example.com", Outcome: Created, Actions: []string{"create"}}); err != nil {
		t.Fatal(err)
	}
	runLog.Close()

	b, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(b), existing) || !strings.HasSuffix(string(b), "[0002] OK b@example.com create\n") {
		t.Errorf("Expected the log to be appended to but have:\n%s", string(b))
	}
}

func TestRunLog_DifferentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv.log")
	if err := os.WriteFile(path, []byte("SyncFile: 'other.csv'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := OpenRunLog(path, "export.csv", RunLogOptions{Resume: true})
	if err == nil || !strings.Contains(err.Error(), "different file") {
		t.Errorf("Expected different file error but have %v", err)
	}
}

func TestRunLog_Stdout(t *testing.T) {
	var buf bytes.Buffer
	runLog, _, err := OpenRunLog(StdoutRunLog, "export.csv", RunLogOptions{DryRun: true, Stdout: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if err = runLog.Record(SyncResult{Row: 12, Key: "a@example.com", Outcome: Created}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[0012] DRYRUN a@example.com\n" {
		t.Errorf("Expected a trimmed dry run line but have %q", buf.String())
	}
	if err = runLog.Close(); err != nil {
		t.Error(err)
	}
}

func TestDefaultRunLogPath(t *testing.T) {
	if have := DefaultRunLogPath("data/export.csv"); have != "data/export.csv.log" {
		t.Errorf("Expected log next to the input but have %s", have)
	}
}
