package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/homemade/an2ea/sync"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

func init() {
	sync.Init(sync.ActionNetwork2EveryAction)
}

// execute runs the root command with args, resetting flags left over from earlier runs.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	reset := func(flags *pflag.FlagSet) {
		flags.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "an2ea dev\n" {
		t.Errorf("Expected the version but have %q", out)
	}
}

func TestCountTags(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.csv", "email,can2_user_tags\n"+
		"a@example.com,\"Phone_Bank, ?Direct Action\"\n"+
		"b@example.com,Phone_Bank\n")
	second := writeFile(t, dir, "second.csv", "email,can2_user_tags\n"+
		"c@example.com,#Trump|Phone_Bank\n")

	out, _, err := execute(t, "count-tags", first, second, "--env", "")
	if err != nil {
		t.Fatal(err)
	}
	expected := "3\tPhone_Bank\n" +
		"1\t#Trump\n" +
		"1\t?Direct Action\n" +
		"3\tTOTAL\n"
	if out != expected {
		t.Errorf("Expected:\n%s\nbut have:\n%s", expected, out)
	}
}

func TestCountTags_MissingColumn(t *testing.T) {
	input := writeFile(t, t.TempDir(), "export.csv", "email,tags\na@example.com,A\n")
	_, _, err := execute(t, "count-tags", input, "--env", "")
	if err == nil || !strings.Contains(err.Error(), "expected column 'can2_user_tags'") {
		t.Errorf("Expected a missing column error but have %v", err)
	}

	out, _, err := execute(t, "count-tags", input, "--column", "tags", "--env", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\tA\n1\tTOTAL\n" {
		t.Errorf("Expected the tags column to be counted but have %q", out)
	}
}

func TestMappings(t *testing.T) {
	out, _, err := execute(t, "mappings", "--env", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, expected := range []string{
		"# Flavour: actionnetwork2everyaction",
		"EveryAction Field,Label,Group,Field Type,Action Network Column,Mapping Notes",
		"zipOrPostalCode,zip or postal code,Address,Text,zip_code,",
		"activistCodes,activist codes and tags,Codes,Code,can2_user_tags,",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected the mappings to contain %q but have:\n%s", expected, out)
		}
	}
}

func TestSync_MutuallyExclusiveFlags(t *testing.T) {
	_, _, err := execute(t, "sync", "export.csv", "--end", "5", "--count", "5")
	if err == nil {
		t.Errorf("Expected --end and --count to be rejected together")
	}
}

// everyActionServer answers just enough of the API for one created contact.
func everyActionServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, password, _ := r.BasicAuth(); user != "TSURJ.99.9999" || password != "test-key|1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v4/activistCodes":
			fmt.Fprint(w, `{"items":[{"activistCodeId":12,"name":"Phone_Bank"}],"count":1}`)
		case "/v4/codes":
			fmt.Fprint(w, `{"items":[],"count":0}`)
		case "/v4/people/find":
			w.WriteHeader(http.StatusNotFound)
		case "/v4/people/findOrCreate":
			if gjson.GetBytes(body, "emails.0.email").String() != "a@example.com" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"vanId":1000,"status":"Stored"}`)
		case "/v4/people/1000/canvassResponses":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSync(t *testing.T) {
	server := everyActionServer(t)
	t.Setenv("EVERYACTION_APP_NAME", "TSURJ.99.9999")
	t.Setenv("EVERYACTION_API_KEY", "test-key")
	t.Setenv("EVERYACTION_MODE", "1")
	t.Setenv("EVERYACTION_API_KEY_SECRET_ID", "")
	t.Setenv("ACTIONNETWORK_TAGS_MAPPING", "")

	dir := t.TempDir()
	config := writeFile(t, dir, "config.yaml", fmt.Sprintf("api:\n  endpoint: %s\nretry:\n  backoff: 0s\n", server.URL))
	input := writeFile(t, dir, "export.csv", "email,first_name,last_name,can2_user_tags\n"+
		"a@example.com,Ann,Lee,Phone_Bank\n"+
		",No,Identifier,\n")

	out, _, err := execute(t, "sync", input, "--config", config, "--env", "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Created: 1\n") || !strings.Contains(out, "Failed:  1\n") {
		t.Errorf("Expected one created and one failed but have:\n%s", out)
	}

	b, err := os.ReadFile(input + ".log")
	if err != nil {
		t.Fatal(err)
	}
	log := string(b)
	for _, expected := range []string{
		"SyncFile: '" + input + "'\n",
		"[0001] OK a@example.com create, Phone_Bank\n",
		"[0002] FAIL - missing identifier\n",
	} {
		if !strings.Contains(log, expected) {
			t.Errorf("Expected the log to contain %q but have:\n%s", expected, log)
		}
	}

	_, _, err = execute(t, "sync", input, "--config", config, "--env", "")
	if err == nil || !strings.Contains(err.Error(), "file exists") {
		t.Errorf("Expected an existing log to be refused but have %v", err)
	}

	out, _, err = execute(t, "sync", input, "--config", config, "--env", "", "--resume")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Skipped: 1\n") || !strings.Contains(out, "Failed:  1\n") {
		t.Errorf("Expected the done row to be skipped on resume but have:\n%s", out)
	}
}

func TestSync_DryRunToConsole(t *testing.T) {
	server := everyActionServer(t)
	t.Setenv("EVERYACTION_APP_NAME", "TSURJ.99.9999")
	t.Setenv("EVERYACTION_API_KEY", "test-key")
	t.Setenv("EVERYACTION_MODE", "1")
	t.Setenv("EVERYACTION_API_KEY_SECRET_ID", "")
	t.Setenv("ACTIONNETWORK_TAGS_MAPPING", "")

	dir := t.TempDir()
	config := writeFile(t, dir, "config.yaml", fmt.Sprintf("api:\n  endpoint: %s\n", server.URL))
	input := writeFile(t, dir, "export.csv", "email,can2_user_tags\nb@example.com,Phone_Bank\n")

	out, _, err := execute(t, "sync", input, "--config", config, "--env", "", "--dryrun", "--log", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[0001] DRYRUN b@example.com create, Phone_Bank\n") {
		t.Errorf("Expected a dry run line on the console but have:\n%s", out)
	}
	if _, err = os.Stat(input + ".log"); err == nil {
		t.Errorf("Expected no log file for console output")
	}
}

func TestSync_BadCredentials(t *testing.T) {
	server := everyActionServer(t)
	t.Setenv("EVERYACTION_APP_NAME", "TSURJ.99.9999")
	t.Setenv("EVERYACTION_API_KEY", "wrong-key")
	t.Setenv("EVERYACTION_MODE", "1")
	t.Setenv("EVERYACTION_API_KEY_SECRET_ID", "")
	t.Setenv("ACTIONNETWORK_TAGS_MAPPING", "")

	dir := t.TempDir()
	config := writeFile(t, dir, "config.yaml", fmt.Sprintf("api:\n  endpoint: %s\n", server.URL))
	input := writeFile(t, dir, "export.csv", "email\na@example.com\n")

	_, _, err := execute(t, "sync", input, "--config", config, "--env", "")
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("Expected an unauthorized error but have %v", err)
	}
}
