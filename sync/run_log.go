package sync

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Run log statuses. Rows logged OK or SKIP are not processed again on resume.
const (
	StatusOK     = "OK"
	StatusDryRun = "DRYRUN"
	StatusFail   = "FAIL"
	StatusSkip   = "SKIP"
)

// StdoutRunLog names standard output as the run log.
const StdoutRunLog = "-"

// RunLog records one line per processed row:
//
//	SyncFile: 'export.csv'
//	SyncTime: 2022-03-22 10:04:05
//	SyncRun: 6f1c...
//	[0001] OK some.one@example.com create, mobile subscribed, Phone_Bank
type RunLog struct {
	Path   string
	DryRun bool

	w      io.Writer
	closer io.Closer
}

type RunLogOptions struct {
	Resume    bool
	Overwrite bool
	DryRun    bool
	// Stdout receives the log when the path is StdoutRunLog. Defaults to os.Stdout.
	Stdout io.Writer
}

// DefaultRunLogPath is the log kept next to the input file.
func DefaultRunLogPath(inputFile string) string {
	return inputFile + ".log"
}

func runLogHeader(inputFile string) string {
	return fmt.Sprintf("SyncFile: '%s'", inputFile)
}

// OpenRunLog opens the run log at path for inputFile and returns the rows an
// earlier run already completed. An existing log is only reused with Resume
// and only replaced with Overwrite.
func OpenRunLog(path string, inputFile string, opts RunLogOptions) (*RunLog, map[int]bool, error) {
	done := make(map[int]bool)

	if path == "" || path == StdoutRunLog {
		if opts.Resume {
			log.Printf("Option --resume ignored for stdout")
		}
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		return &RunLog{Path: StdoutRunLog, DryRun: opts.DryRun, w: w}, done, nil
	}

	_, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("failed to check log file: %w", err)
	}

	if !exists || opts.Overwrite {
		if opts.Resume && !exists {
			log.Printf("Option --resume ignored. File not found: %s", path)
		}
		file, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create log file: %w", err)
		}
		if _, err = fmt.Fprintln(file, runLogHeader(inputFile)); err != nil {
			file.Close()
			return nil, nil, err
		}
		return &RunLog{Path: path, DryRun: opts.DryRun, w: file, closer: file}, done, nil
	}

	if !opts.Resume {
		return nil, nil, fmt.Errorf("%s: file exists. Use --resume, --overwrite or remove file", path)
	}

	existing, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	done, err = ReadRunLog(existing, inputFile)
	existing.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &RunLog{Path: path, DryRun: opts.DryRun, w: file, closer: file}, done, nil
}

// ReadRunLog checks the header names inputFile and returns the rows logged OK or SKIP.
func ReadRunLog(r io.Reader, inputFile string) (map[int]bool, error) {
	done := make(map[int]bool)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("log is empty, expected %s", runLogHeader(inputFile))
	}
	if line := scanner.Text(); line != runLogHeader(inputFile) {
		return nil, fmt.Errorf("log is for a different file, found %s", line)
	}
	for scanner.Scan() {
		// [0001] VERB KEY MESSAGE
		tokens := strings.SplitN(scanner.Text(), " ", 3)
		if len(tokens) < 2 {
			continue
		}
		id := tokens[0]
		if len(id) < 3 || id[0] != '[' || id[len(id)-1] != ']' {
			continue
		}
		row, err := strconv.Atoi(id[1 : len(id)-1])
		if err != nil {
			continue
		}
		switch tokens[1] {
		case StatusOK, StatusSkip:
			done[row] = true
		}
	}
	return done, scanner.Err()
}

// StartRun stamps the start of a run.
func (l *RunLog) StartRun(runID string, t time.Time) error {
	_, err := fmt.Fprintf(l.w, "SyncTime: %s\nSyncRun: %s\n", t.Format("2006-01-02 15:04:05"), runID)
	return err
}

// Record writes the line for result. Skipped rows are not logged.
func (l *RunLog) Record(result SyncResult) error {
	var status string
	switch result.Outcome {
	case Skipped:
		return nil
	case Failed:
		status = StatusFail
	default:
		status = StatusOK
		if l.DryRun {
			status = StatusDryRun
		}
	}
	message := strings.Join(result.Actions, ", ")
	if result.Outcome == Failed {
		message = result.Reason
	}
	line := strings.TrimRight(fmt.Sprintf("[%04d] %s %s %s", result.Row, status, result.Key, message), " ")
	_, err := fmt.Fprintln(l.w, line)
	return err
}

func (l *RunLog) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
