// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dblogger/dblogger/lib/capture"
	"github.com/dblogger/dblogger/lib/cli"
	"github.com/dblogger/dblogger/lib/config"
	"github.com/dblogger/dblogger/lib/entry"
	"github.com/dblogger/dblogger/lib/process"
	"github.com/dblogger/dblogger/lib/sink"
	"github.com/dblogger/dblogger/lib/testutil"
)

// recordingRouter returns a router whose only sink collects the text
// of every completed record.
func recordingRouter(texts *[]string, failure error) *capture.Router {
	router := capture.NewRouter()
	router.RegisterSink(sink.Func{
		OnWrite: func(sourceName, text string) error {
			if failure != nil {
				return failure
			}
			*texts = append(*texts, text)
			return nil
		},
	})
	return router
}

func TestFeed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single record",
			input: "SELECT 1\n\n",
			want:  []string{"SELECT 1" + entry.Newline},
		},
		{
			name:  "unterminated record",
			input: "SELECT 1\nFROM t",
			want:  []string{"SELECT 1" + entry.Newline + "FROM t" + entry.Newline},
		},
		{
			name:  "blank runs",
			input: "\n\nA\n\n\n\nB\n\n",
			want:  []string{"A" + entry.Newline, "B" + entry.Newline},
		},
		{
			name:  "crlf input",
			input: "A\r\n\r\n",
			want:  []string{"A" + entry.Newline},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var got []string
			records, err := feed(strings.NewReader(test.input), recordingRouter(&got, nil), "BlogContext")
			if err != nil {
				t.Fatalf("feed: %v", err)
			}
			if records != len(test.want) {
				t.Errorf("records = %d, want %d", records, len(test.want))
			}
			if len(got) != len(test.want) {
				t.Fatalf("record texts = %q, want %q", got, test.want)
			}
			for i := range got {
				if got[i] != test.want[i] {
					t.Errorf("record %d = %q, want %q", i, got[i], test.want[i])
				}
			}
		})
	}
}

func TestFeedStopsOnSinkError(t *testing.T) {
	failure := errors.New("sink failed")
	var got []string
	records, err := feed(strings.NewReader("A\n\nB\n\n"), recordingRouter(&got, failure), "BlogContext")
	if !errors.Is(err, failure) {
		t.Fatalf("err = %v, want %v", err, failure)
	}
	if records != 0 {
		t.Errorf("records = %d, want 0", records)
	}
}

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	t.Setenv("HOME", t.TempDir())
}

func TestRunWritesLogFile(t *testing.T) {
	isolateConfig(t)
	directory := t.TempDir()
	inputPath := filepath.Join(directory, "trace.sql")
	trace := "-- Executing at 10/8/2013 10:55:41 AM -07:00\nSELECT 1\n-- Completed in 3 ms with result: SqlDataReader\n\nSELECT 2\n"
	if err := os.WriteFile(inputPath, []byte(trace), 0o644); err != nil {
		t.Fatal(err)
	}
	logDirectory := filepath.Join(directory, "logs")

	args := []string{"--source", "Blog.Context", "--no-pipe", "--log-dir", logDirectory, "--file", inputPath, "--log-level", "error"}
	if err := run(args, strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDirectory, sink.FileName("Blog.Context")))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	text := string(data)
	if strings.Count(text, "SELECT") != 2 {
		t.Errorf("log file = %q, want both records", text)
	}

	// --reset starts the file over.
	args = append(args, "--reset")
	if err := run(args, nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("run --reset: %v", err)
	}
	data, err = os.ReadFile(filepath.Join(logDirectory, sink.FileName("Blog.Context")))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Count(string(data), "SELECT") != 2 {
		t.Errorf("after reset log file = %q, want only the replayed records", data)
	}
}

func TestRunReadsStdin(t *testing.T) {
	isolateConfig(t)
	logDirectory := t.TempDir()
	args := []string{"-s", "Orders", "--no-pipe", "--log-dir", logDirectory, "--log-level", "error"}
	if err := run(args, strings.NewReader("SELECT 1\n"), &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(logDirectory, "Orders.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	want := "SELECT 1" + entry.Newline + entry.Newline + entry.Newline
	if string(data) != want {
		t.Errorf("log file = %q, want %q", data, want)
	}
}

func TestRunUsageErrors(t *testing.T) {
	isolateConfig(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing source", []string{"--no-pipe", "--log-dir", t.TempDir()}},
		{"no sink", []string{"--source", "A", "--no-pipe"}},
		{"conflicting pipe flags", []string{"--source", "A", "--pipe", "--no-pipe"}},
		{"unknown flag", []string{"--source", "A", "--bogus"}},
		{"positional argument", []string{"--source", "A", "extra"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := run(test.args, strings.NewReader(""), &bytes.Buffer{})
			var exitErr *process.ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitUsage {
				t.Fatalf("err = %v, want a usage error", err)
			}
		})
	}
}

func TestRunMissingInputFile(t *testing.T) {
	isolateConfig(t)
	args := []string{"--source", "A", "--no-pipe", "--log-dir", t.TempDir(), "--file", filepath.Join(t.TempDir(), "absent.sql")}
	err := run(args, nil, &bytes.Buffer{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestRunHelp(t *testing.T) {
	var output bytes.Buffer
	if err := run([]string{"--help"}, nil, &output); err != nil {
		t.Fatalf("run --help: %v", err)
	}
	for _, want := range []string{"USAGE", "--source", "--log-dir", "--no-pipe"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRunCreatesSocketDirectory(t *testing.T) {
	isolateConfig(t)
	root := testutil.SocketDir(t)
	socketPath := filepath.Join(root, "run", "feed.sock")
	configPath := filepath.Join(t.TempDir(), "dblogger.yaml")
	if err := os.WriteFile(configPath, []byte("pipe:\n  grace_period: 50ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	args := []string{"--config", configPath, "--source", "A", "--pipe", "--socket", socketPath, "--log-level", "error"}
	if err := run(args, strings.NewReader("SELECT 1\n"), &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(socketPath)); err != nil || !info.IsDir() {
		t.Fatalf("socket directory not created: %v", err)
	}
}
