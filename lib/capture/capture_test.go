// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/dblogger/dblogger/lib/entry"
)

// recordingSink keeps every record it receives. When log is set, each
// write appends the sink's name so tests can check delivery order
// across sinks.
type recordingSink struct {
	name string
	log  *[]string
	err  error

	mu      sync.Mutex
	records []*entry.Record
	resets  int
}

func (s *recordingSink) Write(record *entry.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log != nil {
		*s.log = append(*s.log, s.name)
	}
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) Reset() error {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.records))
	for i, record := range s.records {
		texts[i] = record.Text()
	}
	return texts
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuilderCompletesOnMarker(t *testing.T) {
	builder := NewBuilder("BlogContext")
	var got []*entry.Record
	builder.SetCompletionHandler(func(record *entry.Record) error {
		got = append(got, record)
		return nil
	})

	if err := builder.AddFragment("SELECT 1"); err != nil {
		t.Fatalf("AddFragment: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("record emitted before the completion marker")
	}
	if builder.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", builder.Pending())
	}
	if err := builder.AddFragment(entry.Newline); err != nil {
		t.Fatalf("AddFragment(marker): %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Text() != "SELECT 1" {
		t.Errorf("Text = %q, want %q", got[0].Text(), "SELECT 1")
	}
	if got[0].SourceName() != "BlogContext" {
		t.Errorf("SourceName = %q", got[0].SourceName())
	}
	if builder.Pending() != 0 {
		t.Errorf("Pending after completion = %d, want 0", builder.Pending())
	}
}

func TestBuilderFragmentWithTrailingNewlineIsNotMarker(t *testing.T) {
	builder := NewBuilder("BlogContext")
	completed := 0
	builder.SetCompletionHandler(func(*entry.Record) error {
		completed++
		return nil
	})

	for _, fragment := range []string{"SELECT 1" + entry.Newline, " " + entry.Newline, entry.Newline + entry.Newline} {
		if err := builder.AddFragment(fragment); err != nil {
			t.Fatalf("AddFragment(%q): %v", fragment, err)
		}
	}
	if completed != 0 {
		t.Errorf("completed %d records, want 0", completed)
	}
}

func TestBuilderConsecutiveMarkersEmitEmptyRecord(t *testing.T) {
	builder := NewBuilder("BlogContext")
	var texts []string
	builder.SetCompletionHandler(func(record *entry.Record) error {
		texts = append(texts, record.Text())
		return nil
	})

	for _, fragment := range []string{"SELECT 1", entry.Newline, entry.Newline} {
		if err := builder.AddFragment(fragment); err != nil {
			t.Fatalf("AddFragment: %v", err)
		}
	}
	if want := []string{"SELECT 1", ""}; !equalStrings(texts, want) {
		t.Errorf("texts = %q, want %q", texts, want)
	}
}

func TestBuilderReentrantHandlerStartsFreshRecord(t *testing.T) {
	builder := NewBuilder("BlogContext")
	var texts []string
	builder.SetCompletionHandler(func(record *entry.Record) error {
		texts = append(texts, record.Text())
		if record.Text() == "outer" {
			// Runs outside the builder's lock; must not deadlock and
			// must not see the completed fragments.
			if err := builder.AddFragment("inner"); err != nil {
				return err
			}
			return builder.AddFragment(entry.Newline)
		}
		return nil
	})

	if err := builder.AddFragment("outer"); err != nil {
		t.Fatal(err)
	}
	if err := builder.AddFragment(entry.Newline); err != nil {
		t.Fatal(err)
	}
	if want := []string{"outer", "inner"}; !equalStrings(texts, want) {
		t.Errorf("texts = %q, want %q", texts, want)
	}
}

func TestBuilderWithoutHandlerDropsRecord(t *testing.T) {
	builder := NewBuilder("BlogContext")
	if err := builder.AddFragment("SELECT 1"); err != nil {
		t.Fatal(err)
	}
	if err := builder.AddFragment(entry.Newline); err != nil {
		t.Fatal(err)
	}
	if builder.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", builder.Pending())
	}
}

func TestRouterDeliversToEverySinkInOrder(t *testing.T) {
	router := NewRouter()
	var order []string
	sinks := []*recordingSink{
		{name: "first", log: &order},
		{name: "second", log: &order},
		{name: "third", log: &order},
	}
	for _, sink := range sinks {
		router.RegisterSink(sink)
	}

	if err := router.AddFragment("BlogContext", "SELECT 1"); err != nil {
		t.Fatal(err)
	}
	if err := router.Complete("BlogContext"); err != nil {
		t.Fatal(err)
	}

	if want := []string{"first", "second", "third"}; !equalStrings(order, want) {
		t.Errorf("delivery order = %q, want %q", order, want)
	}
	for _, sink := range sinks {
		if got := sink.texts(); !equalStrings(got, []string{"SELECT 1"}) {
			t.Errorf("sink %s received %q", sink.name, got)
		}
	}
	// Every sink sees the same record instance.
	if sinks[0].records[0] != sinks[2].records[0] {
		t.Error("sinks received different record instances")
	}
}

func TestRouterDuplicateRegistrationDeliversTwice(t *testing.T) {
	router := NewRouter()
	sink := &recordingSink{}
	router.RegisterSink(sink)
	router.RegisterSink(sink)

	if err := router.WriteLine("BlogContext", "SELECT 1"); err != nil {
		t.Fatal(err)
	}
	if err := router.Complete("BlogContext"); err != nil {
		t.Fatal(err)
	}
	if got := len(sink.texts()); got != 2 {
		t.Errorf("sink received %d records, want 2", got)
	}
}

func TestRouterStopsAtFirstSinkError(t *testing.T) {
	router := NewRouter()
	var order []string
	failure := errors.New("disk full")
	router.RegisterSink(&recordingSink{name: "first", log: &order})
	router.RegisterSink(&recordingSink{name: "failing", log: &order, err: failure})
	last := &recordingSink{name: "last", log: &order}
	router.RegisterSink(last)

	if err := router.AddFragment("BlogContext", "SELECT 1"); err != nil {
		t.Fatal(err)
	}
	err := router.Complete("BlogContext")
	if !errors.Is(err, failure) {
		t.Fatalf("Complete error = %v, want %v", err, failure)
	}
	if want := []string{"first", "failing"}; !equalStrings(order, want) {
		t.Errorf("delivery order = %q, want %q", order, want)
	}
	if len(last.texts()) != 0 {
		t.Error("sink after the failing one received the record")
	}

	// The assembler already cleared its fragments; the next record is
	// independent of the failed one.
	router.AddFragment("BlogContext", "SELECT 2")
	router.Complete("BlogContext")
	if got := last.texts(); len(got) != 0 {
		t.Errorf("last sink received %q after a second failure", got)
	}
}

func TestRouterLookupIgnoresCase(t *testing.T) {
	router := NewRouter()
	sink := &recordingSink{}
	router.RegisterSink(sink)

	if router.Assembler("BlogContext") != router.Assembler("blogcontext") {
		t.Fatal("case variants returned different assemblers")
	}

	router.AddFragment("BlogContext", "SELECT ")
	router.AddFragment("BLOGCONTEXT", "1")
	router.Complete("blogContext")

	if len(sink.records) != 1 {
		t.Fatalf("got %d records, want 1", len(sink.records))
	}
	if sink.records[0].Text() != "SELECT 1" {
		t.Errorf("Text = %q", sink.records[0].Text())
	}
	if sink.records[0].SourceName() != "BlogContext" {
		t.Errorf("SourceName = %q, want the first spelling", sink.records[0].SourceName())
	}
}

func TestRouterSourcesAreIndependent(t *testing.T) {
	router := NewRouter()
	sink := &recordingSink{}
	router.RegisterSink(sink)

	router.AddFragment("Blogs", "SELECT * FROM Blogs")
	router.AddFragment("Posts", "SELECT * FROM Posts")
	router.Complete("Posts")
	router.Complete("Blogs")

	if want := []string{"SELECT * FROM Posts", "SELECT * FROM Blogs"}; !equalStrings(sink.texts(), want) {
		t.Errorf("texts = %q, want %q", sink.texts(), want)
	}
}

func TestRouterConcurrentSources(t *testing.T) {
	router := NewRouter()
	sink := &recordingSink{}
	router.RegisterSink(sink)

	const sources = 8
	const perSource = 50
	var waitGroup sync.WaitGroup
	for i := range sources {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			hook := router.Fragments(fmt.Sprintf("Context%d", i))
			for j := range perSource {
				hook(fmt.Sprintf("SELECT %d", j))
				hook(entry.Newline)
			}
		}()
	}
	waitGroup.Wait()

	if got := len(sink.texts()); got != sources*perSource {
		t.Errorf("got %d records, want %d", got, sources*perSource)
	}
}

func TestRouterWriterTreatsEachWriteAsFragment(t *testing.T) {
	router := NewRouter()
	sink := &recordingSink{}
	router.RegisterSink(sink)

	writer := router.Writer("BlogContext")
	io.WriteString(writer, "SELECT 1"+entry.Newline)
	io.WriteString(writer, "-- Completed in 3 ms with result: 1"+entry.Newline)
	n, err := io.WriteString(writer, entry.Newline)
	if err != nil || n != len(entry.Newline) {
		t.Fatalf("WriteString(marker) = %d, %v", n, err)
	}

	want := "SELECT 1" + entry.Newline + "-- Completed in 3 ms with result: 1" + entry.Newline
	if got := sink.texts(); !equalStrings(got, []string{want}) {
		t.Errorf("texts = %q, want %q", got, want)
	}
}

func TestRouterWriterReportsSinkError(t *testing.T) {
	router := NewRouter()
	failure := errors.New("broken")
	router.RegisterSink(&recordingSink{err: failure})

	writer := router.Writer("BlogContext")
	n, err := io.WriteString(writer, entry.Newline)
	if !errors.Is(err, failure) {
		t.Errorf("error = %v, want %v", err, failure)
	}
	if n != len(entry.Newline) {
		t.Errorf("n = %d, want %d", n, len(entry.Newline))
	}
}

func TestRouterAssemblerFactory(t *testing.T) {
	var created []string
	router := NewRouter(WithAssemblerFactory(func(sourceName string) Assembler {
		created = append(created, sourceName)
		return NewBuilder(sourceName)
	}))

	router.Assembler("Blogs")
	router.Assembler("blogs")
	router.Assembler("Posts")

	if want := []string{"Blogs", "Posts"}; !equalStrings(created, want) {
		t.Errorf("created = %q, want %q", created, want)
	}
}

func TestRouterPanicsOnInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		call func(*Router)
	}{
		{"empty source", func(r *Router) { r.Assembler("") }},
		{"nil sink", func(r *Router) { r.RegisterSink(nil) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			test.call(NewRouter())
		})
	}
}
