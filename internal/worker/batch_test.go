package worker

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/canisense/internal/model"
)

// MockAnalyzer implements Analyzer
type MockAnalyzer struct {
	ShouldError bool
	calls       int32
}

func (m *MockAnalyzer) AnalyzeRecording(ctx context.Context, path string) (*model.Report, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("analysis error")
	}
	return &model.Report{
		ID: path,
		Interpretation: model.UserInterpretation{
			SyntheticState: model.StateCalm,
		},
	}, nil
}

func TestBatchProcessor_ProcessRecordings(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	paths := []string{"a.cnr", "b.cnr", "c.cnr", "d.cnr", "e.cnr"}
	results := processor.ProcessRecordings(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: path %s, want %s (input order)", i, res.Path, paths[i])
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Report == nil || res.Report.ID != res.Path {
			t.Errorf("missing report for %s", res.Path)
		}
	}
}

func TestBatchProcessor_Dedupes(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	results := processor.ProcessRecordings(context.Background(), []string{"a", "a", "", "b"})
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if got := atomic.LoadInt32(&analyzer.calls); got != 2 {
		t.Errorf("analyzer called %d times, want 2", got)
	}
}

func TestBatchProcessor_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{ShouldError: true}, 2)

	results := processor.ProcessRecordings(context.Background(), []string{"a.cnr"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	results := processor.ProcessRecordings(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockAnalyzer{}, 2)
	results := processor.ProcessRecordings(ctx, []string{"a", "b", "c"})

	if len(results) != 3 {
		t.Fatalf("expected a result per path, got %d", len(results))
	}
	for _, r := range results {
		if r.Error == nil && r.Report == nil {
			t.Errorf("%s: neither report nor error", r.Path)
		}
	}
}

func TestReadPathsFromFile(t *testing.T) {
	content := "a.cnr\n# comment\nb.cnr\n   \n  c.cnr  \na.cnr\n"

	tmpfile, err := os.CreateTemp(t.TempDir(), "recordings")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{"a.cnr", "b.cnr", "c.cnr"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, p)
		}
	}

	results, err := NewBatchProcessor(&MockAnalyzer{}, 2).ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPathsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
	if _, err := NewBatchProcessor(&MockAnalyzer{}, 1).ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestAnalysisResult_GetError(t *testing.T) {
	r1 := &AnalysisResult{Path: "a"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("analysis failed")
	r2 := &AnalysisResult{Path: "a", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
