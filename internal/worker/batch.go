package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/canisense/internal/model"
)

// Analyzer turns one recording into a report. Implementations must build a
// fresh pipeline per call; a pipeline is never shared between jobs.
type Analyzer interface {
	AnalyzeRecording(ctx context.Context, path string) (*model.Report, error)
}

// AnalysisJob represents one recording to analyze
type AnalysisJob struct {
	Index    int
	Path     string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.AnalyzeRecording(ctx, j.Path)
	return &AnalysisResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// AnalysisResult represents the result of an analysis job
type AnalysisResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis result
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple recordings concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessRecordings analyzes every path and returns results in input order.
// Duplicate paths are analyzed once.
func (b *BatchProcessor) ProcessRecordings(ctx context.Context, paths []string) []*AnalysisResult {
	paths = dedupe(paths)
	if len(paths) == 0 {
		return []*AnalysisResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		if !pool.Submit(&AnalysisJob{Index: i, Path: path, Analyzer: b.analyzer}) {
			break
		}
	}

	results := pool.Wait()

	done := make(map[int]bool, len(results))
	out := make([]*AnalysisResult, 0, len(paths))
	for _, r := range results {
		ar := r.(*AnalysisResult)
		done[ar.Index] = true
		out = append(out, ar)
	}
	// Jobs dropped by cancellation report the context error
	for i, path := range paths {
		if !done[i] {
			out = append(out, &AnalysisResult{Index: i, Path: path, Error: context.Cause(ctx)})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads recording paths from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AnalysisResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read recording list: %w", err)
	}
	return b.ProcessRecordings(ctx, paths), nil
}

// ReadPathsFromFile reads recording paths from a file (one per line).
// Blank lines and lines starting with # are skipped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return dedupe(paths), nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
