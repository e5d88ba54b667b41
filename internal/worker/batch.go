package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// SaveJob writes one file through the pool. Used for the fan-out of
// statement saves, where order is irrelevant but the join is a barrier.
type SaveJob struct {
	Path  string
	Write func(io.Writer) error
}

// Execute executes the save job
func (j *SaveJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &SaveResult{Path: j.Path, Error: err}
	}

	f, err := os.Create(j.Path)
	if err != nil {
		return &SaveResult{Path: j.Path, Error: fmt.Errorf("create %s: %w", j.Path, err)}
	}

	werr := j.Write(f)
	cerr := f.Close()
	if werr != nil {
		return &SaveResult{Path: j.Path, Error: fmt.Errorf("write %s: %w", j.Path, werr)}
	}
	if cerr != nil {
		return &SaveResult{Path: j.Path, Error: fmt.Errorf("close %s: %w", j.Path, cerr)}
	}

	return &SaveResult{Path: j.Path}
}

// SaveResult represents the result of a save job
type SaveResult struct {
	Path  string
	Error error
}

// GetError returns the error from the save result
func (r *SaveResult) GetError() error {
	return r.Error
}

// ReadURLsFromFile reads URLs from a file (one per line), skipping blanks
// and comment lines and deduplicating.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
