package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveJob_Execute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.txt")

	job := &SaveJob{
		Path: path,
		Write: func(w io.Writer) error {
			_, err := w.Write([]byte("a\tb\tc\n"))
			return err
		},
	}

	result := job.Execute(context.Background())
	if err := result.GetError(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "a\tb\tc\n" {
		t.Errorf("unexpected file content: %q", string(data))
	}
}

func TestSaveJob_CreateError(t *testing.T) {
	job := &SaveJob{
		Path:  filepath.Join(t.TempDir(), "missing", "statement.txt"),
		Write: func(w io.Writer) error { return nil },
	}

	result := job.Execute(context.Background())
	if result.GetError() == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestSaveJob_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "statement.txt")
	job := &SaveJob{
		Path:  path,
		Write: func(w io.Writer) error { return nil },
	}

	result := job.Execute(ctx)
	if result.GetError() == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not be created after cancellation")
	}
}

func TestSaveJobs_ThroughPool(t *testing.T) {
	dir := t.TempDir()

	pool := NewPool(3)
	pool.Start()
	for i := 0; i < 10; i++ {
		pool.Submit(&SaveJob{
			Path: filepath.Join(dir, fmt.Sprintf("file%d.txt", i)),
			Write: func(w io.Writer) error {
				_, err := w.Write([]byte("content\n"))
				return err
			},
		})
	}

	results := pool.Wait()
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for _, r := range results {
		if err := r.GetError(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("expected 10 files, got %d", len(entries))
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# companies
https://example.com

https://example.org
https://example.com
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"https://example.com", "https://example.org"}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %d", len(want), len(urls))
	}
	for i, u := range want {
		if urls[i] != u {
			t.Errorf("url %d: expected %q, got %q", i, u, urls[i])
		}
	}
}

func TestReadURLsFromFile_Missing(t *testing.T) {
	if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
