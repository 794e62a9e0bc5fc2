package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/docmirror/internal/model"
)

// TestSanitizeFilename tests title to file name mapping.
func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "strips colon and exclamation", title: "Getting Started: Intro!", want: "Getting Started Intro"},
		{name: "empty title falls back to index", title: "", want: "index"},
		{name: "only punctuation degenerates to empty", title: "!!!", want: ""},
		{name: "keeps underscore and hyphen", title: "api_v2-reference", want: "api_v2-reference"},
		{name: "drops path separators", title: "../etc/passwd", want: "etcpasswd"},
		{name: "trims trailing space left by filtering", title: "Install (macOS)  ", want: "Install macOS"},
		{name: "keeps leading space", title: " Lead", want: " Lead"},
		{name: "keeps unicode letters", title: "Café — Überblick", want: "Café  Überblick"},
		{name: "composes decomposed accents", title: "Cafe\u0301", want: "Caf\u00e9"},
		{name: "drops symbols and tabs", title: "Price\t€ 10 ★", want: "Price 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeFilename(tt.title); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

// TestStemFor tests the guarded stem used for file names.
func TestStemFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{title: "!!!", want: "index"},
		{title: "", want: "index"},
		{title: "   ", want: "index"},
		{title: "Guide", want: "Guide"},
	}

	for _, tt := range tests {
		if got := StemFor(tt.title); got != tt.want {
			t.Errorf("StemFor(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

// TestEnsureDirectory tests output directory creation.
func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b", "docs")
		if err := EnsureDirectory(dir); err != nil {
			t.Fatalf("EnsureDirectory failed: %v", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		for range 2 {
			if err := EnsureDirectory(dir); err != nil {
				t.Fatalf("EnsureDirectory failed: %v", err)
			}
		}
	})

	t.Run("fails when a file is in the way", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		err := EnsureDirectory(filepath.Join(blocker, "docs"))
		if !errors.Is(err, ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
	})
}

// TestSinkWriteDocument tests writing Markdown files.
func TestSinkWriteDocument(t *testing.T) {
	t.Parallel()

	t.Run("writes stem.md", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sink := NewSink(dir)

		path, err := sink.WriteDocument("Guide", "# Guide\n")
		if err != nil {
			t.Fatalf("WriteDocument failed: %v", err)
		}
		if path != filepath.Join(dir, "Guide.md") {
			t.Errorf("unexpected path %q", path)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(got) != "# Guide\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("later write overwrites earlier one", func(t *testing.T) {
		t.Parallel()

		sink := NewSink(t.TempDir())
		if _, err := sink.WriteDocument("Same", "first, and longer"); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		path, err := sink.WriteDocument("Same", "second")
		if err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(got) != "second" {
			t.Errorf("expected overwrite, got %q", got)
		}
	})

	t.Run("concurrent writes to one path never interleave", func(t *testing.T) {
		t.Parallel()

		sink := NewSink(t.TempDir())
		contents := []string{
			strings.Repeat("a", 64*1024),
			strings.Repeat("b", 64*1024),
			strings.Repeat("c", 64*1024),
		}

		var wg sync.WaitGroup
		for _, c := range contents {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := sink.WriteDocument("Collide", c); err != nil {
					t.Errorf("write failed: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := os.ReadFile(sink.PathFor("Collide"))
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		matched := false
		for _, c := range contents {
			if string(got) == c {
				matched = true
			}
		}
		if !matched {
			t.Error("file content is a mix of several writes")
		}
	})

	t.Run("missing directory returns ErrIO", func(t *testing.T) {
		t.Parallel()

		sink := NewSink(filepath.Join(t.TempDir(), "missing"))
		_, err := sink.WriteDocument("Guide", "x")
		if !errors.Is(err, ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
	})
}

// TestSinkWrite tests writing an OutputFile at its own path.
func TestSinkWrite(t *testing.T) {
	t.Parallel()

	sink := NewSink(t.TempDir())
	file := model.OutputFile{Path: sink.PathFor("API Reference"), Content: "# API\n"}
	if err := sink.Write(file); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(sink.Dir(), "API Reference.md"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != file.Content {
		t.Errorf("unexpected content %q", got)
	}
}

// TestSinkPrepare tests output directory creation through the sink.
func TestSinkPrepare(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "docs", "v2")
	sink := NewSink(dir)
	if err := sink.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if _, err := sink.WriteDocument("index", "# Home\n"); err != nil {
		t.Errorf("write after Prepare failed: %v", err)
	}
}
