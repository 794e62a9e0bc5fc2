package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nao1215/docmirror/internal/model"
)

const (
	// markdownExt is appended to every file name stem.
	markdownExt = ".md"

	dirPerm  = 0750
	filePerm = 0644
)

// EnsureDirectory creates path and any missing parents.
// It is a no-op when the directory already exists.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("%w: failed to create output directory %s: %v", ErrIO, path, err)
	}
	return nil
}

// Sink writes Markdown documents into a single output directory.
// It is safe for concurrent use.
type Sink struct {
	// dir is the output directory. It must exist before WriteDocument is
	// called; see Prepare.
	dir string

	// locks serializes writers of the same path so two pages whose titles
	// sanitize to the same stem never interleave partial writes.
	locks sync.Map // map[string]*sync.Mutex
}

// NewSink returns a Sink that writes into dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Dir returns the output directory.
func (s *Sink) Dir() string {
	return s.dir
}

// Prepare creates the output directory. See EnsureDirectory.
func (s *Sink) Prepare() error {
	return EnsureDirectory(s.dir)
}

// PathFor returns the file path a document with the given stem is written to.
func (s *Sink) PathFor(stem string) string {
	return filepath.Join(s.dir, stem+markdownExt)
}

// WriteDocument writes content to dir/stem.md, replacing any existing file,
// and returns the path written.
func (s *Sink) WriteDocument(stem, content string) (string, error) {
	file := model.OutputFile{Path: s.PathFor(stem), Content: content}
	return file.Path, s.Write(file)
}

// Write stores file.Content at file.Path, truncating any existing file.
// Writers of the same path are serialized.
func (s *Sink) Write(file model.OutputFile) error {
	mu := s.lockFor(file.Path)
	mu.Lock()
	defer mu.Unlock()

	if err := os.WriteFile(file.Path, []byte(file.Content), filePerm); err != nil { //nolint:gosec // mirrored docs are meant to be readable
		return fmt.Errorf("%w: failed to write %s: %v", ErrIO, file.Path, err)
	}
	return nil
}

func (s *Sink) lockFor(path string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex) //nolint:forcetypeassert // only *sync.Mutex is stored
}
