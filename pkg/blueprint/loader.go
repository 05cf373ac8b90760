package blueprint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const (
	filePrefix  = "blueprint_"
	fileSuffix  = ".yaml"
	filePattern = filePrefix + "*" + fileSuffix
)

// Loader reads blueprint definitions from a directory.
type Loader struct {
	fs billy.Filesystem
}

func NewLoader(fs billy.Filesystem) *Loader {
	return &Loader{fs: fs}
}

func NewDirLoader(dir string) *Loader {
	return NewLoader(osfs.New(dir))
}

// FileName maps a blueprint identifier to its definition file name.
func FileName(id string) string {
	return filePrefix + id + fileSuffix
}

// Path is the location Load reads for id, used in user-facing messages.
func (l *Loader) Path(id string) string {
	return filepath.Join(l.fs.Root(), FileName(id))
}

func (l *Loader) Load(id string) (*Blueprint, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w: invalid identifier %q", ErrDefinitionNotFound, id)
	}

	name := FileName(id)
	f, err := l.fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q not found at %s", ErrDefinitionNotFound, id, l.Path(id))
		}
		return nil, fmt.Errorf("failed to open blueprint %q: %w", id, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint %q: %w", id, err)
	}

	bp, err := Parse(id, data)
	if err != nil {
		return nil, fmt.Errorf("blueprint %q: %w", id, err)
	}
	return bp, nil
}

// List returns every blueprint in the directory sorted by identifier. A
// missing directory yields an empty list.
func (l *Loader) List() ([]Summary, error) {
	entries, err := l.fs.ReadDir(".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blueprints directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(filePattern, entry.Name())
		if err != nil || !ok {
			continue
		}

		id := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), filePrefix), fileSuffix)
		s := Summary{ID: id}
		bp, err := l.Load(id)
		if err != nil {
			s.Err = err
		} else {
			s.Name = bp.Name
			s.Description = bp.Description
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}
