// Package pieces inspects the directory of reusable files that blueprints
// copy from.
package pieces

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
)

// Piece is one file under the pieces root.
type Piece struct {
	// Path is relative to the root, slash separated, as written in blueprints.
	Path string
	Size int64
	MIME string
	Text bool
}

type Catalog struct {
	root string
}

func NewCatalog(root string) *Catalog {
	return &Catalog{root: root}
}

// List walks the root and returns every file, sorted by path. A non-empty
// pattern filters paths with doublestar syntax ("**/*.md").
func (c *Catalog) List(ctx context.Context, pattern string) ([]Piece, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var (
		mu     sync.Mutex
		pieces []Piece
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, c.root, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, rel); !ok {
				return nil
			}
		}

		piece := Piece{Path: rel}
		if info, err := d.Info(); err == nil {
			piece.Size = info.Size()
		}
		if mtype, err := mimetype.DetectFile(p); err == nil {
			piece.MIME = mtype.String()
			piece.Text = isText(mtype)
		}

		mu.Lock()
		pieces = append(pieces, piece)
		mu.Unlock()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk pieces directory: %w", err)
	}

	sort.Slice(pieces, func(i, j int) bool {
		return pieces[i].Path < pieces[j].Path
	})
	return pieces, nil
}

// Missing returns the references that do not name a regular file under the
// root, deduplicated, in first-seen order.
func (c *Catalog) Missing(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	var missing []string
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(ref)))
		if err != nil || info.IsDir() {
			missing = append(missing, ref)
		}
	}
	return missing
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
