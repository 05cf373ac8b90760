package materialize

import (
	"fmt"
	"path/filepath"

	"workshop/pkg/blueprint"
)

// Effect is a single filesystem change produced by planning a tree.
type Effect interface {
	fmt.Stringer
	effect()
}

// MakeDir creates Path and any missing parents.
type MakeDir struct {
	Path string
}

// CopyPiece copies the piece Source (relative to the pieces root) to Target.
type CopyPiece struct {
	Source string
	Target string
}

func (MakeDir) effect()   {}
func (CopyPiece) effect() {}

func (m MakeDir) String() string {
	return "mkdir " + m.Path
}

func (c CopyPiece) String() string {
	return fmt.Sprintf("copy %s -> %s", c.Source, c.Target)
}

// PlanSections plans a section map (Blueprint.Default or an Option tree)
// under target. The root section is flattened onto target; any other
// section becomes a subdirectory named after it.
func PlanSections(sections blueprint.Directory, target string) []Effect {
	var effects []Effect
	for _, section := range sections {
		if section.Name == blueprint.RootSection {
			if dir, ok := section.Node.(blueprint.Directory); ok {
				effects = append(effects, Plan(dir, target)...)
				continue
			}
		}
		effects = append(effects, Plan(blueprint.Directory{section}, target)...)
	}
	return effects
}

// Plan walks dir depth-first in declaration order. Each directory is
// created before anything inside it.
func Plan(dir blueprint.Directory, base string) []Effect {
	var effects []Effect
	for _, e := range dir {
		path := filepath.Join(base, filepath.FromSlash(e.Name))
		switch n := e.Node.(type) {
		case blueprint.Directory:
			effects = append(effects, MakeDir{Path: path})
			effects = append(effects, Plan(n, path)...)
		case blueprint.Piece:
			effects = append(effects, CopyPiece{
				Source: filepath.FromSlash(string(n)),
				Target: path,
			})
		}
	}
	return effects
}
