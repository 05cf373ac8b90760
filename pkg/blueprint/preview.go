package blueprint

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Preview writes a tree rendering of the default and optional sections.
func Preview(w io.Writer, bp *Blueprint) {
	r := lipgloss.NewRenderer(w)
	heading := r.NewStyle().Bold(true)
	piece := r.NewStyle().Faint(true)

	fmt.Fprintln(w, heading.Render("Default:"))
	previewDir(w, bp.Default, "  ", piece)

	if len(bp.Optional) == 0 {
		return
	}
	fmt.Fprintln(w, heading.Render("Optional:"))
	for i, opt := range bp.Optional {
		last := i == len(bp.Optional)-1
		fmt.Fprintln(w, "  "+connector(last)+opt.Name)
		previewDir(w, opt.Tree, "  "+extension(last), piece)
	}
}

func previewDir(w io.Writer, d Directory, prefix string, piece lipgloss.Style) {
	for i, e := range d {
		last := i == len(d)-1
		switch n := e.Node.(type) {
		case Directory:
			fmt.Fprintln(w, prefix+connector(last)+e.Name+"/")
			previewDir(w, n, prefix+extension(last), piece)
		case Piece:
			fmt.Fprintln(w, prefix+connector(last)+e.Name+" "+piece.Render("<- "+string(n)))
		}
	}
}

func connector(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func extension(last bool) string {
	if last {
		return "    "
	}
	return "│   "
}
