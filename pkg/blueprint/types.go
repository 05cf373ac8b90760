package blueprint

// RootSection is the section name that materializes onto the target
// directory itself instead of a subdirectory.
const RootSection = "root"

// Node is a blueprint tree node: either a Directory or a Piece.
type Node interface {
	node()
}

// Directory is a subdirectory whose entries are kept in declaration order.
type Directory []Entry

// Piece is the path of a source file relative to the pieces directory.
type Piece string

func (Directory) node() {}
func (Piece) node()     {}

type Entry struct {
	Name string
	Node Node
}

// Lookup returns the node stored under name.
func (d Directory) Lookup(name string) (Node, bool) {
	for _, e := range d {
		if e.Name == name {
			return e.Node, true
		}
	}
	return nil, false
}

// Option is a named optional section group. Its Tree has the same shape as
// Blueprint.Default.
type Option struct {
	Name string
	Tree Directory
}

type Blueprint struct {
	ID          string
	Name        string
	Description string
	Default     Directory
	Optional    []Option
}

// Option returns the optional section with the given name.
func (b *Blueprint) Option(name string) (Option, bool) {
	for _, o := range b.Optional {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

func (b *Blueprint) OptionNames() []string {
	names := make([]string, 0, len(b.Optional))
	for _, o := range b.Optional {
		names = append(names, o.Name)
	}
	return names
}

// Pieces returns every piece reference in declaration order, default tree
// first. Duplicates are kept.
func (b *Blueprint) Pieces() []string {
	var refs []string
	refs = collectPieces(b.Default, refs)
	for _, o := range b.Optional {
		refs = collectPieces(o.Tree, refs)
	}
	return refs
}

func collectPieces(d Directory, refs []string) []string {
	for _, e := range d {
		switch n := e.Node.(type) {
		case Directory:
			refs = collectPieces(n, refs)
		case Piece:
			refs = append(refs, string(n))
		}
	}
	return refs
}

// Summary describes a blueprint found on disk. Err is set when the file
// exists but could not be loaded.
type Summary struct {
	ID          string
	Name        string
	Description string
	Err         error
}
