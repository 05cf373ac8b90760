// Package materialize turns a blueprint into directories and copied piece
// files under a target directory.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"workshop/pkg/blueprint"
	"workshop/pkg/prompt"
)

var (
	// ErrCancelled reports that the user stopped the run. It is not a
	// failure; files already written are left in place.
	ErrCancelled = errors.New("cancelled")

	ErrPieceNotFound = errors.New("piece not found")
)

// Request holds the per-run choices.
type Request struct {
	// Target is the directory to create, resolved through the Locator.
	// Empty means ask, defaulting to the blueprint name.
	Target string
	// Include names optional sections enabled without asking.
	Include []string
	// SkipConfirm answers every question with its default and includes
	// every optional section.
	SkipConfirm bool
	// DryRun plans and reports effects without touching the filesystem.
	DryRun bool
}

// Failure is an effect that could not be applied.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Result paths are reported under Target, the directory as the user named it.
type Result struct {
	Target      string
	Included    []string
	Excluded    []string
	Directories []string
	Files       []string
	// Skipped lists piece sources that did not exist.
	Skipped  []string
	Failures []Failure
	// Planned is only filled on a dry run.
	Planned []Effect
}

// Locator maps a target path to the filesystem that holds it and the
// target's path inside that filesystem.
type Locator func(target string) (billy.Filesystem, string, error)

// FixedWorkspace places every target inside fs unchanged.
func FixedWorkspace(fs billy.Filesystem) Locator {
	return func(target string) (billy.Filesystem, string, error) {
		return fs, target, nil
	}
}

type Options struct {
	// Workspace is the filesystem the target directory is created in.
	Workspace billy.Filesystem
	// Locate, when set, replaces Workspace and is called with the target
	// however it was obtained (argument, prompt answer or blueprint name).
	Locate Locator
	// Pieces is the read-only filesystem piece references resolve against.
	Pieces   billy.Filesystem
	Prompter prompt.Prompter
	Logger   *zap.Logger
	// Out receives progress lines.
	Out io.Writer
}

type Materializer struct {
	locate   Locator
	pieces   billy.Filesystem
	prompter prompt.Prompter
	logger   *zap.Logger
	out      io.Writer
}

func New(opts Options) *Materializer {
	m := &Materializer{
		locate:   opts.Locate,
		pieces:   opts.Pieces,
		prompter: opts.Prompter,
		logger:   opts.Logger,
		out:      opts.Out,
	}
	if m.locate == nil {
		m.locate = FixedWorkspace(opts.Workspace)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.out == nil {
		m.out = io.Discard
	}
	return m
}

// site is where one run writes: the filesystem, the target inside it and
// the target as the user named it.
type site struct {
	fs      billy.Filesystem
	rel     string
	display string
}

// show maps a path under rel to the same path under display.
func (s *site) show(p string) string {
	r, err := filepath.Rel(s.rel, p)
	if err != nil {
		return p
	}
	return filepath.Join(s.display, r)
}

func (s *site) showEffect(e Effect) Effect {
	switch e := e.(type) {
	case MakeDir:
		return MakeDir{Path: s.show(e.Path)}
	case CopyPiece:
		return CopyPiece{Source: e.Source, Target: s.show(e.Target)}
	}
	return e
}

// Materialize resolves the target directory, applies the default sections
// and then each optional section that is enabled or confirmed. Per-entry
// failures are collected in the Result and do not stop the run.
//
// On cancellation the partial Result is returned with an error wrapping
// ErrCancelled (and the context error, if the context ended).
func (m *Materializer) Materialize(ctx context.Context, bp *blueprint.Blueprint, req Request) (*Result, error) {
	fmt.Fprintf(m.out, "Template: %s\n", bp.Name)
	fmt.Fprintf(m.out, "Description: %s\n", bp.Description)

	st, err := m.resolveTarget(ctx, bp, req)
	if err != nil {
		return nil, err
	}

	res := &Result{Target: st.display}
	log := m.logger.With(zap.String("blueprint", bp.ID), zap.String("target", st.display))

	if !req.DryRun {
		if err := st.fs.MkdirAll(st.rel, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create target directory: %w", err)
		}
	}

	fmt.Fprintln(m.out, "\nCreating default files...")
	if err := m.run(ctx, log, st, PlanSections(bp.Default, st.rel), res, req.DryRun); err != nil {
		return res, err
	}

	include := make(map[string]bool, len(req.Include))
	for _, name := range req.Include {
		include[name] = true
		if _, ok := bp.Option(name); !ok {
			log.Warn("unknown optional section", zap.String("option", name))
		}
	}

	if len(bp.Optional) > 0 {
		fmt.Fprintln(m.out, "\nProcessing optional files...")
	}
	for _, opt := range bp.Optional {
		ok := include[opt.Name] || req.SkipConfirm
		if !ok {
			ok, err = m.prompter.Confirm(ctx, fmt.Sprintf("Include optional section '%s'?", opt.Name))
			if err != nil {
				return res, m.promptError(ctx, err)
			}
		}
		if !ok {
			res.Excluded = append(res.Excluded, opt.Name)
			continue
		}

		fmt.Fprintf(m.out, "Including optional section: %s\n", opt.Name)
		res.Included = append(res.Included, opt.Name)
		optLog := log.With(zap.String("option", opt.Name))
		if err := m.run(ctx, optLog, st, PlanSections(opt.Tree, st.rel), res, req.DryRun); err != nil {
			return res, err
		}
	}

	if req.DryRun {
		fmt.Fprintf(m.out, "\nDry run complete, nothing written to '%s'\n", st.display)
	} else {
		fmt.Fprintf(m.out, "\nTemplate created at '%s'\n", st.display)
	}
	return res, nil
}

func (m *Materializer) resolveTarget(ctx context.Context, bp *blueprint.Blueprint, req Request) (*site, error) {
	target := req.Target
	if target == "" {
		if req.SkipConfirm {
			target = bp.Name
		} else {
			answer, err := m.prompter.Input(ctx, "Enter target directory name", bp.Name)
			if err != nil {
				return nil, m.promptError(ctx, err)
			}
			target = answer
		}
	}
	if target == "" {
		target = bp.Name
	}
	target = filepath.Clean(target)

	fs, rel, err := m.locate(target)
	if err != nil {
		return nil, fmt.Errorf("failed to locate target directory %s: %w", target, err)
	}
	st := &site{fs: fs, rel: rel, display: target}

	if _, err := fs.Stat(rel); err == nil {
		if !req.SkipConfirm {
			ok, err := m.prompter.Confirm(ctx, fmt.Sprintf("Directory '%s' exists. Continue?", target))
			if err != nil {
				return nil, m.promptError(ctx, err)
			}
			if !ok {
				return nil, ErrCancelled
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to inspect target directory: %w", err)
	}

	return st, nil
}

func (m *Materializer) promptError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return interrupted(ctx)
	}
	return fmt.Errorf("failed to prompt: %w", err)
}

func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

// run applies effects in order and stops before the next one once ctx ends.
func (m *Materializer) run(ctx context.Context, log *zap.Logger, st *site, effects []Effect, res *Result, dryRun bool) error {
	for _, e := range effects {
		if ctx.Err() != nil {
			return interrupted(ctx)
		}
		if dryRun {
			shown := st.showEffect(e)
			res.Planned = append(res.Planned, shown)
			fmt.Fprintf(m.out, "Would %s\n", shown)
			continue
		}
		m.apply(log, st, e, res)
	}
	return nil
}

func (m *Materializer) apply(log *zap.Logger, st *site, e Effect, res *Result) {
	switch e := e.(type) {
	case MakeDir:
		path := st.show(e.Path)
		if err := st.fs.MkdirAll(e.Path, 0o755); err != nil {
			log.Error("failed to create directory", zap.String("path", path), zap.Error(err))
			res.Failures = append(res.Failures, Failure{Path: path, Err: err})
			return
		}
		res.Directories = append(res.Directories, path)

	case CopyPiece:
		path := st.show(e.Target)
		err := m.copyPiece(st.fs, e)
		switch {
		case errors.Is(err, ErrPieceNotFound):
			log.Warn("piece not found, skipping", zap.String("piece", e.Source), zap.String("path", path))
			res.Skipped = append(res.Skipped, e.Source)
		case err != nil:
			log.Error("failed to create file", zap.String("path", path), zap.Error(err))
			res.Failures = append(res.Failures, Failure{Path: path, Err: err})
		default:
			res.Files = append(res.Files, path)
			fmt.Fprintf(m.out, "Created: %s\n", path)
		}
	}
}

// copyPiece streams the piece bytes into the target, replacing any existing
// file. New files take the piece's permission bits plus owner write, so a
// rerun can always overwrite them.
func (m *Materializer) copyPiece(ws billy.Filesystem, c CopyPiece) error {
	info, err := m.pieces.Stat(c.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrPieceNotFound, c.Source)
		}
		return fmt.Errorf("failed to stat piece %s: %w", c.Source, err)
	}
	if info.IsDir() {
		return fmt.Errorf("piece %s is a directory", c.Source)
	}

	src, err := m.pieces.Open(c.Source)
	if err != nil {
		return fmt.Errorf("failed to open piece %s: %w", c.Source, err)
	}
	defer src.Close()

	if err := ws.MkdirAll(filepath.Dir(c.Target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(c.Target), err)
	}

	dst, err := ws.OpenFile(c.Target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0o200)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write %s: %w", c.Target, err)
	}
	return dst.Close()
}
