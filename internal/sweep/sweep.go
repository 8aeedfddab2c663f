package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var (
	ErrBaseDirNotFound = errors.New("base directory not found")
	ErrNotDirectory    = errors.New("not a directory")
)

// Result counts what a sweep touched. In dry-run mode Removed stays zero and
// Matched holds the number of targets that would have been acted on.
type Result struct {
	Visited int
	Matched int
	Removed int
	Failed  int
}

// Sweeper walks the immediate children of a base directory and acts on
// named entries inside each of them.
type Sweeper struct {
	base   string
	dryRun bool
	out    io.Writer
	errOut io.Writer

	removeAll func(path string) error
}

type Option func(*Sweeper)

func WithDryRun(v bool) Option {
	return func(s *Sweeper) { s.dryRun = v }
}

// WithOutput sets where progress lines and per-entry failures are printed.
func WithOutput(out, errOut io.Writer) Option {
	return func(s *Sweeper) {
		s.out = out
		s.errOut = errOut
	}
}

func New(base string, opts ...Option) *Sweeper {
	s := &Sweeper{
		base:      base,
		out:       os.Stdout,
		errOut:    os.Stderr,
		removeAll: os.RemoveAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckBase reports whether the base directory exists and is a directory.
func (s *Sweeper) CheckBase() error {
	info, err := os.Stat(s.base)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBaseDirNotFound, s.base)
	}
	if err != nil {
		return fmt.Errorf("stat base dir %s: %w", s.base, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, s.base)
	}
	return nil
}

// AnalysisDirs lists the immediate subdirectories of the base, following
// symlinks, in lexical order.
func (s *Sweeper) AnalysisDirs() ([]string, error) {
	if err := s.CheckBase(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("read base dir %s: %w", s.base, err)
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(s.base, entry.Name())
		if entry.IsDir() || (entry.Type()&fs.ModeSymlink != 0 && isDir(path)) {
			dirs = append(dirs, path)
		}
	}
	return dirs, nil
}

// RemoveSubdir deletes the subdirectory called name from every analysis
// directory that has one.
func (s *Sweeper) RemoveSubdir(ctx context.Context, name string) (Result, error) {
	return s.each(ctx, func(dir string, res *Result) {
		target := filepath.Join(dir, name)
		if !isDir(target) {
			return
		}
		res.Matched++
		s.remove(ctx, target, res)
	})
}

// RemoveFile deletes the regular file called name from every analysis
// directory that has one.
func (s *Sweeper) RemoveFile(ctx context.Context, name string) (Result, error) {
	return s.each(ctx, func(dir string, res *Result) {
		target := filepath.Join(dir, name)
		info, err := os.Lstat(target)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		res.Matched++
		s.remove(ctx, target, res)
	})
}

// ClearSubdirs empties each named subdirectory of every analysis directory,
// keeping the subdirectory itself. The names are checked independently.
func (s *Sweeper) ClearSubdirs(ctx context.Context, names ...string) (Result, error) {
	return s.each(ctx, func(dir string, res *Result) {
		for _, name := range names {
			if ctx.Err() != nil {
				return
			}
			target := filepath.Join(dir, name)
			if !isDir(target) {
				continue
			}
			res.Matched++
			if s.dryRun {
				s.listContents(ctx, target, res)
				continue
			}
			s.clear(ctx, target, res)
		}
	})
}

func (s *Sweeper) each(ctx context.Context, fn func(dir string, res *Result)) (Result, error) {
	var res Result
	dirs, err := s.AnalysisDirs()
	if err != nil {
		return res, err
	}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Visited++
		fn(dir, &res)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Sweeper) remove(ctx context.Context, target string, res *Result) {
	if s.dryRun {
		fmt.Fprintf(s.out, "[dry-run] Would remove: %s\n", target)
		return
	}
	if err := s.removeAll(target); err != nil {
		s.fail(ctx, "remove", target, err, res)
		return
	}
	res.Removed++
	fmt.Fprintf(s.out, "Removed: %s\n", target)
}

func (s *Sweeper) clear(ctx context.Context, target string, res *Result) {
	logger := logutil.GetLogger(ctx)
	entries, err := os.ReadDir(target)
	if err != nil {
		s.fail(ctx, "read", target, err, res)
		return
	}
	if len(entries) == 0 {
		logger.Debug("nothing to clear", zap.String("dir", target))
		return
	}
	failed := false
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(target, entry.Name())
		if err := s.removeAll(path); err != nil {
			s.fail(ctx, "remove", path, err, res)
			failed = true
			continue
		}
		res.Removed++
	}
	if !failed {
		fmt.Fprintf(s.out, "Cleared: %s\n", target)
	}
}

func (s *Sweeper) listContents(ctx context.Context, target string, res *Result) {
	_ = filepath.WalkDir(target, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			s.fail(ctx, "list", path, walkErr, res)
			return nil
		}
		if path == target {
			return nil
		}
		fmt.Fprintf(s.out, "[dry-run] Would delete: %s\n", path)
		return nil
	})
}

func (s *Sweeper) fail(ctx context.Context, op, path string, err error, res *Result) {
	res.Failed++
	fmt.Fprintf(s.errOut, "Failed to %s %s: %v\n", op, path, err)
	logutil.GetLogger(ctx).Error("sweep entry failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
