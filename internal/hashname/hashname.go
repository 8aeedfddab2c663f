package hashname

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/capekit/internal/constant"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var ErrInvalidFolder = errors.New("invalid folder")

// ConfirmFunc asks the operator whether count files may be renamed.
type ConfirmFunc func(ctx context.Context, count int) (bool, error)

// Record describes one completed rename.
type Record struct {
	Digest       string
	OriginalName string
	Folder       string
	Size         int64
}

// Recorder persists completed renames.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Summary is the outcome of a Run.
type Summary struct {
	Candidates int
	Renamed    int
	Skipped    int
	Failed     int
	Aborted    bool
}

// Renamer renames the regular files of one folder to <sha256>.exe.
type Renamer struct {
	dir      string
	confirm  ConfirmFunc
	recorder Recorder
	progress func()
	exclude  []string
	out      io.Writer
	errOut   io.Writer
	rename   func(oldpath, newpath string) error
}

type Option func(*Renamer)

func WithConfirm(fn ConfirmFunc) Option {
	return func(r *Renamer) { r.confirm = fn }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Renamer) { r.recorder = rec }
}

// WithProgress registers a callback invoked once per processed candidate.
func WithProgress(fn func()) Option {
	return func(r *Renamer) { r.progress = fn }
}

// WithExclude keeps the given files out of the candidate list even when they
// sit inside the folder.
func WithExclude(paths ...string) Option {
	return func(r *Renamer) {
		for _, p := range paths {
			if p != "" {
				r.exclude = append(r.exclude, absPath(p))
			}
		}
	}
}

func WithOutput(out, errOut io.Writer) Option {
	return func(r *Renamer) {
		r.out = out
		r.errOut = errOut
	}
}

func New(dir string, opts ...Option) *Renamer {
	r := &Renamer{
		dir:    dir,
		out:    os.Stdout,
		errOut: os.Stderr,
		rename: os.Rename,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetName returns the file name a file with the given digest is renamed to.
func TargetName(digest string) string {
	return digest + constant.SampleExt
}

// FileSHA256 returns the lowercase hex SHA-256 digest of the file contents.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for sha256 %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// CheckFolder reports whether the folder exists and is a directory.
func CheckFolder(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidFolder, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidFolder, dir)
	}
	return nil
}

// Candidates lists the names of the regular files directly inside the folder.
func (r *Renamer) Candidates() ([]string, error) {
	if err := CheckFolder(r.dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", r.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || r.excluded(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (r *Renamer) excluded(name string) bool {
	if len(r.exclude) == 0 {
		return false
	}
	path := absPath(filepath.Join(r.dir, name))
	for _, ex := range r.exclude {
		if path == ex {
			return true
		}
	}
	return false
}

// Run hashes and renames every candidate. Per-file failures are counted in
// the summary; only folder and context errors are returned.
func (r *Renamer) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	names, err := r.Candidates()
	if err != nil {
		return sum, err
	}
	sum.Candidates = len(names)
	fmt.Fprintf(r.out, "Found %d file(s) in %s\n", len(names), r.dir)

	if len(names) > 0 && r.confirm != nil {
		ok, err := r.confirm(ctx, len(names))
		if err != nil {
			return sum, fmt.Errorf("confirm rename: %w", err)
		}
		if !ok {
			sum.Aborted = true
			fmt.Fprintln(r.out, "Aborted.")
			return sum, nil
		}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r.renameOne(ctx, name, &sum)
		if r.progress != nil {
			r.progress()
		}
	}

	fmt.Fprintf(r.out, "Renamed %d file(s), %d failed.\n", sum.Renamed, sum.Failed)
	return sum, nil
}

func (r *Renamer) renameOne(ctx context.Context, name string, sum *Summary) {
	logger := logutil.GetLogger(ctx)
	src := filepath.Join(r.dir, name)

	digest, err := FileSHA256(src)
	if err != nil {
		sum.Failed++
		fmt.Fprintf(r.errOut, "Failed to hash %s: %v\n", name, err)
		logger.Error("hash sample failed", zap.String("file", src), zap.Error(err))
		return
	}

	target := TargetName(digest)
	if name == target {
		sum.Skipped++
		fmt.Fprintf(r.out, "Skip: %s already named\n", name)
		return
	}

	dst := filepath.Join(r.dir, target)
	srcInfo, err := os.Lstat(src)
	if err != nil {
		sum.Failed++
		fmt.Fprintf(r.errOut, "Failed to stat %s: %v\n", name, err)
		return
	}
	dstInfo, err := os.Lstat(dst)
	switch {
	case err == nil && !os.SameFile(srcInfo, dstInfo):
		sum.Failed++
		fmt.Fprintf(r.errOut, "Warning: %s already exists, skipping %s\n", target, name)
		logger.Warn("digest collision, rename skipped",
			zap.String("file", src),
			zap.String("target", dst),
		)
		return
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		sum.Failed++
		fmt.Fprintf(r.errOut, "Failed to stat %s: %v\n", target, err)
		return
	}

	if err := r.rename(src, dst); err != nil {
		sum.Failed++
		fmt.Fprintf(r.errOut, "Failed to rename %s: %v\n", name, err)
		logger.Error("rename sample failed", zap.String("file", src), zap.String("target", dst), zap.Error(err))
		return
	}
	sum.Renamed++
	fmt.Fprintf(r.out, "Renamed: %s -> %s\n", name, target)

	if r.recorder == nil {
		return
	}
	rec := Record{
		Digest:       digest,
		OriginalName: name,
		Folder:       r.dir,
		Size:         srcInfo.Size(),
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		logger.Warn("record rename failed", zap.String("digest", digest), zap.Error(err))
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
