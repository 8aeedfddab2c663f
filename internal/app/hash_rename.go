package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	appdb "github.com/xxxsen/capekit/internal/db"
	"github.com/xxxsen/capekit/internal/hashname"
	"github.com/xxxsen/capekit/internal/prompt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// HashRenameCommand renames every regular file in a folder to <sha256>.exe.
type HashRenameCommand struct {
	streams
	folder   string
	yes      bool
	progress bool
	journal  string

	journalPath string
	journalOpen bool
	summary     hashname.Summary
}

func NewHashRenameCommand() *HashRenameCommand { return &HashRenameCommand{} }

func (c *HashRenameCommand) Name() string { return "hash-rename" }

func (c *HashRenameCommand) Desc() string {
	return "Rename every file in a folder to the SHA-256 of its contents plus .exe"
}

func (c *HashRenameCommand) Usage() string { return "hash-rename <folder_path>" }

func (c *HashRenameCommand) Init(f *pflag.FlagSet) {
	f.BoolVarP(&c.yes, "yes", "y", false, "skip the confirmation prompt")
	f.BoolVar(&c.progress, "progress", false, "draw a progress bar on stderr while hashing")
	f.StringVar(&c.journal, "journal", "", "sqlite file recording original names (defaults to config journal_path)")
}

func (c *HashRenameCommand) SetArgs(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("hash-rename requires exactly one <folder_path> argument, got %d", len(args))
	}
	if err := hashname.CheckFolder(args[0]); err != nil {
		return err
	}
	c.folder = args[0]
	return nil
}

// PreRun only resolves the journal path; the journal itself is opened once the
// operator has confirmed the batch.
func (c *HashRenameCommand) PreRun(ctx context.Context) error {
	c.journalPath = firstNonEmpty(c.journal, CurrentConfig().JournalPath)
	logutil.GetLogger(ctx).Info("hash-rename begin",
		zap.String("folder", c.folder),
		zap.String("journal", c.journalPath),
	)
	return nil
}

func (c *HashRenameCommand) Run(ctx context.Context) error {
	opts := []hashname.Option{
		hashname.WithOutput(c.stdout(), c.stderr()),
		hashname.WithConfirm(c.confirm),
	}
	if c.journalPath != "" {
		opts = append(opts,
			hashname.WithExclude(c.journalPath),
			hashname.WithRecorder(&journalRecorder{dao: appdb.SampleRenameDao}),
		)
	}
	if c.progress {
		var bar *progressbar.ProgressBar
		opts = append(opts, hashname.WithProgress(func() {
			if bar == nil {
				bar = c.newProgressBar()
			}
			_ = bar.Add(1)
		}))
		defer func() {
			if bar != nil {
				_ = bar.Finish()
			}
		}()
	}

	summary, err := hashname.New(c.folder, opts...).Run(ctx)
	c.summary = summary
	return err
}

func (c *HashRenameCommand) PostRun(ctx context.Context) error {
	if c.journalOpen {
		if err := appdb.Default().Close(); err != nil {
			logutil.GetLogger(ctx).Warn("close journal failed", zap.Error(err))
		}
		appdb.SetDefault(nil)
		c.journalOpen = false
	}
	logutil.GetLogger(ctx).Info("hash-rename finished",
		zap.Int("candidates", c.summary.Candidates),
		zap.Int("renamed", c.summary.Renamed),
		zap.Int("skipped", c.summary.Skipped),
		zap.Int("failed", c.summary.Failed),
		zap.Bool("aborted", c.summary.Aborted),
	)
	return nil
}

// Summary returns the outcome of the last Run.
func (c *HashRenameCommand) Summary() hashname.Summary { return c.summary }

func (c *HashRenameCommand) confirm(ctx context.Context, count int) (bool, error) {
	if !c.yes {
		question := fmt.Sprintf("Rename %d file(s) to <sha256>.exe? [y/N] ", count)
		ok, err := prompt.Confirm(c.stdin(), c.stdout(), question)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, c.openJournal(ctx)
}

func (c *HashRenameCommand) openJournal(ctx context.Context) error {
	if c.journalPath == "" || c.journalOpen {
		return nil
	}
	db, err := appdb.Open(ctx, c.journalPath, true)
	if err != nil {
		return err
	}
	appdb.SetDefault(db)
	c.journalOpen = true
	return nil
}

// newProgressBar sizes the bar from a fresh listing; -1 draws a spinner when
// the folder can no longer be read.
func (c *HashRenameCommand) newProgressBar() *progressbar.ProgressBar {
	total := -1
	if names, err := hashname.New(c.folder, hashname.WithExclude(c.journalPath)).Candidates(); err == nil {
		total = len(names)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.stderr()),
		progressbar.OptionSetDescription("hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(120*time.Millisecond),
	)
}

type journalRecorder struct {
	dao interface {
		Insert(ctx context.Context, rec appdb.SampleRename) error
	}
}

func (r *journalRecorder) Record(ctx context.Context, rec hashname.Record) error {
	return r.dao.Insert(ctx, appdb.SampleRename{
		Digest:       rec.Digest,
		OriginalName: rec.OriginalName,
		Folder:       absPath(rec.Folder),
		FileSize:     rec.Size,
	})
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func init() {
	RegisterRunner("hash-rename", func() IRunner { return NewHashRenameCommand() })
}
