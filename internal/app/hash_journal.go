package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appdb "github.com/xxxsen/capekit/internal/db"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// HashJournalCommand prints the renames recorded by hash-rename.
type HashJournalCommand struct {
	streams
	journal string
	digest  string
	limit   uint

	opened bool
}

func NewHashJournalCommand() *HashJournalCommand { return &HashJournalCommand{} }

func (c *HashJournalCommand) Name() string { return "hash-journal" }

func (c *HashJournalCommand) Desc() string {
	return "List original names recorded for renamed samples"
}

func (c *HashJournalCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.journal, "journal", "", "sqlite journal written by hash-rename (defaults to config journal_path)")
	f.StringVar(&c.digest, "digest", "", "only show records for this sha256 digest")
	f.UintVar(&c.limit, "limit", 50, "maximum number of records, 0 for all")
}

func (c *HashJournalCommand) PreRun(ctx context.Context) error {
	path := firstNonEmpty(c.journal, CurrentConfig().JournalPath)
	if path == "" {
		return errors.New("hash-journal requires --journal or journal_path in config")
	}
	c.digest = strings.TrimSuffix(strings.TrimSpace(c.digest), ".exe")
	db, err := appdb.Open(ctx, path, false)
	if err != nil {
		return err
	}
	appdb.SetDefault(db)
	c.opened = true
	logutil.GetLogger(ctx).Debug("hash-journal begin", zap.String("journal", path), zap.String("digest", c.digest))
	return nil
}

func (c *HashJournalCommand) Run(ctx context.Context) error {
	recs, err := appdb.SampleRenameDao.List(ctx, appdb.SampleRenameQuery{Digest: c.digest, Limit: c.limit})
	if err != nil {
		return err
	}
	out := c.stdout()
	for _, rec := range recs {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			time.Unix(rec.CreateTime, 0).Format(time.RFC3339),
			rec.Digest,
			rec.OriginalName,
			rec.Folder,
		)
	}
	if len(recs) == 0 {
		fmt.Fprintln(c.stderr(), "No records found.")
	}
	return nil
}

func (c *HashJournalCommand) PostRun(ctx context.Context) error {
	if !c.opened {
		return nil
	}
	err := appdb.Default().Close()
	appdb.SetDefault(nil)
	c.opened = false
	return err
}

func init() {
	RegisterRunner("hash-journal", func() IRunner { return NewHashJournalCommand() })
}
