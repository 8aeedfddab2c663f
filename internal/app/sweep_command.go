package app

import (
	"context"

	"github.com/xxxsen/capekit/internal/sweep"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type sweepAction func(ctx context.Context, s *sweep.Sweeper) (sweep.Result, error)

// SweepCommand walks the analysis directories under the storage dir and
// applies one cleanup action to each.
type SweepCommand struct {
	streams
	name    string
	desc    string
	action  sweepAction
	baseDir string
	dryRun  bool

	sweeper *sweep.Sweeper
	result  sweep.Result
}

func newSweepCommand(name, desc string, action sweepAction) *SweepCommand {
	return &SweepCommand{name: name, desc: desc, action: action}
}

func (c *SweepCommand) Name() string { return c.name }

func (c *SweepCommand) Desc() string { return c.desc }

func (c *SweepCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "report what would be deleted without deleting")
	f.StringVar(&c.baseDir, "base-dir", "", "analysis storage directory (defaults to config storage_dir)")
}

// PreRun resolves the base directory and refuses to continue when it is missing.
func (c *SweepCommand) PreRun(ctx context.Context) error {
	base := firstNonEmpty(c.baseDir, CurrentConfig().StorageDir)
	c.sweeper = sweep.New(base,
		sweep.WithDryRun(c.dryRun),
		sweep.WithOutput(c.stdout(), c.stderr()),
	)
	if err := c.sweeper.CheckBase(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info(c.name+" begin",
		zap.String("base_dir", base),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

func (c *SweepCommand) Run(ctx context.Context) error {
	res, err := c.action(ctx, c.sweeper)
	c.result = res
	return err
}

func (c *SweepCommand) PostRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info(c.name+" finished",
		zap.Int("visited", c.result.Visited),
		zap.Int("matched", c.result.Matched),
		zap.Int("removed", c.result.Removed),
		zap.Int("failed", c.result.Failed),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

// Result returns the counters of the last Run.
func (c *SweepCommand) Result() sweep.Result { return c.result }
