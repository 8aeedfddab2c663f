package app

import (
	"context"

	"github.com/xxxsen/capekit/internal/constant"
	"github.com/xxxsen/capekit/internal/sweep"
)

// NewReportsCleanCommand removes the reports directory of every analysis.
func NewReportsCleanCommand() *SweepCommand {
	return newSweepCommand("reports-clean",
		"Remove the reports directory from every analysis directory",
		func(ctx context.Context, s *sweep.Sweeper) (sweep.Result, error) {
			return s.RemoveSubdir(ctx, constant.ReportsDirName)
		},
	)
}

func init() {
	RegisterRunner("reports-clean", func() IRunner { return NewReportsCleanCommand() })
}
