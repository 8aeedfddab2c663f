package app

import (
	"context"

	"github.com/xxxsen/capekit/internal/constant"
	"github.com/xxxsen/capekit/internal/sweep"
)

// NewFilesCleanCommand empties the files and selfextracted directories of
// every analysis, keeping the directories themselves.
func NewFilesCleanCommand() *SweepCommand {
	return newSweepCommand("files-clean",
		"Empty the files and selfextracted directories of every analysis directory",
		func(ctx context.Context, s *sweep.Sweeper) (sweep.Result, error) {
			return s.ClearSubdirs(ctx, constant.FilesDirName, constant.SelfExtractedDirName)
		},
	)
}

func init() {
	RegisterRunner("files-clean", func() IRunner { return NewFilesCleanCommand() })
}
