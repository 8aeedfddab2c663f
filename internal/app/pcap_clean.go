package app

import (
	"context"

	"github.com/xxxsen/capekit/internal/constant"
	"github.com/xxxsen/capekit/internal/sweep"
)

// NewPcapCleanCommand deletes the network capture kept with every analysis.
func NewPcapCleanCommand() *SweepCommand {
	return newSweepCommand("pcap-clean",
		"Delete dump.pcap from every analysis directory",
		func(ctx context.Context, s *sweep.Sweeper) (sweep.Result, error) {
			return s.RemoveFile(ctx, constant.PcapFileName)
		},
	)
}

func init() {
	RegisterRunner("pcap-clean", func() IRunner { return NewPcapCleanCommand() })
}
