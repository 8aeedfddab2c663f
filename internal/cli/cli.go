package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xxxsen/capekit/internal/app"
	"github.com/xxxsen/capekit/internal/constant"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
)

// Execute runs the CLI. An interrupt cancels the command context so walks
// stop before the next entry. Errors are logged here once; cobra only prints
// usage.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logutil.GetLogger(ctx).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           constant.AppName,
		Short:         "Maintain CAPE analysis storage and normalize malware sample folders",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if level, _ := cmd.Flags().GetString(logLevelFlag); level != "" {
				logger.Init("", level, 0, 0, 0, true)
			}
			explicit, _ := cmd.Flags().GetString(configFlag)
			cfg, err := LoadConfig(explicit)
			if err != nil {
				return err
			}
			app.SetConfig(cfg)
			return nil
		},
	}
	rootCmd.PersistentFlags().String(configFlag, "", "config file (json or yaml)")
	rootCmd.PersistentFlags().String(logLevelFlag, "", "log level, e.g. debug, info, warn")

	for _, name := range app.RunnerList() {
		rootCmd.AddCommand(newRunnerCommand(app.MustResolveRunner(name)))
	}
	return rootCmd
}

func newRunnerCommand(runner app.IRunner) *cobra.Command {
	subcmd := &cobra.Command{
		Use:   runner.Name(),
		Short: runner.Desc(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := commandContext(cmd)
			runner.SetIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err := runner.PreRun(ctx); err != nil {
				return err
			}
			runErr := runner.Run(ctx)
			if err := runner.PostRun(ctx); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}
	if ar, ok := runner.(app.IArgsRunner); ok {
		subcmd.Use = ar.Usage()
		subcmd.Args = func(cmd *cobra.Command, args []string) error {
			return ar.SetArgs(args)
		}
	}
	runner.Init(subcmd.Flags())
	return subcmd
}
