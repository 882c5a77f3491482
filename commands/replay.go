package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/analyzer"
	"github.com/penwyp/go-ssp-overtime/internal/data/dump"
	"github.com/penwyp/go-ssp-overtime/internal/util"
	"github.com/spf13/cobra"
)

var (
	replayDir      string
	replayWatch    bool
	replayDebounce = 300 * time.Millisecond

	replayCmd = &cobra.Command{
		Use:   "replay --dir DIR",
		Short: "Rebuild the report from pages saved with --dump-dir",
		Long: `Run the grid extraction and overtime calculation over pages saved by an
earlier --dump-dir run, without contacting the portal. With --watch the
report is rebuilt whenever a page file in DIR changes.

Examples:
  go-ssp-overtime replay --dir ./pages
  go-ssp-overtime replay --dir ./pages --watch --debug`,
		SilenceUsage: true,
		RunE:         runReplay,
	}
)

func init() {
	replayCmd.Flags().StringVar(&replayDir, "dir", "", "Directory of dumped pages")
	replayCmd.Flags().BoolVar(&replayWatch, "watch", false, "Rebuild when page files change")
	replayCmd.Flags().StringVar(&xlsxFile, "xlsx-file", "", "xlsx output path (default reports/overtime_<time>.xlsx)")
	replayCmd.Flags().BoolVar(&onlyOvertime, "only-overtime", false, "List only days with overtime")
	_ = replayCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	logger, closeLogger := newLogger()
	defer closeLogger()

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	acfg, err := analyzerConfig(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	acfg.ReplayDir = expandPath(replayDir)

	render := func() error {
		a, err := analyzer.New(acfg, logger)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	}

	if err := render(); err != nil && !replayWatch {
		return err
	} else if err != nil {
		logger.Warn("replay failed", util.F("error", err.Error()))
	}
	if !replayWatch {
		return nil
	}
	return watchReplay(cmd.Context(), acfg.ReplayDir, logger, render)
}

// watchReplay calls render after each burst of page changes until ctx ends.
// Bursts that leave the page content as it was are ignored.
func watchReplay(ctx context.Context, dir string, logger util.LoggerInterface, render func() error) error {
	store, err := dump.New(dir, logger)
	if err != nil {
		return err
	}
	watcher, err := dump.NewWatcher(dir, logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer watcher.Close()
	logger.Info("watching for page changes", util.F("dir", dir))

	last, _ := store.Fingerprint()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			logger.Debug("page changed", util.F("path", ev.Path), util.F("op", ev.Operation))
			pending = time.After(replayDebounce)
		case <-pending:
			pending = nil
			current, err := store.Fingerprint()
			if err == nil && current == last {
				logger.Debug("pages unchanged", util.F("fingerprint", current))
				continue
			}
			last = current
			if err := render(); err != nil {
				logger.Warn("replay failed", util.F("error", err.Error()))
			}
		}
	}
}
