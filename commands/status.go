package commands

import (
	"github.com/penwyp/go-ssp-overtime/internal/analyzer"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List submitted overtime and its approval status",
	Long: `Sign in and page through the overtime approval grid only. Needs the
approval page path (--status-path or SSP_STATUS_PATH).

Examples:
  go-ssp-overtime status --status-path /FW21001Z.aspx
  go-ssp-overtime status -o csv > approvals.csv`,
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger, closeLogger := newLogger()
	defer closeLogger()

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := resolveCredentials(cfg, cmd.ErrOrStderr()); err != nil {
		return err
	}
	acfg, err := analyzerConfig(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	a, err := analyzer.New(acfg, logger)
	if err != nil {
		return err
	}
	statuses, err := a.Statuses(cmd.Context())
	if err != nil {
		return err
	}
	return a.RenderStatuses(statuses)
}
