package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/analyzer"
	"github.com/penwyp/go-ssp-overtime/internal/config"
	"github.com/penwyp/go-ssp-overtime/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	// Logging related
	debug     bool
	logFormat string

	// Configuration sources
	configFile string
	envFile    string

	// Portal connection
	baseURL    string
	username   string
	statusPath string
	maxPages   int
	timeout    time.Duration
	insecure   bool

	// Output related
	outputFormat string
	xlsxFile     string
	onlyOvertime bool
	noStatus     bool
	timezone     string

	// Operator tooling
	dumpDir string
	offline bool
	maxAge  time.Duration
	reset   bool

	rootCmd = &cobra.Command{
		Use:   "go-ssp-overtime [flags]",
		Short: "Overtime report from the SSP attendance portal",
		Long: `go-ssp-overtime signs in to the self-service portal, pages through the
attendance grid and the overtime approval grid, and reports the overtime
worked each day.

Settings come from defaults, then ~/.go-ssp-overtime/config.yaml, then a
.env file, then SSP_* / OT_* environment variables, then flags.

Examples:
  go-ssp-overtime --username E12345                   # Prompt for the password, print a table
  go-ssp-overtime -o summary                          # Statistics only
  go-ssp-overtime -o xlsx --xlsx-file march.xlsx      # Spreadsheet export
  go-ssp-overtime --only-overtime --max-pages 3       # Recent overtime days only
  go-ssp-overtime --offline -o json                   # Re-render the last fetched data
  go-ssp-overtime --dump-dir ./pages --debug          # Keep every fetched page for replay`,
		SilenceUsage: true,
		RunE:         runReport,
	}
)

const defaultConfigFile = "~/.go-ssp-overtime/config.yaml"

// Locations under the user's home; tests point them elsewhere.
var (
	logFilePath = "~/.go-ssp-overtime/logs/app.log"
	cacheDir    = "~/.go-ssp-overtime/cache"
)

func init() {
	pf := rootCmd.PersistentFlags()

	// Configuration sources
	pf.StringVar(&configFile, "config", defaultConfigFile, "YAML config file")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with SSP_* / OT_* variables")

	// Portal connection
	pf.StringVar(&baseURL, "base-url", config.DefaultBaseURL, "Portal base URL")
	pf.StringVarP(&username, "username", "u", "", "Portal account")
	pf.StringVar(&statusPath, "status-path", "", "Path of the overtime approval page (empty skips approval status)")
	pf.IntVar(&maxPages, "max-pages", config.DefaultMaxPages, "Maximum pages fetched per grid")
	pf.DurationVar(&timeout, "timeout", config.DefaultTimeout, "Per-request timeout")
	pf.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")

	// Output configuration
	pf.StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json, csv, summary, xlsx)")
	pf.StringVar(&timezone, "timezone", "Local", "Timezone for report timestamps (e.g., Asia/Taipei, UTC)")

	// System and debugging
	pf.BoolVar(&debug, "debug", false, "Enable debug logging to the console")
	pf.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	f := rootCmd.Flags()
	f.StringVar(&xlsxFile, "xlsx-file", "", "xlsx output path (default reports/overtime_<time>.xlsx)")
	f.BoolVar(&onlyOvertime, "only-overtime", false, "List only days with overtime")
	f.BoolVar(&noStatus, "no-status", false, "Skip the approval status walk")
	f.StringVar(&dumpDir, "dump-dir", "", "Write every fetched grid page to this directory")
	f.BoolVar(&offline, "offline", false, "Render the last cached data without contacting the portal")
	f.DurationVar(&maxAge, "max-age", 0, "With --offline, refuse cached data older than this (0 accepts any age)")
	f.BoolVarP(&reset, "reset", "r", false, "Clear the data cache before running")
}

func runReport(cmd *cobra.Command, args []string) error {
	logger, closeLogger := newLogger()
	defer closeLogger()

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if !offline {
		if err := resolveCredentials(cfg, cmd.ErrOrStderr()); err != nil {
			return err
		}
	} else if cfg.Portal.Username == "" {
		return fmt.Errorf("--offline needs --username to find the cached data")
	}

	acfg, err := analyzerConfig(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	acfg.DumpDir = dumpDir
	acfg.Offline = offline
	acfg.MaxAge = maxAge
	acfg.Reset = reset

	a, err := analyzer.New(acfg, logger)
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

// loadConfig merges the config file, env file and environment, then the
// flags the user actually set.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		File:     expandPath(configFile),
		Required: flags.Changed("config"),
		EnvFile:  envFile,
	})
	if err != nil {
		return nil, err
	}
	applyFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("base-url") {
		cfg.Portal.BaseURL = baseURL
	}
	if flags.Changed("username") {
		cfg.Portal.Username = username
	}
	if flags.Changed("status-path") {
		cfg.Portal.StatusPath = statusPath
	}
	if flags.Changed("max-pages") {
		cfg.Portal.MaxPages = maxPages
	}
	if flags.Changed("timeout") {
		cfg.Portal.Timeout = timeout
	}
	if flags.Changed("insecure") {
		cfg.Portal.Insecure = insecure
	}
	if flags.Changed("output") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("timezone") {
		cfg.Output.Timezone = timezone
	}
	if flags.Lookup("xlsx-file") != nil && flags.Changed("xlsx-file") {
		cfg.Output.XLSXFile = xlsxFile
	}
	if flags.Lookup("only-overtime") != nil && flags.Changed("only-overtime") {
		cfg.Output.OnlyOvertime = onlyOvertime
	}
}

// passwordReader reads a password without echo; replaced in tests.
var passwordReader = func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password required: set SSP_PASSWORD or run from a terminal")
	}
	b, err := term.ReadPassword(fd)
	return string(b), err
}

func resolveCredentials(cfg *config.Config, prompt io.Writer) error {
	if cfg.Portal.Username == "" {
		return fmt.Errorf("username required: use --username or SSP_USERNAME")
	}
	if cfg.Portal.Password != "" {
		return nil
	}
	fmt.Fprintf(prompt, "Password for %s: ", cfg.Portal.Username)
	password, err := passwordReader()
	fmt.Fprintln(prompt)
	if err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("empty password")
	}
	cfg.Portal.Password = password
	return nil
}

func analyzerConfig(cfg *config.Config, out io.Writer) (*analyzer.Config, error) {
	policy, err := cfg.OvertimePolicy()
	if err != nil {
		return nil, err
	}
	dir := expandPath(cacheDir)
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &analyzer.Config{
		BaseURL:      cfg.Portal.BaseURL,
		Username:     cfg.Portal.Username,
		Password:     cfg.Portal.Password,
		StatusPath:   cfg.Portal.StatusPath,
		MaxPages:     cfg.Portal.MaxPages,
		Timeout:      cfg.Portal.Timeout,
		Insecure:     cfg.Portal.Insecure,
		Policy:       policy,
		OutputFormat: cfg.Output.Format,
		XLSXFile:     cfg.Output.XLSXFile,
		OnlyOvertime: cfg.Output.OnlyOvertime,
		NoStatus:     noStatus,
		Timezone:     cfg.Output.Timezone,
		CacheDir:     dir,
		Output:       out,
	}, nil
}

// newLogger writes to the log file, and to stderr as well with --debug.
func newLogger() (util.LoggerInterface, func()) {
	level := "info"
	if debug {
		level = "debug"
	}
	format := util.ParseLogFormat(logFormat)

	var outputs []util.Output
	if file, err := util.NewFileOutput(expandPath(logFilePath), format); err == nil {
		outputs = append(outputs, file)
	} else if !debug {
		fmt.Fprintf(os.Stderr, "warning: log file unavailable: %v\n", err)
	}
	if debug {
		outputs = append(outputs, util.NewConsoleOutput(os.Stderr, format))
	}

	logger := util.NewLogger(level, outputs...)
	return logger, func() { logger.Close() }
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
