// Package config assembles run settings from defaults, an optional YAML
// file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/penwyp/go-ssp-overtime/internal/core/overtime"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL  = "https://ssp.teco.com.tw"
	DefaultMaxPages = 10
	DefaultTimeout  = 30 * time.Second
)

type Config struct {
	Portal PortalConfig `yaml:"portal"`
	Policy PolicyConfig `yaml:"policy"`
	Output OutputConfig `yaml:"output"`
}

type PortalConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// StatusPath is the approval grid page; empty skips the status walk.
	StatusPath string        `yaml:"status_path"`
	MaxPages   int           `yaml:"max_pages"`
	Timeout    time.Duration `yaml:"timeout"`
	Insecure   bool          `yaml:"insecure"`
}

// PolicyConfig mirrors overtime.Policy in file-friendly units.
type PolicyConfig struct {
	LunchBreak    int     `yaml:"lunch_break"`
	StandardWork  int     `yaml:"standard_work"`
	RestTime      int     `yaml:"rest_time"`
	StandardStart string  `yaml:"standard_start"`
	MaxHours      float64 `yaml:"max_hours"`
}

type OutputConfig struct {
	Format       string `yaml:"format"`
	XLSXFile     string `yaml:"xlsx_file"`
	Timezone     string `yaml:"timezone"`
	OnlyOvertime bool   `yaml:"only_overtime"`
}

func Default() *Config {
	p := overtime.DefaultPolicy()
	return &Config{
		Portal: PortalConfig{
			BaseURL:  DefaultBaseURL,
			MaxPages: DefaultMaxPages,
			Timeout:  DefaultTimeout,
		},
		Policy: PolicyConfig{
			LunchBreak:    p.LunchBreak,
			StandardWork:  p.StandardWork,
			RestTime:      p.RestTime,
			StandardStart: p.StandardStart.String(),
			MaxHours:      p.MaxOvertime,
		},
		Output: OutputConfig{
			Format:   "table",
			Timezone: "Local",
		},
	}
}

type LoadOptions struct {
	// File is the YAML config path. A missing file is an error only when
	// Required is set.
	File     string
	Required bool
	// EnvFile is a dotenv file; missing is ignored.
	EnvFile string
	// Lookup reads the environment; nil means os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load builds the configuration. CLI flags are applied by the caller on
// top of the result.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		if err := cfg.mergeFile(opts.File); err != nil {
			if !errors.Is(err, os.ErrNotExist) || opts.Required {
				return nil, err
			}
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.str("SSP_BASE_URL", &c.Portal.BaseURL)
	env.str("SSP_USERNAME", &c.Portal.Username)
	env.str("SSP_PASSWORD", &c.Portal.Password)
	env.str("SSP_STATUS_PATH", &c.Portal.StatusPath)
	env.int("SSP_MAX_PAGES", &c.Portal.MaxPages)
	env.duration("SSP_TIMEOUT", &c.Portal.Timeout)
	env.bool("SSP_INSECURE", &c.Portal.Insecure)

	env.int("OT_LUNCH_BREAK", &c.Policy.LunchBreak)
	env.int("OT_STANDARD_WORK", &c.Policy.StandardWork)
	env.int("OT_REST_TIME", &c.Policy.RestTime)
	env.str("OT_STANDARD_START", &c.Policy.StandardStart)
	env.float("OT_MAX_HOURS", &c.Policy.MaxHours)

	return errors.Join(env.errs...)
}

// OvertimePolicy converts the policy section.
func (c *Config) OvertimePolicy() (overtime.Policy, error) {
	start, err := overtime.ParseClock(c.Policy.StandardStart)
	if err != nil {
		return overtime.Policy{}, err
	}
	p := overtime.Policy{
		LunchBreak:    c.Policy.LunchBreak,
		StandardWork:  c.Policy.StandardWork,
		RestTime:      c.Policy.RestTime,
		StandardStart: start,
		MaxOvertime:   c.Policy.MaxHours,
	}
	return p, p.Validate()
}

// Validate checks what a live run needs. Credentials are checked by the
// caller since they may still be prompted for.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Portal.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base URL %q", c.Portal.BaseURL))
	}
	if c.Portal.MaxPages <= 0 {
		errs = append(errs, fmt.Errorf("max pages must be positive, got %d", c.Portal.MaxPages))
	}
	if c.Portal.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Portal.Timeout))
	}
	if c.Portal.StatusPath != "" && !strings.HasPrefix(c.Portal.StatusPath, "/") {
		errs = append(errs, fmt.Errorf("status path %q must start with /", c.Portal.StatusPath))
	}
	if _, err := c.OvertimePolicy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = b
	}
}

// duration accepts Go durations ("45s") or a bare number of seconds.
func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*dst = d
	}
}

// ParseDuration parses "30s"-style durations or plain seconds.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
