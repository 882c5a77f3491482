// Package cache keeps the last fetched record sets per account so a report
// can be rendered again without touching the portal.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// SnapshotVersion is bumped whenever the on-disk layout changes.
const SnapshotVersion = 1

type CacheMissReason int

const (
	MissReasonNone CacheMissReason = iota
	MissReasonError
	MissReasonNotFound
	MissReasonVersion
	MissReasonBaseURL
	MissReasonExpired
)

func (r CacheMissReason) String() string {
	switch r {
	case MissReasonNone:
		return "none"
	case MissReasonError:
		return "error"
	case MissReasonNotFound:
		return "not found"
	case MissReasonVersion:
		return "version mismatch"
	case MissReasonBaseURL:
		return "different portal"
	case MissReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Snapshot is everything one run fetched for an account.
type Snapshot struct {
	Version   int                                    `json:"version"`
	Account   string                                 `json:"account"`
	BaseURL   string                                 `json:"base_url"`
	RunID     string                                 `json:"run_id"`
	FetchedAt time.Time                              `json:"fetched_at"`
	Pages     int                                    `json:"pages"`
	Punches   []model.RawPunchRecord                 `json:"punches"`
	Statuses  map[string]model.SubmittedStatusRecord `json:"statuses,omitempty"`
	Warnings  []string                               `json:"warnings,omitempty"`
}

type CacheResult struct {
	Data       *Snapshot
	Found      bool
	MissReason CacheMissReason
}

// Expectation is what a caller requires of a cached snapshot.
type Expectation struct {
	BaseURL string
	// MaxAge of zero accepts any age.
	MaxAge time.Duration
}

type Cache interface {
	Get(account string, want Expectation) CacheResult
	Set(snapshot *Snapshot) error
	Clear() error
	Stats() (memoryCount, fileCount int)
}

type FileCache struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]*Snapshot
	logger      util.LoggerInterface
	now         func() time.Time
}

func NewFileCache(baseDir string, logger util.LoggerInterface) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &FileCache{
		baseDir:     baseDir,
		memoryCache: make(map[string]*Snapshot),
		logger:      util.OrNop(logger),
		now:         time.Now,
	}, nil
}

// fileName maps an account to a file name that is safe on every platform.
func fileName(account string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(account) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_anonymous.json"
	}
	return b.String() + ".json"
}

func (c *FileCache) Path(account string) string {
	return filepath.Join(c.baseDir, fileName(account))
}

func (c *FileCache) Get(account string, want Expectation) CacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if memData, exists := c.memoryCache[account]; exists {
		if reason := c.validate(memData, want); reason == MissReasonNone {
			return CacheResult{Data: memData, Found: true}
		} else {
			return CacheResult{MissReason: reason}
		}
	}

	return c.getFromFile(account, want)
}

func (c *FileCache) getFromFile(account string, want Expectation) CacheResult {
	data, err := os.ReadFile(c.Path(account))
	if err != nil {
		if os.IsNotExist(err) {
			return CacheResult{MissReason: MissReasonNotFound}
		}
		c.logger.Warn("failed to read snapshot", util.F("account", account), util.F("error", err.Error()))
		return CacheResult{MissReason: MissReasonError}
	}

	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("corrupt snapshot", util.F("account", account), util.F("error", err.Error()))
		return CacheResult{MissReason: MissReasonError}
	}

	if reason := c.validate(&snap, want); reason != MissReasonNone {
		return CacheResult{MissReason: reason}
	}

	c.memoryCache[account] = &snap
	return CacheResult{Data: &snap, Found: true}
}

func (c *FileCache) validate(snap *Snapshot, want Expectation) CacheMissReason {
	if snap.Version != SnapshotVersion {
		c.logger.Debug("snapshot invalidated: version changed",
			util.F("cached", snap.Version), util.F("current", SnapshotVersion))
		return MissReasonVersion
	}
	if want.BaseURL != "" && !strings.EqualFold(strings.TrimRight(snap.BaseURL, "/"), strings.TrimRight(want.BaseURL, "/")) {
		c.logger.Debug("snapshot invalidated: portal changed",
			util.F("cached", snap.BaseURL), util.F("current", want.BaseURL))
		return MissReasonBaseURL
	}
	if want.MaxAge > 0 && c.now().Sub(snap.FetchedAt) > want.MaxAge {
		c.logger.Debug("snapshot invalidated: too old", util.F("fetched_at", snap.FetchedAt))
		return MissReasonExpired
	}
	return MissReasonNone
}

// Set writes the snapshot atomically and keeps it in memory.
func (c *FileCache) Set(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("nil snapshot")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot.Version = SnapshotVersion
	data, err := sonic.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := c.Path(snapshot.Account)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	c.memoryCache[snapshot.Account] = snapshot
	c.logger.Debug("snapshot saved", util.F("account", snapshot.Account), util.F("path", path),
		util.F("punches", len(snapshot.Punches)), util.F("statuses", len(snapshot.Statuses)))
	return nil
}

// Clear drops every snapshot, in memory and on disk.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryCache = make(map[string]*Snapshot)

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.baseDir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Stats counts snapshots held in memory and on disk.
func (c *FileCache) Stats() (memoryCount, fileCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	memoryCount = len(c.memoryCache)
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		return memoryCount, 0
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			fileCount++
		}
	}
	return memoryCount, fileCount
}
