package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(account string) *Snapshot {
	return &Snapshot{
		Account:   account,
		BaseURL:   "https://ssp.example.com",
		RunID:     "run-1",
		FetchedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Pages:     2,
		Punches: []model.RawPunchRecord{
			{Date: "2024/3/1", TimeRange: "08:30:00~19:50:00"},
			{Date: "2024/3/2", TimeRange: "09:30:00~18:30:00"},
		},
		Statuses: map[string]model.SubmittedStatusRecord{
			"2024/03/01": {Date: "2024/03/01", Status: "已核准", OvertimeMinutes: 100},
		},
	}
}

func TestNewFileCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")

	cache, err := NewFileCache(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, cache.memoryCache)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileCacheInvalidDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("content"), 0644))

	_, err := NewFileCache(filepath.Join(file, "sub"), nil)
	assert.Error(t, err)
}

func TestFileCache_SetAndGet(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir, nil)
	require.NoError(t, err)

	require.NoError(t, cache.Set(sampleSnapshot("alice")))

	// a fresh cache reads it back from disk
	reopened, err := NewFileCache(dir, nil)
	require.NoError(t, err)
	result := reopened.Get("alice", Expectation{BaseURL: "https://ssp.example.com/"})
	require.True(t, result.Found)
	assert.Equal(t, MissReasonNone, result.MissReason)
	assert.Equal(t, SnapshotVersion, result.Data.Version)
	assert.Equal(t, sampleSnapshot("alice").Punches, result.Data.Punches)
	assert.Equal(t, "已核准", result.Data.Statuses["2024/03/01"].Status)
	assert.True(t, result.Data.FetchedAt.Equal(sampleSnapshot("alice").FetchedAt))

	memoryCount, fileCount := reopened.Stats()
	assert.Equal(t, 1, memoryCount)
	assert.Equal(t, 1, fileCount)
}

func TestFileCache_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir, nil)
	require.NoError(t, err)
	require.NoError(t, cache.Set(sampleSnapshot("alice")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice.json", entries[0].Name())
}

func TestFileCache_Misses(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir, nil)
	require.NoError(t, err)
	cache.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, MissReasonNotFound, cache.Get("nobody", Expectation{}).MissReason)

	require.NoError(t, cache.Set(sampleSnapshot("alice")))
	assert.Equal(t, MissReasonBaseURL, cache.Get("alice", Expectation{BaseURL: "https://other.example.com"}).MissReason)
	assert.Equal(t, MissReasonExpired, cache.Get("alice", Expectation{MaxAge: 24 * time.Hour}).MissReason)
	assert.True(t, cache.Get("alice", Expectation{MaxAge: 30 * 24 * time.Hour}).Found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0600))
	assert.Equal(t, MissReasonError, cache.Get("broken", Expectation{}).MissReason)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"version":0,"account":"old"}`), 0600))
	assert.Equal(t, MissReasonVersion, cache.Get("old", Expectation{}).MissReason)
}

func TestFileCache_Clear(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(dir, nil)
	require.NoError(t, err)
	require.NoError(t, cache.Set(sampleSnapshot("alice")))
	require.NoError(t, cache.Set(sampleSnapshot("bob")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0600))

	require.NoError(t, cache.Clear())

	assert.False(t, cache.Get("alice", Expectation{}).Found)
	memoryCount, fileCount := cache.Stats()
	assert.Zero(t, memoryCount)
	assert.Zero(t, fileCount)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestFileCache_SetNil(t *testing.T) {
	cache, err := NewFileCache(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Error(t, cache.Set(nil))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		account, want string
	}{
		{"alice", "alice.json"},
		{"Alice.Wang", "alice.wang.json"},
		{"TW\\a123", "tw_a123.json"},
		{"../etc/passwd", ".._etc_passwd.json"},
		{"", "_anonymous.json"},
		{"王小明", "___.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileName(tt.account), tt.account)
	}
}

func TestCacheMissReason_String(t *testing.T) {
	assert.Equal(t, "expired", MissReasonExpired.String())
	assert.Equal(t, "different portal", MissReasonBaseURL.String())
	assert.Equal(t, "unknown", CacheMissReason(99).String())
}
