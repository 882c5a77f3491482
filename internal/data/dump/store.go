// Package dump writes every fetched grid page to disk and serves the
// pages back for offline replay of a walk.
package dump

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

const pageExt = ".html"

var pageFile = regexp.MustCompile(`^([a-z0-9_-]+)-(\d+)\.html$`)

// Store is a directory of "<grid>-<page>.html" files.
type Store struct {
	dir    string
	logger util.LoggerInterface
}

func New(dir string, logger util.LoggerInterface) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("dump directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dump directory: %w", err)
	}
	return &Store{dir: dir, logger: util.OrNop(logger)}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pagePath(grid string, page int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%03d%s", grid, page, pageExt))
}

// RecordPage renders doc back to HTML and writes it for grid and page.
func (s *Store) RecordPage(grid string, page int, doc *goquery.Document) error {
	html, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	path := s.pagePath(grid, page)
	if err := os.WriteFile(path, []byte(html), 0600); err != nil {
		return err
	}
	s.logger.Debug("page dumped", util.F("grid", grid), util.F("page", page), util.F("path", path))
	return nil
}

// Reset removes earlier dumps of grid so a new walk does not mix with them.
func (s *Store) Reset(grid string) error {
	pages, err := s.Pages(grid)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if err := os.Remove(s.pagePath(grid, p)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Pages lists the dumped page numbers of grid in ascending order.
func (s *Store) Pages(grid string) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var pages []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageFile.FindStringSubmatch(e.Name())
		if m == nil || m[1] != grid {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

// Load parses one dumped page.
func (s *Store) Load(grid string, page int) (*goquery.Document, error) {
	f, err := os.Open(s.pagePath(grid, page))
	if err != nil {
		return nil, fmt.Errorf("no dumped %s page %d: %w", grid, page, err)
	}
	defer f.Close()
	return goquery.NewDocumentFromReader(f)
}

// Replay serves the dumped pages of grid as if they came from the portal:
// Get returns page 1, a postback returns the page its event argument names.
func (s *Store) Replay(grid string) *ReplayFetcher {
	return &ReplayFetcher{store: s, grid: grid}
}

type ReplayFetcher struct {
	store *Store
	grid  string
}

func (r *ReplayFetcher) Get(ctx context.Context, _ string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.store.Load(r.grid, 1)
}

func (r *ReplayFetcher) PostBack(ctx context.Context, _ string, form url.Values) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	arg := form.Get(model.FieldEventArgument)
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "Page$"))
	if err != nil || !strings.HasPrefix(arg, "Page$") {
		return nil, fmt.Errorf("unsupported event argument %q", arg)
	}
	return r.store.Load(r.grid, n)
}

// Fingerprint identifies the current content of every dumped page, so a
// watcher can tell a real change from a rewrite of the same bytes.
func (s *Store) Fingerprint() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && pageFile.MatchString(e.Name()) {
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	return util.FilesFingerprint(paths)
}
