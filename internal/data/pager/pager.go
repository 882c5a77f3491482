// Package pager walks a paginated server-rendered grid one postback at a
// time, carrying the page's continuation token into the next request.
package pager

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/data/extractor"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// DefaultMaxPages bounds a walk when no budget is configured.
const DefaultMaxPages = 10

// ErrMissingToken aborts a walk whose current page cannot be posted back.
var ErrMissingToken = extractor.ErrMissingToken

// Fetcher is the session handle a walk runs on. Each call returns a fresh
// document for the response.
type Fetcher interface {
	Get(ctx context.Context, path string) (*goquery.Document, error)
	PostBack(ctx context.Context, path string, form url.Values) (*goquery.Document, error)
}

// PageRecorder receives every fetched page. Errors are logged, not fatal.
type PageRecorder interface {
	RecordPage(grid string, page int, doc *goquery.Document) error
}

// WalkError reports the page a walk was trying to reach when it stopped.
type WalkError struct {
	Grid string
	Page int
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("%s walk aborted at page %d: %v", e.Grid, e.Page, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

type state string

const (
	stateInit         state = "init"
	stateFetching     state = "fetching"
	stateExtracting   state = "extracting"
	stateCheckingNext state = "checking-next"
	stateRequesting   state = "requesting"
	stateDone         state = "done"
)

// walkState is private to one walk.
type walkState struct {
	page    int
	fetched int
	doc     *goquery.Document
}

type Config struct {
	// Path of the page hosting the grid, relative to the session's base URL.
	Path     string
	MaxPages int
	Recorder PageRecorder
}

type Pager struct {
	fetcher   Fetcher
	extractor *extractor.Extractor
	config    Config
	logger    util.LoggerInterface
}

func New(fetcher Fetcher, layout extractor.GridLayout, config Config, logger util.LoggerInterface) *Pager {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultMaxPages
	}
	logger = util.OrNop(logger)
	return &Pager{
		fetcher:   fetcher,
		extractor: extractor.New(layout, logger),
		config:    config,
		logger:    logger.With(util.F("grid", layout.Name)),
	}
}

// walk drives the state machine. visit extracts and merges one page;
// next decides whether page n has a successor. It returns the number of
// pages fetched; on error the caller keeps whatever visit accumulated.
func (p *Pager) walk(ctx context.Context, visit func(doc *goquery.Document, page int), next func(doc *goquery.Document, page int) bool) (int, error) {
	layout := p.extractor.Layout()
	st := &walkState{page: 1}

	p.enter(st, stateInit)
	p.enter(st, stateFetching)
	doc, err := p.fetcher.Get(ctx, p.config.Path)
	if err != nil {
		return st.fetched, &WalkError{Grid: layout.Name, Page: st.page, Err: err}
	}

	for {
		st.fetched++
		st.doc = doc
		p.record(st)

		p.enter(st, stateExtracting)
		visit(st.doc, st.page)

		p.enter(st, stateCheckingNext)
		if st.page >= p.config.MaxPages {
			p.logger.Info("page budget reached", util.F("max_pages", p.config.MaxPages))
			break
		}
		if !next(st.doc, st.page) {
			break
		}

		p.enter(st, stateRequesting)
		token, err := extractor.Token(st.doc)
		if err != nil {
			return st.fetched, &WalkError{Grid: layout.Name, Page: st.page + 1, Err: err}
		}
		form, err := token.PostBackForm(layout.EventTarget, "Page$"+strconv.Itoa(st.page+1))
		if err != nil {
			return st.fetched, &WalkError{Grid: layout.Name, Page: st.page + 1, Err: err}
		}

		st.page++
		p.enter(st, stateFetching)
		doc, err = p.fetcher.PostBack(ctx, p.config.Path, form)
		if err != nil {
			return st.fetched, &WalkError{Grid: layout.Name, Page: st.page, Err: err}
		}
	}

	p.enter(st, stateDone)
	return st.fetched, nil
}

func (p *Pager) enter(st *walkState, s state) {
	p.logger.Debug("walk state", util.F("state", string(s)), util.F("page", st.page), util.F("fetched", st.fetched))
}

func (p *Pager) record(st *walkState) {
	if p.config.Recorder == nil {
		return
	}
	if err := p.config.Recorder.RecordPage(p.extractor.Layout().Name, st.page, st.doc); err != nil {
		p.logger.Warn("failed to record page", util.F("page", st.page), util.F("error", err.Error()))
	}
}

func (p *Pager) logMissingGrid(page int, candidates []extractor.TableInfo) {
	p.logger.Warn("grid not found on page", util.F("page", page), util.F("tables", len(candidates)))
	for i, c := range candidates {
		p.logger.Debug("table seen", util.F("n", i+1), util.F("table", c.String()))
	}
}
