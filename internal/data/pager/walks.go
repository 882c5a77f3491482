package pager

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/data/dedup"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// AttendanceResult is the deduplicated punch history gathered by a walk.
type AttendanceResult struct {
	Records []model.RawPunchRecord
	Pages   int
}

// StatusResult maps each date to the last approval row seen for it.
type StatusResult struct {
	Records map[string]model.SubmittedStatusRecord
	Pages   int
}

// WalkAttendance follows the grid's "next page" links until there is none
// or the page budget is spent. A page that adds nothing new does not stop
// the walk. On error the result holds every record gathered before it.
func (p *Pager) WalkAttendance(ctx context.Context) (AttendanceResult, error) {
	set := dedup.New[model.RawPunchRecord]()

	visit := func(doc *goquery.Document, page int) {
		ex := p.extractor.Records(doc)
		if !ex.Found() {
			p.logMissingGrid(page, ex.Candidates)
		}
		for _, r := range ex.Records {
			if set.Has(r.Key()) {
				p.logger.Debug("duplicate row", util.F("page", page), util.F("key", r.Key()))
			}
		}
		added := set.Merge(ex.Records)
		if added == 0 {
			p.logger.Warn("page added no new records",
				util.F("page", page), util.F("rows", len(ex.Records)))
		} else {
			p.logger.Info("page extracted",
				util.F("page", page), util.F("rows", len(ex.Records)),
				util.F("added", added), util.F("matcher", ex.Matcher))
		}
	}
	next := func(doc *goquery.Document, page int) bool {
		return p.extractor.HasNext(doc, page)
	}

	pages, err := p.walk(ctx, visit, next)
	result := AttendanceResult{Records: set.Items(), Pages: pages}
	p.logger.Info("attendance walk finished",
		util.F("pages", pages), util.F("records", len(result.Records)))
	return result, err
}

// WalkStatus pages through the approval grid while the pager shows a
// higher page number. The page count is read again on every page since the
// pager only shows a window of links.
func (p *Pager) WalkStatus(ctx context.Context) (StatusResult, error) {
	records := make(map[string]model.SubmittedStatusRecord)

	visit := func(doc *goquery.Document, page int) {
		ex := p.extractor.Statuses(doc)
		if !ex.Found() {
			p.logMissingGrid(page, ex.Candidates)
			return
		}
		for _, r := range ex.Records {
			records[r.Key()] = r
		}
		p.logger.Info("status page extracted",
			util.F("page", page), util.F("rows", len(ex.Records)), util.F("skipped", ex.Skipped))
	}
	next := func(doc *goquery.Document, page int) bool {
		total := p.extractor.PageCount(doc)
		p.logger.Debug("status page count", util.F("page", page), util.F("total", total))
		return page < total
	}

	pages, err := p.walk(ctx, visit, next)
	p.logger.Info("status walk finished", util.F("pages", pages), util.F("records", len(records)))
	return StatusResult{Records: records, Pages: pages}, err
}
