package analyzer

import (
	"context"
	"fmt"
	"sort"

	"github.com/penwyp/go-ssp-overtime/internal/core/model"
	"github.com/penwyp/go-ssp-overtime/internal/data/extractor"
	"github.com/penwyp/go-ssp-overtime/internal/data/pager"
	"github.com/penwyp/go-ssp-overtime/internal/presentation/formatter"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// Statuses signs in and walks only the approval grid. Records come back
// most recent first. A walk error with records in hand is logged and the
// partial list returned.
func (a *Analyzer) Statuses(ctx context.Context) ([]model.SubmittedStatusRecord, error) {
	if a.config.StatusPath == "" {
		return nil, fmt.Errorf("no status page configured (set --status-path or SSP_STATUS_PATH)")
	}
	ctx = a.runContext(ctx)
	session, err := a.dial()
	if err != nil {
		return nil, err
	}
	if err := session.Login(ctx, a.config.Username, a.config.Password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	p := pager.New(session, extractor.StatusGrid, pager.Config{
		Path:     a.config.StatusPath,
		MaxPages: a.config.MaxPages,
	}, a.logger)
	result, err := p.WalkStatus(ctx)
	if err != nil {
		if len(result.Records) == 0 {
			return nil, err
		}
		a.logger.Warn("status walk incomplete", util.F("error", err.Error()), util.F("records", len(result.Records)))
	}
	return SortStatuses(result.Records), nil
}

// SortStatuses flattens the date lookup, most recent first. Dates compare
// in zero-padded form.
func SortStatuses(records map[string]model.SubmittedStatusRecord) []model.SubmittedStatusRecord {
	out := make([]model.SubmittedStatusRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := model.NormalizeDate(out[i].Date), model.NormalizeDate(out[j].Date)
		if di != dj {
			return di > dj
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// RenderStatuses writes approval records in the configured format.
func (a *Analyzer) RenderStatuses(statuses []model.SubmittedStatusRecord) error {
	switch a.config.OutputFormat {
	case "", "table":
		return formatter.NewTableFormatter().FormatStatuses(a.config.Output, statuses)
	case "json":
		return formatter.NewJSONFormatter().FormatStatuses(a.config.Output, statuses)
	case "csv":
		return formatter.NewCSVFormatter().FormatStatuses(a.config.Output, statuses)
	default:
		return fmt.Errorf("output format %q is not supported for status listings", a.config.OutputFormat)
	}
}
