package analyzer

import (
	"strings"
	"time"

	"github.com/penwyp/go-ssp-overtime/internal/util"
)

type phaseTiming struct {
	name     string
	duration time.Duration
}

// runStats times the phases of one run for the debug log.
type runStats struct {
	start  time.Time
	phases []phaseTiming
}

func newRunStats() *runStats {
	return &runStats{start: time.Now()}
}

func (s *runStats) phase(name string, fn func()) {
	start := time.Now()
	fn()
	s.phases = append(s.phases, phaseTiming{name: name, duration: time.Since(start)})
}

func (s *runStats) summary() string {
	parts := make([]string, len(s.phases))
	for i, p := range s.phases {
		parts[i] = p.name + ":" + util.FormatDuration(p.duration)
	}
	return strings.Join(parts, " ")
}

func (s *runStats) log(logger util.LoggerInterface, punches, rows int) {
	for i, p := range s.phases {
		logger.Debug("phase finished", util.F("phase", i+1), util.F("name", p.name), util.F("duration", p.duration.String()))
	}
	logger.Info("report ready",
		util.F("punches", punches), util.F("rows", rows),
		util.F("total", util.FormatDuration(time.Since(s.start))), util.F("phases", s.summary()))
}
