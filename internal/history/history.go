// Package history summarises and renders recorded timer phases.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

// DaySummary aggregates the phases completed on one local day.
type DaySummary struct {
	Day    time.Time
	Work   int
	Breaks int
	FocusS int
}

// Lister loads recorded phases.
type Lister interface {
	ListPhases(ctx context.Context, cfg model.HistoryConfig) ([]model.PhaseEvent, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Days []DaySummary
}

// BuildReport loads phases and groups them per day in loc. When cfg.Last is
// positive only the most recent days are kept.
func BuildReport(ctx context.Context, l Lister, cfg model.HistoryConfig, loc *time.Location) (Report, error) {
	events, err := l.ListPhases(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	days := Summarize(events, loc)
	if cfg.Last > 0 && len(days) > cfg.Last {
		days = days[len(days)-cfg.Last:]
	}
	return Report{Days: days}, nil
}

// Summarize groups events by calendar day in loc, oldest first.
func Summarize(events []model.PhaseEvent, loc *time.Location) []DaySummary {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[time.Time]*DaySummary{}
	for _, ev := range events {
		t := ev.EndedAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		sum, ok := byDay[day]
		if !ok {
			sum = &DaySummary{Day: day}
			byDay[day] = sum
		}
		if ev.Phase == model.PhaseWork {
			sum.Work++
			sum.FocusS += ev.DurationS
		} else {
			sum.Breaks++
		}
	}
	days := make([]DaySummary, 0, len(byDay))
	for _, sum := range byDay {
		days = append(days, *sum)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day.Before(days[j].Day)
	})
	return days
}

// Totals sums a set of day summaries.
func Totals(days []DaySummary) DaySummary {
	var total DaySummary
	for _, d := range days {
		total.Work += d.Work
		total.Breaks += d.Breaks
		total.FocusS += d.FocusS
	}
	return total
}
