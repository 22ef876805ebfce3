// Package schedule computes the live now/next view over agenda items.
package schedule

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/gatherly/companion/internal/model"
	"github.com/gatherly/companion/internal/transform"
)

// NowNext is the live schedule view at a point in time.
type NowNext struct {
	Current []model.AgendaItem `json:"current"`
	Next    []model.AgendaItem `json:"next"`
	AsOf    time.Time          `json:"as_of"`
}

var sessionLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 3:04 PM",
}

func sessionTime(date, clock string, loc *time.Location) (time.Time, error) {
	if date == "" || clock == "" {
		return time.Time{}, eris.New("schedule: missing date or time")
	}
	raw := date + " " + clock
	for _, layout := range sessionLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, eris.Errorf("schedule: unparseable session time %q", raw)
}

// Resolve returns the sessions in progress at now and the sessions in the
// next upcoming start slot. Items without a parseable start time are
// skipped; a session with no end time is treated as one hour long.
func Resolve(items []model.AgendaItem, now time.Time) NowNext {
	out := NowNext{
		Current: []model.AgendaItem{},
		Next:    []model.AgendaItem{},
		AsOf:    now,
	}

	var nextStart time.Time
	var upcoming []model.AgendaItem

	for _, item := range transform.FilterActiveAgendaItems(items) {
		start, err := sessionTime(item.Date, item.StartTime, now.Location())
		if err != nil {
			continue
		}
		end, err := sessionTime(item.Date, item.EndTime, now.Location())
		if err != nil || !end.After(start) {
			end = start.Add(time.Hour)
		}

		switch {
		case !start.After(now) && end.After(now):
			out.Current = append(out.Current, item)
		case start.After(now):
			if nextStart.IsZero() || start.Before(nextStart) {
				nextStart = start
				upcoming = upcoming[:0]
			}
			if start.Equal(nextStart) {
				upcoming = append(upcoming, item)
			}
		}
	}

	out.Next = append(out.Next, upcoming...)
	return out
}
