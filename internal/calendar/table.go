package calendar

import (
	"fmt"
	"time"
)

// maxScanDays bounds the previous/next session search. A year of lookahead is
// far beyond any real exchange closure.
const maxScanDays = 370

// TableSource derives sessions from weekdays minus a holiday table, which
// matches mainland A-share behavior (no weekend sessions, exchange holidays
// announced as explicit dates).
type TableSource struct {
	holidays map[string]struct{}
}

// NewTableSource builds a TableSource from "2006-01-02" holiday dates.
func NewTableSource(holidays []string) *TableSource {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return &TableSource{holidays: set}
}

func (s *TableSource) Name() string { return "table" }

func (s *TableSource) IsSession(date time.Time) (bool, error) {
	d := DateOf(date)
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}
	_, holiday := s.holidays[FormatDate(d)]
	return !holiday, nil
}

func (s *TableSource) PreviousSession(date time.Time) (time.Time, error) {
	return s.scan(date, -1)
}

func (s *TableSource) NextSession(date time.Time) (time.Time, error) {
	return s.scan(date, 1)
}

func (s *TableSource) scan(date time.Time, step int) (time.Time, error) {
	d := DateOf(date)
	for i := 0; i < maxScanDays; i++ {
		d = d.AddDate(0, 0, step)
		if ok, _ := s.IsSession(d); ok {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("no session within %d days of %s", maxScanDays, FormatDate(date))
}
