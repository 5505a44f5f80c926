package schedule

import "sort"

// Record is one media item slated for deletion in a scan.
//
// DaysUntilDeletion and DeletionDate are nil when the retention window is
// unknown. A negative DaysUntilDeletion means the item is already past its
// window and will go on Janitorr's next pass.
type Record struct {
	Title             string `json:"title"`
	AgeDays           int    `json:"age_days"`
	AddedDate         Date   `json:"added_date"`
	DaysUntilDeletion *int   `json:"days_until_deletion"`
	DeletionDate      *Date  `json:"deletion_date"`
}

// Overdue reports whether the record's retention window has already elapsed.
func (r Record) Overdue() bool {
	return r.DaysUntilDeletion != nil && *r.DaysUntilDeletion < 0
}

// Schedule maps a scan date to the records found in that scan. A schedule
// produced by Reader holds at most one scan date.
type Schedule map[Date][]Record

// ScanDate returns the most recent scan date in the schedule.
func (s Schedule) ScanDate() (Date, bool) {
	var latest Date
	found := false
	for d := range s {
		if !found || latest.Before(d) {
			latest, found = d, true
		}
	}
	return latest, found
}

// Records returns all records, ordered by scan date and then discovery order.
func (s Schedule) Records() []Record {
	dates := make([]Date, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var out []Record
	for _, d := range dates {
		out = append(out, s[d]...)
	}
	return out
}

// Len returns the total number of records.
func (s Schedule) Len() int {
	n := 0
	for _, records := range s {
		n += len(records)
	}
	return n
}

// Summary condenses a schedule for dashboards and metrics.
type Summary struct {
	ScanDate     *Date `json:"scan_date"`
	Total        int   `json:"total"`
	Overdue      int   `json:"overdue"`
	Unscheduled  int   `json:"unscheduled"`
	NextDeletion *Date `json:"next_deletion"`
}

// Summarize counts the schedule's records relative to today. Overdue items are
// those whose deletion date is before today. NextDeletion is the earliest
// deletion date on or after today.
func Summarize(s Schedule, today Date) Summary {
	var sum Summary
	if d, ok := s.ScanDate(); ok {
		sum.ScanDate = &d
	}

	for _, r := range s.Records() {
		sum.Total++
		if r.DeletionDate == nil {
			sum.Unscheduled++
			continue
		}
		del := *r.DeletionDate
		if del.Before(today) {
			sum.Overdue++
			continue
		}
		if sum.NextDeletion == nil || del.Before(*sum.NextDeletion) {
			sum.NextDeletion = &del
		}
	}
	return sum
}
