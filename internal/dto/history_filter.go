// HistoryFilters describe user-provided filters to narrow the history list.
package dto

import "time"

type HistoryFilters struct {
	Bin        string
	Label      string
	Status     string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
