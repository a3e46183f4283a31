package dto

import (
	"encoding/json"
	"time"

	"binsorter/internal/model"
)

// HistoryEntry is one classification as shown in the history list.
type HistoryEntry struct {
	Name       string            `json:"name"`
	Date       time.Time         `json:"date"`
	TimeOfDay  time.Time         `json:"timeOfDay"`
	Status     string            `json:"status"`
	Label      string            `json:"label,omitempty"`
	Confidence float64           `json:"confidence"`
	Bin        string            `json:"bin,omitempty"`
	Objects    []string          `json:"objects"` // every detected label
	Detections []model.Detection `json:"detections"`
}

// MarshalJSON customizes JSON output for HistoryEntry to format date and time-of-day.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	type Alias HistoryEntry
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      h.Date.Format("02-01-2006"),
		TimeOfDay: h.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(h),
	})
}
