package model

import "time"

// Classification is one classified upload as stored in the history.
type Classification struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Source     string    `json:"source"` // "upload" or "cli"
	Status     string    `json:"status"`
	Label      string    `json:"label,omitempty"`
	Confidence float64   `json:"confidence"`
	Bin        string    `json:"bin,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"filepath"`
	FileSize   int64     `json:"filesize"`
}

// Detection is one detected object belonging to a classification.
type Detection struct {
	ID               int64   `json:"id"`
	ClassificationID int64   `json:"classification_id"`
	Label            string  `json:"label"`
	Bin              string  `json:"bin,omitempty"`
	X0               int     `json:"x0"`
	Y0               int     `json:"y0"`
	X1               int     `json:"x1"`
	Y1               int     `json:"y1"`
	Confidence       float64 `json:"confidence"`
}

// HistoryStats contains statistics about stored classifications.
type HistoryStats struct {
	TotalClassifications int            `json:"total_classifications"`
	TotalSizeBytes       int64          `json:"total_size_bytes"`
	PerBin               map[string]int `json:"per_bin"`
	PerStatus            map[string]int `json:"per_status"`
	LabelCounts          map[string]int `json:"label_counts"`
	Labels               []string       `json:"labels"` // every label ever detected
}
