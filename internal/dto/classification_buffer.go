package dto

import "binsorter/internal/waste"

// BufferedClassification holds an annotated image and its verdict before flushing to disk.
type BufferedClassification struct {
	Timestamp string
	Source    string
	Verdict   waste.Verdict
	Data      []byte
}
