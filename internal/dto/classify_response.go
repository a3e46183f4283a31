package dto

import "binsorter/internal/waste"

// ClassifyResponse is the JSON answer to an upload.
type ClassifyResponse struct {
	waste.Verdict
	Filename       string `json:"filename,omitempty"`
	AnnotatedImage string `json:"annotated_image,omitempty"` // base64 JPEG
	ElapsedMillis  int64  `json:"elapsed_ms"`
}

// BinsResponse is the bin colour guide.
type BinsResponse struct {
	Bins                []waste.GuideEntry `json:"bins"`
	Vocabulary          []waste.ClassLabel `json:"vocabulary"`
	ConfidenceThreshold float64            `json:"confidence_threshold"`
	IoUThreshold        float64            `json:"iou_threshold"`
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
